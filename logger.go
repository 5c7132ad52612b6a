// Package vestig is the root facade: the Logger core (spec §4.10) wired to
// the sanitizer, sampler, deduplicator and transport subsystems, plus
// re-exports of the tracing/context/error-serialization surface so callers
// need only import this one package for the common path (mirrors the
// teacher's root ddtrace package sitting above tracer/ext/internal).
package vestig

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"weak"

	"github.com/Arakiss/vestig/internal/asynccontext"
	"github.com/Arakiss/vestig/internal/dedup"
	"github.com/Arakiss/vestig/internal/runtimeprobe"
	"github.com/Arakiss/vestig/level"
	"github.com/Arakiss/vestig/record"
	"github.com/Arakiss/vestig/sample"
	"github.com/Arakiss/vestig/sanitize"
	"github.com/Arakiss/vestig/transport"
)

// ConfigError is raised at construction or AddTransport time for
// configuration mistakes the library refuses to silently work around
// (spec §7 "Configuration error").
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "vestig: configuration error: " + e.Reason }

// Logger is the library's central type. Safe for concurrent use; level and
// enabled toggles are scalar atomics whose publication timing is
// intentionally loose (spec §5 "Shared-resource policy"), while the
// transport registry is guarded by its own mutex since addTransport/
// removeTransport documented as not safe to race with log.
type Logger struct {
	namespace string

	lvl     atomic.Int32
	enabled atomic.Bool

	structured bool
	colors     bool

	contextMu     sync.RWMutex
	staticContext record.CorrelationContext

	sanitizeEnabled atomic.Bool
	sanitizeConfig  sanitize.Config

	sampler       sample.Sampler
	dd            *dedup.Deduplicator
	dedupWindowMs int64
	sweepStopCh   chan struct{}

	transportsMu sync.RWMutex
	transports   []transport.Transport

	parent      *Logger
	childrenMu  sync.Mutex
	children    map[string]weak.Pointer[Logger]
}

func validateConfig(cfg config) error {
	seen := make(map[string]bool, len(cfg.transports))
	for _, t := range cfg.transports {
		if seen[t.Name()] {
			return &ConfigError{Reason: fmt.Sprintf("duplicate transport name %q", t.Name())}
		}
		seen[t.Name()] = true
	}
	return nil
}

func defaultConsoleTransport(cfg config) transport.Transport {
	return transport.NewConsole(transport.ConsoleOptions{
		Config:     transport.Config{Name: "console", Enabled: true},
		Structured: cfg.structured,
		Colors:     cfg.colors,
	})
}

func newLoggerFromConfig(cfg config) *Logger {
	l := &Logger{
		namespace:     cfg.namespace,
		structured:    cfg.structured,
		colors:        cfg.colors,
		staticContext: cfg.staticContext.Clone(),
		sanitizeConfig: cfg.sanitizeConfig,
		sampler:       cfg.sampler,
		dd:            dedup.New(cfg.dedupConfig),
		dedupWindowMs: cfg.dedupConfig.WindowMs,
		transports:    append([]transport.Transport(nil), cfg.transports...),
		children:      make(map[string]weak.Pointer[Logger]),
	}
	l.lvl.Store(int32(cfg.level))
	l.enabled.Store(cfg.enabled)
	l.sanitizeEnabled.Store(cfg.sanitizeEnabled)
	l.startDedupSweep()
	return l
}

// startDedupSweep launches the background sweep that evicts dedup entries
// whose window elapsed with nothing to summarize (spec §4.5), at the
// documented interval of 2×windowMs. A no-op when deduplication is disabled
// or the window is non-positive.
func (l *Logger) startDedupSweep() {
	if l.dd == nil || !l.dd.Config().Enabled || l.dedupWindowMs <= 0 {
		return
	}
	stop := make(chan struct{})
	l.sweepStopCh = stop
	interval := time.Duration(l.dedupWindowMs) * 2 * time.Millisecond
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.dd.Sweep()
			case <-stop:
				return
			}
		}
	}()
}

// CreateLogger builds a Logger from defaults, environment variables (spec
// §6 table), then the supplied options, in that precedence order. A
// console transport is installed if none was configured.
func CreateLogger(opts ...Option) (*Logger, error) {
	cfg := defaultConfig()
	cfg = applyEnv(cfg)
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(cfg.transports) == 0 {
		cfg.transports = []transport.Transport{defaultConsoleTransport(cfg)}
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return newLoggerFromConfig(cfg), nil
}

// CreateLoggerAsync additionally runs every configured transport's Init.
func CreateLoggerAsync(opts ...Option) (*Logger, error) {
	l, err := CreateLogger(opts...)
	if err != nil {
		return nil, err
	}
	for _, t := range l.snapshotTransports() {
		if err := t.Init(); err != nil {
			return nil, fmt.Errorf("vestig: transport %q init: %w", t.Name(), err)
		}
	}
	return l, nil
}

func (l *Logger) Namespace() string { return l.namespace }

func (l *Logger) SetLevel(lv level.Level) { l.lvl.Store(int32(lv)) }
func (l *Logger) GetLevel() level.Level   { return level.Level(l.lvl.Load()) }
func (l *Logger) Enable()                 { l.enabled.Store(true) }
func (l *Logger) Disable()                { l.enabled.Store(false) }
func (l *Logger) IsEnabled() bool         { return l.enabled.Load() }

// Trace logs at trace level.
func (l *Logger) Trace(ctx context.Context, args ...interface{}) { l.log(ctx, level.Trace, args) }

// Debug logs at debug level.
func (l *Logger) Debug(ctx context.Context, args ...interface{}) { l.log(ctx, level.Debug, args) }

// Info logs at info level.
func (l *Logger) Info(ctx context.Context, args ...interface{}) { l.log(ctx, level.Info, args) }

// Warn logs at warn level.
func (l *Logger) Warn(ctx context.Context, args ...interface{}) { l.log(ctx, level.Warn, args) }

// Error logs at error level.
func (l *Logger) Error(ctx context.Context, args ...interface{}) { l.log(ctx, level.Error, args) }

func (l *Logger) snapshotStaticContext() record.CorrelationContext {
	l.contextMu.RLock()
	defer l.contextMu.RUnlock()
	return l.staticContext.Clone()
}

func mergeRecordContext(static record.CorrelationContext, async asynccontext.CorrelationContext) record.CorrelationContext {
	if len(static) == 0 && len(async) == 0 {
		return nil
	}
	out := make(record.CorrelationContext, len(static)+len(async))
	for k, v := range static {
		out[k] = v
	}
	for k, v := range async {
		out[k] = v
	}
	return out
}

// log implements spec §4.10: level gate, argument normalization, context
// merge, sanitize, sample, dedup, dispatch.
func (l *Logger) log(ctx context.Context, lvl level.Level, args []interface{}) {
	if !l.enabled.Load() || lvl < level.Level(l.lvl.Load()) {
		return
	}

	message, metadata := normalizeArgs(args)

	var asyncCtx asynccontext.CorrelationContext
	if ctx != nil {
		if cc, ok := asynccontext.GetContext(ctx); ok {
			asyncCtx = cc
		}
	}
	mergedContext := mergeRecordContext(l.snapshotStaticContext(), asyncCtx)

	if l.sanitizeEnabled.Load() {
		sanitized := sanitize.Sanitize(l.sanitizeConfig, metadata)
		if m, ok := sanitized.(map[string]interface{}); ok {
			metadata = m
		}
	}

	var errInfo *record.ErrorInfo
	if raw, ok := metadata["error"]; ok {
		if ei, ok := raw.(*record.ErrorInfo); ok {
			errInfo = ei
		}
		delete(metadata, "error")
	}
	if len(metadata) == 0 {
		metadata = nil
	}

	if l.sampler != nil {
		sampled := l.sampler.ShouldSample(sample.Context{
			Level:     lvl,
			HasError:  errInfo != nil,
			Namespace: l.namespace,
		})
		if !sampled {
			return
		}
	}

	if l.dd != nil {
		res := l.dd.ShouldSuppress(message, lvl.String(), l.namespace)
		if res.Flush {
			l.dispatch(record.Log{
				Timestamp: time.Now(),
				Level:     lvl,
				Message:   dedup.SummaryMessage(message, res.SuppressedCount, l.dedupWindowMs),
				Context:   mergedContext,
				Runtime:   runtimeprobe.Tag,
				Namespace: l.namespace,
			})
		}
		if res.Suppressed {
			return
		}
	}

	l.dispatch(record.Log{
		Timestamp: time.Now(),
		Level:     lvl,
		Message:   message,
		Metadata:  metadata,
		Context:   mergedContext,
		Runtime:   runtimeprobe.Tag,
		Namespace: l.namespace,
		Error:     errInfo,
	})
}

func (l *Logger) dispatch(rec record.Log) {
	for _, t := range l.snapshotTransports() {
		cfg := t.Config()
		if !cfg.Enabled {
			continue
		}
		if !cfg.Admits(rec) {
			continue
		}
		t.Log(rec)
	}
}

func (l *Logger) snapshotTransports() []transport.Transport {
	l.transportsMu.RLock()
	defer l.transportsMu.RUnlock()
	out := make([]transport.Transport, len(l.transports))
	copy(out, l.transports)
	return out
}

// AddTransport registers t. Returns a *ConfigError if its name collides
// with an existing transport.
func (l *Logger) AddTransport(t transport.Transport) error {
	l.transportsMu.Lock()
	defer l.transportsMu.Unlock()
	for _, existing := range l.transports {
		if existing.Name() == t.Name() {
			return &ConfigError{Reason: fmt.Sprintf("duplicate transport name %q", t.Name())}
		}
	}
	l.transports = append(l.transports, t)
	return nil
}

// RemoveTransport unregisters the transport named name, reporting whether
// one was found.
func (l *Logger) RemoveTransport(name string) bool {
	l.transportsMu.Lock()
	defer l.transportsMu.Unlock()
	for i, t := range l.transports {
		if t.Name() == name {
			l.transports = append(l.transports[:i], l.transports[i+1:]...)
			return true
		}
	}
	return false
}

// GetTransports returns a snapshot of the current transport list.
func (l *Logger) GetTransports() []transport.Transport {
	return l.snapshotTransports()
}

// Flush fans out to every transport's Flush, returning the first error (if
// any) but still attempting every transport.
func (l *Logger) Flush() error {
	var firstErr error
	for _, t := range l.snapshotTransports() {
		if err := t.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Destroy stops the dedup sweep, drains and emits any pending dedup
// summaries (spec §4.5 "on shutdown, flush pending summaries"), fans out to
// every transport's Destroy, tears down the sampler (if it holds resources)
// and empties the transport registry.
func (l *Logger) Destroy() error {
	if l.sweepStopCh != nil {
		close(l.sweepStopCh)
		l.sweepStopCh = nil
	}
	if l.dd != nil {
		for _, p := range l.dd.GetPendingSummaries() {
			lvl, ok := level.Parse(p.Level)
			if !ok {
				lvl = level.Info
			}
			l.dispatch(record.Log{
				Timestamp: time.Now(),
				Level:     lvl,
				Message:   dedup.SummaryMessage(p.Signature, p.SuppressedCount, l.dedupWindowMs),
				Runtime:   runtimeprobe.Tag,
				Namespace: l.namespace,
			})
		}
	}

	var firstErr error
	for _, t := range l.snapshotTransports() {
		if err := t.Destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.transportsMu.Lock()
	l.transports = nil
	l.transportsMu.Unlock()
	if d, ok := l.sampler.(sample.Destroyer); ok {
		d.Destroy()
	}
	return firstErr
}
