package vestig

import (
	"os"
	"strings"

	"github.com/Arakiss/vestig/internal/dedup"
	"github.com/Arakiss/vestig/level"
	"github.com/Arakiss/vestig/record"
	"github.com/Arakiss/vestig/sample"
	"github.com/Arakiss/vestig/sanitize"
	"github.com/Arakiss/vestig/transport"
)

// envPrefix is this library's environment-variable namespace (spec §6).
const envPrefix = "VESTIG_"

// config is the logger's assembled configuration. It is built as defaults,
// then overlaid by environment variables, then overlaid by explicit Option
// values — "explicit config > environment > defaults" (spec §6), achieved
// simply by running the three steps in that order in createLogger.
type config struct {
	namespace     string
	level         level.Level
	enabled       bool
	structured    bool
	colors        bool
	staticContext record.CorrelationContext

	sanitizeEnabled bool
	sanitizeConfig  sanitize.Config

	sampler     sample.Sampler
	dedupConfig dedup.Config

	transports []transport.Transport
}

// Option configures a Logger at construction or child-derivation time,
// mirroring the teacher's functional-options StartOption idiom
// (ddtrace/tracer's WithService/WithEnv/...).
type Option func(*config)

// WithLevel sets the minimum emitted level.
func WithLevel(l level.Level) Option {
	return func(c *config) { c.level = l }
}

// WithNamespace sets the logger's namespace, used to prefix span names and
// tag emitted records.
func WithNamespace(ns string) Option {
	return func(c *config) { c.namespace = ns }
}

// WithStructured toggles JSON (true) vs. pretty (false) console rendering.
func WithStructured(structured bool) Option {
	return func(c *config) { c.structured = structured }
}

// WithColors toggles ANSI colors in pretty console mode.
func WithColors(colors bool) Option {
	return func(c *config) { c.colors = colors }
}

// WithStaticContext merges kv into the logger's default static correlation
// context (pairwise merge, overlay wins per key).
func WithStaticContext(kv map[string]string) Option {
	return func(c *config) {
		if c.staticContext == nil {
			c.staticContext = record.CorrelationContext{}
		}
		for k, v := range kv {
			c.staticContext[k] = v
		}
	}
}

// WithSanitize toggles sanitization entirely.
func WithSanitize(enabled bool) Option {
	return func(c *config) { c.sanitizeEnabled = enabled }
}

// WithSanitizePreset selects one of the built-in sanitizer presets.
func WithSanitizePreset(name sanitize.PresetName) Option {
	return func(c *config) { c.sanitizeConfig = sanitize.Preset(name) }
}

// WithSanitizeConfig installs a fully custom sanitizer configuration.
func WithSanitizeConfig(cfg sanitize.Config) Option {
	return func(c *config) { c.sanitizeConfig = cfg }
}

// WithSampler installs a sampler, wrapped in the mandatory error-bypass
// composite (spec §3 "Sampling rule": "an outer composite bypasses sampling
// for records whose level >= bypassLevel or whose error field is set").
func WithSampler(s sample.Sampler) Option {
	return func(c *config) {
		if s == nil {
			c.sampler = nil
			return
		}
		c.sampler = sample.NewCompositeBypass(s)
	}
}

// WithDedup installs a deduplicator configuration.
func WithDedup(cfg dedup.Config) Option {
	return func(c *config) { c.dedupConfig = cfg }
}

// WithTransport appends a transport to the logger's fan-out list.
func WithTransport(t transport.Transport) Option {
	return func(c *config) { c.transports = append(c.transports, t) }
}

// WithEnabled sets the logger's initial enabled flag.
func WithEnabled(enabled bool) Option {
	return func(c *config) { c.enabled = enabled }
}

func isProduction() bool {
	v := strings.ToLower(os.Getenv(envPrefix + "ENV"))
	if v == "production" {
		return true
	}
	// Fall back to the common ecosystem convention so the "production" flag
	// is honored even when the embedding application never set a
	// library-specific variable.
	v = strings.ToLower(os.Getenv("APP_ENV"))
	return v == "production" || v == "prod"
}

func defaultConfig() config {
	lvl := level.Info
	structured := isProduction()
	if structured {
		lvl = level.Warn
	}
	return config{
		level:           lvl,
		enabled:         true,
		structured:      structured,
		colors:          !structured,
		staticContext:   record.CorrelationContext{},
		sanitizeEnabled: true,
		sanitizeConfig:  sanitize.Preset(sanitize.PresetDefault),
		dedupConfig:     dedup.DefaultConfig(),
	}
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	default:
		return false, false
	}
}

// applyEnv overlays the spec §6 environment-variable table onto cfg.
func applyEnv(cfg config) config {
	if v := os.Getenv(envPrefix + "LEVEL"); v != "" {
		if parsed, ok := level.Parse(v); ok {
			cfg.level = parsed
		}
	}
	if v := os.Getenv(envPrefix + "ENABLED"); v != "" {
		if parsed, ok := parseBool(v); ok {
			cfg.enabled = parsed
		}
	}
	if v := os.Getenv(envPrefix + "STRUCTURED"); v != "" {
		if parsed, ok := parseBool(v); ok {
			cfg.structured = parsed
		}
	}
	if v := os.Getenv(envPrefix + "SANITIZE"); v != "" {
		if parsed, ok := parseBool(v); ok {
			cfg.sanitizeEnabled = parsed
		}
	}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		const contextPrefix = envPrefix + "CONTEXT_"
		if !strings.HasPrefix(k, contextPrefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(k, contextPrefix))
		if key == "" {
			continue
		}
		if cfg.staticContext == nil {
			cfg.staticContext = record.CorrelationContext{}
		}
		cfg.staticContext[key] = v
	}
	return cfg
}

// clone returns a deep-enough copy of cfg for child-logger derivation:
// maps and slices are copied so overlaying the child's options never
// mutates the parent's configuration.
func (c config) clone() config {
	out := c
	out.staticContext = c.staticContext.Clone()
	out.transports = append([]transport.Transport(nil), c.transports...)
	return out
}
