// Package otlpexport implements a tracing.Processor that batches spans and
// ships them as an OTLP ExportTraceServiceRequest JSON document (spec
// §4.11). It is grounded on the teacher's direct go.opentelemetry.io/otel
// dependency: the OTLP wire shape is fixed by the OTel spec itself, not
// invented here, so otel/trace's ID types are used to validate hex ids
// before they ever reach the wire.
package otlpexport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/Arakiss/vestig/internal/diag"
	"github.com/Arakiss/vestig/tracing"
)

const sdkName = "vestig"

var (
	zeroTraceID = strings.Repeat("0", 32)
	zeroSpanID  = strings.Repeat("0", 16)
)

// Options configures the exporter (spec §4.11).
type Options struct {
	Endpoint            string
	ServiceName         string // required
	ServiceVersion      string
	Environment         string
	Headers             map[string]string
	ResourceAttributes  map[string]string
	BatchSize           int   // default 100
	FlushIntervalMs     int64 // default 5000
	TimeoutMs           int64 // default 30000
	MaxRetries          int   // default 3
	RetryDelayMs        int64 // default 1000
	Enabled             bool  // forced true whenever Endpoint is non-empty
	Client              *http.Client
	SDKVersion          string
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.FlushIntervalMs <= 0 {
		o.FlushIntervalMs = 5000
	}
	if o.TimeoutMs <= 0 {
		o.TimeoutMs = 30000
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.RetryDelayMs <= 0 {
		o.RetryDelayMs = 1000
	}
	if o.Client == nil {
		o.Client = &http.Client{}
	}
	return o
}

// Exporter is a tracing.Processor that batches ended spans and POSTs them
// as OTLP/JSON.
type Exporter struct {
	opts         Options
	epochStartMs int64

	mu         sync.Mutex
	buffer     []*tracing.Span
	flushing   bool
	shutdown   bool
	timerStop  chan struct{}
	timerOnce  sync.Once
}

// New constructs the exporter. epochStartMs is computed once so any future
// monotonic reading converts to a wall-clock Unix millisecond value (spec
// §4.11).
func New(opts Options) *Exporter {
	opts.Enabled = opts.Enabled || opts.Endpoint != ""
	opts = opts.withDefaults()
	wallNowMs := time.Now().UnixMilli()
	monoNowMs := tracing.MonoNowNanos() / int64(time.Millisecond)
	return &Exporter{
		opts:         opts,
		epochStartMs: wallNowMs - monoNowMs,
	}
}

func (e *Exporter) Name() string { return "otlpexport" }

// Start launches the periodic flush timer. Call once.
func (e *Exporter) Start() {
	e.timerOnce.Do(func() {
		e.mu.Lock()
		e.timerStop = make(chan struct{})
		stop := e.timerStop
		e.mu.Unlock()
		go func() {
			ticker := time.NewTicker(time.Duration(e.opts.FlushIntervalMs) * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					_ = e.ForceFlush()
				case <-stop:
					return
				}
			}
		}()
	})
}

func (e *Exporter) OnStart(*tracing.Span) {}

// OnEnd buffers the ended span; if the buffer reaches BatchSize and no
// flush is in flight, an async flush is scheduled.
func (e *Exporter) OnEnd(sp *tracing.Span) {
	e.mu.Lock()
	if !e.opts.Enabled || e.shutdown {
		e.mu.Unlock()
		return
	}
	e.buffer = append(e.buffer, sp)
	shouldFlush := len(e.buffer) >= e.opts.BatchSize && !e.flushing
	e.mu.Unlock()
	if shouldFlush {
		go func() { _ = e.ForceFlush() }()
	}
}

// ForceFlush swaps the buffer for a local snapshot and exports it as one
// ExportTraceServiceRequest.
func (e *Exporter) ForceFlush() error {
	e.mu.Lock()
	if e.flushing || len(e.buffer) == 0 {
		e.mu.Unlock()
		return nil
	}
	e.flushing = true
	snapshot := e.buffer
	e.buffer = nil
	e.mu.Unlock()

	err := e.export(snapshot)

	e.mu.Lock()
	e.flushing = false
	e.mu.Unlock()
	if err != nil {
		diag.Warn("otlpexport: export of %d spans failed: %v", len(snapshot), err)
	}
	return err
}

// Shutdown stops the timer and performs a final flush.
func (e *Exporter) Shutdown() error {
	e.mu.Lock()
	if e.shutdown {
		e.mu.Unlock()
		return nil
	}
	e.shutdown = true
	stop := e.timerStop
	e.mu.Unlock()
	if stop != nil {
		close(stop)
	}
	return e.ForceFlush()
}

func (e *Exporter) resourceAttributes() []attribute {
	attrs := []attribute{{Key: "service.name", Value: toAnyValue(e.opts.ServiceName)}}
	if e.opts.ServiceVersion != "" {
		attrs = append(attrs, attribute{Key: "service.version", Value: toAnyValue(e.opts.ServiceVersion)})
	}
	if e.opts.Environment != "" {
		attrs = append(attrs, attribute{Key: "deployment.environment", Value: toAnyValue(e.opts.Environment)})
	}
	attrs = append(attrs,
		attribute{Key: "telemetry.sdk.name", Value: toAnyValue(sdkName)},
		attribute{Key: "telemetry.sdk.version", Value: toAnyValue(e.opts.SDKVersion)},
		attribute{Key: "telemetry.sdk.language", Value: toAnyValue("go")},
	)
	for k, v := range e.opts.ResourceAttributes {
		attrs = append(attrs, attribute{Key: k, Value: toAnyValue(v)})
	}
	return attrs
}

func (e *Exporter) export(spans []*tracing.Span) error {
	otlpSpans := make([]otlpSpan, 0, len(spans))
	for _, sp := range spans {
		otlpSpans = append(otlpSpans, e.toOTLP(sp))
	}
	req := exportTraceServiceRequest{
		ResourceSpans: []resourceSpans{{
			Resource: resource{Attributes: e.resourceAttributes()},
			ScopeSpans: []scopeSpans{{
				Scope: instrumentationScope{Name: "vestig-like-sdk", Version: e.opts.SDKVersion},
				Spans: otlpSpans,
			}},
		}},
	}
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(e.opts.TimeoutMs)*time.Millisecond)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.opts.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range e.opts.Headers {
		httpReq.Header.Set(k, v)
	}

	return e.sendWithRetry(httpReq, body)
}

func (e *Exporter) sendWithRetry(req *http.Request, body []byte) error {
	var lastErr error
	for attempt := 0; attempt < e.opts.MaxRetries; attempt++ {
		resp, err := e.opts.Client.Do(req)
		if err != nil {
			lastErr = err
		} else {
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return nil
			}
			lastErr = fmt.Errorf("otlpexport: status %d", resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return lastErr
			}
		}
		if attempt < e.opts.MaxRetries-1 {
			time.Sleep(time.Duration(e.opts.RetryDelayMs) * time.Millisecond)
			req.Body = http.NoBody
			if len(body) > 0 {
				req.Body = &nopCloserReader{bytes.NewReader(body)}
			}
		}
	}
	return lastErr
}

type nopCloserReader struct{ *bytes.Reader }

func (n *nopCloserReader) Close() error { return nil }

// validHexID reports whether s parses as a valid OTel trace or span id,
// used only to decide whether to fall back to a zeroed id rather than ship
// a malformed one.
func validHexID(s string, isTrace bool) bool {
	if isTrace {
		_, err := oteltrace.TraceIDFromHex(s)
		return err == nil
	}
	_, err := oteltrace.SpanIDFromHex(s)
	return err == nil
}
