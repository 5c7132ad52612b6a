package asynccontext

import "context"

type ctxKeyType struct{}

var ctxKey ctxKeyType

// CorrelationContext is a request-scoped key/value mapping. Reserved keys
// are requestId, traceId, spanId, userId, sessionId; any other key is
// user-defined. See spec §3 "Correlation context".
type CorrelationContext map[string]string

// Clone returns a shallow copy.
func (c CorrelationContext) Clone() CorrelationContext {
	out := make(CorrelationContext, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// merge returns a new context equal to base with overlay applied on top:
// inner (overlay) overrides outer (base) per key, keys unset in overlay are
// inherited from base.
func merge(base, overlay CorrelationContext) CorrelationContext {
	out := make(CorrelationContext, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

// GetContext returns the innermost active correlation context carried by
// ctx, if any.
func GetContext(ctx context.Context) (CorrelationContext, bool) {
	v, ok := ctx.Value(ctxKey).(CorrelationContext)
	return v, ok
}

// WithContext returns a new context.Context carrying the current context
// (if any) merged with overlay, overlay taking precedence key-wise. Unlike
// a callback-based withContext, Go's context.Context is itself the scope
// guard: the caller's own ctx is untouched once this call returns, which is
// the equivalent of "restores the previous context on return" without
// needing an explicit restore step.
func WithContext(ctx context.Context, overlay CorrelationContext) context.Context {
	current, _ := GetContext(ctx)
	merged := merge(current, overlay)
	return context.WithValue(ctx, ctxKey, merged)
}

// Run executes fn with a context equal to the current context merged with
// overlay and returns fn's error unchanged; a panic in fn propagates
// unchanged as well. No restore step is needed or performed: context.Context
// is immutable, so the caller's ctx never observes the overlay, on return or
// on panic. Run exists to mirror the withContext/withContextAsync call shape
// for callers translating from the source API.
func Run(ctx context.Context, overlay CorrelationContext, fn func(context.Context) error) error {
	scoped := WithContext(ctx, overlay)
	return fn(scoped)
}

const (
	KeyRequestID = "requestId"
	KeyTraceID   = "traceId"
	KeySpanID    = "spanId"
	KeyUserID    = "userId"
	KeySessionID = "sessionId"
)

// uninitialized is the sentinel spec §4.2's createCorrelationContext uses to
// mean "pass through only when set" for arbitrary user keys.
const uninitialized = "\x00uninitialized"

// CreateCorrelationContext builds a context with requestId/traceId/spanId
// set to their existing values in partial if present, generated otherwise;
// other keys pass through verbatim unless set to the uninitialized marker.
func CreateCorrelationContext(partial CorrelationContext, genRequestID, genTraceID, genSpanID func() string) CorrelationContext {
	out := CorrelationContext{}
	if v, ok := partial[KeyRequestID]; ok && v != uninitialized {
		out[KeyRequestID] = v
	} else {
		out[KeyRequestID] = genRequestID()
	}
	if v, ok := partial[KeyTraceID]; ok && v != uninitialized {
		out[KeyTraceID] = v
	} else {
		out[KeyTraceID] = genTraceID()
	}
	if v, ok := partial[KeySpanID]; ok && v != uninitialized {
		out[KeySpanID] = v
	} else {
		out[KeySpanID] = genSpanID()
	}
	for k, v := range partial {
		if k == KeyRequestID || k == KeyTraceID || k == KeySpanID {
			continue
		}
		if v == uninitialized {
			continue
		}
		out[k] = v
	}
	return out
}
