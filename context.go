package vestig

import (
	"context"

	"github.com/Arakiss/vestig/internal/asynccontext"
	"github.com/Arakiss/vestig/internal/ids"
)

// CorrelationContext re-exports the async correlation context type so
// callers needn't import internal/asynccontext directly (spec §6 public API
// surface).
type CorrelationContext = asynccontext.CorrelationContext

const (
	KeyRequestID = asynccontext.KeyRequestID
	KeyTraceID   = asynccontext.KeyTraceID
	KeySpanID    = asynccontext.KeySpanID
	KeyUserID    = asynccontext.KeyUserID
	KeySessionID = asynccontext.KeySessionID
)

// GetContext returns the innermost active correlation context carried by
// ctx, if any.
func GetContext(ctx context.Context) (CorrelationContext, bool) {
	return asynccontext.GetContext(ctx)
}

// WithContext returns ctx overlaid with overlay, overlay winning per key.
func WithContext(ctx context.Context, overlay CorrelationContext) context.Context {
	return asynccontext.WithContext(ctx, overlay)
}

// WithContextAsync runs fn with ctx overlaid with overlay, propagating fn's
// error and any panic unchanged.
func WithContextAsync(ctx context.Context, overlay CorrelationContext, fn func(context.Context) error) error {
	return asynccontext.Run(ctx, overlay, fn)
}

// CreateCorrelationContext builds a context with requestId/traceId/spanId
// filled in from partial or freshly generated, per spec §4.2.
func CreateCorrelationContext(partial CorrelationContext) CorrelationContext {
	return asynccontext.CreateCorrelationContext(partial, ids.NewRequestID, ids.NewTraceID, ids.NewSpanID)
}

// NewRequestID returns a fresh request identifier.
func NewRequestID() string { return ids.NewRequestID() }

// NewTraceID returns a fresh trace identifier.
func NewTraceID() string { return ids.NewTraceID() }

// NewSpanID returns a fresh span identifier.
func NewSpanID() string { return ids.NewSpanID() }

// Traceparent is the decoded form of a W3C "traceparent" header.
type Traceparent = ids.Traceparent

// ParseTraceparent decodes a W3C "traceparent" header value.
func ParseTraceparent(header string) (Traceparent, bool) { return ids.ParseTraceparent(header) }

// CreateTraceparent encodes traceID/spanID as a W3C "traceparent" header
// value.
func CreateTraceparent(traceID, spanID string) string { return ids.CreateTraceparent(traceID, spanID) }

// Tracestate is an ordered W3C "tracestate" header value.
type Tracestate = ids.Tracestate

// ParseTracestate decodes a W3C "tracestate" header value.
func ParseTracestate(header string) *Tracestate { return ids.ParseTracestate(header) }
