package vestig

import (
	"context"

	"github.com/Arakiss/vestig/tracing"
)

// Span is a re-export of the tracing engine's span type (spec §6 "Standalone
// tracing").
type Span = tracing.Span

// SpanOptions configures StartSpan/SpanSync/TypedSpan.
type SpanOptions = tracing.Options

// StartSpan creates a span per the active-span/parent-span/context priority
// rule, without entering it.
func StartSpan(ctx context.Context, name string, opts SpanOptions) *Span {
	return tracing.StartSpan(ctx, name, opts)
}

// EndSpan ends sp and pops it from the active stack if it is the current
// top.
func EndSpan(sp *Span) { tracing.EndSpan(sp) }

// GetActiveSpan returns the top of the active-span stack, if any.
func GetActiveSpan() *Span { return tracing.GetActiveSpan() }

// WithActiveSpan runs fn(activeSpan) iff an active span exists.
func WithActiveSpan(fn func(*Span)) { tracing.WithActiveSpan(fn) }

// SpanSync creates a span named name, enters it, runs fn, sets status to ok
// iff still unset on return, sets status to error and rethrows on panic, and
// always ends the span.
func SpanSync(ctx context.Context, name string, opts SpanOptions, fn func(context.Context, *Span) error) error {
	_, err := tracing.RunSpan(ctx, name, opts, func(c context.Context, sp *Span) (struct{}, error) {
		return struct{}{}, fn(c, sp)
	})
	return err
}

// TypedSpan is SpanSync's typed counterpart; Go methods cannot be generic so
// this is a free function.
func TypedSpan[T any](ctx context.Context, name string, opts SpanOptions, fn func(context.Context, *Span) (T, error)) (T, error) {
	return tracing.RunSpan(ctx, name, opts, fn)
}
