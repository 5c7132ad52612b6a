package tracing

import (
	"context"
	"fmt"

	"github.com/Arakiss/vestig/internal/asynccontext"
)

// resolveParent implements spec §4.9's parent-selection priority: an
// explicit ParentSpan wins, then the active-span stack, then a trace id
// carried in the async context (a new root trace id only if none of those
// apply).
func resolveParent(ctx context.Context, opts Options) (traceID, parentSpanID string) {
	if opts.ParentSpan != nil {
		return opts.ParentSpan.TraceID(), opts.ParentSpan.SpanID()
	}
	if active := GetActiveSpan(); active != nil {
		return active.TraceID(), active.SpanID()
	}
	if ctx != nil {
		if cc, ok := asynccontext.GetContext(ctx); ok {
			if tid := cc[asynccontext.KeyTraceID]; tid != "" {
				return tid, cc[asynccontext.KeySpanID]
			}
		}
	}
	return "", ""
}

// StartSpan creates a span per resolveParent's priority, notifies
// registered processors' OnStart, but does not push it onto the active
// stack or the async context — that coupling is withSpanContext's job
// (spec §4.9 separates span creation from "entering" a span).
func StartSpan(ctx context.Context, name string, opts Options) *Span {
	traceID, parentID := resolveParent(ctx, opts)
	sp := newSpan(name, traceID, parentID, opts.Attributes)
	defaultRegistry.notifyStart(sp)
	return sp
}

// EndSpan ends span and pops it from the active stack if it is the current
// top (spec §4.9: "endSpan ends the span and pops the stack").
func EndSpan(sp *Span) {
	if sp == nil {
		return
	}
	sp.End()
	if GetActiveSpan() == sp {
		PopSpan()
	}
}

// WithSpanContext pushes span onto the active stack, publishes
// {traceId,spanId} into ctx's async context, runs fn, and restores the
// stack on normal or panicking exit (spec §4.9
// withSpanContext/withSpanContextAsync).
func WithSpanContext(ctx context.Context, sp *Span, fn func(context.Context)) {
	PushSpan(sp)
	defer PopSpan()
	scoped := asynccontext.WithContext(ctx, asynccontext.CorrelationContext{
		asynccontext.KeyTraceID: sp.TraceID(),
		asynccontext.KeySpanID:  sp.SpanID(),
	})
	fn(scoped)
}

// RunSpan creates a span named name, enters its context, runs fn, sets
// status to ok iff still unset on return, sets status to error (capturing
// the panic message) and re-panics on a panicking fn, and always ends the
// span (spec §4.9 span/spanSync). Returns fn's value.
func RunSpan[T any](ctx context.Context, name string, opts Options, fn func(context.Context, *Span) (T, error)) (result T, err error) {
	sp := StartSpan(ctx, name, opts)
	defer EndSpan(sp)

	defer func() {
		if r := recover(); r != nil {
			sp.SetStatus(StatusError, fmt.Sprint(r))
			panic(r)
		}
	}()

	WithSpanContext(ctx, sp, func(scoped context.Context) {
		result, err = fn(scoped, sp)
	})

	if err != nil {
		sp.SetStatus(StatusError, err.Error())
	} else {
		sp.SetStatus(StatusOK, "")
	}
	return result, err
}

// WithActiveSpan runs fn(currentActiveSpan) iff an active span exists
// (spec §4.9 withActiveSpan).
func WithActiveSpan(fn func(*Span)) {
	if sp := GetActiveSpan(); sp != nil {
		fn(sp)
	}
}
