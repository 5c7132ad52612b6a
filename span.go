package vestig

import (
	"context"

	"github.com/Arakiss/vestig/tracing"
)

// prefixedSpanName applies spec §4.9's namespace-prefixing rule: a Logger
// configured with namespace X prefixes every span name it creates with
// "X:", and a child namespaced X:Y prefixes with "X:Y:".
func (l *Logger) prefixedSpanName(name string) string {
	if l.namespace == "" {
		return name
	}
	return l.namespace + ":" + name
}

func firstOptions(opts []tracing.Options) tracing.Options {
	if len(opts) == 0 {
		return tracing.Options{}
	}
	return opts[0]
}

// SpanSync creates a namespace-prefixed span, runs fn with it entered into
// ctx, sets status to ok iff still unset on return, sets status to error
// and rethrows on panic, and always ends the span (spec §4.9 spanSync).
func (l *Logger) SpanSync(ctx context.Context, name string, fn func(context.Context, *tracing.Span) error, opts ...tracing.Options) error {
	_, err := tracing.RunSpan(ctx, l.prefixedSpanName(name), firstOptions(opts), func(c context.Context, sp *tracing.Span) (struct{}, error) {
		return struct{}{}, fn(c, sp)
	})
	return err
}

// LoggerSpan is the typed counterpart to (*Logger).SpanSync: Go methods
// cannot be generic, so the result-returning variant is a free function
// taking the Logger explicitly.
func LoggerSpan[T any](l *Logger, ctx context.Context, name string, fn func(context.Context, *tracing.Span) (T, error), opts ...tracing.Options) (T, error) {
	return tracing.RunSpan(ctx, l.prefixedSpanName(name), firstOptions(opts), fn)
}
