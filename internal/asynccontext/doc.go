// Package asynccontext implements the request-scoped correlation context
// store described in spec §4.2.
//
// Design note (spec §9 open question, "async-local storage portability"):
// Go has no implicit goroutine-local storage — the idiomatic, and only
// sound, way to flow a request-scoped value through arbitrary asynchronous
// continuations (goroutines, callbacks, channel hops) is context.Context,
// threaded explicitly through every call that can block or fan out. That
// *is* this host's first-class propagation mechanism in the spec's sense:
// it flows through suspension points (the select/channel boundaries
// standing in for "await") without the library reaching into goroutine
// internals. The spec's "global-variable fallback for hosts without a
// first-class mechanism" is therefore never exercised on Go — there is
// always a first-class mechanism (context.Context) — and per the spec's own
// instruction ("refuse to run rather than silently corrupt contexts") this
// package deliberately provides no package-level/global mutable stack. Code
// that drops the ctx parameter loses correlation, which is a caller bug the
// type system flags (an ignored parameter), not silent corruption.
package asynccontext
