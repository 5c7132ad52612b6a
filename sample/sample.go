// Package sample implements the composable samplers of spec §4.4:
// probability, rate-limit, namespace-routed, and the composite
// always-sample-on-error bypass.
package sample

import (
	"math/rand"

	goglob "github.com/ryanuber/go-glob"
	"golang.org/x/time/rate"

	"github.com/Arakiss/vestig/internal/pathglob"
	"github.com/Arakiss/vestig/level"
)

// Context is the minimal view of a record a sampler needs: its level,
// whether it carries an error, and its namespace. Kept decoupled from the
// logger's record type to avoid an import cycle (sample is a leaf package).
type Context struct {
	Level     level.Level
	HasError  bool
	Namespace string
}

// Sampler decides whether a record should be admitted.
type Sampler interface {
	ShouldSample(c Context) bool
}

// Destroyer is implemented by samplers that may hold resources to release
// on logger shutdown; the logger calls Destroy on its sampler when it is
// destroyed.
type Destroyer interface {
	Destroy()
}

// Func adapts a plain function to the Sampler interface.
type Func func(c Context) bool

// ShouldSample implements Sampler.
func (f Func) ShouldSample(c Context) bool { return f(c) }

// rng abstracts the [0,1) random source so tests can make it deterministic.
type rng interface{ Float64() float64 }

type defaultRNG struct{}

func (defaultRNG) Float64() float64 { return rand.Float64() }

// --- Probability sampler -----------------------------------------------

// Probability admits a fraction p of records. p is clamped silently to
// [0,1].
type Probability struct {
	p   float64
	rng rng
}

// NewProbability constructs a probability sampler, clamping p into [0,1].
func NewProbability(p float64) *Probability {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return &Probability{p: p, rng: defaultRNG{}}
}

// ShouldSample implements Sampler.
func (p *Probability) ShouldSample(Context) bool {
	return p.rng.Float64() < p.p
}

// --- Rate-limit sampler --------------------------------------------------

// RateLimit admits up to maxPerSecond records per windowMs window, using a
// token-bucket limiter (golang.org/x/time/rate) sized to the equivalent
// rate, matching spec §4.4's "admit iff counter < maxPerSecond*windowMs/1000"
// semantics via a continuously-refilling bucket rather than a hard epoch
// reset (smoother under bursty load, same steady-state admission rate).
type RateLimit struct {
	limiter *rate.Limiter
}

// NewRateLimit constructs a rate-limit sampler. windowMs defaults to 1000.
func NewRateLimit(maxPerSecond float64, windowMs int64) *RateLimit {
	if windowMs <= 0 {
		windowMs = 1000
	}
	perWindow := maxPerSecond * float64(windowMs) / 1000
	burst := int(perWindow)
	if burst < 1 {
		burst = 1
	}
	return &RateLimit{limiter: rate.NewLimiter(rate.Limit(maxPerSecond), burst)}
}

// ShouldSample implements Sampler.
func (r *RateLimit) ShouldSample(Context) bool {
	return r.limiter.Allow()
}

// Destroy is a no-op for RateLimit (golang.org/x/time/rate holds no
// background goroutine), present to satisfy Destroyer uniformly.
func (r *RateLimit) Destroy() {}

// --- Namespace-routed sampler --------------------------------------------

type namespaceRoute struct {
	pattern string
	isGlob  bool
	sampler Sampler
}

// NamespaceRouted dispatches to a per-namespace Sampler, exact matches
// preferred over wildcard patterns ("auth.*", "db.**"), falling
// back to a configured default, admitting when neither matches.
type NamespaceRouted struct {
	exact   map[string]Sampler
	globs   []namespaceRoute
	def     Sampler
}

// NewNamespaceRouted builds a router from namespace->Sampler entries. Keys
// containing "*" are glob routes: a namespace matches one when it matches
// the key as a dot-path glob or as a go-glob pattern, in which "*" also
// spans dots. Other keys are exact matches. def, if non-nil, is used when
// nothing else matches.
func NewNamespaceRouted(routes map[string]Sampler, def Sampler) *NamespaceRouted {
	n := &NamespaceRouted{exact: map[string]Sampler{}, def: def}
	for pattern, s := range routes {
		if pathglob.IsGlob(pattern) {
			n.globs = append(n.globs, namespaceRoute{pattern: pattern, isGlob: true, sampler: s})
		} else {
			n.exact[pattern] = s
		}
	}
	return n
}

// ShouldSample implements Sampler.
func (n *NamespaceRouted) ShouldSample(c Context) bool {
	if s, ok := n.exact[c.Namespace]; ok {
		return s.ShouldSample(c)
	}
	for _, r := range n.globs {
		if pathglob.Match(r.pattern, c.Namespace) || goglob.Glob(r.pattern, c.Namespace) {
			return r.sampler.ShouldSample(c)
		}
	}
	if n.def != nil {
		return n.def.ShouldSample(c)
	}
	return true // no match and no default -> admit
}

// Destroy tears down every nested Destroyer sampler.
func (n *NamespaceRouted) Destroy() {
	for _, s := range n.exact {
		if d, ok := s.(Destroyer); ok {
			d.Destroy()
		}
	}
	for _, r := range n.globs {
		if d, ok := r.sampler.(Destroyer); ok {
			d.Destroy()
		}
	}
	if d, ok := n.def.(Destroyer); ok {
		d.Destroy()
	}
}

// --- Composite bypass -----------------------------------------------------

// CompositeBypass wraps an inner sampler, short-circuit-admitting any
// record whose level is >= bypassLevel (default Error) or whose HasError is
// true, and delegating otherwise. A logger with sampling configured always
// wraps the user-chosen sampler in one of these (spec §4.4).
type CompositeBypass struct {
	inner        Sampler
	bypassLevel  level.Level
}

// NewCompositeBypass wraps inner with the default bypass level (Error).
func NewCompositeBypass(inner Sampler) *CompositeBypass {
	return &CompositeBypass{inner: inner, bypassLevel: level.Error}
}

// WithBypassLevel overrides the bypass threshold.
func (c *CompositeBypass) WithBypassLevel(l level.Level) *CompositeBypass {
	c.bypassLevel = l
	return c
}

// ShouldSample implements Sampler.
func (c *CompositeBypass) ShouldSample(ctx Context) bool {
	if ctx.HasError || ctx.Level >= c.bypassLevel {
		return true
	}
	if c.inner == nil {
		return true
	}
	return c.inner.ShouldSample(ctx)
}

// Destroy tears down the inner sampler if it holds resources.
func (c *CompositeBypass) Destroy() {
	if d, ok := c.inner.(Destroyer); ok {
		d.Destroy()
	}
}
