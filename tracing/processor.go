package tracing

import (
	"sync"

	"github.com/Arakiss/vestig/internal/diag"
)

// Processor observes span lifecycle events. onStart/onEnd failures are
// isolated per processor so one faulty processor cannot starve the rest
// (spec §4.9).
type Processor interface {
	Name() string
	OnStart(span *Span)
	OnEnd(span *Span)
	ForceFlush() error
	Shutdown() error
}

type registry struct {
	mu         sync.Mutex
	processors []Processor
}

var defaultRegistry = &registry{}

// AddProcessor registers p. Registration order determines onStart/onEnd
// notification order.
func AddProcessor(p Processor) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	defaultRegistry.processors = append(defaultRegistry.processors, p)
}

// RemoveProcessor unregisters p by name.
func RemoveProcessor(name string) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	out := defaultRegistry.processors[:0]
	for _, p := range defaultRegistry.processors {
		if p.Name() != name {
			out = append(out, p)
		}
	}
	defaultRegistry.processors = out
}

// GetProcessor looks up a registered processor by name.
func GetProcessor(name string) (Processor, bool) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	for _, p := range defaultRegistry.processors {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

func (r *registry) snapshot() []Processor {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Processor, len(r.processors))
	copy(out, r.processors)
	return out
}

func (r *registry) notifyStart(sp *Span) {
	for _, p := range r.snapshot() {
		safeCall(p.Name(), "onStart", func() { p.OnStart(sp) })
	}
}

func (r *registry) notifyEnd(sp *Span) {
	for _, p := range r.snapshot() {
		safeCall(p.Name(), "onEnd", func() { p.OnEnd(sp) })
	}
}

func safeCall(processorName, hook string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			diag.Warn("tracing: span processor %s panicked in %s: %v", processorName, hook, r)
		}
	}()
	fn()
}

// ForceFlushAll flushes every registered processor, collecting (not
// aborting on) individual errors.
func ForceFlushAll() []error {
	var errs []error
	for _, p := range defaultRegistry.snapshot() {
		if err := p.ForceFlush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// ShutdownAll awaits every processor's Shutdown and then clears the
// registry (spec §4.9: "shutdown awaits all processors and then clears the
// registry").
func ShutdownAll() []error {
	procs := defaultRegistry.snapshot()
	var errs []error
	for _, p := range procs {
		if err := p.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}
	defaultRegistry.mu.Lock()
	defaultRegistry.processors = nil
	defaultRegistry.mu.Unlock()
	return errs
}
