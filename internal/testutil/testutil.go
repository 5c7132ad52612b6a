// Package testutil provides in-memory test doubles for the span-processor
// and transport interfaces, in the spirit of the teacher's ddtrace/mocktracer:
// a recording double that lets tests assert on what was started/ended/logged
// without standing up a real backend.
package testutil

import (
	"sync"

	"github.com/Arakiss/vestig/record"
	"github.com/Arakiss/vestig/tracing"
	"github.com/Arakiss/vestig/transport"
)

// MemoryProcessor records every OnStart/OnEnd call it receives. Safe for
// concurrent use; ForceFlush/Shutdown are no-ops that never error.
type MemoryProcessor struct {
	name string

	mu      sync.Mutex
	started []*tracing.Span
	ended   []*tracing.Span
}

// NewMemoryProcessor constructs a MemoryProcessor registered under name.
func NewMemoryProcessor(name string) *MemoryProcessor {
	return &MemoryProcessor{name: name}
}

func (p *MemoryProcessor) Name() string { return p.name }

func (p *MemoryProcessor) OnStart(sp *tracing.Span) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = append(p.started, sp)
}

func (p *MemoryProcessor) OnEnd(sp *tracing.Span) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ended = append(p.ended, sp)
}

func (p *MemoryProcessor) ForceFlush() error { return nil }
func (p *MemoryProcessor) Shutdown() error   { return nil }

// Started returns a snapshot of spans observed via OnStart, in order.
func (p *MemoryProcessor) Started() []*tracing.Span {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*tracing.Span, len(p.started))
	copy(out, p.started)
	return out
}

// Ended returns a snapshot of spans observed via OnEnd, in order.
func (p *MemoryProcessor) Ended() []*tracing.Span {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*tracing.Span, len(p.ended))
	copy(out, p.ended)
	return out
}

// MemoryTransport records every record.Log it receives. Config is fixed at
// construction; Flush/Destroy just count calls.
type MemoryTransport struct {
	cfg transport.Config

	mu           sync.Mutex
	logs         []record.Log
	flushCalls   int
	destroyCalls int
}

// NewMemoryTransport constructs a MemoryTransport named name, enabled by
// default.
func NewMemoryTransport(name string) *MemoryTransport {
	return &MemoryTransport{cfg: transport.Config{Name: name, Enabled: true}}
}

func (t *MemoryTransport) Name() string            { return t.cfg.Name }
func (t *MemoryTransport) Config() transport.Config { return t.cfg }
func (t *MemoryTransport) Init() error              { return nil }

func (t *MemoryTransport) Log(r record.Log) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logs = append(t.logs, r)
}

func (t *MemoryTransport) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flushCalls++
	return nil
}

func (t *MemoryTransport) Destroy() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.destroyCalls++
	return nil
}

// Logs returns a snapshot of recorded log records, in order.
func (t *MemoryTransport) Logs() []record.Log {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]record.Log, len(t.logs))
	copy(out, t.logs)
	return out
}

// FlushCalls reports how many times Flush was called.
func (t *MemoryTransport) FlushCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flushCalls
}

// DestroyCalls reports how many times Destroy was called.
func (t *MemoryTransport) DestroyCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.destroyCalls
}
