// Package tracing implements the span engine: span construction, the
// active-span stack, the span-processor registry, and the public
// span/startSpan/withActiveSpan API (spec §4.9).
package tracing

import (
	"sync"
	"time"

	"github.com/Arakiss/vestig/internal/ids"
)

// Status is a span's terminal outcome.
type Status int

const (
	StatusUnset Status = iota
	StatusOK
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	default:
		return "unset"
	}
}

// Event is a timestamped annotation attached to a span.
type Event struct {
	Name       string
	Attributes map[string]interface{}
	Time       time.Time
	MonoNanos  int64
}

// Span is constructed with an immutable identity (id/trace/parent/name/
// start time); attributes, events, status and end time are mutable until
// End freezes it. All accessors return copies so callers cannot mutate
// internal state through a returned map.
type Span struct {
	mu sync.Mutex

	name      string
	traceID   string
	spanID    string
	parentID  string
	start     time.Time
	startMono int64

	attributes map[string]interface{}
	events     []Event
	status     Status
	statusMsg  string
	end        time.Time
	endMono    int64
	ended      bool
}

// Options configures span construction.
type Options struct {
	// ParentSpan, if non-nil, takes priority over the active-span stack and
	// any trace id carried in the async context (spec §4.9 parent selection).
	ParentSpan *Span
	Attributes map[string]interface{}
}

// newSpan constructs a span rooted at traceID (generated if empty) and
// parented to parentSpanID (empty for a root span).
func newSpan(name, traceID, parentSpanID string, attrs map[string]interface{}) *Span {
	if traceID == "" {
		traceID = ids.NewTraceID()
	}
	copied := make(map[string]interface{}, len(attrs))
	for k, v := range attrs {
		copied[k] = v
	}
	return &Span{
		name:       name,
		traceID:    traceID,
		spanID:     ids.NewSpanID(),
		parentID:   parentSpanID,
		start:      time.Now(),
		startMono:  nowMonoNanos(),
		attributes: copied,
		status:     StatusUnset,
	}
}

func (s *Span) Name() string     { return s.name }
func (s *Span) TraceID() string  { return s.traceID }
func (s *Span) SpanID() string   { return s.spanID }
func (s *Span) ParentID() string { return s.parentID }
func (s *Span) StartTime() time.Time { return s.start }

// Attributes returns a copy of the span's current attribute set.
func (s *Span) Attributes() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]interface{}, len(s.attributes))
	for k, v := range s.attributes {
		out[k] = v
	}
	return out
}

// SetAttribute sets one attribute. No-op once the span has ended.
func (s *Span) SetAttribute(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	if s.attributes == nil {
		s.attributes = map[string]interface{}{}
	}
	s.attributes[key] = value
}

// SetAttributes merges attrs in. No-op once the span has ended.
func (s *Span) SetAttributes(attrs map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	if s.attributes == nil {
		s.attributes = map[string]interface{}{}
	}
	for k, v := range attrs {
		s.attributes[k] = v
	}
}

// AddEvent appends a timestamped event. No-op once the span has ended.
func (s *Span) AddEvent(name string, attrs map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.events = append(s.events, Event{Name: name, Attributes: attrs, Time: time.Now(), MonoNanos: nowMonoNanos()})
}

// Events returns a copy of the recorded events.
func (s *Span) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// SetStatus sets the span's terminal status. A call with StatusError always
// takes effect; StatusOK only takes effect if the status is still unset
// (spec §4.9: "set status to ok iff the status is still unset at return").
// No-op once the span has ended.
func (s *Span) SetStatus(status Status, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	if status == StatusOK && s.status != StatusUnset {
		return
	}
	s.status = status
	s.statusMsg = message
}

// StatusInfo returns the span's current status and message.
func (s *Span) StatusInfo() (Status, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.statusMsg
}

// Ended reports whether End has been called.
func (s *Span) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// End freezes the span's end time (first call wins; subsequent calls are
// no-ops) and notifies every registered processor's onEnd in registration
// order.
func (s *Span) End() {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	s.end = time.Now()
	s.endMono = nowMonoNanos()
	s.mu.Unlock()
	defaultRegistry.notifyEnd(s)
}

// EndTime returns the span's end time, or the zero value if still open.
func (s *Span) EndTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.end
}

// StartMonoNanos returns the monotonic nanosecond offset (since process
// start) captured when the span began, for callers bridging to wall-clock
// time via an externally-computed epoch offset (see otlpexport).
func (s *Span) StartMonoNanos() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startMono
}

// EndMonoNanos returns the monotonic nanosecond offset captured when End
// was called, or zero if still open.
func (s *Span) EndMonoNanos() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endMono
}

// DurationMs reports the elapsed time in milliseconds; it is measured
// against time.Now() while the span is open.
func (s *Span) DurationMs() int64 {
	s.mu.Lock()
	end := s.end
	ended := s.ended
	s.mu.Unlock()
	if !ended {
		end = time.Now()
	}
	return end.Sub(s.start).Milliseconds()
}

// ToJSON renders a plain record suitable for transport (spec §4.9 toJSON).
func (s *Span) ToJSON() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	attrs := make(map[string]interface{}, len(s.attributes))
	for k, v := range s.attributes {
		attrs[k] = v
	}
	events := make([]map[string]interface{}, len(s.events))
	for i, e := range s.events {
		events[i] = map[string]interface{}{
			"name":       e.Name,
			"attributes": e.Attributes,
			"time":       e.Time,
		}
	}
	doc := map[string]interface{}{
		"name":       s.name,
		"traceId":    s.traceID,
		"spanId":     s.spanID,
		"parentId":   s.parentID,
		"startTime":  s.start,
		"attributes": attrs,
		"events":     events,
		"status":     s.status.String(),
	}
	if s.statusMsg != "" {
		doc["statusMessage"] = s.statusMsg
	}
	if s.ended {
		doc["endTime"] = s.end
	}
	return doc
}
