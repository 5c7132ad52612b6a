// Package wideevent implements the accumulating wide-event builder: a
// two-level (category, key) field store that freezes on end() (spec
// §4.13), modeled on the tracing span's accumulate-then-freeze idiom
// (attributes mutable until End, frozen after).
package wideevent

import (
	"fmt"
	"sync"
	"time"

	"github.com/Arakiss/vestig/internal/asynccontext"
	"github.com/Arakiss/vestig/level"
	"github.com/Arakiss/vestig/record"
)

// ErrEnded is returned by every mutator once the event has ended.
type ErrEnded struct{ Op string }

func (e *ErrEnded) Error() string {
	return fmt.Sprintf("wideevent: %s called after end()", e.Op)
}

// Event accumulates fields across the lifetime of a unit of work (a
// request, a job) and flattens to dotted metadata keys for emission
// through the logger pipeline. eventType and startedAt are immutable
// identity set at construction (spec §3 "Wide event"); the remaining
// end-of-life fields are stamped once by End.
type Event struct {
	mu        sync.Mutex
	eventType string
	startedAt time.Time
	fields    map[string]map[string]interface{}
	ctx       asynccontext.CorrelationContext

	ended      bool
	endedAt    time.Time
	durationMs int64
	status     string
	err        *record.ErrorInfo
	lvl        level.Level
}

// New constructs a wide event of the given type, stamping its immutable
// started_at identity field at the current wall-clock time.
func New(eventType string) *Event {
	return &Event{
		eventType: eventType,
		startedAt: time.Now(),
		fields:    map[string]map[string]interface{}{},
	}
}

// EventType returns the event's immutable type identity.
func (e *Event) EventType() string { return e.eventType }

// StartedAt returns the event's immutable creation time.
func (e *Event) StartedAt() time.Time { return e.startedAt }

// Set stores value under category/key. Returns ErrEnded if the event has
// ended.
func (e *Event) Set(category, key string, value interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ended {
		return &ErrEnded{Op: "set"}
	}
	if e.fields[category] == nil {
		e.fields[category] = map[string]interface{}{}
	}
	e.fields[category][key] = value
	return nil
}

// Get reads category/key. ok is false if either level is absent.
func (e *Event) Get(category, key string) (value interface{}, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cat, ok := e.fields[category]
	if !ok {
		return nil, false
	}
	value, ok = cat[key]
	return value, ok
}

// Merge shallow-merges fields into category. Returns ErrEnded if ended.
func (e *Event) Merge(category string, fields map[string]interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ended {
		return &ErrEnded{Op: "merge"}
	}
	if e.fields[category] == nil {
		e.fields[category] = map[string]interface{}{}
	}
	for k, v := range fields {
		e.fields[category][k] = v
	}
	return nil
}

// MergeAll merges every category in fieldsByCategory. Returns ErrEnded if
// ended; no partial application occurs on that error.
func (e *Event) MergeAll(fieldsByCategory map[string]map[string]interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ended {
		return &ErrEnded{Op: "mergeAll"}
	}
	for category, fields := range fieldsByCategory {
		if e.fields[category] == nil {
			e.fields[category] = map[string]interface{}{}
		}
		for k, v := range fields {
			e.fields[category][k] = v
		}
	}
	return nil
}

// SetContext attaches a correlation context to the event. Returns ErrEnded
// if ended.
func (e *Event) SetContext(cc asynccontext.CorrelationContext) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ended {
		return &ErrEnded{Op: "setContext"}
	}
	e.ctx = cc.Clone()
	return nil
}

// GetContext returns the attached correlation context, if any.
func (e *Event) GetContext() asynccontext.CorrelationContext {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctx.Clone()
}

// GetFields returns a deep copy of the two-level field store.
func (e *Event) GetFields() map[string]map[string]interface{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]map[string]interface{}, len(e.fields))
	for cat, kv := range e.fields {
		copied := make(map[string]interface{}, len(kv))
		for k, v := range kv {
			copied[k] = v
		}
		out[cat] = copied
	}
	return out
}

// EndOptions stamps the end-of-life fields spec §3 requires ("at end:
// {ended_at, duration_ms, status, optional serialized error, level}").
// Status defaults to "error" when Err is set and "success" otherwise;
// Level, when nil, defaults the same way (level.Error on an error status,
// level.Info otherwise).
type EndOptions struct {
	Status string
	Err    error
	Level  *level.Level
}

// End freezes the event, stamping ended_at/duration_ms/status/level/error;
// every mutator returns ErrEnded thereafter. Calling End more than once is
// a no-op (the first call's stamped fields stand).
func (e *Event) End(opts EndOptions) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ended {
		return
	}
	e.ended = true
	e.endedAt = time.Now()
	e.durationMs = e.endedAt.Sub(e.startedAt).Milliseconds()

	status := opts.Status
	if status == "" {
		if opts.Err != nil {
			status = "error"
		} else {
			status = "success"
		}
	}
	e.status = status

	if opts.Err != nil {
		e.err = record.SerializeError(opts.Err)
	}

	lvl := level.Info
	if status == "error" {
		lvl = level.Error
	}
	if opts.Level != nil {
		lvl = *opts.Level
	}
	e.lvl = lvl
}

// Ended reports whether End has been called.
func (e *Event) Ended() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ended
}

// EndedAt returns the time End was called; zero until then.
func (e *Event) EndedAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.endedAt
}

// DurationMs returns ended_at - started_at in milliseconds; zero until End.
func (e *Event) DurationMs() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.durationMs
}

// Status returns the outcome status stamped by End (empty until then).
func (e *Event) Status() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Level returns the level stamped by End.
func (e *Event) Level() level.Level {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lvl
}

// Err returns the serialized error stamped by End, if any.
func (e *Event) Err() *record.ErrorInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func isoMillis(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// ToMetadata flattens the two-level field store to dotted "category.key"
// keys plus the event's identity and (once ended) end-of-life fields,
// suitable for passing as a logger call's metadata argument.
func (e *Event) ToMetadata() map[string]interface{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := map[string]interface{}{}
	for category, kv := range e.fields {
		for k, v := range kv {
			out[category+"."+k] = v
		}
	}
	out["event_type"] = e.eventType
	out["started_at"] = isoMillis(e.startedAt)
	if e.ended {
		out["ended_at"] = isoMillis(e.endedAt)
		out["duration_ms"] = e.durationMs
		out["status"] = e.status
		out["level"] = e.lvl.String()
		if e.err != nil {
			out["error"] = e.err
		}
	}
	return out
}
