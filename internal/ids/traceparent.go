package ids

import (
	"fmt"
	"strings"
)

// Traceparent is the decoded form of a W3C "traceparent" header.
type Traceparent struct {
	TraceID string
	SpanID  string
}

// ParseTraceparent accepts iff version == "00", trace ID is 32 hex chars,
// span ID is 16 hex chars, and flags is exactly two hex chars. Returns false
// on any other shape (spec §4.1, §8 boundary behaviors).
func ParseTraceparent(header string) (Traceparent, bool) {
	parts := strings.Split(header, "-")
	if len(parts) != 4 {
		return Traceparent{}, false
	}
	version, traceID, spanID, flags := parts[0], parts[1], parts[2], parts[3]
	if version != "00" {
		return Traceparent{}, false
	}
	if !ValidTraceID(traceID) || !ValidSpanID(spanID) {
		return Traceparent{}, false
	}
	if !isLowerHex(flags, 2) {
		return Traceparent{}, false
	}
	return Traceparent{TraceID: traceID, SpanID: spanID}, true
}

// CreateTraceparent always emits version "00" and the sampled flag "01".
func CreateTraceparent(traceID, spanID string) string {
	return fmt.Sprintf("00-%s-%s-01", traceID, spanID)
}

// TracestateMaxEntries bounds the number of vendor entries retained on
// update, per spec §4.1.
const TracestateMaxEntries = 32

// Tracestate is an ordered list of key=value pairs, preserving insertion
// order as required by the W3C spec and this library's contract.
type Tracestate struct {
	keys   []string
	values map[string]string
}

// ParseTracestate parses a comma-separated "key=value[,...]" header,
// preserving order and skipping malformed entries (never raises).
func ParseTracestate(header string) *Tracestate {
	ts := &Tracestate{values: map[string]string{}}
	if header == "" {
		return ts
	}
	for _, raw := range strings.Split(header, ",") {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		eq := strings.IndexByte(entry, '=')
		if eq <= 0 || eq == len(entry)-1 {
			continue
		}
		key, value := entry[:eq], entry[eq+1:]
		if !validTracestateKey(key) || !validTracestateValue(value) {
			continue
		}
		if _, exists := ts.values[key]; exists || len(ts.keys) >= TracestateMaxEntries {
			continue
		}
		ts.keys = append(ts.keys, key)
		ts.values[key] = value
	}
	return ts
}

// Set inserts or updates key, moving it to the front of the list (the most
// recently touched vendor's entry is always first, per the W3C spec).
func (t *Tracestate) Set(key, value string) { t.set(key, value) }

func (t *Tracestate) set(key, value string) {
	if t.values == nil {
		t.values = map[string]string{}
	}
	if _, exists := t.values[key]; exists {
		t.removeKey(key)
	}
	t.values[key] = value
	t.keys = append([]string{key}, t.keys...)
	if len(t.keys) > TracestateMaxEntries {
		dropped := t.keys[TracestateMaxEntries:]
		t.keys = t.keys[:TracestateMaxEntries]
		for _, k := range dropped {
			delete(t.values, k)
		}
	}
}

func (t *Tracestate) removeKey(key string) {
	for i, k := range t.keys {
		if k == key {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			return
		}
	}
}

// Get returns the value for key, if present.
func (t *Tracestate) Get(key string) (string, bool) {
	v, ok := t.values[key]
	return v, ok
}

// String renders the ordered "key=value,..." header value.
func (t *Tracestate) String() string {
	parts := make([]string, 0, len(t.keys))
	for _, k := range t.keys {
		parts = append(parts, k+"="+t.values[k])
	}
	return strings.Join(parts, ",")
}

func validTracestateKey(key string) bool {
	if key == "" || len(key) > 256 {
		return false
	}
	for i, c := range key {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case i > 0 && (c == '_' || c == '-' || c == '*' || c == '/' || c == '@'):
		default:
			return false
		}
	}
	return true
}

func validTracestateValue(value string) bool {
	if value == "" || len(value) > 256 {
		return false
	}
	for _, c := range value {
		if c < 0x20 || c > 0x7e || c == ',' || c == '=' {
			return false
		}
	}
	return true
}
