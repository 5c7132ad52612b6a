// Package level defines the ordered log-level enumeration shared by the
// logger core, the samplers' error-bypass threshold, and the dedup
// signature. Spec §3: "the only observable contract is total order."
package level

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Level is an ordered log severity. Numeric values are an implementation
// detail; only the total order (Trace < Debug < Info < Warn < Error) is a
// contract.
type Level int

const (
	Trace Level = iota
	Debug
	Info
	Warn
	Error
)

// String renders the canonical lowercase name.
func (l Level) String() string {
	switch l {
	case Trace:
		return "trace"
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the level as its canonical lowercase name, since the
// numeric value is explicitly not part of the wire contract.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON accepts the canonical lowercase name.
func (l *Level) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, ok := Parse(name)
	if !ok {
		return fmt.Errorf("level: unrecognized level %q", name)
	}
	*l = parsed
	return nil
}

// Parse maps a case-insensitive level name to a Level. ok is false for any
// unrecognized name, leaving the zero value otherwise unused by callers.
func Parse(name string) (Level, bool) {
	switch strings.ToLower(name) {
	case "trace":
		return Trace, true
	case "debug":
		return Debug, true
	case "info":
		return Info, true
	case "warn", "warning":
		return Warn, true
	case "error":
		return Error, true
	default:
		return 0, false
	}
}
