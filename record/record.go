// Package record defines the wire-neutral log record and error shapes
// shared by the logger core, every transport, and the tracing/wide-event
// subsystems (spec §3 "Log record", "Correlation context").
package record

import (
	"encoding/json"
	"errors"
	"net"
	"os"
	"strconv"
	"syscall"
	"time"

	"github.com/Arakiss/vestig/level"
)

// ErrorInfo is a serialized error: name, message, stack, cause chain
// (bounded to depth 10), plus known OS-level fields.
type ErrorInfo struct {
	Name       string     `json:"name"`
	Message    string     `json:"message"`
	Stack      string     `json:"stack,omitempty"`
	Cause      *ErrorInfo `json:"cause,omitempty"`
	Code       string     `json:"code,omitempty"`
	StatusCode int        `json:"statusCode,omitempty"`
	Status     string     `json:"status,omitempty"`
	Errno      string     `json:"errno,omitempty"`
	Syscall    string     `json:"syscall,omitempty"`
	Path       string     `json:"path,omitempty"`
	Address    string     `json:"address,omitempty"`
	Port       string     `json:"port,omitempty"`
}

// MaxCauseDepth bounds the serialized cause chain (spec §3).
const MaxCauseDepth = 10

// SerializeError converts a Go error into an ErrorInfo, walking errors.Unwrap
// up to MaxCauseDepth.
func SerializeError(err error) *ErrorInfo {
	return serializeErrorDepth(err, 0)
}

type unwrapper interface{ Unwrap() error }

func serializeErrorDepth(err error, depth int) *ErrorInfo {
	if err == nil {
		return nil
	}
	info := &ErrorInfo{
		Name:    errorName(err),
		Message: err.Error(),
	}
	populateOSFields(info, err)
	if depth < MaxCauseDepth {
		if u, ok := err.(unwrapper); ok {
			if cause := u.Unwrap(); cause != nil {
				info.Cause = serializeErrorDepth(cause, depth+1)
			}
		}
	}
	return info
}

// statusCoder and statusser let an application-defined error (e.g. an HTTP
// client error) surface a status code/string without record importing the
// package that defines it.
type statusCoder interface{ StatusCode() int }
type statusser interface{ Status() string }

// populateOSFields fills in the OS-level ErrorInfo fields extractable from
// well-known stdlib error shapes: *os.PathError and *net.OpError carry an
// Op (syscall name) plus Path/Addr, and both commonly wrap a syscall.Errno.
func populateOSFields(info *ErrorInfo, err error) {
	var perr *os.PathError
	if errors.As(err, &perr) {
		info.Syscall = perr.Op
		info.Path = perr.Path
	}

	var nerr *net.OpError
	if errors.As(err, &nerr) {
		info.Syscall = nerr.Op
		if nerr.Addr != nil {
			if host, port, splitErr := net.SplitHostPort(nerr.Addr.String()); splitErr == nil {
				info.Address = host
				info.Port = port
			} else {
				info.Address = nerr.Addr.String()
			}
		}
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		info.Errno = strconv.Itoa(int(errno))
		info.Code = errno.Error()
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		info.StatusCode = sc.StatusCode()
	}
	var ss statusser
	if errors.As(err, &ss) {
		info.Status = ss.Status()
	}
}

func errorName(err error) string {
	type named interface{ Name() string }
	if n, ok := err.(named); ok {
		return n.Name()
	}
	return "Error"
}

// CorrelationContext is a request-scoped id/key mapping (spec §3). Reserved
// keys: requestId, traceId, spanId, userId, sessionId.
type CorrelationContext map[string]string

// Clone returns a shallow copy.
func (c CorrelationContext) Clone() CorrelationContext {
	if c == nil {
		return nil
	}
	out := make(CorrelationContext, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Log is an emitted-once log record (spec §3).
type Log struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     level.Level            `json:"level"`
	Message   string                 `json:"message"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Context   CorrelationContext     `json:"context,omitempty"`
	Runtime   string                 `json:"runtime,omitempty"`
	Namespace string                 `json:"namespace,omitempty"`
	Error     *ErrorInfo             `json:"error,omitempty"`
}

// TimestampISO renders the millisecond-precision UTC ISO-8601 timestamp
// required by spec §3.
func (l Log) TimestampISO() string {
	return l.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z")
}

// logWire is Log's JSON shape, with Timestamp rendered through TimestampISO
// instead of time.Time's default RFC3339Nano.
type logWire struct {
	Timestamp string                 `json:"timestamp"`
	Level     level.Level            `json:"level"`
	Message   string                 `json:"message"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Context   CorrelationContext     `json:"context,omitempty"`
	Runtime   string                 `json:"runtime,omitempty"`
	Namespace string                 `json:"namespace,omitempty"`
	Error     *ErrorInfo             `json:"error,omitempty"`
}

// MarshalJSON renders Timestamp as the millisecond ISO-8601 string used
// throughout the wire formats (console, file, HTTP transports).
func (l Log) MarshalJSON() ([]byte, error) {
	return json.Marshal(logWire{
		Timestamp: l.TimestampISO(),
		Level:     l.Level,
		Message:   l.Message,
		Metadata:  l.Metadata,
		Context:   l.Context,
		Runtime:   l.Runtime,
		Namespace: l.Namespace,
		Error:     l.Error,
	})
}
