package otlpexport

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Arakiss/vestig/tracing"
)

// These types mirror the OTLP/JSON ExportTraceServiceRequest shape (spec
// §4.11). The shape is fixed externally by the OTel specification, not
// invented here.

// anyValue is OTLP's union-typed AnyValue (spec §3 "Attribute values are
// union-typed: string|int|double|bool|array|kvlist"). Exactly one field is
// populated per value; pointers (rather than bare zero-value fields) so a
// false bool or a 0 double still marshal their tag instead of being
// omitempty'd away.
type anyValue struct {
	StringValue *string      `json:"stringValue,omitempty"`
	BoolValue   *bool        `json:"boolValue,omitempty"`
	IntValue    *string      `json:"intValue,omitempty"`
	DoubleValue *float64     `json:"doubleValue,omitempty"`
	ArrayValue  *arrayValue  `json:"arrayValue,omitempty"`
	KvlistValue *kvlistValue `json:"kvlistValue,omitempty"`
}

type arrayValue struct {
	Values []anyValue `json:"values"`
}

type kvlistValue struct {
	Values []attribute `json:"values"`
}

type attribute struct {
	Key   string   `json:"key"`
	Value anyValue `json:"value"`
}

// toAnyValue converts a Go value pulled from a span/event attribute map into
// its OTLP AnyValue wire form. Integers round-trip through the intValue
// decimal string (spec §8 "integers round-trip through intValue decimal
// strings"); floats keep their exact float64 bit pattern via encoding/json's
// own float formatting.
func toAnyValue(v interface{}) anyValue {
	switch x := v.(type) {
	case nil:
		return anyValue{}
	case string:
		return anyValue{StringValue: &x}
	case bool:
		return anyValue{BoolValue: &x}
	case int:
		s := strconv.FormatInt(int64(x), 10)
		return anyValue{IntValue: &s}
	case int8:
		s := strconv.FormatInt(int64(x), 10)
		return anyValue{IntValue: &s}
	case int16:
		s := strconv.FormatInt(int64(x), 10)
		return anyValue{IntValue: &s}
	case int32:
		s := strconv.FormatInt(int64(x), 10)
		return anyValue{IntValue: &s}
	case int64:
		s := strconv.FormatInt(x, 10)
		return anyValue{IntValue: &s}
	case uint:
		s := strconv.FormatUint(uint64(x), 10)
		return anyValue{IntValue: &s}
	case uint32:
		s := strconv.FormatUint(uint64(x), 10)
		return anyValue{IntValue: &s}
	case uint64:
		s := strconv.FormatUint(x, 10)
		return anyValue{IntValue: &s}
	case float32:
		d := float64(x)
		return anyValue{DoubleValue: &d}
	case float64:
		d := x
		return anyValue{DoubleValue: &d}
	case []interface{}:
		vals := make([]anyValue, len(x))
		for i, e := range x {
			vals[i] = toAnyValue(e)
		}
		return anyValue{ArrayValue: &arrayValue{Values: vals}}
	case map[string]interface{}:
		return anyValue{KvlistValue: &kvlistValue{Values: attributesFromMap(x)}}
	default:
		s := fmt.Sprintf("%v", x)
		return anyValue{StringValue: &s}
	}
}

type resource struct {
	Attributes []attribute `json:"attributes"`
}

type instrumentationScope struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

type otlpEvent struct {
	TimeUnixNano string      `json:"timeUnixNano"`
	Name         string      `json:"name"`
	Attributes   []attribute `json:"attributes,omitempty"`
}

type otlpSpan struct {
	TraceID           string      `json:"traceId"`
	SpanID            string      `json:"spanId"`
	ParentSpanID      string      `json:"parentSpanId,omitempty"`
	Name              string      `json:"name"`
	StartTimeUnixNano string      `json:"startTimeUnixNano"`
	EndTimeUnixNano   string      `json:"endTimeUnixNano,omitempty"`
	Attributes        []attribute `json:"attributes,omitempty"`
	Events            []otlpEvent `json:"events,omitempty"`
	Status            otlpStatus  `json:"status"`
}

type otlpStatus struct {
	Code    int    `json:"code"` // 0 unset, 1 ok, 2 error (OTel StatusCode)
	Message string `json:"message,omitempty"`
}

type scopeSpans struct {
	Scope instrumentationScope `json:"scope"`
	Spans []otlpSpan           `json:"spans"`
}

type resourceSpans struct {
	Resource   resource     `json:"resource"`
	ScopeSpans []scopeSpans `json:"scopeSpans"`
}

type exportTraceServiceRequest struct {
	ResourceSpans []resourceSpans `json:"resourceSpans"`
}

// nsTimestamp converts a monotonic nanosecond offset (since process start)
// to a decimal-string Unix nanosecond timestamp: epochStartMs×1_000_000 +
// monoNanos, computed entirely in int64 arithmetic and rendered as a
// string so no JSON-number float conversion ever touches the 64-bit ns
// value (spec §4.11).
func (e *Exporter) nsTimestamp(monoNanos int64) string {
	return strconv.FormatInt(e.epochStartMs*int64(time.Millisecond)+monoNanos, 10)
}

func attributesFromMap(m map[string]interface{}) []attribute {
	out := make([]attribute, 0, len(m))
	for k, v := range m {
		out = append(out, attribute{Key: k, Value: toAnyValue(v)})
	}
	return out
}

func (e *Exporter) toOTLP(sp *tracing.Span) otlpSpan {
	status, msg := sp.StatusInfo()
	code := 0
	switch status {
	case tracing.StatusOK:
		code = 1
	case tracing.StatusError:
		code = 2
	}

	events := sp.Events()
	otlpEvents := make([]otlpEvent, len(events))
	for i, ev := range events {
		otlpEvents[i] = otlpEvent{
			TimeUnixNano: e.nsTimestamp(ev.MonoNanos),
			Name:         ev.Name,
			Attributes:   attributesFromMap(ev.Attributes),
		}
	}

	traceID := sp.TraceID()
	if !validHexID(traceID, true) {
		traceID = zeroTraceID
	}
	spanID := sp.SpanID()
	if !validHexID(spanID, false) {
		spanID = zeroSpanID
	}

	doc := otlpSpan{
		TraceID:           traceID,
		SpanID:            spanID,
		ParentSpanID:      sp.ParentID(),
		Name:              sp.Name(),
		StartTimeUnixNano: e.nsTimestamp(sp.StartMonoNanos()),
		Attributes:        attributesFromMap(sp.Attributes()),
		Events:            otlpEvents,
		Status:            otlpStatus{Code: code, Message: msg},
	}
	if sp.Ended() {
		doc.EndTimeUnixNano = e.nsTimestamp(sp.EndMonoNanos())
	}
	return doc
}
