package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Arakiss/vestig/internal/diag"
	"github.com/Arakiss/vestig/record"
)

// HTTPError is raised for non-2xx responses, carrying the status code and a
// best-effort response body (spec §4.8).
type HTTPError struct {
	StatusCode    int
	Body          string
	IsClientError bool
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http transport: status %d: %s", e.StatusCode, e.Body)
}

// NonRetryable implements transport.NonRetryable: a 4xx client error is
// reported and the batch abandoned immediately rather than retried (spec
// §7 "Transport send failure").
func (e *HTTPError) NonRetryable() bool { return e.IsClientError }

// HTTPOptions configures the HTTP batch transport.
type HTTPOptions struct {
	BatchConfig
	URL       string
	Method    string // default POST
	Headers   map[string]string
	TimeoutMs int64 // default 30000
	// Transform optionally reshapes the batch before JSON-encoding; if nil,
	// the raw []record.Log slice is encoded.
	Transform func([]record.Log) interface{}
	Client    *http.Client
}

// HTTP is a batch transport that POSTs (or PUTs) JSON batches.
type HTTP struct {
	*Base
	opts HTTPOptions
}

// NewHTTP constructs an HTTP transport.
func NewHTTP(opts HTTPOptions) *HTTP {
	if opts.Method == "" {
		opts.Method = http.MethodPost
	}
	if opts.TimeoutMs <= 0 {
		opts.TimeoutMs = 30000
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	h := &HTTP{opts: opts}
	h.Base = NewBase(opts.BatchConfig, h.send)
	return h
}

func (h *HTTP) Name() string   { return h.opts.Config.Name }
func (h *HTTP) Config() Config { return h.opts.Config }

func (h *HTTP) transform(records []record.Log) interface{} {
	var payload interface{} = records
	if h.opts.Transform != nil {
		if t := h.opts.Transform(records); t != nil {
			payload = t
		}
	}
	return payload
}

// marshalBatch serializes records as a whole; if that fails (e.g. a cyclic
// or otherwise unmarshalable value inside one record), it isolates the
// offending record(s) by marshaling one at a time, drops only those (with a
// diag.Warn), and retries the marshal with the remaining good records —
// spec §7 "the offending record is dropped, not the batch". Returns a nil
// body (and nil error) when nothing survives.
func (h *HTTP) marshalBatch(records []record.Log) ([]byte, error) {
	body, err := json.Marshal(h.transform(records))
	if err == nil {
		return body, nil
	}

	good := make([]record.Log, 0, len(records))
	for _, r := range records {
		if _, err := json.Marshal(h.transform([]record.Log{r})); err != nil {
			diag.Warn("http transport %s: dropping record that failed to serialize: %v", h.opts.Config.Name, err)
			continue
		}
		good = append(good, r)
	}
	if len(good) == 0 {
		return nil, nil
	}
	body, err = json.Marshal(h.transform(good))
	if err != nil {
		diag.Warn("http transport %s: batch still failed to serialize after dropping bad records: %v", h.opts.Config.Name, err)
		return nil, nil
	}
	return body, nil
}

func (h *HTTP) send(records []record.Log) error {
	body, err := h.marshalBatch(records)
	if err != nil {
		return err
	}
	if body == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.opts.TimeoutMs)*time.Millisecond)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, h.opts.Method, h.opts.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range h.opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := h.opts.Client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return &HTTPError{StatusCode: 408, Body: "request timed out"}
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &HTTPError{
			StatusCode:    resp.StatusCode,
			Body:          string(respBody),
			IsClientError: resp.StatusCode >= 400 && resp.StatusCode < 500,
		}
	}
	return nil
}
