package transport

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Arakiss/vestig/record"
)

func TestHTTPSendSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := NewHTTP(HTTPOptions{
		BatchConfig: BatchConfig{Config: Config{Name: "http"}, BatchSize: 10},
		URL:         srv.URL,
	})
	if err := h.send([]record.Log{{Message: "x"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHTTPSendNonRetryableOn4xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad"))
	}))
	defer srv.Close()

	h := NewHTTP(HTTPOptions{
		BatchConfig: BatchConfig{Config: Config{Name: "http"}, BatchSize: 10},
		URL:         srv.URL,
	})
	err := h.send([]record.Log{{Message: "x"}})
	if err == nil {
		t.Fatal("expected error")
	}
	httpErr, ok := err.(*HTTPError)
	if !ok || !httpErr.IsClientError || httpErr.StatusCode != 400 {
		t.Fatalf("expected client HTTPError, got %#v", err)
	}
	if nr, ok := err.(NonRetryable); !ok || !nr.NonRetryable() {
		t.Fatal("expected 4xx error to be non-retryable")
	}
}

func TestHTTPSendDropsOnlyUnserializableRecord(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := NewHTTP(HTTPOptions{
		BatchConfig: BatchConfig{Config: Config{Name: "http"}, BatchSize: 10},
		URL:         srv.URL,
	})
	bad := record.Log{Message: "bad", Metadata: map[string]interface{}{"v": math.Inf(1)}}
	good := record.Log{Message: "good"}
	if err := h.send([]record.Log{bad, good}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sent []record.Log
	if err := json.Unmarshal(gotBody, &sent); err != nil {
		t.Fatalf("expected the surviving record to still be sent as valid JSON: %v (body=%q)", err, gotBody)
	}
	if len(sent) != 1 || sent[0].Message != "good" {
		t.Fatalf("expected only the good record to survive, got %#v", sent)
	}
}

func TestHTTPBatchTransportRetriesThenAbandonsNonRetryable(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	h := NewHTTP(HTTPOptions{
		BatchConfig: BatchConfig{Config: Config{Name: "http"}, BatchSize: 10, MaxRetries: 5, RetryDelayMs: 1},
		URL:         srv.URL,
	})
	_ = h.sendWithRetry([]record.Log{{Message: "x"}})
	if calls != 1 {
		t.Fatalf("expected exactly 1 call for a non-retryable error, got %d", calls)
	}
}
