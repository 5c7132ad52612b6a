package fetchinstr

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Arakiss/vestig/tracing"
)

type recordingProcessor struct {
	ended []*tracing.Span
}

func (r *recordingProcessor) Name() string  { return "fetchinstr-test-recorder" }
func (r *recordingProcessor) OnStart(*tracing.Span) {}
func (r *recordingProcessor) OnEnd(sp *tracing.Span) {
	r.ended = append(r.ended, sp)
}
func (r *recordingProcessor) ForceFlush() error { return nil }
func (r *recordingProcessor) Shutdown() error   { return nil }

func resetGlobalState(t *testing.T) {
	t.Cleanup(func() {
		if IsFetchInstrumented() {
			UninstrumentFetch()
		}
	})
}

func TestInstrumentFetchWrapsDefaultTransportAndCreatesSpan(t *testing.T) {
	resetGlobalState(t)
	proc := &recordingProcessor{}
	tracing.AddProcessor(proc)
	defer tracing.RemoveProcessor(proc.Name())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("traceparent") == "" {
			t.Error("expected traceparent header to be injected")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := InstrumentFetch(Options{PropagateContext: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !IsFetchInstrumented() {
		t.Fatal("expected IsFetchInstrumented to report true")
	}

	resp, err := http.Get(srv.URL + "/ping")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if len(proc.ended) != 1 {
		t.Fatalf("expected 1 ended span, got %d", len(proc.ended))
	}
	sp := proc.ended[0]
	if !strings.HasPrefix(sp.Name(), "http.client GET ") {
		t.Fatalf("unexpected span name: %q", sp.Name())
	}
	status, _ := sp.StatusInfo()
	if status != tracing.StatusOK {
		t.Fatalf("expected ok status, got %v", status)
	}
}

func TestInstrumentFetchSkipsIgnoredURLs(t *testing.T) {
	resetGlobalState(t)
	proc := &recordingProcessor{}
	tracing.AddProcessor(proc)
	defer tracing.RemoveProcessor(proc.Name())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := InstrumentFetch(Options{IgnoreURLs: []string{"/health"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if len(proc.ended) != 0 {
		t.Fatalf("expected no spans for an ignored URL, got %d", len(proc.ended))
	}
}

func TestDoubleInstrumentIsANoOp(t *testing.T) {
	resetGlobalState(t)
	if err := InstrumentFetch(Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wrapped := http.DefaultTransport
	if err := InstrumentFetch(Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if http.DefaultTransport != wrapped {
		t.Fatal("expected a second InstrumentFetch call to leave the transport untouched")
	}
}

func TestUninstrumentRestoresOriginalTransport(t *testing.T) {
	resetGlobalState(t)
	original := http.DefaultTransport
	if err := InstrumentFetch(Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	UninstrumentFetch()
	if http.DefaultTransport != original {
		t.Fatal("expected UninstrumentFetch to restore the original transport")
	}
	if IsFetchInstrumented() {
		t.Fatal("expected IsFetchInstrumented to report false after uninstrument")
	}
}

func TestRoundTripErrorSetsErrorStatus(t *testing.T) {
	resetGlobalState(t)
	proc := &recordingProcessor{}
	tracing.AddProcessor(proc)
	defer tracing.RemoveProcessor(proc.Name())

	if err := InstrumentFetch(Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := http.Get("http://127.0.0.1:1/unreachable")
	if err == nil {
		t.Fatal("expected an error dialing an unreachable address")
	}

	if len(proc.ended) != 1 {
		t.Fatalf("expected 1 ended span, got %d", len(proc.ended))
	}
	status, msg := proc.ended[0].StatusInfo()
	if status != tracing.StatusError || msg == "" {
		t.Fatalf("expected error status with a message, got %v %q", status, msg)
	}
}
