package ids

import "testing"

func TestNewTraceIDShape(t *testing.T) {
	id := NewTraceID()
	if !ValidTraceID(id) {
		t.Fatalf("generated trace id %q is not valid", id)
	}
}

func TestNewSpanIDShape(t *testing.T) {
	id := NewSpanID()
	if !ValidSpanID(id) {
		t.Fatalf("generated span id %q is not valid", id)
	}
}

func TestTraceparentRoundTrip(t *testing.T) {
	traceID := "0af7651916cd43dd8448eb211c80319c"[:32]
	spanID := "b7ad6b7169203331"
	header := CreateTraceparent(traceID, spanID)
	got, ok := ParseTraceparent(header)
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	if got.TraceID != traceID || got.SpanID != spanID {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestParseTraceparentBoundary(t *testing.T) {
	cases := []string{
		"",
		"01-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01",
		"00-short-b7ad6b7169203331-01",
		"00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-1",
	}
	for _, c := range cases {
		if _, ok := ParseTraceparent(c); ok {
			t.Fatalf("expected %q to fail parsing", c)
		}
	}
}

func TestTracestatePreservesOrderAndMovesUpdatedToFront(t *testing.T) {
	ts := ParseTracestate("a=1,b=2,c=3")
	ts.Set("b", "20")
	if got := ts.String(); got != "b=20,a=1,c=3" {
		t.Fatalf("unexpected tracestate order: %q", got)
	}
}

func TestTracestateCapsLength(t *testing.T) {
	ts := ParseTracestate("")
	for i := 0; i < TracestateMaxEntries+5; i++ {
		ts.Set(string(rune('a'+(i%26)))+string(rune('0'+i/26)), "v")
	}
	count := 0
	for range ts.keys {
		count++
	}
	if count > TracestateMaxEntries {
		t.Fatalf("expected at most %d entries, got %d", TracestateMaxEntries, count)
	}
}
