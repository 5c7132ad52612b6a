package vestig

import (
	"context"
	"errors"
	"testing"

	"github.com/Arakiss/vestig/internal/testutil"
	"github.com/Arakiss/vestig/level"
	"github.com/Arakiss/vestig/sample"
)

func newTestLogger(t *testing.T, opts ...Option) (*Logger, *testutil.MemoryTransport) {
	t.Helper()
	mem := testutil.NewMemoryTransport("memory")
	full := append([]Option{WithLevel(level.Trace), WithSanitize(false), WithTransport(mem)}, opts...)
	l, err := CreateLogger(full...)
	if err != nil {
		t.Fatalf("CreateLogger: %v", err)
	}
	return l, mem
}

func TestLogGatedByLevel(t *testing.T) {
	l, mem := newTestLogger(t, WithLevel(level.Warn))
	l.Info(context.Background(), "should not appear")
	if got := len(mem.Logs()); got != 0 {
		t.Fatalf("expected 0 logs below threshold, got %d", got)
	}
	l.Warn(context.Background(), "should appear")
	if got := len(mem.Logs()); got != 1 {
		t.Fatalf("expected 1 log at threshold, got %d", got)
	}
}

func TestLogGatedByEnabled(t *testing.T) {
	l, mem := newTestLogger(t)
	l.Disable()
	l.Error(context.Background(), "dropped")
	if got := len(mem.Logs()); got != 0 {
		t.Fatalf("expected disabled logger to drop everything, got %d", got)
	}
}

func TestLogMessageOnlyString(t *testing.T) {
	l, mem := newTestLogger(t)
	l.Info(context.Background(), "hello world")
	logs := mem.Logs()
	if len(logs) != 1 || logs[0].Message != "hello world" {
		t.Fatalf("unexpected logs: %+v", logs)
	}
	if len(logs[0].Metadata) != 0 {
		t.Fatalf("expected no metadata, got %+v", logs[0].Metadata)
	}
}

func TestLogStringPlusMetadataObject(t *testing.T) {
	l, mem := newTestLogger(t)
	l.Info(context.Background(), "order placed", map[string]interface{}{"orderId": "o-1", "total": 42})
	logs := mem.Logs()
	if logs[0].Message != "order placed" {
		t.Fatalf("unexpected message %q", logs[0].Message)
	}
	if logs[0].Metadata["orderId"] != "o-1" || logs[0].Metadata["total"] != 42 {
		t.Fatalf("unexpected metadata %+v", logs[0].Metadata)
	}
}

func TestLogStringPlusErrorExtractsTopLevelError(t *testing.T) {
	l, mem := newTestLogger(t)
	l.Error(context.Background(), "write failed", errors.New("disk full"))
	logs := mem.Logs()
	if logs[0].Error == nil || logs[0].Error.Message != "disk full" {
		t.Fatalf("expected top-level error field, got %+v", logs[0])
	}
	if _, ok := logs[0].Metadata["error"]; ok {
		t.Fatalf("error must not remain in metadata: %+v", logs[0].Metadata)
	}
}

func TestLogNonStringFirstArgStringifiesMessage(t *testing.T) {
	l, mem := newTestLogger(t)
	l.Info(context.Background(), 42, "extra")
	logs := mem.Logs()
	if logs[0].Message != "42" {
		t.Fatalf("expected stringified message '42', got %q", logs[0].Message)
	}
	if logs[0].Metadata["arg1"] != "extra" {
		t.Fatalf("expected arg1 metadata, got %+v", logs[0].Metadata)
	}
}

func TestLogScalarArgsBecomeArgN(t *testing.T) {
	l, mem := newTestLogger(t)
	l.Info(context.Background(), "values", 1, "two", true)
	logs := mem.Logs()
	md := logs[0].Metadata
	if md["arg0"] != 1 || md["arg1"] != "two" || md["arg2"] != true {
		t.Fatalf("unexpected metadata %+v", md)
	}
}

func TestLogSamplerBypassesOnError(t *testing.T) {
	neverSample := sample.Func(func(sample.Context) bool { return false })
	l, mem := newTestLogger(t, WithSampler(neverSample))
	l.Info(context.Background(), "dropped by sampler")
	if got := len(mem.Logs()); got != 0 {
		t.Fatalf("expected sampled-out info log to be dropped, got %d", got)
	}
	l.Error(context.Background(), "error bypasses sampling", errors.New("boom"))
	if got := len(mem.Logs()); got != 1 {
		t.Fatalf("expected error-bearing log to bypass sampler, got %d", got)
	}
}

func TestDispatchFansOutToAllEnabledTransports(t *testing.T) {
	a := testutil.NewMemoryTransport("a")
	b := testutil.NewMemoryTransport("b")
	l, err := CreateLogger(WithSanitize(false), WithTransport(a), WithTransport(b))
	if err != nil {
		t.Fatalf("CreateLogger: %v", err)
	}
	l.Info(context.Background(), "fan out")
	if len(a.Logs()) != 1 || len(b.Logs()) != 1 {
		t.Fatalf("expected both transports to receive the record: a=%d b=%d", len(a.Logs()), len(b.Logs()))
	}
}

func TestAddTransportDuplicateNameRejected(t *testing.T) {
	l, _ := newTestLogger(t)
	if err := l.AddTransport(testutil.NewMemoryTransport("memory")); err == nil {
		t.Fatal("expected duplicate transport name to be rejected")
	}
}

func TestCreateLoggerDuplicateTransportNameRejected(t *testing.T) {
	_, err := CreateLogger(WithTransport(testutil.NewMemoryTransport("dup")), WithTransport(testutil.NewMemoryTransport("dup")))
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError for duplicate transports, got %v", err)
	}
}

func TestFlushCallsEveryTransport(t *testing.T) {
	l, mem := newTestLogger(t)
	if err := l.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if mem.FlushCalls() != 1 {
		t.Fatalf("expected 1 flush call, got %d", mem.FlushCalls())
	}
}

func TestDestroyClearsTransportsAndCallsDestroy(t *testing.T) {
	l, mem := newTestLogger(t)
	if err := l.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if mem.DestroyCalls() != 1 {
		t.Fatalf("expected 1 destroy call, got %d", mem.DestroyCalls())
	}
	if len(l.GetTransports()) != 0 {
		t.Fatal("expected transports cleared after Destroy")
	}
}

func TestRemoveTransportReturnsFalseWhenMissing(t *testing.T) {
	l, _ := newTestLogger(t)
	if l.RemoveTransport("nonexistent") {
		t.Fatal("expected false for a transport name that was never registered")
	}
}
