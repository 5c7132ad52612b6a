package dedup

import "testing"

func newTestDedup(cfg Config) (*Deduplicator, *int64) {
	d := New(cfg)
	clock := new(int64)
	d.nowMs = func() int64 { return *clock }
	return d, clock
}

func TestFirstCallNeverSuppressed(t *testing.T) {
	d, _ := newTestDedup(DefaultConfig())
	r := d.ShouldSuppress("boom", "error", "")
	if r.Suppressed {
		t.Fatal("first occurrence must never be suppressed")
	}
}

func TestWithinWindowSuppressed(t *testing.T) {
	d, clock := newTestDedup(DefaultConfig())
	d.ShouldSuppress("boom", "error", "")
	*clock = 500
	r := d.ShouldSuppress("boom", "error", "")
	if !r.Suppressed {
		t.Fatal("expected suppression within window")
	}
}

func TestWindowElapsedFlushesWithSuppressedCount(t *testing.T) {
	d, clock := newTestDedup(DefaultConfig())
	d.ShouldSuppress("boom", "error", "")
	*clock = 500
	d.ShouldSuppress("boom", "error", "") // suppressed, count=2
	*clock = 1500
	r := d.ShouldSuppress("boom", "error", "")
	if r.Suppressed {
		t.Fatal("expected not-suppressed after window elapsed")
	}
	if !r.Flush || r.SuppressedCount != 1 {
		t.Fatalf("expected flush with suppressedCount=1, got %+v", r)
	}
}

func TestZeroWindowAlwaysFlushesWithEmptySummary(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WindowMs = 0
	d, _ := newTestDedup(cfg)

	first := d.ShouldSuppress("x", "info", "")
	if first.Suppressed {
		t.Fatal("first call must not be suppressed")
	}
	second := d.ShouldSuppress("x", "info", "")
	if second.Suppressed || !second.Flush || second.SuppressedCount != 0 {
		t.Fatalf("expected not-suppressed flush-through with empty summary, got %+v", second)
	}
}

func TestMaxSizeEvictsOldestInsertionOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSize = 2
	d, _ := newTestDedup(cfg)

	d.ShouldSuppress("a", "info", "")
	d.ShouldSuppress("b", "info", "")
	d.ShouldSuppress("c", "info", "") // evicts "a"

	if _, tracked := d.track["info|a"]; tracked {
		t.Fatal("expected oldest signature to be evicted")
	}
	if _, tracked := d.track["info|c"]; !tracked {
		t.Fatal("expected newest signature to be tracked")
	}
}

func TestGetPendingSummariesOnlyReturnsRepeats(t *testing.T) {
	d, clock := newTestDedup(DefaultConfig())
	d.ShouldSuppress("once", "info", "")
	d.ShouldSuppress("twice", "info", "")
	*clock = 10
	d.ShouldSuppress("twice", "info", "")

	pending := d.GetPendingSummaries()
	if len(pending) != 1 || pending[0].SuppressedCount != 1 {
		t.Fatalf("expected exactly one pending summary with count 1, got %+v", pending)
	}
}

func TestSweepRemovesElapsedSingleOccurrenceEntries(t *testing.T) {
	d, clock := newTestDedup(DefaultConfig())
	d.ShouldSuppress("solo", "info", "")
	*clock = 5000
	d.Sweep()
	if _, tracked := d.track["info|solo"]; tracked {
		t.Fatal("expected elapsed single-occurrence entry to be swept")
	}
}
