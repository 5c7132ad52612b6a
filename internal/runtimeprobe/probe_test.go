package runtimeprobe

import "testing"

func TestProbeIsStableAcrossCalls(t *testing.T) {
	a := Probe()
	b := Probe()
	if a != b {
		t.Fatalf("probe result changed between calls: %+v != %+v", a, b)
	}
	if !a.HighResClock {
		t.Fatal("expected HighResClock to be true on Go hosts")
	}
}
