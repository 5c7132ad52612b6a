package promcounter

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/Arakiss/vestig/level"
	"github.com/Arakiss/vestig/record"
	"github.com/Arakiss/vestig/transport"
)

func TestCounterIncrementsByLevelAndNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(Options{
		Config:     transport.Config{Name: "prom"},
		Namespace:  "vestig",
		Registerer: reg,
	})
	if err := c.Init(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.Log(record.Log{Level: level.Error, Namespace: "auth"})
	c.Log(record.Log{Level: level.Error, Namespace: "auth"})
	c.Log(record.Log{Level: level.Info, Namespace: "billing"})

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather error: %v", err)
	}
	var found *dto.MetricFamily
	for _, f := range families {
		if strings.Contains(f.GetName(), "records_total") {
			found = f
		}
	}
	if found == nil {
		t.Fatal("expected records_total metric family")
	}
	var authCount, billingCount float64
	for _, m := range found.Metric {
		labels := map[string]string{}
		for _, lp := range m.Label {
			labels[lp.GetName()] = lp.GetValue()
		}
		if labels["namespace"] == "auth" && labels["level"] == "error" {
			authCount = m.Counter.GetValue()
		}
		if labels["namespace"] == "billing" && labels["level"] == "info" {
			billingCount = m.Counter.GetValue()
		}
	}
	if authCount != 2 {
		t.Fatalf("expected auth/error count 2, got %v", authCount)
	}
	if billingCount != 1 {
		t.Fatalf("expected billing/info count 1, got %v", billingCount)
	}
}

func TestCounterInitIsIdempotentAcrossDoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	opts := Options{Config: transport.Config{Name: "prom"}, Registerer: reg}
	c1 := New(opts)
	c2 := New(opts)
	if err := c1.Init(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c2.Init(); err != nil {
		t.Fatalf("expected AlreadyRegisteredError to be absorbed, got %v", err)
	}
}
