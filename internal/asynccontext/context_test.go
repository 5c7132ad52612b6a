package asynccontext

import (
	"context"
	"errors"
	"testing"
)

func TestWithContextMergesAndRestoresOnReturn(t *testing.T) {
	base := context.Background()
	base = WithContext(base, CorrelationContext{"requestId": "r1", "a": "1"})

	before, _ := GetContext(base)

	err := Run(base, CorrelationContext{"a": "2", "b": "3"}, func(scoped context.Context) error {
		c, ok := GetContext(scoped)
		if !ok {
			t.Fatal("expected context to be present")
		}
		if c["requestId"] != "r1" || c["a"] != "2" || c["b"] != "3" {
			t.Fatalf("unexpected merged context: %+v", c)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	after, _ := GetContext(base)
	if after["a"] != before["a"] {
		t.Fatalf("caller's context was mutated: before=%+v after=%+v", before, after)
	}
}

func TestRunPropagatesError(t *testing.T) {
	sentinel := errors.New("boom")
	err := Run(context.Background(), nil, func(context.Context) error {
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
}

func TestGetContextAbsentWhenNeverSet(t *testing.T) {
	if _, ok := GetContext(context.Background()); ok {
		t.Fatal("expected no context on a bare background context")
	}
}

func TestCreateCorrelationContextGeneratesMissingReservedKeys(t *testing.T) {
	calls := map[string]int{}
	gen := func(name string) func() string {
		return func() string {
			calls[name]++
			return name + "-generated"
		}
	}
	out := CreateCorrelationContext(CorrelationContext{"requestId": "explicit", "userId": "u1"},
		gen("requestId"), gen("traceId"), gen("spanId"))

	if out["requestId"] != "explicit" {
		t.Fatalf("expected explicit requestId to be kept, got %q", out["requestId"])
	}
	if out["traceId"] != "traceId-generated" || out["spanId"] != "spanId-generated" {
		t.Fatalf("expected missing ids to be generated: %+v", out)
	}
	if out["userId"] != "u1" {
		t.Fatalf("expected passthrough user key, got %+v", out)
	}
	if calls["requestId"] != 0 {
		t.Fatal("requestId generator should not be called when value supplied")
	}
}
