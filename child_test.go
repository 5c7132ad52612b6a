package vestig

import (
	"context"
	"runtime"
	"testing"

	"github.com/Arakiss/vestig/internal/testutil"
	"github.com/Arakiss/vestig/level"
)

func TestChildNamespaceIsPrefixed(t *testing.T) {
	root, err := CreateLogger(WithNamespace("api"))
	if err != nil {
		t.Fatalf("CreateLogger: %v", err)
	}
	child := root.Child("db")
	if child.Namespace() != "api:db" {
		t.Fatalf("expected namespace 'api:db', got %q", child.Namespace())
	}
	grandchild := child.Child("pool")
	if grandchild.Namespace() != "api:db:pool" {
		t.Fatalf("expected namespace 'api:db:pool', got %q", grandchild.Namespace())
	}
}

func TestChildInheritsParentConfig(t *testing.T) {
	root, err := CreateLogger(WithNamespace("api"), WithLevel(level.Warn), WithSanitize(false))
	if err != nil {
		t.Fatalf("CreateLogger: %v", err)
	}
	child := root.Child("db")
	if child.GetLevel() != level.Warn {
		t.Fatalf("expected inherited level warn, got %v", child.GetLevel())
	}
}

func TestChildOptionsOverlayParentConfig(t *testing.T) {
	root, err := CreateLogger(WithNamespace("api"), WithLevel(level.Warn))
	if err != nil {
		t.Fatalf("CreateLogger: %v", err)
	}
	child := root.Child("db", WithLevel(level.Trace))
	if child.GetLevel() != level.Trace {
		t.Fatalf("expected overlay level trace, got %v", child.GetLevel())
	}
}

func TestChildWithoutOptionsIsCachedByNamespace(t *testing.T) {
	root, err := CreateLogger(WithNamespace("api"))
	if err != nil {
		t.Fatalf("CreateLogger: %v", err)
	}
	a := root.Child("db")
	b := root.Child("db")
	if a != b {
		t.Fatal("expected repeated Child calls with no options to return the cached instance")
	}
}

func TestChildWithOptionsBypassesCache(t *testing.T) {
	root, err := CreateLogger(WithNamespace("api"))
	if err != nil {
		t.Fatalf("CreateLogger: %v", err)
	}
	a := root.Child("db", WithLevel(level.Debug))
	b := root.Child("db", WithLevel(level.Debug))
	if a == b {
		t.Fatal("expected Child calls with explicit options to bypass the cache")
	}
}

func TestChildEvictionAllowsCollectionAndRecreation(t *testing.T) {
	root, err := CreateLogger(WithNamespace("api"))
	if err != nil {
		t.Fatalf("CreateLogger: %v", err)
	}
	first := root.Child("db")
	firstPtr := first
	first = nil
	_ = firstPtr

	// Dropping the only strong reference and forcing a GC cycle makes the
	// weak entry eligible for eviction; runtime.AddCleanup's cleanup then
	// removes the stale cache entry so a later Child call builds fresh
	// rather than returning a stale reference forever.
	runtime.GC()
	runtime.GC()

	again := root.Child("db")
	if again == nil {
		t.Fatal("expected Child to still construct a usable logger after eviction")
	}
	if again.Namespace() != "api:db" {
		t.Fatalf("expected namespace 'api:db', got %q", again.Namespace())
	}
}

func TestChildLogsCarryFullyQualifiedNamespace(t *testing.T) {
	mem := testutil.NewMemoryTransport("memory")
	root, err := CreateLogger(WithNamespace("api"), WithSanitize(false), WithTransport(mem))
	if err != nil {
		t.Fatalf("CreateLogger: %v", err)
	}
	child := root.Child("db")
	child.Info(context.Background(), "query executed")
	logs := mem.Logs()
	if len(logs) != 1 || logs[0].Namespace != "api:db" {
		t.Fatalf("expected namespace 'api:db' on the record, got %+v", logs)
	}
}
