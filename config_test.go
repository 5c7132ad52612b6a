package vestig

import (
	"os"
	"testing"

	"github.com/Arakiss/vestig/level"
)

func TestDefaultConfigDevelopment(t *testing.T) {
	os.Unsetenv("VESTIG_ENV")
	os.Unsetenv("APP_ENV")
	cfg := defaultConfig()
	if cfg.structured {
		t.Fatal("expected non-production default to be unstructured")
	}
	if cfg.level != level.Info {
		t.Fatalf("expected default level info, got %v", cfg.level)
	}
}

func TestIsProductionHonorsAppEnvFallback(t *testing.T) {
	os.Unsetenv("VESTIG_ENV")
	t.Setenv("APP_ENV", "production")
	if !isProduction() {
		t.Fatal("expected APP_ENV=production to be honored")
	}
}

func TestIsProductionPrefersVestigEnv(t *testing.T) {
	t.Setenv("VESTIG_ENV", "production")
	t.Setenv("APP_ENV", "development")
	if !isProduction() {
		t.Fatal("expected VESTIG_ENV=production to win")
	}
}

func TestApplyEnvOverridesLevelEnabledStructuredSanitize(t *testing.T) {
	t.Setenv("VESTIG_LEVEL", "error")
	t.Setenv("VESTIG_ENABLED", "false")
	t.Setenv("VESTIG_STRUCTURED", "true")
	t.Setenv("VESTIG_SANITIZE", "false")

	cfg := applyEnv(defaultConfig())
	if cfg.level != level.Error {
		t.Fatalf("expected level error, got %v", cfg.level)
	}
	if cfg.enabled {
		t.Fatal("expected enabled=false")
	}
	if !cfg.structured {
		t.Fatal("expected structured=true")
	}
	if cfg.sanitizeEnabled {
		t.Fatal("expected sanitizeEnabled=false")
	}
}

func TestApplyEnvContextPrefixLowercasesKeys(t *testing.T) {
	t.Setenv("VESTIG_CONTEXT_SERVICE", "checkout")
	cfg := applyEnv(defaultConfig())
	if cfg.staticContext["service"] != "checkout" {
		t.Fatalf("expected static context key 'service' = checkout, got %+v", cfg.staticContext)
	}
}

func TestOptionPrecedenceOverEnv(t *testing.T) {
	t.Setenv("VESTIG_LEVEL", "error")
	l, err := CreateLogger(WithLevel(level.Debug))
	if err != nil {
		t.Fatalf("CreateLogger: %v", err)
	}
	if l.GetLevel() != level.Debug {
		t.Fatalf("expected explicit option to win over env, got %v", l.GetLevel())
	}
}

func TestCloneDeepCopiesStaticContext(t *testing.T) {
	cfg := defaultConfig()
	cfg.staticContext["a"] = "1"

	clone := cfg.clone()
	clone.staticContext["a"] = "2"
	if cfg.staticContext["a"] != "1" {
		t.Fatal("clone mutated parent's static context")
	}
}
