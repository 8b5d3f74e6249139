package rtconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("cfg = %+v, want defaults %+v", cfg, DefaultConfig())
	}
}

func TestLoadOverridesNamedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "nested_update_limit: 10\nfallback_throttle: 250ms\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NestedUpdateLimit != 10 {
		t.Errorf("NestedUpdateLimit = %d, want 10", cfg.NestedUpdateLimit)
	}
	if cfg.FallbackThrottle != 250*time.Millisecond {
		t.Errorf("FallbackThrottle = %s, want 250ms", cfg.FallbackThrottle)
	}
	if cfg.YieldCheckEvery != DefaultConfig().YieldCheckEvery {
		t.Errorf("YieldCheckEvery changed unexpectedly: %d", cfg.YieldCheckEvery)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "not_a_real_field: 1\n")

	if _, err := Load(path); err == nil {
		t.Fatal("Load: want error for unknown field, got nil")
	}
}

func TestLoadLayeredLaterFileWins(t *testing.T) {
	base := filepath.Join(t.TempDir(), "base.yaml")
	override := filepath.Join(t.TempDir(), "override.yaml")
	writeFile(t, base, "nested_update_limit: 10\nyield_check_every: 8\n")
	writeFile(t, override, "nested_update_limit: 20\n")

	cfg, err := LoadLayered(base, override)
	if err != nil {
		t.Fatalf("LoadLayered: %v", err)
	}
	if cfg.NestedUpdateLimit != 20 {
		t.Errorf("NestedUpdateLimit = %d, want 20 (override should win)", cfg.NestedUpdateLimit)
	}
	if cfg.YieldCheckEvery != 8 {
		t.Errorf("YieldCheckEvery = %d, want 8 (kept from base)", cfg.YieldCheckEvery)
	}
}

func TestLoadLayeredSkipsMissingPaths(t *testing.T) {
	base := filepath.Join(t.TempDir(), "base.yaml")
	writeFile(t, base, "nested_update_limit: 15\n")

	cfg, err := LoadLayered(base, filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadLayered: %v", err)
	}
	if cfg.NestedUpdateLimit != 15 {
		t.Errorf("NestedUpdateLimit = %d, want 15", cfg.NestedUpdateLimit)
	}
}

func TestValidateRejectsNonPositive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.YieldCheckEvery = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate: want error for yield_check_every=0, got nil")
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writeFile %s: %v", path, err)
	}
}
