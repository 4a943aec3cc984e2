package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if *cfg != *want {
		t.Fatalf("Load with no sentra.json: want defaults %+v, got %+v", want, cfg)
	}
}

func TestLoadOverlaysPartialConfig(t *testing.T) {
	dir := t.TempDir()
	manifest := `{"config": {"gc.factor": 3.5, "jit.trace_hir": true}}`
	if err := os.WriteFile(filepath.Join(dir, "sentra.json"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write sentra.json: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GCFactor != 3.5 {
		t.Fatalf("GCFactor: want 3.5 overlaid from sentra.json, got %v", cfg.GCFactor)
	}
	if !cfg.JITTraceHIR {
		t.Fatalf("JITTraceHIR: want true overlaid from sentra.json")
	}
	// Untouched keys keep their defaults.
	if cfg.ProfileStoreDriver != "sqlite3" {
		t.Fatalf("ProfileStoreDriver: want default sqlite3 preserved, got %q", cfg.ProfileStoreDriver)
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "sentra.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write sentra.json: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatalf("Load: want an error for malformed JSON")
	}
}

func TestInlinerDerivesFromInterpreterLimits(t *testing.T) {
	cfg := Default()
	cfg.InterpMaxCallSize = 400
	cfg.InterpMaxStackSize = 1000

	limits := cfg.Inliner()
	if limits.MaxCalleeBytecode != 400 {
		t.Fatalf("MaxCalleeBytecode: want 400, got %d", limits.MaxCalleeBytecode)
	}
	if limits.MaxTotalInlinedBytecode != 250 {
		t.Fatalf("MaxTotalInlinedBytecode: want 1000/4=250, got %d", limits.MaxTotalInlinedBytecode)
	}
}
