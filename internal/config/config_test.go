package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWithNoConfigFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Inference.Host != "127.0.0.1" || cfg.Inference.Port != 11434 {
		t.Errorf("Inference = %+v, want default host/port", cfg.Inference)
	}
	if cfg.Store.Path != "circuitsage.db" {
		t.Errorf("Store.Path = %q, want default", cfg.Store.Path)
	}
	if cfg.Recommender.NLex != 64 {
		t.Errorf("Recommender.NLex = %d, want default 64", cfg.Recommender.NLex)
	}
	if cfg.Supplier.RequestsPerSecond != 5.0 || cfg.Supplier.Burst != 10 {
		t.Errorf("Supplier = %+v, want default rate limit", cfg.Supplier)
	}
}

func TestLoadReadsTOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `
[inference]
host = "10.0.0.5"
port = 9999
default_model = "qwen2.5"

[store]
path = "/var/lib/circuitsage/parts.db"
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Inference.Host != "10.0.0.5" || cfg.Inference.Port != 9999 {
		t.Errorf("Inference = %+v, want overridden host/port", cfg.Inference)
	}
	if cfg.Inference.DefaultModel != "qwen2.5" {
		t.Errorf("DefaultModel = %q, want qwen2.5", cfg.Inference.DefaultModel)
	}
	if cfg.Store.Path != "/var/lib/circuitsage/parts.db" {
		t.Errorf("Store.Path = %q, want overridden", cfg.Store.Path)
	}
	// Unset keys still fall back to defaults.
	if cfg.Simulation.TimeoutSeconds != 60 {
		t.Errorf("Simulation.TimeoutSeconds = %d, want default 60", cfg.Simulation.TimeoutSeconds)
	}
}

func TestLoadEnvVarOverridesFileAndDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[inference]\nhost = \"10.0.0.5\"\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	t.Setenv("CIRCUITSAGE_INFERENCE_HOST", "192.168.1.1")
	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Inference.Host != "192.168.1.1" {
		t.Errorf("Inference.Host = %q, want env override 192.168.1.1", cfg.Inference.Host)
	}
}

func TestLoadMissingDotEnvIsNotFatal(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml"), t.TempDir()); err != nil {
		t.Fatalf("Load with missing .env should not error: %v", err)
	}
}
