package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewAppWiresCoreStack(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	dbPath := filepath.Join(dir, "circuitsage.db")

	content := "[store]\npath = " + `"` + dbPath + `"` + "\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	a, err := newApp(configPath)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close()

	if a.store == nil || a.backend == nil || a.orch == nil || a.engine == nil || a.rec == nil {
		t.Fatalf("newApp left a nil component: %+v", a)
	}
	if _, err := a.openSimulationEngine(); err == nil {
		t.Error("expected an error opening the simulation engine with no library_path configured")
	}
}
