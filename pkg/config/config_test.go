package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LLM.Provider != "ollama" {
		t.Errorf("expected default provider ollama, got %s", cfg.LLM.Provider)
	}
	if cfg.Workflow.MaxReasks != 1 {
		t.Errorf("expected default max_reasks 1, got %d", cfg.Workflow.MaxReasks)
	}
	if cfg.Memory.Provider != "inmemory" {
		t.Errorf("expected default memory provider inmemory, got %s", cfg.Memory.Provider)
	}
	if cfg.Jobs.MaxAgeHrs != 24 {
		t.Errorf("expected default job max age 24h, got %d", cfg.Jobs.MaxAgeHrs)
	}
}

func TestLoadEnv(t *testing.T) {
	os.Setenv("PLANWRIGHT_LLM_PROVIDER", "mock")
	defer os.Unsetenv("PLANWRIGHT_LLM_PROVIDER")

	k.Delete("llm.provider")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LLM.Provider != "mock" {
		t.Errorf("expected provider mock from env, got %s", cfg.LLM.Provider)
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()

	content := `
log:
  level: "debug"
workflow:
  idle_timeout: "5m"
  max_reasks: 2
registry:
  personas_path: "custom/personas.yaml"
`
	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Log.Level)
	}
	if cfg.Workflow.IdleTimeout != "5m" {
		t.Errorf("expected idle_timeout 5m, got %s", cfg.Workflow.IdleTimeout)
	}
	if cfg.Workflow.MaxReasks != 2 {
		t.Errorf("expected max_reasks 2, got %d", cfg.Workflow.MaxReasks)
	}
	if cfg.Registry.PersonasPath != "custom/personas.yaml" {
		t.Errorf("expected custom personas path, got %s", cfg.Registry.PersonasPath)
	}
	// Untouched sections keep their defaults.
	if cfg.LLM.Model == "" {
		t.Error("file load should not clear llm defaults")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
