package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultLoadsEmbeddedYAML(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}

	if cfg.Selection.Budget != 200 {
		t.Errorf("expected budget 200, got %d", cfg.Selection.Budget)
	}
	if len(cfg.Sources.Forums) == 0 {
		t.Error("expected at least one forum source")
	}
	if len(cfg.Vendors) == 0 {
		t.Error("expected vendor watchlist in defaults")
	}
	if len(cfg.Taxonomy.Categories) == 0 {
		t.Error("expected taxonomy categories in defaults")
	}
	if cfg.Confidence.Base != 0.5 {
		t.Errorf("expected confidence base 0.5, got %.2f", cfg.Confidence.Base)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Errorf("expected default provider ollama, got %q", cfg.LLM.Provider)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	user := `
selection:
  budget: 50
llm:
  provider: openai
`
	if err := os.WriteFile(path, []byte(user), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Selection.Budget != 50 {
		t.Errorf("expected overridden budget 50, got %d", cfg.Selection.Budget)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("expected overridden provider openai, got %q", cfg.LLM.Provider)
	}
	// Untouched sections keep the embedded defaults.
	if cfg.Selection.EngagementThreshold != 50 {
		t.Errorf("expected default engagement threshold 50, got %d", cfg.Selection.EngagementThreshold)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected default port 8000, got %d", cfg.Server.Port)
	}
}

func TestLoadRejectsBadBudget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("selection:\n  budget: -3\n"), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for negative budget")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("selection: [not a map"), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestResolveConfigPathExplicit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	got, err := ResolveConfigPath(path)
	if err != nil {
		t.Fatalf("ResolveConfigPath() error: %v", err)
	}
	if got != path {
		t.Errorf("expected %s, got %s", path, got)
	}

	if _, err := ResolveConfigPath(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit path")
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	if cfg.GetDataDir() == "" {
		t.Error("expected XDG fallback data dir")
	}

	cfg.Output.DataDir = "/tmp/custom"
	if got := cfg.GetDataDir(); got != "/tmp/custom" {
		t.Errorf("expected configured dir, got %s", got)
	}
}
