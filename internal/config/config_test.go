package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Council.Stage1TimeoutSec != DefaultStage1TimeoutSec {
		t.Errorf("Stage1TimeoutSec = %d, want %d", cfg.Council.Stage1TimeoutSec, DefaultStage1TimeoutSec)
	}
	if cfg.Store.Path != DefaultStorePath {
		t.Errorf("Store.Path = %q, want %q", cfg.Store.Path, DefaultStorePath)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr = %q", cfg.HTTP.Addr)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conclave.yaml")
	content := `
log_level: debug
council:
  ensemble_models: [alpha/one, beta/two, gamma/three]
  chairman_model: beta/two
  peer_ranking: true
  stage1_timeout_sec: 10
store:
  path: /tmp/test.db
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Council.EnsembleModels) != 3 {
		t.Fatalf("EnsembleModels = %v", cfg.Council.EnsembleModels)
	}
	if !cfg.Council.PeerRanking {
		t.Error("PeerRanking should be true")
	}
	if cfg.Council.Stage1Timeout() != 10*time.Second {
		t.Errorf("Stage1Timeout = %v", cfg.Council.Stage1Timeout())
	}
	if cfg.Council.Chairman() != "beta/two" {
		t.Errorf("Chairman = %q", cfg.Council.Chairman())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/conclave.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestMode(t *testing.T) {
	cases := []struct {
		name     string
		apiKey   string
		models   []string
		fallback string
		want     Mode
	}{
		{"ensemble", "k", []string{"a", "b"}, "", ModeEnsemble},
		{"ensemble with fallback", "k", []string{"a", "b", "c"}, "f", ModeEnsemble},
		{"single model only", "k", nil, "f", ModeSingleModel},
		{"one model no fallback", "k", []string{"a"}, "", ModeStatic},
		{"one model with fallback", "k", []string{"a"}, "f", ModeSingleModel},
		{"no key", "", []string{"a", "b"}, "f", ModeStatic},
		{"nothing", "", nil, "", ModeStatic},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{
				Backend: BackendConfig{APIKey: tc.apiKey},
				Council: CouncilConfig{EnsembleModels: tc.models, FallbackModel: tc.fallback},
			}
			if got := cfg.Mode(); got != tc.want {
				t.Errorf("Mode() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestChairman_DefaultsToFirstEnsembleModel(t *testing.T) {
	c := CouncilConfig{EnsembleModels: []string{"a/one", "b/two"}}
	if got := c.Chairman(); got != "a/one" {
		t.Errorf("Chairman = %q, want a/one", got)
	}
	c.ChairmanModel = "x/override"
	if got := c.Chairman(); got != "x/override" {
		t.Errorf("Chairman = %q, want x/override", got)
	}
}
