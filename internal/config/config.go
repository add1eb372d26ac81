package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default budgets. Stage calls are bounded individually; the engine derives an
// overall deadline from these when the request carries none.
const (
	DefaultStage1TimeoutSec   = 35
	DefaultStage2TimeoutSec   = 25
	DefaultChairmanTimeoutSec = 45
	DefaultFallbackTimeoutSec = 30

	DefaultStage1MaxTokens   = 1400
	DefaultStage2MaxTokens   = 900
	DefaultChairmanMaxTokens = 2200
)

// DefaultStorePath is the default relative path for the SQLite session DB.
// Open() creates the parent dir (.conclave) when missing.
const DefaultStorePath = ".conclave/sessions.db"

// APIKeyEnv is the environment variable holding the model-gateway API key.
const APIKeyEnv = "CONCLAVE_API_KEY"

// BackendConfig points at an OpenAI-compatible chat-completions gateway.
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	// APIKey is resolved from the environment (APIKeyEnv), never from YAML.
	APIKey string `yaml:"-"`
}

// CouncilConfig holds the deliberation-engine knobs.
type CouncilConfig struct {
	EnsembleModels []string `yaml:"ensemble_models"`
	ChairmanModel  string   `yaml:"chairman_model,omitempty"`
	FallbackModel  string   `yaml:"fallback_model,omitempty"`
	PeerRanking    bool     `yaml:"peer_ranking"`

	Stage1TimeoutSec   int `yaml:"stage1_timeout_sec,omitempty"`
	Stage2TimeoutSec   int `yaml:"stage2_timeout_sec,omitempty"`
	ChairmanTimeoutSec int `yaml:"chairman_timeout_sec,omitempty"`
	FallbackTimeoutSec int `yaml:"fallback_timeout_sec,omitempty"`

	Stage1MaxTokens   int `yaml:"stage1_max_tokens,omitempty"`
	Stage2MaxTokens   int `yaml:"stage2_max_tokens,omitempty"`
	ChairmanMaxTokens int `yaml:"chairman_max_tokens,omitempty"`
}

// StoreConfig configures the session store.
type StoreConfig struct {
	Path string `yaml:"path,omitempty"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// Config is the full runtime configuration.
type Config struct {
	LogLevel  string        `yaml:"log_level,omitempty"`
	LogFormat string        `yaml:"log_format,omitempty"`
	Backend   BackendConfig `yaml:"backend"`
	Council   CouncilConfig `yaml:"council"`
	Store     StoreConfig   `yaml:"store"`
	HTTP      HTTPConfig    `yaml:"http"`
}

// Mode is the explicit engine operating mode, resolved once from
// configuration instead of inferred per call from key+list+chairman presence.
type Mode string

const (
	// ModeEnsemble runs the full three-stage council pipeline.
	ModeEnsemble Mode = "ensemble"
	// ModeSingleModel runs one schema-constrained call to the fallback model.
	ModeSingleModel Mode = "single-model"
	// ModeStatic returns the deterministic template without any network call.
	ModeStatic Mode = "static"
)

// Load reads a YAML config file, applies defaults, and resolves the API key
// from the environment (a .env file is honored when present).
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyDefaults()
	cfg.Backend.APIKey = os.Getenv(APIKeyEnv)
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "https://openrouter.ai/api/v1"
	}
	if c.Council.Stage1TimeoutSec <= 0 {
		c.Council.Stage1TimeoutSec = DefaultStage1TimeoutSec
	}
	if c.Council.Stage2TimeoutSec <= 0 {
		c.Council.Stage2TimeoutSec = DefaultStage2TimeoutSec
	}
	if c.Council.ChairmanTimeoutSec <= 0 {
		c.Council.ChairmanTimeoutSec = DefaultChairmanTimeoutSec
	}
	if c.Council.FallbackTimeoutSec <= 0 {
		c.Council.FallbackTimeoutSec = DefaultFallbackTimeoutSec
	}
	if c.Council.Stage1MaxTokens <= 0 {
		c.Council.Stage1MaxTokens = DefaultStage1MaxTokens
	}
	if c.Council.Stage2MaxTokens <= 0 {
		c.Council.Stage2MaxTokens = DefaultStage2MaxTokens
	}
	if c.Council.ChairmanMaxTokens <= 0 {
		c.Council.ChairmanMaxTokens = DefaultChairmanMaxTokens
	}
	if c.Store.Path == "" {
		c.Store.Path = DefaultStorePath
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
}

// Mode resolves the engine operating mode. An ensemble needs a reachable
// gateway, at least two models, and a resolvable chairman (explicit override
// or the first ensemble model). A usable fallback model alone yields
// single-model mode. Anything less is static.
func (c *Config) Mode() Mode {
	if c.Backend.APIKey != "" && len(c.Council.EnsembleModels) >= 2 {
		return ModeEnsemble
	}
	if c.Backend.APIKey != "" && c.Council.FallbackModel != "" {
		return ModeSingleModel
	}
	return ModeStatic
}

// Chairman returns the chairman model id: the explicit override when set,
// otherwise the first ensemble model, otherwise "".
func (c *CouncilConfig) Chairman() string {
	if c.ChairmanModel != "" {
		return c.ChairmanModel
	}
	if len(c.EnsembleModels) > 0 {
		return c.EnsembleModels[0]
	}
	return ""
}

// Stage1Timeout returns the per-call Stage1 timeout.
func (c *CouncilConfig) Stage1Timeout() time.Duration {
	return time.Duration(c.Stage1TimeoutSec) * time.Second
}

// Stage2Timeout returns the per-call Stage2 timeout.
func (c *CouncilConfig) Stage2Timeout() time.Duration {
	return time.Duration(c.Stage2TimeoutSec) * time.Second
}

// ChairmanTimeout returns the chairman call timeout.
func (c *CouncilConfig) ChairmanTimeout() time.Duration {
	return time.Duration(c.ChairmanTimeoutSec) * time.Second
}

// FallbackTimeout returns the single-model fallback call timeout.
func (c *CouncilConfig) FallbackTimeout() time.Duration {
	return time.Duration(c.FallbackTimeoutSec) * time.Second
}
