package main

import (
	"fmt"

	"conclave/internal/backend"
	"conclave/internal/config"
	"conclave/internal/council"
	"conclave/internal/logging"
	"conclave/internal/store"
)

// loadConfig reads the config named by --config (or defaults) and
// initializes logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logging.Init(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	return cfg, nil
}

// buildEngine resolves the operating mode and wires backends accordingly.
// In static mode no client is constructed at all.
func buildEngine(cfg *config.Config) (*council.Engine, error) {
	mode := cfg.Mode()
	opts := council.Options{
		Council: cfg.Council,
		Mode:    mode,
		Logger:  logging.New("council"),
	}
	if mode != config.ModeStatic {
		client, err := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.APIKey)
		if err != nil {
			return nil, fmt.Errorf("build backend client: %w", err)
		}
		opts.Ensemble = client
		opts.Fallback = client
	}
	return council.NewEngine(opts), nil
}

func openStore(cfg *config.Config) (store.Store, error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return st, nil
}
