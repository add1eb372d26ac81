package main

import (
	"github.com/spf13/cobra"

	"conclave/internal/httpapi"
)

var apiFlags struct {
	addr string
}

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP API server",
	RunE:  runAPI,
}

func init() {
	apiCmd.Flags().StringVar(&apiFlags.addr, "addr", "", "Listen address (overrides config)")
}

func runAPI(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	addr := apiFlags.addr
	if addr == "" {
		addr = cfg.HTTP.Addr
	}
	return httpapi.NewServer(engine, st).Listen(addr)
}
