package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"conclave/internal/council"
)

var deliberateFlags struct {
	gate        string
	topic       string
	contextFile string
	language    string
	timeoutMS   int
}

var deliberateCmd = &cobra.Command{
	Use:   "deliberate",
	Short: "Run one gate deliberation and print the verdict",
	RunE:  runDeliberate,
}

func init() {
	f := deliberateCmd.Flags()
	f.StringVar(&deliberateFlags.gate, "gate", "", "Gate type: strategic, risk, launch or post-mortem (required)")
	f.StringVar(&deliberateFlags.topic, "topic", "", "Topic under deliberation (required)")
	f.StringVar(&deliberateFlags.contextFile, "context-file", "", "Path to a JSON file with supporting context")
	f.StringVar(&deliberateFlags.language, "language", "en", "Verdict language (ISO 639-1 code)")
	f.IntVar(&deliberateFlags.timeoutMS, "timeout-ms", 0, "Overall deadline in milliseconds (0 = derived from stage budgets)")

	_ = deliberateCmd.MarkFlagRequired("gate")
	_ = deliberateCmd.MarkFlagRequired("topic")
}

func runDeliberate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var contextJSON json.RawMessage
	if deliberateFlags.contextFile != "" {
		data, err := os.ReadFile(deliberateFlags.contextFile)
		if err != nil {
			return fmt.Errorf("read context file: %w", err)
		}
		if !json.Valid(data) {
			return fmt.Errorf("context file %s is not valid JSON", deliberateFlags.contextFile)
		}
		contextJSON = data
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

	result, err := engine.Deliberate(cmd.Context(), council.DeliberationRequest{
		GateType:  council.GateType(deliberateFlags.gate),
		Topic:     deliberateFlags.topic,
		Context:   contextJSON,
		Language:  deliberateFlags.language,
		TimeoutMS: deliberateFlags.timeoutMS,
	})
	if err != nil {
		return err
	}

	if err := st.Append(result); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to persist session: %v\n", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
