package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"conclave/internal/council"
	"conclave/internal/store"
)

var sessionsFlags struct {
	gate  string
	limit int
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored deliberation sessions",
	RunE:  runSessions,
}

func init() {
	f := sessionsCmd.Flags()
	f.StringVar(&sessionsFlags.gate, "gate", "", "Only show sessions for this gate type")
	f.IntVar(&sessionsFlags.limit, "limit", 20, "Maximum number of sessions to show")
}

func runSessions(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	var sessions []*store.Session
	if sessionsFlags.gate != "" {
		gate, ok := council.ParseGateType(sessionsFlags.gate)
		if !ok {
			return fmt.Errorf("unknown gate type %q", sessionsFlags.gate)
		}
		sessions, err = st.ListByGate(gate, sessionsFlags.limit)
	} else {
		sessions, err = st.ListRecent(sessionsFlags.limit)
	}
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No stored sessions.")
		return nil
	}
	for _, s := range sessions {
		fmt.Fprintf(out, "%s  %-11s  level %d  %-14s  %s\n",
			s.CreatedAt, s.GateType, s.FallbackLevel, s.Decision, s.Topic)
	}
	return nil
}
