package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type app struct {
	baseURL string
	token   string
	timeout time.Duration

	// actors opens the actor store used by the database-backed commands.
	actors actorsOpener
}

func main() {
	a := &app{actors: openActors}
	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mutledger-cli",
		Short:         "Mutledger CLI tool",
		Long:          `A command line interface for the mutledger daily ledger API and its database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&a.baseURL, "url", "http://localhost:8080", "Base URL of the mutledger API")
	rootCmd.PersistentFlags().StringVar(&a.token, "token", os.Getenv("MUTLEDGER_TOKEN"), "Bearer token (defaults to $MUTLEDGER_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&a.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		entriesCmd(a),
		notificationsCmd(a),
		tokenCmd(a),
		actorsCmd(a),
		migrateCmd(),
	)

	return rootCmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
