// Package cli implements the FocusQuest command-line interface using Cobra.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/focusquest/focusquest/internal/daemon"
)

var rootCmd = &cobra.Command{
	Use:   "focusquest",
	Short: "FocusQuest: XP, levels and streaks for your habits",
	Long: `FocusQuest turns habits, tasks and focus sessions into XP.
Levels, streaks and weekly leaderboards are served over an HTTP API.

Start with 'focusquest config init', then 'focusquest serve'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version
	daemon.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openDaemon wires the services for one-shot commands. Logs are kept to
// warnings so they do not drown command output.
func openDaemon(cmd *cobra.Command) (*daemon.Daemon, error) {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Logging.Level = "warn"
	return daemon.NewWithConfig(cmd.Context(), cfg)
}
