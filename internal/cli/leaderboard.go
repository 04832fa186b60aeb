package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	leaderboardCmd.Flags().StringVarP(&leaderboardType, "type", "t", "xp", "Board to show: xp, focus or streak")
	rootCmd.AddCommand(leaderboardCmd)
}

var leaderboardType string

var leaderboardCmd = &cobra.Command{
	Use:     "leaderboard",
	Aliases: []string{"lb"},
	Short:   "Show this week's leaderboard",
	Args:    cobra.NoArgs,
	RunE:    runLeaderboard,
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	entries, err := d.Engagement.Leaderboard(cmd.Context(), leaderboardType)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No activity this week yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tNAME\tVALUE")
	for i, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%d\n", i+1, e.Name, e.Value)
	}
	return w.Flush()
}
