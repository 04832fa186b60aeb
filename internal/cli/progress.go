package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// ─── Progress Chart ─────────────────────────────────────────────────────────
// One row per day of the trailing week, with a bar scaled to the best day:
//   10 Mar  [=========>....................]  120 XP  45 min

const barWidth = 30 // Characters for the progress bar

func init() {
	rootCmd.AddCommand(progressCmd)
}

var progressCmd = &cobra.Command{
	Use:   "progress USER_ID",
	Short: "Show a user's rolling weekly XP for the last 7 days",
	Args:  cobra.ExactArgs(1),
	RunE:  runProgress,
}

func runProgress(cmd *cobra.Command, args []string) error {
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	points, err := d.Engagement.Progress(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	var peak int64
	for _, p := range points {
		peak = max(peak, p.WeeklyXP)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DAY\tWEEKLY XP\t\tFOCUS\tHABITS")
	for _, p := range points {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d min\t%d\n",
			p.Label, renderBar(p.WeeklyXP, peak), p.WeeklyXP, p.FocusMinutes, p.StreakProxy)
	}
	return w.Flush()
}

// renderBar draws value relative to peak: [=======>............]
func renderBar(value, peak int64) string {
	pct := 0.0
	if peak > 0 {
		pct = float64(value) / float64(peak) * 100
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	filled := int(pct / 100 * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	empty := barWidth - filled

	var bar string
	if filled == barWidth {
		bar = strings.Repeat("=", filled)
	} else if filled > 0 {
		bar = strings.Repeat("=", filled-1) + ">" + strings.Repeat(".", empty)
	} else {
		bar = strings.Repeat(".", barWidth)
	}
	return "[" + bar + "]"
}
