package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	profileCmd.AddCommand(profileShowCmd, profileRebuildCmd)
	rootCmd.AddCommand(profileCmd)
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect and repair user profiles",
}

var profileShowCmd = &cobra.Command{
	Use:   "show USER_ID",
	Short: "Show a user's level and this week's activity",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileShow,
}

var profileRebuildCmd = &cobra.Command{
	Use:   "rebuild USER_ID",
	Short: "Recompute level fields from total XP",
	Long: `Recompute level, current-level XP and next-level threshold from the
stored total XP. Use after editing XP by hand or restoring a backup.`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileRebuild,
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	dash, err := d.Engagement.Dashboard(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Name:         %s\n", dash.DisplayName)
	fmt.Fprintf(out, "Theme:        %s\n", orDash(string(dash.PreferredTheme)))
	fmt.Fprintf(out, "Level:        %d (%d / %d XP, %.0f%%)\n", dash.Level, dash.CurrentLevelXP, dash.XPForNextLevel, dash.ProgressPct)
	fmt.Fprintf(out, "Total XP:     %d\n", dash.TotalXP)
	fmt.Fprintf(out, "Today:        %d XP, %d habits, %d tasks\n", dash.TodayXP, dash.HabitsDoneToday, dash.TasksDoneToday)
	fmt.Fprintf(out, "This week:    %d XP, %d focus min\n", dash.WeeklyXP, dash.WeeklyFocus)
	return nil
}

func runProfileRebuild(cmd *cobra.Command, args []string) error {
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	p, err := d.Engagement.RebuildProfile(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Rebuilt %s: level %d, %d / %d XP (total %d)\n",
		p.DisplayName, p.Level, p.CurrentLevelXP, p.XPForNextLevel, p.TotalXP)
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
