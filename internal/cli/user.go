package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/focusquest/focusquest/internal/daemon"
)

func init() {
	userCreateCmd.Flags().StringVar(&userName, "name", "", "Display name shown on leaderboards")
	userCreateCmd.Flags().StringVar(&userTheme, "theme", "", "Preferred theme (studies, exercise, health, work, creativity, mindfulness)")
	_ = userCreateCmd.MarkFlagRequired("name")
	userCmd.AddCommand(userCreateCmd, userListCmd)
	rootCmd.AddCommand(userCmd, tokenCmd)
}

var (
	userName  string
	userTheme string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user profiles",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a profile and print its ID and an API token",
	Args:  cobra.NoArgs,
	RunE:  runUserCreate,
}

var userListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List registered users",
	Args:    cobra.NoArgs,
	RunE:    runUserList,
}

var tokenCmd = &cobra.Command{
	Use:   "token USER_ID",
	Short: "Issue a new API token for an existing user",
	Args:  cobra.ExactArgs(1),
	RunE:  runToken,
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	if d.Config.Auth.JWTSecret == "" {
		return daemon.ErrNoSecret
	}

	p, err := d.Engagement.CreateProfile(cmd.Context(), userName, userTheme)
	if err != nil {
		return err
	}
	token, err := d.Auth.Issue(p.UserID)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "User ID: %s\n", p.UserID)
	fmt.Fprintf(out, "Token:   %s\n", token)
	return nil
}

func runUserList(cmd *cobra.Command, args []string) error {
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	profiles, err := d.Engagement.ListProfiles(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(profiles) == 0 {
		fmt.Fprintln(out, "No users yet. Create one with 'focusquest user create'.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USER ID\tNAME\tLEVEL\tTOTAL XP\tTHEME")
	for _, p := range profiles {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", p.UserID, p.DisplayName, p.Level, p.TotalXP, orDash(string(p.PreferredTheme)))
	}
	return w.Flush()
}

func runToken(cmd *cobra.Command, args []string) error {
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	if d.Config.Auth.JWTSecret == "" {
		return daemon.ErrNoSecret
	}

	p, err := d.Engagement.GetProfile(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	token, err := d.Auth.Issue(p.UserID)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
