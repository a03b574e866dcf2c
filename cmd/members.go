package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leetboard/leetboard/internal/gateways/database/models"
)

var teamFlag string

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "Manage the team roster",
}

var membersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every member of the team",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		members, err := app.Roster.List(cmd.Context(), team(app.Cfg.Web.DefaultTeam))
		if err != nil {
			return err
		}
		return printJSON(cmd, members)
	},
}

var membersSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Fuzzy search the roster by username or name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		members, err := app.Roster.Search(cmd.Context(), team(app.Cfg.Web.DefaultTeam), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, members)
	},
}

var membersAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Validate a username upstream and add it to the team",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		member, err := app.Roster.Add(cmd.Context(), team(app.Cfg.Web.DefaultTeam), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, member)
	},
}

var membersRemoveCmd = &cobra.Command{
	Use:   "remove <username>",
	Short: "Remove a member from the team; snapshots are kept",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Roster.Remove(cmd.Context(), team(app.Cfg.Web.DefaultTeam), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
		return nil
	},
}

func statusCmd(use string, status models.MemberStatus) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <username>",
		Short: fmt.Sprintf("Mark a member %s", status),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Roster.SetStatus(cmd.Context(), team(app.Cfg.Web.DefaultTeam), args[0], status); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], status)
			return nil
		},
	}
}

func team(def string) string {
	if teamFlag != "" {
		return teamFlag
	}
	return def
}

func init() {
	membersCmd.PersistentFlags().StringVar(&teamFlag, "team", "", "team owner (defaults to web.default_team)")
	membersCmd.AddCommand(membersListCmd, membersSearchCmd, membersAddCmd, membersRemoveCmd,
		statusCmd("suspend", models.MemberSuspended),
		statusCmd("activate", models.MemberActive))
	rootCmd.AddCommand(membersCmd)
}
