package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leetboard/leetboard/leetboard/scheduler"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read and override schedule settings stored in the database",
	Long: "Overrides take effect on the next start or when a running server receives SIGHUP.\n" +
		"Keys: " + strings.Join(scheduler.Keys, ", "),
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Show stored overrides",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if len(args) == 1 {
			v, err := app.Settings.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		}

		all, err := app.Settings.All(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, all)
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store an override",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !slices.Contains(scheduler.Keys, args[0]) {
			return fmt.Errorf("unknown setting %q, want one of %s", args[0], strings.Join(scheduler.Keys, ", "))
		}

		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Settings.Set(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}

		// parse now so a bad value is reported before the scheduler falls back
		merged := app.Scheduler.Base().Merge(map[string]string{args[0]: args[1]})
		if _, errs := merged.Specs(); len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", e)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}
