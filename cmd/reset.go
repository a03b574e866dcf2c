package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var resetConfirm bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every member, snapshot and notification; settings are kept",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetConfirm {
			return errors.New("refusing to reset without --yes")
		}

		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.DB.ResetAppTables(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "application tables cleared")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetConfirm, "yes", false, "confirm the reset")
	rootCmd.AddCommand(resetCmd)
}
