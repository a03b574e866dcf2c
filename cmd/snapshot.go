package cmd

import (
	"github.com/spf13/cobra"

	"github.com/leetboard/leetboard/internal/domain/weeks"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Capture this week's snapshot for every active member now",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		res, err := app.Scheduler.RunSnapshotNow(cmd.Context())
		if res == nil {
			return err
		}

		out := map[string]interface{}{
			"message":    "Snapshot taken",
			"count":      res.Count,
			"week_start": weeks.Format(res.WeekStart),
		}
		if len(res.Failed) > 0 {
			out["failed"] = res.Failed
		}
		if err != nil {
			out["message"] = "Snapshot taken with errors"
		}
		if perr := printJSON(cmd, out); perr != nil {
			return perr
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}
