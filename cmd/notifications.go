package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leetboard/leetboard/internal/gateways/database/models"
	"github.com/leetboard/leetboard/internal/gateways/database/repositories"
)

var notificationFilter struct {
	kind      string
	status    string
	recipient string
	limit     int
	offset    int
}

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Inspect and replay the notification log",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		list, err := app.Sink.List(cmd.Context(), repositories.NotificationFilter{
			Kind:      notificationFilter.kind,
			Status:    models.NotificationStatus(notificationFilter.status),
			Recipient: notificationFilter.recipient,
			Limit:     notificationFilter.limit,
			Offset:    notificationFilter.offset,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd, list)
	},
}

var notificationsResendCmd = &cobra.Command{
	Use:   "resend <id>",
	Short: "Deliver a stored notification again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return err
		}

		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		n, err := app.Sink.Resend(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(cmd, n)
	},
}

func init() {
	f := notificationsListCmd.Flags()
	f.StringVar(&notificationFilter.kind, "type", "", "filter by type")
	f.StringVar(&notificationFilter.status, "status", "", "filter by status")
	f.StringVar(&notificationFilter.recipient, "recipient", "", "filter by recipient")
	f.IntVar(&notificationFilter.limit, "limit", 0, "page size")
	f.IntVar(&notificationFilter.offset, "offset", 0, "rows to skip")

	notificationsCmd.AddCommand(notificationsListCmd, notificationsResendCmd)
	rootCmd.AddCommand(notificationsCmd)
}
