package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
)

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notif"},
	Short:   "List and acknowledge notifications",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your notifications, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := deps.client.ListNotifications(cmd.Context())
		if err != nil {
			return describe(err)
		}
		printNotifications(cmd.OutOrStdout(), list)
		return nil
	},
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read <notification-id>",
	Short: "Mark a notification as read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := deps.client.MarkNotificationRead(cmd.Context(), domain.ID(args[0])); err != nil {
			return describe(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Marked as read.")
		return nil
	},
}

func init() {
	notificationsCmd.AddCommand(notificationsListCmd, notificationsReadCmd)
}
