package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
	"github.com/chatdesk-dev/chat-desk/internal/moderation"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts (admin)",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := loadUsers(cmd.Context())
		if err != nil {
			return err
		}
		printUsers(cmd.OutOrStdout(), users.State().Data)
		return nil
	},
}

var usersBlockCmd = &cobra.Command{
	Use:   "block <user-id>",
	Short: "Ban a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setBlocked(cmd, domain.ID(args[0]), true)
	},
}

var usersUnblockCmd = &cobra.Command{
	Use:   "unblock <user-id>",
	Short: "Reinstate a banned user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setBlocked(cmd, domain.ID(args[0]), false)
	},
}

func init() {
	usersCmd.AddCommand(usersListCmd, usersBlockCmd, usersUnblockCmd)
}

func loadUsers(ctx context.Context) (*moderation.Users, error) {
	id, err := deps.identity(ctx)
	if err != nil {
		return nil, err
	}
	users := moderation.NewUsers(deps.client, id, logger, cfg.API.RequestTimeout)
	if err := users.Load(ctx); err != nil {
		return nil, describe(err)
	}
	return users, nil
}

func setBlocked(cmd *cobra.Command, target domain.ID, blocked bool) error {
	users, err := loadUsers(cmd.Context())
	if err != nil {
		return err
	}
	var found *domain.User
	for _, u := range users.State().Data {
		if u.ID == target {
			found = &u
			break
		}
	}
	if found == nil {
		return fmt.Errorf("user %s not found", target)
	}
	if err := users.SetBlocked(cmd.Context(), *found, blocked); err != nil {
		return describe(err)
	}
	verb := "unblocked"
	if blocked {
		verb = "blocked"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s.\n", found.Name, verb)
	return nil
}
