package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
	"github.com/chatdesk-dev/chat-desk/internal/moderation"
)

var (
	requestTitle       string
	requestDescription string
	messageType        string
)

// requestsCmd groups request operations.
var requestsCmd = &cobra.Command{
	Use:     "requests",
	Aliases: []string{"req"},
	Short:   "List, open and moderate requests",
}

var requestsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the requests visible to you",
	RunE: func(cmd *cobra.Command, args []string) error {
		reqs, err := deps.client.ListRequests(cmd.Context())
		if err != nil {
			return describe(err)
		}
		printRequests(cmd.OutOrStdout(), reqs)
		return nil
	},
}

var requestsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Open a new request",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := deps.store(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()
		req, err := store.CreateRequest(cmd.Context(), requestTitle, requestDescription)
		if err != nil {
			return describe(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created request %s (%s).\n", req.ID, req.Status)
		return nil
	},
}

// requestsStatusCmd is staff only; the role check runs before any call.
var requestsStatusCmd = &cobra.Command{
	Use:   "status <request-id> <accepted|rejected|closed>",
	Short: "Change the status of a request (staff)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, ok := domain.ParseRequestStatus(args[1])
		if !ok {
			return fmt.Errorf("unknown status %q", args[1])
		}
		store, err := deps.store(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		mod := moderation.NewRequests(store)
		id := domain.ID(args[0])
		switch status {
		case domain.RequestStatusAccepted:
			err = mod.Accept(cmd.Context(), id)
		case domain.RequestStatusRejected:
			err = mod.Reject(cmd.Context(), id)
		case domain.RequestStatusClosed:
			err = mod.Close(cmd.Context(), id)
		default:
			return fmt.Errorf("cannot move a request back to %s", status)
		}
		if err != nil {
			return describe(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Request %s is now %s.\n", id, status)
		return nil
	},
}

var requestsDeleteCmd = &cobra.Command{
	Use:   "delete <request-id>",
	Short: "Delete a request (staff)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := deps.store(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()
		if err := moderation.NewRequests(store).Delete(cmd.Context(), domain.ID(args[0])); err != nil {
			return describe(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Request %s deleted.\n", args[0])
		return nil
	},
}

var messagesCmd = &cobra.Command{
	Use:   "messages <request-id>",
	Short: "Print the conversation of a request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		msgs, err := deps.client.ListMessages(cmd.Context(), domain.ID(args[0]))
		if err != nil {
			return describe(err)
		}
		printMessages(cmd.OutOrStdout(), msgs)
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <request-id> <message...>",
	Short: "Post a message to a request",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		content := strings.TrimSpace(strings.Join(args[1:], " "))
		if content == "" {
			return fmt.Errorf("message must not be empty")
		}
		msg, err := deps.client.SendMessage(cmd.Context(), domain.ID(args[0]), content, domain.MessageType(messageType))
		if err != nil {
			return describe(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Sent message %s.\n", msg.ID)
		return nil
	},
}

func init() {
	requestsCreateCmd.Flags().StringVarP(&requestTitle, "title", "t", "", "Request title (required)")
	requestsCreateCmd.Flags().StringVarP(&requestDescription, "description", "d", "", "Request description")
	_ = requestsCreateCmd.MarkFlagRequired("title")

	sendCmd.Flags().StringVar(&messageType, "type", string(domain.MessageTypeText), "Message type: text, image or file")

	requestsCmd.AddCommand(requestsListCmd, requestsCreateCmd, requestsStatusCmd, requestsDeleteCmd)
}
