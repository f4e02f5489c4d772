package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chatdesk-dev/chat-desk/internal/chat"
	"github.com/chatdesk-dev/chat-desk/internal/moderation"
	"github.com/chatdesk-dev/chat-desk/internal/session"
	"github.com/chatdesk-dev/chat-desk/internal/transport"
)

var (
	loginEmail    string
	loginPassword string
	loginToken    string
	registerName  string
)

// loginCmd stores a bearer token, either from credentials or given directly.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session token",
	Long: `Signs in with email and password, or stores an existing token.

The password may also be supplied through CHATDESK_PASSWORD.

Example:
  chatdesk login --email me@example.com
  chatdesk login --token eyJhbGciOi...`,
	RunE: runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := deps.session.Clear(cmd.Context()); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the identity in the stored token",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := deps.identity(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) id=%s\n", id.Name, id.Role, id.UserID)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password")
	loginCmd.Flags().StringVar(&loginToken, "token", "", "Store this token instead of signing in")
	loginCmd.MarkFlagsMutuallyExclusive("email", "token")

	registerCmd.Flags().StringVar(&registerName, "name", "", "Display name (required)")
	registerCmd.Flags().StringVar(&loginEmail, "email", "", "Account email (required)")
	registerCmd.Flags().StringVar(&loginPassword, "password", "", "Account password")
	_ = registerCmd.MarkFlagRequired("name")
	_ = registerCmd.MarkFlagRequired("email")
}

func password() (string, error) {
	if loginPassword != "" {
		return loginPassword, nil
	}
	if p := os.Getenv("CHATDESK_PASSWORD"); p != "" {
		return p, nil
	}
	return "", errors.New("password required: pass --password or set CHATDESK_PASSWORD")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if loginToken != "" {
		if _, err := session.ParseIdentity(nil, loginToken); err != nil {
			return err
		}
		if err := deps.session.Save(ctx, loginToken); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		return whoamiCmd.RunE(cmd, args)
	}

	if loginEmail == "" {
		return errors.New("--email or --token is required")
	}
	pw, err := password()
	if err != nil {
		return err
	}
	res, err := deps.client.Login(ctx, loginEmail, pw)
	if transport.IsAuth(err) {
		return errors.New("invalid email or password")
	}
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s).\n", res.User.Name, res.User.Role)
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	pw, err := password()
	if err != nil {
		return err
	}
	res, err := deps.client.Register(cmd.Context(), registerName, loginEmail, pw)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s.\n", res.User.Name)
	return nil
}

// describe turns transport failures into messages fit for a terminal.
func describe(err error) error {
	var httpErr *transport.HTTPError
	switch {
	case errors.Is(err, chat.ErrForbidden), errors.Is(err, moderation.ErrForbidden):
		return errors.New("your role is not allowed to do this")
	case transport.IsAuth(err):
		return errors.New("not authenticated; run `chatdesk login`")
	case errors.As(err, &httpErr):
		return fmt.Errorf("server rejected the request: %w", httpErr)
	}
	return err
}
