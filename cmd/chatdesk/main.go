package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chatdesk-dev/chat-desk/internal/config"
	"github.com/chatdesk-dev/chat-desk/internal/observability"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.ClientConfig
	logger *zap.Logger
	deps   *clientDeps
)

// rootCmd starts the interactive client when run without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "chatdesk",
	Short: "chatdesk - terminal client for support requests",
	Long: `chatdesk keeps a live view of your support requests, their
conversations and your notifications.

Run without arguments to start the interactive interface. Staff accounts
can moderate requests and users from the same screen.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadClient(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if verbose {
			cfg.Logger.Level = "debug"
		}
		logger, err = observability.NewLogger(cfg.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		deps = buildDeps(cfg, logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if deps != nil {
			if verbose {
				printStats(cmd.ErrOrStderr(), deps.metrics.Snapshot())
			}
			deps.Close(logger)
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runInteractive,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $CHATDESK_CONFIG or ~/.chatdesk/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging and print request stats on exit")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
	rootCmd.AddCommand(requestsCmd, messagesCmd, sendCmd)
	rootCmd.AddCommand(notificationsCmd)
	rootCmd.AddCommand(usersCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
