package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lcalzada-xor/assetvuln/internal/app"
	"github.com/lcalzada-xor/assetvuln/internal/config"
	"github.com/lcalzada-xor/assetvuln/internal/telemetry"
)

// NewRootCommand builds the assetvuln command tree around cfg. Persistent
// flags override the values cfg was loaded with.
func NewRootCommand(cfg *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "assetvuln",
		Short: "Asset vulnerability reconciliation",
		Long:  `assetvuln matches the asset inventory against the NVD and keeps track of which known vulnerabilities affect which device.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			slog.SetDefault(telemetry.NewLogger(os.Stderr, cfg.LogFormat, cfg.Debug))
			return nil
		},
		SilenceUsage: true,
	}
	cfg.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newServeCommand(cfg))
	rootCmd.AddCommand(newReconcileCommand(cfg))
	rootCmd.AddCommand(newSeedCommand(cfg))
	rootCmd.AddCommand(newReportCommand(cfg))
	rootCmd.AddCommand(newPurgeCommand(cfg))
	return rootCmd
}

// withApp bootstraps the application for the lifetime of fn. The context
// is cancelled on SIGINT and SIGTERM.
func withApp(cfg *config.Config, fn func(ctx context.Context, application *app.Application) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(context.Background()); err != nil {
			slog.Error("Failed to close application", "error", err)
		}
	}()

	return fn(ctx, application)
}
