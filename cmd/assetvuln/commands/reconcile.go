package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lcalzada-xor/assetvuln/internal/app"
	"github.com/lcalzada-xor/assetvuln/internal/config"
)

func newReconcileCommand(cfg *config.Config) *cobra.Command {
	var device string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Match assets against the vulnerability source once",
		Long:  "Reconciles every asset in the inventory, or a single one with --device, and exits.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(ctx context.Context, application *app.Application) error {
				if device != "" {
					slog.Info("reconciling device", "device", device)
					return application.Reconciler.ReconcileDevice(ctx, device)
				}
				application.Reconciler.ReconcileAll(ctx)
				return ctx.Err()
			})
		},
	}
	cmd.Flags().StringVar(&device, "device", "", "Device name of the asset to reconcile")
	return cmd
}
