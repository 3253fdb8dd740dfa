package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lcalzada-xor/assetvuln/internal/app"
	"github.com/lcalzada-xor/assetvuln/internal/config"
)

func newPurgeCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete notifications older than the retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(ctx context.Context, application *app.Application) error {
				n, err := application.Purge(ctx)
				if err != nil {
					return err
				}
				slog.Info("notifications purged", "deleted", n, "ttl", cfg.NotificationTTL)
				return nil
			})
		},
	}
}
