package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/lcalzada-xor/assetvuln/internal/adapters/seed"
	"github.com/lcalzada-xor/assetvuln/internal/app"
	"github.com/lcalzada-xor/assetvuln/internal/config"
)

func newSeedCommand(cfg *config.Config) *cobra.Command {
	var files seed.Files

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import platforms, match criteria and assets from JSON files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if files.Platforms == "" && files.Criteria == "" && files.Assets == "" {
				return errors.New("at least one of --platforms, --criteria or --assets is required")
			}
			return withApp(cfg, func(ctx context.Context, application *app.Application) error {
				return application.Seed(ctx, files)
			})
		},
	}
	cmd.Flags().StringVar(&files.Platforms, "platforms", "", "JSON file with canonical platforms")
	cmd.Flags().StringVar(&files.Criteria, "criteria", "", "JSON file with platform match criteria")
	cmd.Flags().StringVar(&files.Assets, "assets", "", "JSON file with the asset inventory")
	return cmd
}
