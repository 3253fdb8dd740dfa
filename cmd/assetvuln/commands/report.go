package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lcalzada-xor/assetvuln/internal/app"
	"github.com/lcalzada-xor/assetvuln/internal/config"
)

func newReportCommand(cfg *config.Config) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the PDF vulnerability report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = fmt.Sprintf("vulnerability-report-%s.pdf", time.Now().Format("20060102-150405"))
			}
			return withApp(cfg, func(ctx context.Context, application *app.Application) error {
				var w io.Writer = cmd.OutOrStdout()
				if out != "-" {
					f, err := os.Create(out)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}
				if err := application.WriteReport(ctx, w); err != nil {
					return err
				}
				if out != "-" {
					slog.Info("report written", "path", out)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", `Output file ("-" for stdout)`)
	return cmd
}
