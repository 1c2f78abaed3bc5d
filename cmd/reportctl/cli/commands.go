package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	common_models "go-itam/internal/common/models"
	"go-itam/internal/config"
	"go-itam/internal/features/report"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List report definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, svc services) error {
				reports, err := svc.Reports.ListReports(ctx, operator)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, r := range reports {
					fmt.Fprintf(out, "%s\t%s\t%s\t%d columns\n", r.ID.Hex(), r.Type, r.Name, len(r.Columns))
				}
				return nil
			})
		},
	}
}

func NewExportCommand() *cobra.Command {
	var (
		reportID string
		format   string
		output   string
		columns  []string
		sortBy   string
		sortDir  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a report to a file or stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := report.ExportRequest{Format: format, Columns: columns}
			if sortBy != "" {
				req.Sorting = &common_models.Sorting{Field: sortBy, Direction: common_models.SortDirection(sortDir)}
			}

			return run(func(ctx context.Context, svc services) error {
				var w io.Writer = cmd.OutOrStdout()
				if output != "" && output != "-" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("failed to create %s: %w", output, err)
					}
					defer f.Close()
					w = f
				}

				n, err := svc.Exports.WriteTo(ctx, reportID, req, operator, w)
				if err != nil {
					if output != "" && output != "-" {
						_ = os.Remove(output)
					}
					return err
				}
				svc.Logger.Info("Report exported",
					zap.String("report_id", reportID),
					zap.String("format", format),
					zap.Int64("rows", n),
				)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&reportID, "report", "", "report definition id")
	cmd.Flags().StringVar(&format, "format", "csv", "export format (csv, xlsx, pdf)")
	cmd.Flags().StringVarP(&output, "out", "o", "-", "output file, - for stdout")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "subset of column ids to export")
	cmd.Flags().StringVar(&sortBy, "sort", "", "sort field")
	cmd.Flags().StringVar(&sortDir, "direction", "asc", "sort direction (asc, desc)")
	_ = cmd.MarkFlagRequired("report")

	return cmd
}

func NewInvalidateCommand() *cobra.Command {
	var reportID string

	cmd := &cobra.Command{
		Use:   "invalidate",
		Short: "Drop cached results for a report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, svc services) error {
				if err := requireSharedCache(svc.Config); err != nil {
					return err
				}
				n, err := svc.Reports.InvalidateCache(ctx, reportID, operator)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "invalidated %d cache entries\n", n)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&reportID, "report", "", "report definition id")
	_ = cmd.MarkFlagRequired("report")

	return cmd
}

// requireSharedCache rejects cache backends that live inside a single
// process. The CLI would only see its own empty copy.
func requireSharedCache(cfg *config.Config) error {
	if cfg.CacheBackend != "mongo" {
		return fmt.Errorf("cache backend %q is local to the API server; set CACHE_BACKEND=mongo or call DELETE /api/reports/:id/cache", cacheBackendName(cfg))
	}
	return nil
}

func cacheBackendName(cfg *config.Config) string {
	if cfg.CacheBackend == "" {
		return "memory"
	}
	return cfg.CacheBackend
}

func NewCleanupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired export files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, svc services) error {
				n, err := svc.Exports.CleanupExpired(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired files\n", n)
				return nil
			})
		},
	}
}
