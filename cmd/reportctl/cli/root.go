package cli

import (
	"context"
	"fmt"
	"time"

	"go-itam/internal/app"
	"go-itam/internal/config"
	"go-itam/internal/features/report"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// operator is the identity used for CLI maintenance. It sees every report.
var operator = report.Actor{UserID: "reportctl", Admin: true}

var timeout time.Duration

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "reportctl",
		Short:         "Report engine maintenance tool",
		Long:          "Run exports, invalidate cached results and clean up expired report files outside the API server.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall deadline for the command")

	return cmd
}

type services struct {
	Config  *config.Config
	Reports report.ReportService
	Exports report.ExportService
	Logger  *zap.Logger
}

// run starts the engine without the HTTP server, hands the services to fn
// and shuts everything down afterwards.
func run(fn func(ctx context.Context, svc services) error) error {
	var svc services
	engine := fx.New(
		app.Core,
		fx.NopLogger,
		fx.Populate(&svc.Config, &svc.Reports, &svc.Exports, &svc.Logger),
	)
	if err := engine.Err(); err != nil {
		return fmt.Errorf("failed to initialise report engine: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("failed to start report engine: %w", err)
	}
	defer func() {
		stopCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
		defer stop()
		_ = engine.Stop(stopCtx)
	}()

	return fn(ctx, svc)
}
