package app

import (
	"context"
	"fmt"
	"time"

	"go-itam/internal/cache"
	"go-itam/internal/config"
	"go-itam/internal/database"
	"go-itam/internal/datasource"
	"go-itam/internal/features/audit"
	cron_feature "go-itam/internal/features/cron"
	"go-itam/internal/features/notification"
	"go-itam/internal/features/report"
	"go-itam/internal/format"
	"go-itam/internal/logger"
	"go-itam/internal/query"
	"go-itam/pkg/utils"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

const janitorInterval = time.Minute

// Core provides everything the report engine needs short of the HTTP
// server: storage, cache, formatter, repositories and services.
var Core = fx.Options(
	fx.Provide(
		config.LoadConfig,
		database.NewDatabase,
		logger.NewLogger,

		query.DefaultRegistry,
		query.NewBuilder,
		NewDataSource,
		NewCacheStore,
		NewResultCache,
		NewFormatter,

		audit.NewAuditRepository,
		audit.NewAuditService,
		notification.NewNotificationRepository,
		notification.NewNotificationService,
		cron_feature.NewCronRepository,
		cron_feature.NewCronService,

		report.NewReportRepository,
		report.NewFileRepository,
		report.NewDataService,
		report.NewReportService,
		report.NewExportService,
		AsExportService,
	),
	fx.Invoke(
		func(cfg *config.Config) { utils.SetSecret(cfg.JWTSecret) },
		InitializeIndexes,
	),
)

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(lc fx.Lifecycle, reports report.ReportRepository, files report.FileRepository, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := reports.EnsureIndexes(ctx); err != nil {
					logger.Warn("Failed to ensure report indexes", zap.Error(err))
				}
				if err := files.EnsureIndexes(ctx); err != nil {
					logger.Warn("Failed to ensure report file indexes", zap.Error(err))
				}
			}()
			return nil
		},
	})
}

// AsExportService exposes the worker-owning implementation through the
// interface consumed by controllers and jobs.
func AsExportService(s *report.ExportServiceImpl) report.ExportService {
	return s
}

// NewDataSource selects the row backend named by DATA_SOURCE.
func NewDataSource(lc fx.Lifecycle, cfg *config.Config, mongodb *database.MongodbDB, logger *zap.Logger) (query.DataSource, error) {
	switch cfg.DataSource {
	case "", "mongo":
		return datasource.NewMongo(mongodb.DB), nil
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		db, err := datasource.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		logger.Info("Connected to Postgres data source")
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error { return db.Close() },
		})
		return datasource.NewPostgres(db), nil
	}
	return nil, fmt.Errorf("unknown data source %q", cfg.DataSource)
}

// NewCacheStore selects the cache backend named by CACHE_BACKEND.
func NewCacheStore(lc fx.Lifecycle, cfg *config.Config, mongodb *database.MongodbDB, logger *zap.Logger) (cache.Store, error) {
	switch cfg.CacheBackend {
	case "", "memory":
		store := cache.NewMemoryStore()
		ctx, cancel := context.WithCancel(context.Background())
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go store.RunJanitor(ctx, janitorInterval)
				return nil
			},
			OnStop: func(context.Context) error {
				cancel()
				return nil
			},
		})
		return store, nil
	case "mongo":
		store := cache.NewMongoStore(mongodb.DB)
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := store.EnsureIndexes(ctx); err != nil {
					logger.Warn("Failed to create cache indexes", zap.Error(err))
				}
				return nil
			},
		})
		return store, nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
}

func NewResultCache(store cache.Store, cfg *config.Config, logger *zap.Logger) *cache.ResultCache {
	return cache.New(store, cfg.Report.CacheTTL, logger)
}

func NewFormatter(cfg *config.Config, logger *zap.Logger) *format.Formatter {
	return format.New(cfg.Report.FormatLenient, logger)
}
