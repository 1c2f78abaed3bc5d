package logger

import (
	"context"

	"go-itam/internal/config"
	"go-itam/internal/database"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the console logger, tees it into the rotated log file when
// LOG_FILE is set, and mirrors every entry to the MongoDB logs collection.
func NewLogger(lc fx.Lifecycle, cfg *config.Config, mongodb *database.MongodbDB) (*zap.Logger, error) {
	base, err := NewBaseLogger(cfg)
	if err != nil {
		return nil, err
	}

	dbWriter := NewDBLogWriter(mongodb, cfg)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = base.Sync()
			return dbWriter.Close(ctx)
		},
	})

	return zap.New(NewDBCore(base.Core(), dbWriter), zap.AddCaller()), nil
}

// NewBaseLogger builds the console and file logger without the database tee.
func NewBaseLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Environment == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	// Enable Caller to get Function Name
	zapConfig.EncoderConfig.FunctionKey = "func"

	baseLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	if cfg.LogFile == "" {
		return baseLogger, nil
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.FunctionKey = "func"

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}),
		zapConfig.Level,
	)

	return zap.New(zapcore.NewTee(baseLogger.Core(), fileCore), zap.AddCaller()), nil
}
