// Package logger builds zap loggers from configuration.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dframe-go/dframe/config"
)

// New builds a logger for cfg. Console encoding gets the development encoder
// config with colored levels; json gets the production one.
func New(cfg config.LoggerConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Encoding == "console" {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = cfg.Encoding
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if len(cfg.OutputPaths) > 0 {
		zc.OutputPaths = cfg.OutputPaths
	}
	if len(cfg.ErrorOutputPaths) > 0 {
		zc.ErrorOutputPaths = cfg.ErrorOutputPaths
	}

	return zc.Build()
}

// ForApp builds the application logger, tagged with the app name and environment
func ForApp(cfg *config.Config) (*zap.Logger, error) {
	l, err := New(cfg.Logger)
	if err != nil {
		return nil, err
	}
	return l.With(
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Environment),
	), nil
}
