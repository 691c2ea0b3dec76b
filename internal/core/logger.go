package core

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger replaces the global logger with one honoring the configured
// level. Called once the configuration has been read; startup before that
// point logs through the default production logger.
func NewLogger(level string) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		zap.L().Warn("Unknown log level, keeping info", zap.String("level", level))
		parsed = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)

	logger, err := cfg.Build()
	if err != nil {
		zap.L().Fatal("Failed to build logger", zap.Error(err))
	}
	zap.ReplaceGlobals(logger)
}
