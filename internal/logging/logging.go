// Package logging constructs the process-wide zap logger from a single
// environment variable, per the external-interfaces contract: no other
// environment input is consulted by the core.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvVar is the single logging-level environment variable the core reads.
const EnvVar = "CODEINDEX_LOG_LEVEL"

// New builds a *zap.Logger at the level named by CODEINDEX_LOG_LEVEL
// (debug|info|warn|error), defaulting to info on an unset or unrecognized
// value.
func New() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(levelFromEnv())
	cfg.EncoderConfig.TimeKey = "ts"
	return cfg.Build()
}

func levelFromEnv() zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvVar))) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
