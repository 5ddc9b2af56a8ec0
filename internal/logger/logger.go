// Package logger builds the process zap logger.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a development logger (console, caller, stack traces on warn)
// when debug is set, a JSON production logger otherwise. level accepts
// debug, info, warn, error; empty means info.
func New(level string, debug bool) (*zap.Logger, error) {
	lvl := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if level != "" {
		parsed, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		lvl = parsed
	}

	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = lvl
	return cfg.Build()
}
