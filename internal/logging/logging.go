// Package logging wraps zap with the configuration conventions ddbrouter's
// components share: a single environment switch between a human-readable
// development encoder and a sampled JSON production encoder.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps *zap.Logger so call sites can depend on this package's type
// rather than importing zap directly everywhere.
type Logger struct {
	*zap.Logger
}

// New builds a Logger. environment == "production" selects a sampled JSON
// encoder at info level; anything else selects a colorized, debug-level
// development encoder.
func New(environment string) (*Logger, error) {
	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		cfg.Sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 100}
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return nil, err
	}
	return &Logger{l}, nil
}

// Noop returns a logger that discards everything, for tests and for
// callers that have not configured logging.
func Noop() *Logger {
	return &Logger{zap.NewNop()}
}
