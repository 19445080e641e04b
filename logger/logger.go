package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a JSON zap logger for the API server.
// Debug mode keeps JSON output but lowers the level to debug.
func New(debug bool) (*zap.Logger, error) {
	return build(zap.NewProductionConfig(), "json", debug)
}

// NewConsole builds a human readable logger for operator tools.
func NewConsole(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.DisableStacktrace = true
	return build(cfg, "console", debug)
}

func build(cfg zap.Config, encoding string, debug bool) (*zap.Logger, error) {
	cfg.Encoding = encoding
	cfg.Level = zap.NewAtomicLevelAt(level(debug))
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func level(debug bool) zapcore.Level {
	if debug {
		return zap.DebugLevel
	}
	return zap.InfoLevel
}
