// Package logger builds the zap loggers used across the framework.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger writing to stdout/stderr.
//
// level is a zap level name ("debug", "info", "warn", "error"); an unknown
// level falls back to info. encoding is "json" or "console".
func New(level, encoding string) (*zap.Logger, error) {
	return NewWithOutputs(level, encoding, []string{"stdout"}, []string{"stderr"})
}

// NewWithOutputs is New with explicit output paths.
func NewWithOutputs(level, encoding string, outputStdout, outputStderr []string) (*zap.Logger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		atomicLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	if encoding != "console" {
		encoding = "json"
	}

	config := zap.Config{
		Level:            atomicLevel,
		Development:      false,
		DisableCaller:    false,
		Encoding:         encoding,
		EncoderConfig:    encoderCfg,
		OutputPaths:      outputStdout,
		ErrorOutputPaths: outputStderr,
		InitialFields:    map[string]interface{}{},
	}

	return config.Build()
}
