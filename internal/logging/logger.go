// Package logging provides zap logger helpers.
package logging

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects the encoder flavour and an optional rotated log file.
type Config struct {
	Development bool
	// File, when set, receives a JSON copy of every entry through lumberjack rotation.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New builds a zap.Logger configured for development or production.
func New(cfg Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Development {
		zc := zap.NewDevelopmentConfig()
		zc.EncoderConfig.TimeKey = "ts"
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		logger, err = zc.Build()
		if err != nil {
			return nil, fmt.Errorf("build dev logger: %w", err)
		}
	} else {
		zc := zap.NewProductionConfig()
		zc.DisableStacktrace = false
		zc.EncoderConfig.TimeKey = "ts"
		logger, err = zc.Build()
		if err != nil {
			return nil, fmt.Errorf("build prod logger: %w", err)
		}
	}
	if cfg.File == "" {
		return logger, nil
	}
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, newFileCore(cfg))
	})), nil
}

func newFileCore(cfg Config) zapcore.Core {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	level := zapcore.InfoLevel
	if cfg.Development {
		level = zapcore.DebugLevel
	}
	sink := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
	return zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(sink), level)
}

// Sync flushes logger, ignoring the errors stdout/stderr return on some platforms.
func Sync(logger *zap.Logger) {
	err := logger.Sync()
	if err == nil {
		return
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) && (pathErr.Path == "/dev/stderr" || pathErr.Path == "/dev/stdout") {
		return
	}
	fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", err)
}
