// Package telemetry provides the index's structured logging and metrics,
// kept out of the algorithmic core so that build/search stay free of
// diagnostic side effects on their correctness paths.
package telemetry

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var defaultLogger *zap.Logger

func init() {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	defaultLogger = logger
}

// Debug logs a debug-level diagnostic message. The k-means trainer uses
// this to report convergence, and pkg/ivfann uses it for the optional
// centroid-distance dump.
func Debug(msg string, fields ...interface{}) {
	defaultLogger.Sugar().Debugw(msg, fields...)
}

// Info logs an info-level message.
func Info(msg string, fields ...interface{}) {
	defaultLogger.Sugar().Infow(msg, fields...)
}

// Warn logs a warning, used for empty clusters encountered during k-means
// update.
func Warn(msg string, fields ...interface{}) {
	defaultLogger.Sugar().Warnw(msg, fields...)
}

// Error logs an error-level message.
func Error(msg string, fields ...interface{}) {
	defaultLogger.Sugar().Errorw(msg, fields...)
}
