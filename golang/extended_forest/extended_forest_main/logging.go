package main

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//newLogger writes JSON logs to stderr and, when LOG_FILE is set, appends them to that file too.
func newLogger(debug bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	cores := []zapcore.Core{zapcore.NewCore(enc, zapcore.AddSync(os.Stderr), level)}

	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			return nil, errors.Wrap(err, "create log directory")
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, errors.Wrap(err, "open log file")
		}
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(f), level))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}
