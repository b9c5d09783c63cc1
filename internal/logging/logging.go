package logging

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.SugaredLogger
	loggerOnce sync.Once
	debugMode  bool
)

// initLogger builds the global zap logger. Production encoder by default;
// Setup(true) before first use switches to the development config.
func initLogger() {
	loggerOnce.Do(func() {
		var l *zap.Logger
		var err error
		if debugMode {
			l, err = zap.NewDevelopment()
		} else {
			l, err = zap.NewProduction()
		}
		if err != nil {
			// zap's default constructors only fail on invalid config;
			// fall back to a no-op logger rather than panicking at startup.
			l = zap.NewNop()
		}
		logger = l.Sugar()
	})
}

// Setup selects the logger profile. Must be called before the first log
// call to have any effect.
func Setup(debug bool) {
	debugMode = debug
	initLogger()
}

func Debug(msg string, kv ...any) {
	initLogger()
	logger.Debugw(msg, kv...)
}

func Info(msg string, kv ...any) {
	initLogger()
	logger.Infow(msg, kv...)
}

func Warn(msg string, kv ...any) {
	initLogger()
	logger.Warnw(msg, kv...)
}

// Error logs msg with err prepended to the key-value list.
func Error(msg string, err error, kv ...any) {
	initLogger()
	extended := append([]any{"err", err}, kv...)
	logger.Errorw(msg, extended...)
}

// Sync flushes buffered log entries. Call on shutdown.
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
