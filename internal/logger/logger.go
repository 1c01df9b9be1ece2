package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu           sync.RWMutex
	globalLogger *zap.SugaredLogger
)

// Init builds the process logger. env "production" selects the JSON encoder.
func Init(level string, env string) error {
	var config zap.Config
	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	l, err := config.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return err
	}

	mu.Lock()
	globalLogger = l.Sugar()
	mu.Unlock()
	return nil
}

// Get returns the process logger, creating a development logger on first use.
func Get() *zap.SugaredLogger {
	mu.RLock()
	l := globalLogger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if globalLogger == nil {
		dev, err := zap.NewDevelopment()
		if err != nil {
			dev = zap.NewNop()
		}
		globalLogger = dev.Sugar()
	}
	return globalLogger
}

// Set replaces the process logger. Nil is ignored.
func Set(l *zap.SugaredLogger) {
	if l == nil {
		return
	}
	mu.Lock()
	globalLogger = l
	mu.Unlock()
}

// Named returns a child of the process logger scoped to a component.
func Named(name string) *zap.SugaredLogger {
	return Get().Named(name)
}

func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	if globalLogger == nil {
		return nil
	}
	return globalLogger.Sync()
}
