package logger

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey string

// RequestIDKey is the context key the trace middleware stores the request id under.
const RequestIDKey ctxKey = "request_id"

var Log = zap.NewNop()

func InitLogger(level, format string) {
	lvl := zapcore.InfoLevel
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build()
	if err != nil {
		panic("Failed to init logger: " + err.Error())
	}
	Log = l
}

func SyncLogger() {
	_ = Log.Sync()
}

// FromContext returns the global logger annotated with the request id, if any.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return Log
	}
	if id, ok := ctx.Value(RequestIDKey).(string); ok && id != "" {
		return Log.With(zap.String("request_id", id))
	}
	return Log
}
