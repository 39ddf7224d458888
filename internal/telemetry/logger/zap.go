package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const badKey = "!BADKEY"

// zapLogger adapts *zap.Logger to the key/value Logger interface.
type zapLogger struct {
	z *zap.Logger
}

func (l *zapLogger) Debug(msg string, args ...any) {
	l.z.Debug(msg, fields(args)...)
}

func (l *zapLogger) Info(msg string, args ...any) {
	l.z.Info(msg, fields(args)...)
}

func (l *zapLogger) Warn(msg string, args ...any) {
	l.z.Warn(msg, fields(args)...)
}

func (l *zapLogger) Error(msg string, args ...any) {
	l.z.Error(msg, fields(args)...)
}

func (l *zapLogger) With(args ...any) Logger {
	return &zapLogger{z: l.z.With(fields(args)...)}
}

// WithContext attaches the request and trace IDs carried by ctx.
func (l *zapLogger) WithContext(ctx context.Context) Logger {
	var fs []zap.Field
	if id := RequestIDFromContext(ctx); id != "" {
		fs = append(fs, zap.String("request_id", id))
	}
	if id := TraceIDFromContext(ctx); id != "" {
		fs = append(fs, zap.String("trace_id", id))
	}
	if len(fs) == 0 {
		return l
	}
	return &zapLogger{z: l.z.With(fs...)}
}

// fields converts alternating key/value args into redacted zap fields.
// A trailing key without a value is logged under !BADKEY.
func fields(args []any) []zap.Field {
	if len(args) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, (len(args)+1)/2)
	for i := 0; i < len(args); {
		if f, ok := args[i].(zap.Field); ok {
			out = append(out, f)
			i++
			continue
		}
		key, ok := args[i].(string)
		if !ok || i+1 >= len(args) {
			out = append(out, zap.Any(badKey, args[i]))
			i++
			continue
		}
		out = append(out, field(key, args[i+1]))
		i += 2
	}
	return out
}

func field(key string, val any) zap.Field {
	switch v := val.(type) {
	case string:
		return zap.String(key, redactValue(key, v))
	case error:
		return zap.NamedError(key, v)
	case fmt.Stringer:
		return zap.String(key, redactValue(key, v.String()))
	default:
		return zap.Any(key, v)
	}
}
