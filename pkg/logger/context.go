package logger

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type contextKey string

const loggerKey contextKey = "logger"

// FromContext returns the request logger stored in ctx, or the global logger
func FromContext(ctx context.Context) *zap.Logger {
	return FromContextOr(ctx, GetLogger())
}

// FromContextOr returns the request logger stored in ctx, or fallback when
// there is none. Components with an injected logger use this so request ids
// follow the call into them.
func FromContextOr(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return OrNop(fallback)
}

// WithContext stores a request logger in ctx
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromEcho returns the request logger set by Middleware, or the global logger
func FromEcho(c echo.Context) *zap.Logger {
	if l, ok := c.Get("logger").(*zap.Logger); ok {
		return l
	}
	return GetLogger()
}
