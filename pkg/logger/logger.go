// Package logger wraps log/slog with a request-scoped accessor.
//
// The request-id middleware stores a tagged *slog.Logger in the request
// context; handlers and services fetch it with WithCtx so their lines carry
// the same request_id:
//
//	logger.WithCtx(ctx).Info("order created", "order_id", order.ID)
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/adegaexpress/adega/config"
)

var (
	L = New(os.Stdout, config.AppEnv())

	sinkMu sync.Mutex
	sink   *MongoHandler
)

// New builds the base logger for env: JSON at info level in production,
// text at debug level everywhere else.
func New(w io.Writer, env string) *slog.Logger {
	switch env {
	case "production", "prod":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func init() {
	slog.SetDefault(L)
}

// EnableMongo tees every record into a MongoDB collection in addition to
// stdout. Returns a closer that flushes pending documents.
func EnableMongo(uri, db string) (func(), error) {
	h, err := NewMongoHandler(uri, db, "logs")
	if err != nil {
		return func() {}, err
	}

	sinkMu.Lock()
	sink = h
	L = slog.New(NewMultiHandler(L.Handler(), h))
	slog.SetDefault(L)
	sinkMu.Unlock()

	return func() {
		sinkMu.Lock()
		defer sinkMu.Unlock()
		if sink != nil {
			sink.Close()
			sink = nil
		}
	}, nil
}

type ctxKey struct{}

// WithCtx returns the logger stored by InjectLogger, or the base logger.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores log in ctx. Called by the request logger middleware.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

func Debug(msg string, args ...any) { L.Debug(msg, args...) }
func Info(msg string, args ...any)  { L.Info(msg, args...) }
func Warn(msg string, args ...any)  { L.Warn(msg, args...) }
func Error(msg string, args ...any) { L.Error(msg, args...) }
