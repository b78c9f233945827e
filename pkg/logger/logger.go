package logger

import (
	"context"
	"log/slog"
	"os"
)

type contextKey struct{}

// Setup installs the process-wide slog handler. Logs go to stderr because
// stdout belongs to the interactive session.
func Setup(level string, format string) {
	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// WithQuerySeq tags the context with the 1-based number of the current
// query turn.
func WithQuerySeq(ctx context.Context, seq int) context.Context {
	return context.WithValue(ctx, contextKey{}, seq)
}

func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if seq, ok := ctx.Value(contextKey{}).(int); ok {
		logger = logger.With("query_seq", seq)
	}
	return logger
}

func WithComponent(component string) *slog.Logger {
	return slog.Default().With("component", component)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
