package graph

import (
	"context"
	"log/slog"
)

type progressKey struct{}

// WithProgressLogger returns a context that carries a logger for
// chain-search progress. Chain finding reports each discovered chain at
// debug level; without a logger on the context the search stays silent.
func WithProgressLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, progressKey{}, logger)
}

func progressLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(progressKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
