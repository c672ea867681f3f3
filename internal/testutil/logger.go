// Package testutil holds helpers shared by the package tests.
package testutil

import (
	"log/slog"
	"strings"
	"testing"
)

// NewTestLogger returns a debug-level slog.Logger routed through t.Log,
// so log lines only surface for failing tests or under -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	h := slog.NewTextHandler(logWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(h)
}

type logWriter struct {
	tb testing.TB
}

func (w logWriter) Write(p []byte) (int, error) {
	w.tb.Helper()
	w.tb.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}
