// Package commands implements the importguard subcommands.
package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/importguard/importguard/internal/cache"
	"github.com/importguard/importguard/internal/cli/output"
	"github.com/importguard/importguard/internal/config"
	"github.com/importguard/importguard/internal/provider"
	"github.com/importguard/importguard/internal/runner"
	"github.com/spf13/cobra"
)

// Context keys for values stored by the root command.
type (
	configKey   struct{}
	loggerKey   struct{}
	rendererKey struct{}
)

// WithConfig stores the loaded configuration in ctx.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// WithLogger stores the CLI logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// WithRenderer stores the output renderer in ctx.
func WithRenderer(ctx context.Context, r *output.Renderer) context.Context {
	return context.WithValue(ctx, rendererKey{}, r)
}

// GetConfig retrieves the configuration from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{
		SourceDir: config.DefaultSourceDir,
		Output:    config.DefaultOutput,
	}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// GetRenderer retrieves the renderer from the command context.
func GetRenderer(ctx context.Context) *output.Renderer {
	if r, ok := ctx.Value(rendererKey{}).(*output.Renderer); ok {
		return r
	}
	return output.NewRenderer(os.Stdout, os.Stderr, output.ModeAuto)
}

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext assembles the dependencies stored by the root command.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	ctx := cmd.Context()
	return &CommandContext{
		Cfg:      GetConfig(ctx),
		Logger:   GetLogger(ctx),
		Renderer: GetRenderer(ctx),
	}
}

// newRunner wires a Runner from the configuration: a Go source provider
// and a SQLite-backed result cache unless caching is disabled. The cleanup
// function must be called (typically via defer).
func newRunner(cmdCtx *CommandContext) (*runner.Runner, func()) {
	cfg := cmdCtx.Cfg

	var store cache.Store = cache.Disabled{}
	cleanup := func() {}
	if !cfg.Cache.Disabled {
		s, err := cache.OpenSQLite(cfg.Cache.Dir, cmdCtx.Logger)
		if err != nil {
			// A broken cache never fails the run.
			cmdCtx.Logger.Debug("cache unavailable", "dir", cfg.Cache.Dir, "error", err)
		} else {
			store = s
			cleanup = func() { _ = s.Close() }
		}
	}

	source := provider.NewGoSource(cfg.SourceDir, cmdCtx.Logger)
	source.IncludeTests = cfg.IncludeTests
	return runner.New(source, store, cmdCtx.Logger), cleanup
}
