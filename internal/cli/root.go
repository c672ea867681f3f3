// Package cli provides the command-line interface for importguard.
package cli

import (
	"io"
	"log/slog"

	"github.com/importguard/importguard/internal/cli/commands"
	"github.com/importguard/importguard/internal/cli/output"
	"github.com/importguard/importguard/internal/config"
	"github.com/spf13/cobra"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "importguard",
		Short: "importguard - Architectural import contracts for Go",
		Long: `importguard checks the import graph of a Go module against declared
contracts: forbidden dependencies, independent siblings and layered
architectures. Contracts live in importguard.yaml next to go.mod.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Commands that work without a project configuration
			switch cmd.Name() {
			case "help", "completion", "__complete", "version", "init":
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
			renderer := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output))

			ctx := commands.WithConfig(cmd.Context(), cfg)
			ctx = commands.WithLogger(ctx, logger)
			ctx = commands.WithRenderer(ctx, renderer)
			cmd.SetContext(ctx)

			if cfg.Verbose {
				logger.Debug("configuration loaded",
					"project_root", cfg.ProjectRoot,
					"contracts", len(cfg.Contracts))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./importguard.yaml, searched upward)")
	rootCmd.PersistentFlags().String("source-dir", "", "Root of the Go module to analyze")
	rootCmd.PersistentFlags().Bool("include-tests", false, "Include _test.go files in the graph")
	rootCmd.PersistentFlags().Bool("no-cache", false, "Disable the result cache")
	rootCmd.PersistentFlags().String("cache-dir", "", "Directory for the result cache")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (auto|text|markdown|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "markdown", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewCheckCommand())
	rootCmd.AddCommand(commands.NewListCommand())
	rootCmd.AddCommand(commands.NewGraphCommand())
	rootCmd.AddCommand(commands.NewInitCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version))

	return rootCmd
}

// newLogger builds the CLI logger. Verbose enables debug level.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

