package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// debounceWindow coalesces bursts of filesystem events into one re-check.
const debounceWindow = 300 * time.Millisecond

// ErrContractsBroken is returned when at least one contract is broken or
// errored, so the process exits non-zero.
var ErrContractsBroken = errors.New("contracts broken")

// CheckOptions holds options for the check command.
type CheckOptions struct {
	Contracts []string
	Target    []string
	Exclude   []string
	Watch     bool
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check [path]",
		Short: "Check import contracts against the dependency graph",
		Long: `Build the import graph of the Go module and evaluate every configured
contract against it.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format

Use --output to override: auto, text, markdown, json`,
		Example: `  # Check all contracts
  importguard check

  # Check a single contract
  importguard check --contract layers

  # Only surface violations under a path
  importguard check --target internal/api

  # Re-run on source changes
  importguard check --watch

  # Machine-readable report
  importguard check --output json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContext(cmd)
			if len(args) > 0 {
				cmdCtx.Cfg.SourceDir = args[0]
			}
			if opts.Watch {
				return runWatch(cmd.Context(), cmdCtx, opts)
			}
			return runCheck(cmd.Context(), cmdCtx, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Contracts, "contract", nil, "Only check the named contract ids (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Target, "target", nil, "Only surface violations under these path prefixes")
	cmd.Flags().StringSliceVar(&opts.Exclude, "exclude", nil, "Suppress violations under these path prefixes")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-run checks when source files change")

	return cmd
}

func runCheck(ctx context.Context, cmdCtx *CommandContext, opts *CheckOptions) error {
	r, cleanup := newRunner(cmdCtx)
	defer cleanup()

	target := opts.Target
	if len(target) == 0 {
		target = cmdCtx.Cfg.Target
	}
	exclude := opts.Exclude
	if len(exclude) == 0 {
		exclude = cmdCtx.Cfg.Exclude
	}

	rep, err := r.Run(ctx, cmdCtx.Cfg, opts.Contracts)
	if err != nil {
		return err
	}
	rep = rep.Scoped(target, exclude)

	if err := cmdCtx.Renderer.Report(rep); err != nil {
		return err
	}
	if !rep.Passed() {
		return ErrContractsBroken
	}
	return nil
}

// runWatch re-runs the check whenever a Go source file under the source
// directory changes. A failing check keeps the watcher alive.
func runWatch(ctx context.Context, cmdCtx *CommandContext, opts *CheckOptions) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watchGoDirs(watcher, cmdCtx.Cfg.SourceDir); err != nil {
		return err
	}

	runOnce := func() {
		if err := runCheck(ctx, cmdCtx, opts); err != nil && !errors.Is(err, ErrContractsBroken) {
			fmt.Fprintf(cmdCtx.Renderer.ErrWriter(), "Error: %v\n", err)
		}
	}

	runOnce()
	fmt.Fprintln(cmdCtx.Renderer.ErrWriter(), "Watching for changes... (Ctrl+C to stop)")

	var timer *time.Timer
	pending := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(ev) {
				continue
			}
			// New directories need watching too.
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = watchGoDirs(watcher, ev.Name)
				}
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceWindow, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cmdCtx.Logger.Warn("watch error", "error", err)
		case <-pending:
			runOnce()
		}
	}
}

// relevantEvent filters out events that cannot change the import graph.
func relevantEvent(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	if strings.HasSuffix(ev.Name, ".go") || strings.HasSuffix(ev.Name, "go.mod") {
		return true
	}
	info, err := os.Stat(ev.Name)
	return err == nil && info.IsDir()
}

// watchGoDirs registers root and every subdirectory with the watcher,
// skipping hidden directories, vendor and testdata.
func watchGoDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || name == "vendor" || name == "testdata") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
