// Command importguard checks a Go module's import graph against declared
// architectural contracts.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/importguard/importguard/internal/cli"
	"github.com/importguard/importguard/internal/cli/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Broken contracts are already reported; anything else is an
		// operational failure worth printing.
		if !errors.Is(err, commands.ErrContractsBroken) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
