package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/importguard/importguard/internal/cli/output"
	"github.com/importguard/importguard/internal/config"
	"github.com/spf13/cobra"
)

const starterConfig = `# importguard configuration.
# Module names are dotted paths relative to the module root:
# example.com/shop/internal/api becomes shop.internal.api.
# Wildcards: * matches one segment, ** matches any number.

source_dir: .

contracts:
  - id: layers
    type: layers
    layers:
      - cmd
      - internal
    containers:
      - mymodule

  # - id: no-db-from-api
  #   type: forbidden
  #   source_modules:
  #     - mymodule.internal.api.**
  #   forbidden_modules:
  #     - mymodule.internal.db.**

  # - id: independent-features
  #   type: independence
  #   modules:
  #     - mymodule.internal.features.*
`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a starter importguard.yaml",
		Long: `Write a starter importguard.yaml with commented contract examples.

Edit the generated file to declare the architectural contracts of your
module, then run 'importguard check'.`,
		Example: `  # Initialize in current directory
  importguard init

  # Initialize in a project directory
  importguard init ./my-project

  # Overwrite an existing configuration
  importguard init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ModeAuto)
			return runInit(r, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

func runInit(r *output.Renderer, dir string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", config.ConfigFileName)
	}

	if err := os.WriteFile(configPath, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}

	r.Success(config.ConfigFileName + " created")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Replace the example module names with your own")
	r.Println("  2. Run 'importguard check' to evaluate the contracts")
	r.Println("  3. Run 'importguard graph --modules' to see module names")

	return nil
}
