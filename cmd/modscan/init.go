package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/modscan/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/modscan.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new modscan configuration file",
		Long: `Initialize creates a new .modscan configuration file in the current directory.

The generated file includes:
- The organizations and versions to crawl
- Commented defaults for branch and manifest naming
- Commented settings for the API endpoint, proxy and response cache

Examples:
  # Create .modscan in current directory
  modscan init

  # Create config file at a specific path
  modscan init -o ~/.config/modscan/.modscan

  # Force overwrite existing file
  modscan init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/modscan.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0o600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to choose:")
	fmt.Fprintln(out, "  - the organizations to crawl")
	fmt.Fprintln(out, "  - the release versions and their branch names")
	fmt.Fprintf(out, "\nSet %s or add it to a .env file to authenticate.\n", config.TokenEnv)

	return nil
}
