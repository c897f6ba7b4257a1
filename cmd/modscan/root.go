package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for modscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modscan",
		Short: "Catalog addon modules published in GitHub organizations",
		Long: `modscan walks GitHub organizations, their repositories, one branch per
release version and the module directories on each branch. Every module with a
valid manifest becomes a record in a local dataset.

A crawl that is interrupted by the API rate limit or by Ctrl+C keeps what it
found so far; the next crawl resumes where the previous one stopped.

The GitHub access token is read from --token, the GITHUB_ACCESS_TOKEN
environment variable or a .env file in the current directory.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadDotEnv(".env")
		},
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewRenderCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// loadDotEnv exports the variables of path into the environment.
// Variables that are already set win, and a missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
