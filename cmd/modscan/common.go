package main

import (
	"log/slog"
	"os"

	"github.com/nao1215/modscan/internal/config"
	"github.com/nao1215/modscan/internal/log"
	"github.com/spf13/cobra"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the credential-redacting logger for cmd and makes it
// the default logger.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	logger := log.NewSecureLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))
	slog.SetDefault(logger)
	return logger
}

// addConfigFlags registers the flags shared by every command that reads the
// configuration file and the dataset.
func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .modscan in current, XDG config or home directory)")
	cmd.Flags().StringP("dataset", "d", "",
		"Dataset file (default: modules.db in the XDG data directory)")
}

// loadConfig builds the configuration from the config file and the flags
// registered by addConfigFlags. Flags that were not set keep the file values.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	if cmd.Flags().Changed("dataset") {
		if cfg.DatasetPath, err = cmd.Flags().GetString("dataset"); err != nil {
			return nil, err
		}
	}
	if f := cmd.Flags().Lookup("versions"); f != nil && f.Changed {
		if cfg.Versions, err = cmd.Flags().GetStringSlice("versions"); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// resolveToken returns the --token flag value, falling back to the
// GITHUB_ACCESS_TOKEN environment variable.
func resolveToken(cmd *cobra.Command) (string, error) {
	token, err := cmd.Flags().GetString("token")
	if err != nil {
		return "", err
	}
	if token != "" {
		return token, nil
	}
	return os.Getenv(config.TokenEnv), nil
}
