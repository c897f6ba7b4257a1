package main

import (
	"os"
	"path/filepath"
	"testing"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "modscan" {
			t.Errorf("expected use 'modscan', got %q", cmd.Use)
		}
	})

	t.Run("has descriptions", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		want := map[string]bool{
			"crawl [organization...]": false,
			"render":                  false,
			"status":                  false,
			"init":                    false,
			"version":                 false,
		}
		for _, sub := range cmd.Commands() {
			if _, ok := want[sub.Use]; ok {
				want[sub.Use] = true
			}
		}
		for use, found := range want {
			if !found {
				t.Errorf("expected %q subcommand", use)
			}
		}
	})

	t.Run("silences usage and errors", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceUsage {
			t.Error("expected SilenceUsage to be true")
		}
		if !cmd.SilenceErrors {
			t.Error("expected SilenceErrors to be true")
		}
	})
}

// TestLoadDotEnv modifies the process environment and does not run in parallel.
func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is not an error", func(t *testing.T) {
		if err := loadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("exports variables from the file", func(t *testing.T) {
		const key = "MODSCAN_TEST_DOTENV_VALUE"
		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte(key+"=from-file\n"), 0o600); err != nil {
			t.Fatalf("failed to write .env: %v", err)
		}
		t.Cleanup(func() { _ = os.Unsetenv(key) })

		if err := loadDotEnv(path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := os.Getenv(key); got != "from-file" {
			t.Errorf("expected 'from-file', got %q", got)
		}
	})

	t.Run("existing variables win", func(t *testing.T) {
		const key = "MODSCAN_TEST_DOTENV_EXISTING"
		t.Setenv(key, "from-env")
		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte(key+"=from-file\n"), 0o600); err != nil {
			t.Fatalf("failed to write .env: %v", err)
		}

		if err := loadDotEnv(path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := os.Getenv(key); got != "from-env" {
			t.Errorf("expected 'from-env', got %q", got)
		}
	})
}
