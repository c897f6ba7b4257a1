package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/nao1215/modscan/internal/config"
	"github.com/nao1215/modscan/internal/database"
	"github.com/nao1215/modscan/internal/source"
	"github.com/nao1215/modscan/internal/source/sourcetest"
)

func manifest(name, summary string) []byte {
	return fmt.Appendf(nil, "{'name': %q, 'summary': %q}\n", name, summary)
}

// newTestTree builds one organization with four modules:
//
//	acme/accounting  11.0: account_a; 12.0: account_a, account_b
//	acme/sale        no 11.0; 12.0: sale_a
func newTestTree() *sourcetest.Tree {
	tree := sourcetest.New()

	accounting := tree.AddRepository("acme", source.Repository{Name: "accounting", Stars: 12})
	tree.AddFile(accounting.FullName, "11.0", "account_a/__manifest__.py", manifest("Account A", "Ledger"))
	tree.AddFile(accounting.FullName, "12.0", "account_a/__manifest__.py", manifest("Account A", "Ledger"))
	tree.AddFile(accounting.FullName, "12.0", "account_b/__manifest__.py", manifest("Account B", ""))

	sale := tree.AddRepository("acme", source.Repository{Name: "sale"})
	tree.AddFile(sale.FullName, "12.0", "sale_a/__manifest__.py", manifest("Sale A", "Quotations"))

	return tree
}

// testRecordCount is the number of records a full crawl of newTestTree writes.
const testRecordCount = 4

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.NewConfig()
	cfg.Organizations = []string{"acme"}
	cfg.Versions = []string{"11", "12"}
	cfg.DatasetPath = filepath.Join(t.TempDir(), "modules.db")
	return cfg
}

func openTestStore(t *testing.T, path string) *database.Store {
	t.Helper()

	store, err := database.Open(path, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
