package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nao1215/modscan/internal/database"
	"github.com/nao1215/modscan/internal/model"
	"github.com/nao1215/modscan/internal/report"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// errConflictingFormats is returned when more than one output format is requested.
var errConflictingFormats = errors.New("conflicting output formats: --json and --summary cannot be used together")

// NewRenderCmd creates the render command.
func NewRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the dataset as a Markdown catalog",
		Long: `Render writes the dataset as a Markdown catalog: one section per
organization and one table row per module, with a link for every configured
version in which the module exists.

Examples:
  # Print the catalog
  modscan render

  # Write the catalog to a file, creating directories as needed
  modscan render -o docs/modules.md

  # Export every record as JSON
  modscan render --json -o modules.json

  # Print module counts per organization and version
  modscan render --summary`,
		Args: cobra.NoArgs,
		RunE: runRenderCmd,
	}

	addConfigFlags(cmd)
	cmd.Flags().StringP("output", "o", "",
		"Write to this file instead of stdout (creates directories if needed)")
	cmd.Flags().StringSlice("versions", nil,
		"Versions to show as catalog columns, in order (default: from config file)")
	cmd.Flags().BoolP("json", "j", false,
		"Export records as JSON (mutually exclusive with --summary)")
	cmd.Flags().BoolP("summary", "s", false,
		"Print a plain-text summary (mutually exclusive with --json)")

	return cmd
}

// renderOptions selects the output of runRender.
type renderOptions struct {
	output   string
	versions []string
	json     bool
	summary  bool
}

// runRenderCmd executes the render command.
func runRenderCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := renderOptions{versions: cfg.Versions}
	if opts.output, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}
	if opts.json, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if opts.summary, err = cmd.Flags().GetBool("summary"); err != nil {
		return err
	}
	if opts.json && opts.summary {
		return errConflictingFormats
	}

	ds, err := loadDataset(cmd.Context(), cfg.DatasetPath)
	if err != nil {
		return err
	}

	return runRender(afero.NewOsFs(), cmd.OutOrStdout(), ds, opts)
}

// loadDataset reads the dataset at path without creating it.
func loadDataset(ctx context.Context, path string) (*model.Dataset, error) {
	store, err := database.Open(path, database.Options{})
	if errors.Is(err, database.ErrNotExist) {
		return nil, fmt.Errorf("no dataset at %s: run 'modscan crawl' first", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer store.Close()

	return store.Load(ctx)
}

// runRender writes ds in the selected format to opts.output on fs, or to
// stdout when no output file is set.
func runRender(fs afero.Fs, stdout io.Writer, ds *model.Dataset, opts renderOptions) error {
	write := func(w io.Writer) error {
		var writer report.Writer
		switch {
		case opts.json:
			writer = report.NewJSONWriter(w, report.WithPrettyPrint())
		case opts.summary:
			writer = report.NewSummaryWriter(w, opts.versions)
		default:
			writer = report.NewCatalogWriter(w, opts.versions)
		}
		_, err := writer.Write(ds)
		return err
	}

	if opts.output == "" || opts.output == "-" {
		return write(stdout)
	}
	if err := report.WriteFile(fs, opts.output, write); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %d records to %s\n", ds.Len(), opts.output)
	return nil
}
