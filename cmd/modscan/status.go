package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nao1215/modscan/internal/database"
	"github.com/nao1215/modscan/internal/source"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show dataset contents, recent crawls and the API rate limit",
		Long: `Status prints the number of records per organization, the most recent
crawl runs and the remaining GitHub API quota.

Examples:
  # Show the status of the default dataset
  modscan status

  # Show the last 20 runs
  modscan status --runs 20`,
		Args: cobra.NoArgs,
		RunE: runStatusCmd,
	}

	addConfigFlags(cmd)
	cmd.Flags().StringP("token", "t", "",
		"GitHub access token (default: $GITHUB_ACCESS_TOKEN)")
	cmd.Flags().IntP("runs", "n", 5, "Number of recent crawl runs to show")

	return cmd
}

// statusReport is everything the status command prints.
type statusReport struct {
	stats *database.Stats
	runs  []database.Run

	rateLimit    source.RateLimit
	rateLimitErr error
}

// runStatusCmd executes the status command.
func runStatusCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Token, err = resolveToken(cmd); err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("runs")
	if err != nil {
		return err
	}

	setupLogger(cmd)

	store, err := database.Open(cfg.DatasetPath, database.Options{})
	if errors.Is(err, database.ErrNotExist) {
		return fmt.Errorf("no dataset at %s: run 'modscan crawl' first", cfg.DatasetPath)
	}
	if err != nil {
		return fmt.Errorf("failed to open dataset: %w", err)
	}
	defer store.Close()

	// The rate limit endpoint does not count against the quota, so it is
	// queried without the response cache.
	client, err := newGitHubClient(cfg, nil)
	if err != nil {
		return err
	}

	st, err := collectStatus(cmd.Context(), store, client, limit)
	if err != nil {
		return err
	}
	printStatus(cmd.OutOrStdout(), store.Path(), st)
	return nil
}

// collectStatus queries the store and the rate limit concurrently.
// A failing rate limit query is reported in the result, not as an error.
func collectStatus(ctx context.Context, store *database.Store, src source.Source, limit int) (*statusReport, error) {
	st := &statusReport{}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		st.stats, err = store.Stats(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		st.runs, err = store.Runs(ctx, limit)
		return err
	})
	g.Go(func() error {
		st.rateLimit, st.rateLimitErr = src.RateLimit(ctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return st, nil
}

// printStatus renders st as tables.
func printStatus(w io.Writer, path string, st *statusReport) {
	fmt.Fprintf(w, "Dataset: %s\n", path)
	fmt.Fprintf(w, "Records: %s in %d organizations, %s cached API responses\n\n",
		humanize.Comma(int64(st.stats.Records)),
		len(st.stats.Organizations),
		humanize.Comma(int64(st.stats.CachedResponses)))

	if len(st.stats.Organizations) > 0 {
		tbl := newTable(w)
		tbl.AppendHeader(table.Row{"Organization", "Repositories", "Modules", "Records", "Last scanned"})
		for _, org := range st.stats.Organizations {
			tbl.AppendRow(table.Row{
				org.Organization,
				org.Repositories,
				org.Modules,
				org.Records,
				humanize.Time(org.LastScanned),
			})
		}
		tbl.Render()
		fmt.Fprintln(w)
	}

	if len(st.runs) > 0 {
		tbl := newTable(w)
		tbl.AppendHeader(table.Row{"Started", "Status", "Updated", "Duration", "Organizations", "Cause"})
		for _, run := range st.runs {
			tbl.AppendRow(table.Row{
				humanize.Time(run.StartedAt),
				run.Status,
				run.Updated,
				run.Duration().Round(time.Millisecond).String(),
				strings.Join(run.Organizations, ", "),
				run.Cause,
			})
		}
		tbl.AppendFooter(table.Row{fmt.Sprintf("%d of %d runs", len(st.runs), st.stats.Runs)})
		tbl.Render()
		fmt.Fprintln(w)
	}

	if st.rateLimitErr != nil {
		fmt.Fprintf(w, "Rate limit: unavailable (%v)\n", st.rateLimitErr)
		return
	}
	fmt.Fprintf(w, "Rate limit: %s of %s requests remaining, resets %s\n",
		humanize.Comma(int64(st.rateLimit.Remaining)),
		humanize.Comma(int64(st.rateLimit.Limit)),
		humanize.Time(st.rateLimit.Reset))
}

func newTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	return tbl
}
