package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/modscan/internal/config"
	"github.com/nao1215/modscan/internal/crawler"
	"github.com/nao1215/modscan/internal/database"
	"github.com/nao1215/modscan/internal/github"
	"github.com/nao1215/modscan/internal/metrics"
	"github.com/nao1215/modscan/internal/model"
	"github.com/nao1215/modscan/internal/report"
	"github.com/nao1215/modscan/internal/source"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [organization...]",
		Short: "Crawl GitHub organizations for modules",
		Long: `Crawl walks every repository of the given organizations, the branch of each
configured version and the module directories on that branch, and stores one
record per module and version in the dataset.

When the API rate limit is exhausted or the crawl is cancelled with Ctrl+C,
the records found so far are saved and the next crawl resumes after the last
saved module.

Examples:
  # Crawl the organizations from the configuration file
  modscan crawl

  # Crawl two organizations for versions 16 and 17
  modscan crawl OCA acme --versions 16,17

  # Write the catalog and Prometheus metrics after the crawl
  modscan crawl --catalog modules.md --metrics-file /var/lib/node_exporter/modscan.prom`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	addConfigFlags(cmd)
	cmd.Flags().StringP("token", "t", "",
		"GitHub access token (default: $GITHUB_ACCESS_TOKEN)")
	cmd.Flags().StringSlice("versions", nil,
		"Release versions to crawl, in order (default: from config file)")
	cmd.Flags().String("proxy", "",
		"Proxy URL for API requests (http, https, socks5 or socks5h)")
	cmd.Flags().Duration("timeout", config.DefaultTimeout,
		"Timeout of a single API request")
	cmd.Flags().String("metrics-file", "",
		"Write Prometheus metrics to this file after the crawl")
	cmd.Flags().String("catalog", "",
		"Render the Markdown catalog to this file after the crawl")

	return cmd
}

// crawlOutputs are the optional files written after a crawl.
type crawlOutputs struct {
	metricsFile string
	catalogFile string
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildCrawlConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)

	var outputs crawlOutputs
	if outputs.metricsFile, err = cmd.Flags().GetString("metrics-file"); err != nil {
		return err
	}
	if outputs.catalogFile, err = cmd.Flags().GetString("catalog"); err != nil {
		return err
	}

	// Cancelling the context interrupts the crawl; the partial dataset is
	// still saved below.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.Open(cfg.DatasetPath, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open dataset: %w", err)
	}
	defer store.Close()
	if store.Recovered() {
		logger.Warn("dataset was unreadable and has been replaced with an empty one", "path", store.Path())
	}

	if cfg.CacheMaxAge > 0 {
		pruned, err := store.PruneCache(ctx, time.Now().Add(-cfg.CacheMaxAge))
		if err != nil {
			return err
		}
		logger.Debug("pruned cached responses", "count", pruned)
	}

	client, err := newGitHubClient(cfg, store)
	if err != nil {
		return err
	}

	return runCrawl(ctx, cmd.OutOrStdout(), cfg, client, store, logger, outputs)
}

// buildCrawlConfig applies the crawl flags and arguments on top of the
// configuration file.
func buildCrawlConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	if len(args) > 0 {
		cfg.Organizations = args
	}
	if cfg.Token, err = resolveToken(cmd); err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("proxy") {
		if cfg.Proxy, err = cmd.Flags().GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("timeout") {
		if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newGitHubClient creates the API client. Responses are cached in memory in
// front of the store's persistent cache.
func newGitHubClient(cfg *config.Config, store *database.Store) (*github.Client, error) {
	opts := []github.Option{
		github.WithBaseURL(cfg.APIURL),
		github.WithTimeout(cfg.Timeout),
		github.WithUserAgent(userAgent()),
	}
	if cfg.Proxy != "" {
		opts = append(opts, github.WithProxy(cfg.Proxy))
	}
	if store != nil {
		cache, err := github.NewLRUCache(cfg.CacheSize, store)
		if err != nil {
			return nil, fmt.Errorf("failed to create response cache: %w", err)
		}
		opts = append(opts, github.WithResponseCache(cache))
	}

	client, err := github.NewClient(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}
	return client, nil
}

// runCrawl crawls src into the dataset held by store, records the run and
// writes the requested outputs. The dataset is saved even when the crawl
// fails, so no record that was found is lost.
func runCrawl(ctx context.Context, w io.Writer, cfg *config.Config, src source.Source, store *database.Store, logger *slog.Logger, outputs crawlOutputs) error {
	ds, err := store.Load(ctx)
	if err != nil {
		return err
	}

	collector := metrics.New()
	engine := crawler.New(src,
		crawler.WithOrganizations(cfg.Organizations...),
		crawler.WithVersions(cfg.Versions...),
		crawler.WithBranchFormat(cfg.BranchFormat),
		crawler.WithManifestFile(cfg.ManifestFile),
		crawler.WithReservedRepositories(cfg.ReservedRepositories...),
		crawler.WithReservedDirectories(cfg.ReservedDirectories...),
		crawler.WithObserver(crawler.MultiObserver{crawler.NewLogObserver(logger), collector}),
	)

	run, err := store.StartRun(ctx, cfg.Organizations, time.Now())
	if err != nil {
		return err
	}

	res, crawlErr := engine.Crawl(ctx, ds)

	// The crawl context may be cancelled by now.
	ctx = context.WithoutCancel(ctx)
	if err := store.Save(ctx, ds); err != nil {
		return errors.Join(crawlErr, fmt.Errorf("failed to save dataset: %w", err))
	}

	finishRun(run, res, crawlErr)
	if err := store.FinishRun(ctx, run); err != nil {
		logger.Warn("failed to record crawl run", "error", err)
	}

	collector.ObserveResult(res, ds.Len())
	if outputs.metricsFile != "" {
		if err := collector.WriteTextfile(outputs.metricsFile); err != nil {
			return errors.Join(crawlErr, err)
		}
	}
	if outputs.catalogFile != "" {
		if err := writeCatalog(afero.NewOsFs(), outputs.catalogFile, cfg.Versions, ds); err != nil {
			return errors.Join(crawlErr, err)
		}
	}

	printCrawlSummary(w, cfg, res, ds)
	printRateLimit(ctx, w, src, logger)

	return crawlErr
}

// finishRun copies the outcome of a crawl into run.
func finishRun(run *database.Run, res *crawler.Result, crawlErr error) {
	run.FinishedAt = time.Now().UTC()
	run.Status = database.RunCompleted
	if res != nil {
		run.Updated = res.Updated
		run.Checkpoint = res.Checkpoint.String()
		if res.Interrupted {
			run.Status = database.RunInterrupted
			if res.Cause != nil {
				run.Cause = res.Cause.Error()
			}
		}
	}
	if crawlErr != nil {
		run.Status = database.RunFailed
		run.Cause = crawlErr.Error()
	}
}

func writeCatalog(fs afero.Fs, path string, versions []string, ds *model.Dataset) error {
	return report.WriteFile(fs, path, func(w io.Writer) error {
		_, err := report.NewCatalogWriter(w, versions).Write(ds)
		return err
	})
}

// printCrawlSummary prints what the crawl did and, after an interruption,
// where the next crawl will resume.
func printCrawlSummary(w io.Writer, cfg *config.Config, res *crawler.Result, ds *model.Dataset) {
	if res == nil {
		return
	}

	fmt.Fprintf(w, "Updated %s records in %s (%s in dataset)\n",
		humanize.Comma(int64(res.Updated)),
		res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond),
		humanize.Comma(int64(ds.Len())))

	if !res.Checkpoint.IsZero() {
		fmt.Fprintf(w, "Resumed from %s\n", res.Checkpoint)
	}
	if res.Interrupted {
		fmt.Fprintf(w, "Crawl interrupted: %v\n", res.Cause)
		fmt.Fprintf(w, "Run the crawl again to resume from %s\n", crawler.DeriveCheckpoint(ds, cfg.Organizations))
	}
}

// quotaTracker is implemented by sources that record the quota reported in
// response headers.
type quotaTracker interface {
	LastRateLimit() (source.RateLimit, bool)
}

// printRateLimit prints the remaining API quota, preferring the value seen
// during the crawl. Failing to read it only produces a warning.
func printRateLimit(ctx context.Context, w io.Writer, src source.Source, logger *slog.Logger) {
	rl, ok := source.RateLimit{}, false
	if tracker, isTracker := src.(quotaTracker); isTracker {
		rl, ok = tracker.LastRateLimit()
	}
	if !ok {
		var err error
		if rl, err = src.RateLimit(ctx); err != nil {
			logger.Warn("failed to read rate limit", "error", err)
			return
		}
	}
	fmt.Fprintf(w, "Rate limit: %s of %s requests remaining, resets %s\n",
		humanize.Comma(int64(rl.Remaining)),
		humanize.Comma(int64(rl.Limit)),
		humanize.Time(rl.Reset))
}
