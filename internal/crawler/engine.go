package crawler

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/nao1215/modscan/internal/manifest"
	"github.com/nao1215/modscan/internal/model"
	"github.com/nao1215/modscan/internal/source"
)

// Defaults applied by New.
const (
	DefaultBranchFormat = "{version}.0"
	DefaultManifestFile = "__manifest__.py"
)

var (
	// DefaultReservedRepositories are maintenance repositories that never hold modules.
	DefaultReservedRepositories = []string{".github"}

	// DefaultReservedDirectories are top-level directories that are never modules.
	DefaultReservedDirectories = []string{".github", ".tx", "setup"}
)

// Engine walks organization → repository → version branch → module and
// writes one record per module with a valid manifest.
type Engine struct {
	src           source.Source
	orgs          []string
	versions      []string
	branchFormat  string
	manifestFile  string
	reservedRepos []string
	reservedDirs  []string
	observer      Observer
	now           func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithOrganizations sets the organizations to crawl.
func WithOrganizations(orgs ...string) Option {
	return func(e *Engine) {
		e.orgs = slices.Clone(orgs)
	}
}

// WithVersions sets the release versions to visit, oldest first.
// The order matters when resuming: versions listed before the checkpointed
// version are not visited again in the checkpointed repository.
func WithVersions(versions ...string) Option {
	return func(e *Engine) {
		e.versions = slices.Clone(versions)
	}
}

// WithBranchFormat sets how a version maps to a branch name.
// "{version}" is replaced by the version.
func WithBranchFormat(format string) Option {
	return func(e *Engine) {
		e.branchFormat = format
	}
}

// WithManifestFile sets the manifest file name looked up in each module directory.
func WithManifestFile(name string) Option {
	return func(e *Engine) {
		e.manifestFile = name
	}
}

// WithReservedRepositories replaces the repository names that are always skipped.
func WithReservedRepositories(names ...string) Option {
	return func(e *Engine) {
		e.reservedRepos = slices.Clone(names)
	}
}

// WithReservedDirectories replaces the top-level directory names that are never modules.
func WithReservedDirectories(names ...string) Option {
	return func(e *Engine) {
		e.reservedDirs = slices.Clone(names)
	}
}

// WithObserver sets the observer notified of every crawl decision.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithClock sets the clock used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New returns an Engine reading from src.
func New(src source.Source, opts ...Option) *Engine {
	e := &Engine{
		src:           src,
		branchFormat:  DefaultBranchFormat,
		manifestFile:  DefaultManifestFile,
		reservedRepos: slices.Clone(DefaultReservedRepositories),
		reservedDirs:  slices.Clone(DefaultReservedDirectories),
		observer:      nopObserver{},
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.observer == nil {
		e.observer = nopObserver{}
	}
	return e
}

// Result summarizes one crawl.
type Result struct {
	// Checkpoint is the position the crawl resumed from.
	Checkpoint Checkpoint
	// Updated counts records created or replaced.
	Updated int
	// Interrupted is true when the crawl stopped on cancellation or rate limiting.
	Interrupted bool
	// Cause is why the crawl was interrupted.
	Cause      error
	StartedAt  time.Time
	FinishedAt time.Time
}

// interruption ends a crawl early without failing it.
type interruption struct {
	cause error
}

func (i *interruption) Error() string {
	return "crawl interrupted: " + i.cause.Error()
}

func (i *interruption) Unwrap() error {
	return i.cause
}

// Crawl visits every configured organization, resuming from the checkpoint
// derived from ds, and upserts a record into ds for each module found.
//
// Cancelling ctx or exhausting the rate limit stops the crawl between remote
// calls; ds keeps every record written so far and Crawl returns a Result
// with Interrupted set and a nil error. A remote call already in flight is
// allowed to finish. Any other failure is returned as an error, and ds
// still holds the records written before it.
func (e *Engine) Crawl(ctx context.Context, ds *model.Dataset) (*Result, error) {
	if ds == nil {
		return nil, errors.New("crawl: nil dataset")
	}

	res := &Result{
		Checkpoint: DeriveCheckpoint(ds, e.orgs),
		StartedAt:  e.now(),
	}
	err := e.crawl(ctx, ds, res)
	res.FinishedAt = e.now()

	var stop *interruption
	if errors.As(err, &stop) {
		res.Interrupted = true
		res.Cause = stop.cause
		e.observer.Observe(Event{Kind: Interrupted, Err: stop.cause})
		return res, nil
	}
	return res, err
}

func (e *Engine) crawl(ctx context.Context, ds *model.Dataset, res *Result) error {
	for i, org := range RotateOrganizations(e.orgs, res.Checkpoint.Organization) {
		filter := res.Checkpoint
		if i > 0 {
			filter = Checkpoint{}
		}
		if err := e.crawlOrganization(ctx, ds, res, org, filter); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) crawlOrganization(ctx context.Context, ds *model.Dataset, res *Result, org string, filter Checkpoint) error {
	if err := checkInterrupt(ctx); err != nil {
		return err
	}
	e.observer.Observe(Event{Kind: OrganizationStarted, Organization: org})

	repos, err := e.src.ListRepositories(context.WithoutCancel(ctx), org)
	if err != nil {
		return remoteError(err, "crawl %s", org)
	}
	slices.SortFunc(repos, func(a, b source.Repository) int {
		return cmp.Compare(a.Name, b.Name)
	})

	for _, repo := range repos {
		if repo.Name < filter.Repository {
			continue
		}
		if slices.Contains(e.reservedRepos, repo.Name) {
			e.observer.Observe(Event{Kind: RepositorySkipped, Organization: org, Repository: repo.Name, Reason: "reserved"})
			continue
		}
		if repo.Fork {
			e.observer.Observe(Event{Kind: RepositorySkipped, Organization: org, Repository: repo.Name, Reason: "fork"})
			continue
		}
		if err := e.crawlRepository(ctx, ds, res, org, repo, filter.forRepository(repo.Name)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) crawlRepository(ctx context.Context, ds *model.Dataset, res *Result, org string, repo source.Repository, filter Checkpoint) error {
	e.observer.Observe(Event{Kind: RepositoryStarted, Organization: org, Repository: repo.Name})

	versions := e.versions
	if i := slices.Index(versions, filter.Version); filter.Version != "" && i >= 0 {
		versions = versions[i:]
	}
	for _, version := range versions {
		if err := e.crawlVersion(ctx, ds, res, org, repo, version, filter.forVersion(version)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) crawlVersion(ctx context.Context, ds *model.Dataset, res *Result, org string, repo source.Repository, version string, filter Checkpoint) error {
	if err := checkInterrupt(ctx); err != nil {
		return err
	}
	branch := e.Branch(version)
	event := Event{Organization: org, Repository: repo.Name, Version: version, Branch: branch}

	event.Kind = VersionStarted
	e.observer.Observe(event)

	entries, err := e.src.ListDirectory(context.WithoutCancel(ctx), repo, branch, "")
	if errors.Is(err, source.ErrNotFound) {
		event.Kind = BranchMissing
		e.observer.Observe(event)
		return nil
	}
	if err != nil {
		return remoteError(err, "crawl %s@%s", repo.FullName, branch)
	}

	for _, dir := range e.moduleDirectories(entries, filter.Module) {
		if err := checkInterrupt(ctx); err != nil {
			return err
		}
		if err := e.crawlModule(ctx, ds, res, event, repo, dir); err != nil {
			return err
		}
	}
	return nil
}

// moduleDirectories returns the candidate module directories of a branch
// root in name order, starting at from.
func (e *Engine) moduleDirectories(entries []source.Entry, from string) []source.Entry {
	dirs := make([]source.Entry, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || slices.Contains(e.reservedDirs, entry.Name) || entry.Name < from {
			continue
		}
		dirs = append(dirs, entry)
	}
	slices.SortFunc(dirs, func(a, b source.Entry) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return dirs
}

func (e *Engine) crawlModule(ctx context.Context, ds *model.Dataset, res *Result, event Event, repo source.Repository, dir source.Entry) error {
	event.Module = dir.Name
	dirPath := cmp.Or(dir.Path, dir.Name)

	data, err := e.src.FetchFile(context.WithoutCancel(ctx), repo, event.Branch, path.Join(dirPath, e.manifestFile))
	if errors.Is(err, source.ErrNotFound) {
		event.Kind = ManifestMissing
		e.observer.Observe(event)
		return nil
	}
	if err != nil {
		return remoteError(err, "crawl %s@%s", repo.FullName, event.Branch)
	}

	m, err := manifest.Parse(data)
	if err != nil {
		event.Kind, event.Err = ManifestInvalid, err
		e.observer.Observe(event)
		return nil
	}

	ds.Upsert(model.Record{
		Key:          event.Key(),
		Name:         m.Name,
		Summary:      m.Summary,
		Stars:        repo.Stars,
		URL:          dir.HTMLURL,
		LastModified: dir.LastModified,
		ScannedAt:    e.now(),
	})
	res.Updated++

	event.Kind = RecordUpdated
	e.observer.Observe(event)
	return nil
}

// Branch returns the branch name for version.
func (e *Engine) Branch(version string) string {
	return strings.ReplaceAll(e.branchFormat, "{version}", version)
}

// checkInterrupt returns an interruption if ctx is done.
func checkInterrupt(ctx context.Context) error {
	if ctx.Err() != nil {
		return &interruption{cause: context.Cause(ctx)}
	}
	return nil
}

// remoteError turns rate limiting into an interruption and wraps anything else.
func remoteError(err error, format string, args ...any) error {
	if errors.Is(err, source.ErrRateLimited) {
		return &interruption{cause: err}
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
