package crawler

import (
	"context"
	"log/slog"

	"github.com/nao1215/modscan/internal/model"
)

// Kind identifies what happened during a crawl.
type Kind int

const (
	// OrganizationStarted is emitted before an organization's repositories are listed.
	OrganizationStarted Kind = iota + 1
	// RepositoryStarted is emitted before a repository's versions are visited.
	RepositoryStarted
	// RepositorySkipped is emitted for reserved and forked repositories.
	RepositorySkipped
	// VersionStarted is emitted before a version branch is listed.
	VersionStarted
	// BranchMissing is emitted when a repository has no branch for a version.
	BranchMissing
	// ManifestMissing is emitted when a module directory has no manifest file.
	ManifestMissing
	// ManifestInvalid is emitted when a manifest cannot be parsed or has no name.
	ManifestInvalid
	// RecordUpdated is emitted after a record is written to the dataset.
	RecordUpdated
	// Interrupted is emitted once when the crawl stops early.
	Interrupted
)

var kindNames = map[Kind]string{
	OrganizationStarted: "organization_started",
	RepositoryStarted:   "repository_started",
	RepositorySkipped:   "repository_skipped",
	VersionStarted:      "version_started",
	BranchMissing:       "branch_missing",
	ManifestMissing:     "manifest_missing",
	ManifestInvalid:     "manifest_invalid",
	RecordUpdated:       "record_updated",
	Interrupted:         "interrupted",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Kinds returns every Kind in emission order.
func Kinds() []Kind {
	return []Kind{
		OrganizationStarted, RepositoryStarted, RepositorySkipped, VersionStarted,
		BranchMissing, ManifestMissing, ManifestInvalid, RecordUpdated, Interrupted,
	}
}

// Event describes one crawl decision. Fields below the level the event
// belongs to are empty.
type Event struct {
	Kind         Kind
	Organization string
	Repository   string
	Version      string
	Branch       string
	Module       string
	// Reason explains skips, e.g. "fork" or "reserved".
	Reason string
	// Err is set for ManifestInvalid and Interrupted.
	Err error
}

// Key returns the record identity the event refers to.
func (e Event) Key() model.Key {
	return model.Key{
		Organization: e.Organization,
		Repository:   e.Repository,
		Version:      e.Version,
		Module:       e.Module,
	}
}

// Observer receives crawl events. Observe is called synchronously from the
// crawling goroutine and must not block for long.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) {
	f(e)
}

// MultiObserver forwards every event to each of its observers in order.
type MultiObserver []Observer

// Observe implements Observer.
func (m MultiObserver) Observe(e Event) {
	for _, o := range m {
		o.Observe(e)
	}
}

type nopObserver struct{}

func (nopObserver) Observe(Event) {}

type logObserver struct {
	logger *slog.Logger
}

// NewLogObserver returns an Observer that logs every event to logger.
// Progress is logged at Info, expected absences at Info, invalid manifests
// and interruptions at Warn.
func NewLogObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &logObserver{logger: logger}
}

// Observe implements Observer.
func (o *logObserver) Observe(e Event) {
	level := slog.LevelInfo
	msg := ""
	switch e.Kind {
	case OrganizationStarted:
		msg = "crawling organization"
	case RepositoryStarted:
		msg = "crawling repository"
	case RepositorySkipped:
		level, msg = slog.LevelDebug, "skipping repository"
	case VersionStarted:
		level, msg = slog.LevelDebug, "crawling version"
	case BranchMissing:
		msg = "no branch for version"
	case ManifestMissing:
		msg = "no manifest file"
	case ManifestInvalid:
		level, msg = slog.LevelWarn, "invalid manifest"
	case RecordUpdated:
		msg = "module updated"
	case Interrupted:
		level, msg = slog.LevelWarn, "crawl interrupted"
	default:
		msg = e.Kind.String()
	}

	attrs := make([]slog.Attr, 0, 7)
	for _, a := range []struct{ key, value string }{
		{"organization", e.Organization},
		{"repository", e.Repository},
		{"version", e.Version},
		{"branch", e.Branch},
		{"module", e.Module},
		{"reason", e.Reason},
	} {
		if a.value != "" {
			attrs = append(attrs, slog.String(a.key, a.value))
		}
	}
	if e.Err != nil {
		attrs = append(attrs, slog.Any("error", e.Err))
	}
	o.logger.LogAttrs(context.Background(), level, msg, attrs...)
}
