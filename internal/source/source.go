package source

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a branch, directory or file does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited is returned when the API quota is exhausted.
	ErrRateLimited = errors.New("rate limit exhausted")
)

// Entry types reported by ListDirectory.
const (
	EntryTypeDir  = "dir"
	EntryTypeFile = "file"
)

// Repository is a repository owned by an organization.
type Repository struct {
	// Name is the repository name without the owner.
	Name string `json:"name"`

	// FullName is "owner/name".
	FullName string `json:"full_name"`

	// Stars is the stargazer count.
	Stars int `json:"stars"`

	// Fork reports whether the repository is a fork of another one.
	Fork bool `json:"fork"`
}

// Entry is one item of a directory listing.
type Entry struct {
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	Path         string    `json:"path"`
	HTMLURL      string    `json:"html_url"`
	LastModified time.Time `json:"last_modified,omitzero"`
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool {
	return e.Type == EntryTypeDir
}

// RateLimit is a snapshot of the API quota.
type RateLimit struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
}

// Source is the remote tree walked by the crawler.
// Every method blocks until the remote call completes.
type Source interface {
	// ListRepositories returns the repositories of org.
	ListRepositories(ctx context.Context, org string) ([]Repository, error)

	// ListDirectory returns the entries at path on branch.
	// It returns an error wrapping ErrNotFound if the branch or path is absent.
	ListDirectory(ctx context.Context, repo Repository, branch, path string) ([]Entry, error)

	// FetchFile returns the raw content of the file at path on branch.
	// It returns an error wrapping ErrNotFound if the file is absent.
	FetchFile(ctx context.Context, repo Repository, branch, path string) ([]byte, error)

	// RateLimit returns the current API quota.
	RateLimit(ctx context.Context) (RateLimit, error)
}
