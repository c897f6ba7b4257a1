package model

import (
	"cmp"
	"fmt"
	"time"
)

// Key identifies a module at a release version inside a repository.
// A Key never changes once a Record has been created for it.
type Key struct {
	// Organization is the login of the organization owning the repository.
	Organization string `json:"organization"`

	// Repository is the repository name without the organization prefix.
	Repository string `json:"repository"`

	// Version is the configured release version (e.g. "12"), not the branch name.
	Version string `json:"version"`

	// Module is the name of the module directory.
	Module string `json:"module"`
}

// String returns the key as "organization/repository@version:module".
func (k Key) String() string {
	return fmt.Sprintf("%s/%s@%s:%s", k.Organization, k.Repository, k.Version, k.Module)
}

// IsZero reports whether every component of the key is empty.
func (k Key) IsZero() bool {
	return k == Key{}
}

// Compare orders keys component by component in the order
// organization, repository, version, module.
func (k Key) Compare(other Key) int {
	return cmp.Or(
		cmp.Compare(k.Organization, other.Organization),
		cmp.Compare(k.Repository, other.Repository),
		cmp.Compare(k.Version, other.Version),
		cmp.Compare(k.Module, other.Module),
	)
}

// Record is one observation of a module at a specific release version.
// Every field except Key is replaced as a whole when the module is scanned again.
type Record struct {
	Key

	// Name is the display name declared by the module manifest.
	Name string `json:"name"`

	// Summary is the optional one-line description from the manifest,
	// with surrounding whitespace removed.
	Summary string `json:"summary"`

	// Stars is the star count of the repository at scan time.
	Stars int `json:"stars"`

	// URL points at the module directory on the remote host.
	URL string `json:"url"`

	// LastModified is the last modification time the remote host reported
	// for the module directory. Zero when unknown.
	LastModified time.Time `json:"last_modified,omitzero"`

	// ScannedAt is the wall-clock time this record was created or replaced.
	ScannedAt time.Time `json:"scanned_at"`
}
