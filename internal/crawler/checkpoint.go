package crawler

import (
	"fmt"
	"slices"

	"github.com/nao1215/modscan/internal/model"
)

// Checkpoint is the position a previous crawl reached. It is the identity of
// the most recently scanned record. An empty component filters nothing.
type Checkpoint struct {
	Organization string `json:"organization"`
	Repository   string `json:"repository"`
	Version      string `json:"version"`
	Module       string `json:"module"`
}

// IsZero reports whether the checkpoint filters nothing.
func (c Checkpoint) IsZero() bool {
	return c == Checkpoint{}
}

// String returns the checkpoint as "organization/repository@version:module",
// or "none" for the zero checkpoint.
func (c Checkpoint) String() string {
	if c.IsZero() {
		return "none"
	}
	return fmt.Sprintf("%s/%s@%s:%s", c.Organization, c.Repository, c.Version, c.Module)
}

// DeriveCheckpoint returns the identity of the record with the latest
// ScannedAt. When several records share that time the largest identity wins.
// The zero Checkpoint is returned when ds is empty or the winning record
// belongs to an organization outside orgs.
func DeriveCheckpoint(ds *model.Dataset, orgs []string) Checkpoint {
	var (
		latest model.Record
		found  bool
	)
	ds.Each(func(r model.Record) {
		switch {
		case !found, r.ScannedAt.After(latest.ScannedAt):
		case r.ScannedAt.Equal(latest.ScannedAt) && r.Key.Compare(latest.Key) > 0:
		default:
			return
		}
		latest, found = r, true
	})
	if !found || !slices.Contains(orgs, latest.Organization) {
		return Checkpoint{}
	}
	return Checkpoint{
		Organization: latest.Organization,
		Repository:   latest.Repository,
		Version:      latest.Version,
		Module:       latest.Module,
	}
}

// forRepository returns the filter that applies inside the repository called
// name. Version and module filters only survive in the checkpointed repository.
func (c Checkpoint) forRepository(name string) Checkpoint {
	if name != c.Repository {
		c.Version, c.Module = "", ""
	}
	return c
}

// forVersion returns the filter that applies inside version. The module
// filter only survives in the checkpointed version.
func (c Checkpoint) forVersion(version string) Checkpoint {
	if version != c.Version {
		c.Module = ""
	}
	return c
}
