package model

import (
	"cmp"
	"encoding/binary"
	"encoding/hex"
	"slices"

	"golang.org/x/crypto/sha3"
)

// Dataset maps record identities to records.
// It is not safe for concurrent mutation.
type Dataset struct {
	records map[Key]Record
}

// NewDataset returns an empty Dataset.
func NewDataset() *Dataset {
	return &Dataset{records: make(map[Key]Record)}
}

// Upsert stores r under r.Key, replacing any previous record with that key.
func (d *Dataset) Upsert(r Record) {
	d.records[r.Key] = r
}

// Get returns the record stored under key.
func (d *Dataset) Get(key Key) (Record, bool) {
	r, ok := d.records[key]
	return r, ok
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Each calls fn for every record in unspecified order.
func (d *Dataset) Each(fn func(Record)) {
	for _, r := range d.records {
		fn(r)
	}
}

// Records returns all records sorted by organization, module, version and
// repository, which is the order the catalog is rendered in.
func (d *Dataset) Records() []Record {
	out := make([]Record, 0, len(d.records))
	for _, r := range d.records {
		out = append(out, r)
	}
	slices.SortFunc(out, compareCatalogOrder)
	return out
}

// Organizations returns the sorted, distinct organizations present in the dataset.
func (d *Dataset) Organizations() []string {
	seen := make(map[string]struct{})
	for k := range d.records {
		seen[k.Organization] = struct{}{}
	}
	orgs := make([]string, 0, len(seen))
	for org := range seen {
		orgs = append(orgs, org)
	}
	slices.Sort(orgs)
	return orgs
}

// Digest returns a hex SHA3-256 fingerprint of the record contents.
// ScannedAt is excluded, so two crawls that observed the same remote state
// produce the same digest.
func (d *Dataset) Digest() string {
	keys := make([]Key, 0, len(d.records))
	for k := range d.records {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, Key.Compare)

	h := sha3.New256()
	write := func(s string) {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(s)))
		h.Write(n[:])
		h.Write([]byte(s))
	}
	for _, k := range keys {
		r := d.records[k]
		write(k.Organization)
		write(k.Repository)
		write(k.Version)
		write(k.Module)
		write(r.Name)
		write(r.Summary)
		write(r.URL)
		write(r.LastModified.UTC().Format("2006-01-02T15:04:05Z07:00"))
		var stars [8]byte
		binary.BigEndian.PutUint64(stars[:], uint64(r.Stars))
		h.Write(stars[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

func compareCatalogOrder(a, b Record) int {
	return cmp.Or(
		cmp.Compare(a.Organization, b.Organization),
		cmp.Compare(a.Module, b.Module),
		cmp.Compare(a.Version, b.Version),
		cmp.Compare(a.Repository, b.Repository),
	)
}
