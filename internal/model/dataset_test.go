package model

import (
	"slices"
	"testing"
	"time"
)

func testRecord(org, repo, version, module string) Record {
	return Record{
		Key:       Key{Organization: org, Repository: repo, Version: version, Module: module},
		Name:      module,
		URL:       "https://example.test/" + org + "/" + repo + "/" + version + "/" + module,
		ScannedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestDatasetUpsert(t *testing.T) {
	t.Parallel()

	t.Run("same key replaces the record", func(t *testing.T) {
		t.Parallel()

		ds := NewDataset()
		first := testRecord("acme", "web", "12", "web_a")
		ds.Upsert(first)

		second := first
		second.Summary = "updated"
		second.Stars = 7
		ds.Upsert(second)

		if ds.Len() != 1 {
			t.Fatalf("expected 1 record, got %d", ds.Len())
		}
		got, ok := ds.Get(first.Key)
		if !ok {
			t.Fatal("expected record to be found")
		}
		if got.Summary != "updated" || got.Stars != 7 {
			t.Errorf("expected replaced record, got %+v", got)
		}
	})

	t.Run("different versions are separate records", func(t *testing.T) {
		t.Parallel()

		ds := NewDataset()
		ds.Upsert(testRecord("acme", "web", "11", "web_a"))
		ds.Upsert(testRecord("acme", "web", "12", "web_a"))

		if ds.Len() != 2 {
			t.Errorf("expected 2 records, got %d", ds.Len())
		}
	})

	t.Run("missing key is not found", func(t *testing.T) {
		t.Parallel()

		if _, ok := NewDataset().Get(Key{Module: "nope"}); ok {
			t.Error("expected no record")
		}
	})
}

func TestDatasetRecords(t *testing.T) {
	t.Parallel()

	ds := NewDataset()
	ds.Upsert(testRecord("zeta", "a", "11", "a"))
	ds.Upsert(testRecord("acme", "web", "12", "b_mod"))
	ds.Upsert(testRecord("acme", "web", "11", "b_mod"))
	ds.Upsert(testRecord("acme", "tools", "11", "b_mod"))
	ds.Upsert(testRecord("acme", "web", "12", "a_mod"))

	var got []string
	for _, r := range ds.Records() {
		got = append(got, r.Key.String())
	}
	want := []string{
		"acme/web@12:a_mod",
		"acme/tools@11:b_mod",
		"acme/web@11:b_mod",
		"acme/web@12:b_mod",
		"zeta/a@11:a",
	}
	if !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDatasetOrganizations(t *testing.T) {
	t.Parallel()

	ds := NewDataset()
	ds.Upsert(testRecord("zeta", "a", "11", "a"))
	ds.Upsert(testRecord("acme", "a", "11", "a"))
	ds.Upsert(testRecord("acme", "b", "11", "a"))

	if got := ds.Organizations(); !slices.Equal(got, []string{"acme", "zeta"}) {
		t.Errorf("expected [acme zeta], got %v", got)
	}
	if got := NewDataset().Organizations(); len(got) != 0 {
		t.Errorf("expected no organizations, got %v", got)
	}
}

func TestDatasetEach(t *testing.T) {
	t.Parallel()

	ds := NewDataset()
	ds.Upsert(testRecord("acme", "a", "11", "a"))
	ds.Upsert(testRecord("acme", "a", "12", "a"))

	count := 0
	ds.Each(func(Record) { count++ })
	if count != 2 {
		t.Errorf("expected 2 calls, got %d", count)
	}
}

func TestDatasetDigest(t *testing.T) {
	t.Parallel()

	build := func() *Dataset {
		ds := NewDataset()
		ds.Upsert(testRecord("acme", "a", "11", "a"))
		ds.Upsert(testRecord("acme", "b", "12", "b"))
		return ds
	}

	t.Run("is stable across insertion order", func(t *testing.T) {
		t.Parallel()

		a := build()
		b := NewDataset()
		b.Upsert(testRecord("acme", "b", "12", "b"))
		b.Upsert(testRecord("acme", "a", "11", "a"))

		if a.Digest() != b.Digest() {
			t.Error("expected equal digests")
		}
		if len(a.Digest()) != 64 {
			t.Errorf("expected 64 hex characters, got %d", len(a.Digest()))
		}
	})

	t.Run("ignores scan time", func(t *testing.T) {
		t.Parallel()

		a := build()
		b := build()
		r := testRecord("acme", "a", "11", "a")
		r.ScannedAt = r.ScannedAt.Add(time.Hour)
		b.Upsert(r)

		if a.Digest() != b.Digest() {
			t.Error("expected scan time not to change the digest")
		}
	})

	t.Run("changes with content", func(t *testing.T) {
		t.Parallel()

		a := build()
		b := build()
		r := testRecord("acme", "a", "11", "a")
		r.Summary = "changed"
		b.Upsert(r)

		if a.Digest() == b.Digest() {
			t.Error("expected different digests")
		}
	})

	t.Run("field boundaries matter", func(t *testing.T) {
		t.Parallel()

		a := NewDataset()
		ra := testRecord("acme", "a", "11", "a")
		ra.Name, ra.Summary = "ab", "c"
		a.Upsert(ra)

		b := NewDataset()
		rb := testRecord("acme", "a", "11", "a")
		rb.Name, rb.Summary = "a", "bc"
		b.Upsert(rb)

		if a.Digest() == b.Digest() {
			t.Error("expected length-prefixed fields to differ")
		}
	})
}
