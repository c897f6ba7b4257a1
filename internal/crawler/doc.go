// Package crawler implements the resumable module crawl.
//
// # Traversal
//
// An Engine walks a four-level tree read from a source.Source:
//
//	organization → repository → version branch → module directory
//
// Organizations are visited in sorted order, repositories and module
// directories in name order, and versions in the configured order. Every
// module directory holding a valid manifest becomes a model.Record in the
// dataset passed to Crawl. Records are upserted, so scanning a module twice
// leaves a single record with the newest attributes.
//
// # Resuming
//
// Before walking, the engine derives a Checkpoint from the dataset: the
// identity of the most recently scanned record. The traversal starts at the
// checkpointed organization (the sorted list is rotated so the others wrap
// around), skips repositories sorting before the checkpointed one, and inside
// that repository skips versions configured before the checkpointed version
// and modules sorting before the checkpointed module. Each filter only applies
// along the checkpoint's own path; siblings visited later are walked in full.
//
// # Interruption
//
// Context cancellation and source.ErrRateLimited both stop the crawl. The
// context is checked between remote calls, never during one, and the crawl
// returns a Result with Interrupted set instead of an error. Because records
// are stamped as they are written, the next crawl picks up where this one
// stopped.
//
// # Observation
//
// Every decision (skip, missing branch, invalid manifest, update) is reported
// to an Observer. NewLogObserver logs events; MultiObserver fans them out.
//
// # Usage
//
//	engine := crawler.New(client,
//		crawler.WithOrganizations("OCA"),
//		crawler.WithVersions("11", "12", "13", "14"),
//		crawler.WithObserver(crawler.NewLogObserver(logger)),
//	)
//	result, err := engine.Crawl(ctx, dataset)
package crawler
