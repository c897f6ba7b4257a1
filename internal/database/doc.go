// Package database stores the module dataset in SQLite.
//
// A single database file holds:
//   - the records table, one row per module identity
//   - the runs table, one row per crawl invocation
//   - the http_cache table, validated API responses reused across runs
//
// SQLite (via modernc.org/sqlite) keeps the dataset in one portable file
// without CGO. A file that SQLite cannot read is treated as an empty
// dataset: it is removed and recreated, and Store.Recovered reports it.
package database
