// Package source defines the contract between the crawl engine and the remote
// host it walks.
//
// A Source lists an organization's repositories, lists directories at a
// branch, fetches file contents and reports the API rate limit. Implementations
// signal expected absence with ErrNotFound and quota exhaustion with
// ErrRateLimited; the engine treats the former as a skip and the latter as an
// interruption.
package source
