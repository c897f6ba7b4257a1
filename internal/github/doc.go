// Package github reads organizations, branches and files from the GitHub
// REST API. Client implements source.Source.
//
// Responses carrying an ETag are kept in an optional Cache and revalidated
// with If-None-Match; GitHub does not count 304 responses against the rate
// limit, so re-crawling an unchanged organization is cheap. Server errors
// and network failures are retried with a doubling delay. Exhausted quota is
// reported as a *RateLimitError, which matches source.ErrRateLimited.
package github
