// Package main provides the entry point for the modscan CLI.
//
// modscan crawls GitHub organizations for addon modules, one release branch
// at a time, keeps what it finds in a local SQLite dataset and renders that
// dataset as a Markdown catalog.
//
// Usage:
//
//	modscan crawl OCA
//	modscan render -o modules.md
//
// See --help for all available options.
package main

// main is the entry point for modscan.
func main() {
	Execute()
}
