// Package config provides the configuration of modscan: which organizations
// and release versions to crawl, how branches and manifests are named, how
// the GitHub API is reached and where the dataset lives.
//
// Values come from NewConfig defaults, then from an optional YAML file
// (.modscan), then from command line flags applied by the caller.
package config
