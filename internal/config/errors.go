package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and LoadConfigFile so
// callers can use errors.Is() for programmatic handling.
var (
	// ErrNoOrganization is returned when no organization is configured or
	// an organization name is empty.
	ErrNoOrganization = errors.New("no organization specified: pass organizations as arguments or set organizations in the config file")

	// ErrNoVersion is returned when no version is configured or a version is empty.
	ErrNoVersion = errors.New("no version specified: set --versions or versions in the config file")

	// ErrDuplicateVersion is returned when a version is listed twice.
	ErrDuplicateVersion = errors.New("duplicate version: each version may be listed once")

	// ErrInvalidBranchFormat is returned when the branch format lacks the
	// {version} placeholder, which would map every version to one branch.
	ErrInvalidBranchFormat = errors.New("invalid branch format: must contain {version}")

	// ErrInvalidManifestFile is returned when the manifest file name is empty
	// or contains a path separator.
	ErrInvalidManifestFile = errors.New("invalid manifest file: must be a plain file name")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidCacheMaxAge is returned when the cache age is negative.
	// Use 0 to keep cached responses forever.
	ErrInvalidCacheMaxAge = errors.New("invalid cache max age: must be non-negative")

	// ErrInvalidCacheSize is returned when the in-memory cache size is not positive.
	ErrInvalidCacheSize = errors.New("invalid cache size: must be positive")

	// ErrInvalidAPIURL is returned when the API URL is not an absolute http(s) URL.
	ErrInvalidAPIURL = errors.New("invalid API URL: must be an absolute http or https URL")

	// ErrInvalidProxy is returned when the proxy URL cannot be used.
	ErrInvalidProxy = errors.New("invalid proxy: must be an http, https, socks5 or socks5h URL")

	// ErrInvalidFormat is returned when the configuration file is not valid YAML
	// or a value has the wrong type.
	ErrInvalidFormat = errors.New("invalid configuration file format")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
