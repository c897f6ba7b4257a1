package config

import (
	"net/url"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "modscan"

	// DefaultTimeout bounds a single GitHub API request, retries excluded.
	DefaultTimeout = 30 * time.Second

	// VersionPlaceholder is replaced by the release version in BranchFormat.
	VersionPlaceholder = "{version}"

	// DefaultBranchFormat maps version "12" to branch "12.0".
	DefaultBranchFormat = VersionPlaceholder + ".0"

	// DefaultManifestFile is the manifest file looked up in each module directory.
	DefaultManifestFile = "__manifest__.py"

	// DefaultAPIURL is the public GitHub REST endpoint.
	DefaultAPIURL = "https://api.github.com"

	// DefaultCacheMaxAge is how long cached API responses are kept.
	// Entries older than this are pruned before each crawl.
	DefaultCacheMaxAge = 30 * 24 * time.Hour

	// DefaultCacheSize is the number of API responses kept in memory in
	// front of the persistent cache.
	DefaultCacheSize = 1024

	// DefaultDatasetFile is the file name of the dataset inside XDGDataDir.
	DefaultDatasetFile = "modules.db"

	// TokenEnv names the environment variable holding the GitHub access token.
	TokenEnv = "GITHUB_ACCESS_TOKEN" //nolint:gosec // variable name, not a credential
)

// DefaultOrganizations returns the organizations crawled when none are configured.
func DefaultOrganizations() []string {
	return []string{"OCA"}
}

// DefaultVersions returns the release versions crawled when none are configured.
func DefaultVersions() []string {
	return []string{"11", "12", "13", "14"}
}

// DefaultReservedRepositories returns repository names that never hold modules.
func DefaultReservedRepositories() []string {
	return []string{".github"}
}

// DefaultReservedDirectories returns top-level directory names that are
// never treated as modules.
func DefaultReservedDirectories() []string {
	return []string{".github", ".tx", "setup"}
}

// Config holds all configuration options for modscan.
// It is populated from defaults, the configuration file and CLI flags, and
// passed through the application rather than kept in global state.
type Config struct {
	// Organizations are the GitHub organizations to crawl.
	Organizations []string

	// Versions are the release versions to crawl, in the order they are
	// visited and rendered as catalog columns.
	Versions []string

	// BranchFormat derives the branch name from a version. It must contain
	// VersionPlaceholder.
	BranchFormat string

	// ManifestFile is the file name that marks a directory as a module.
	ManifestFile string

	// ReservedRepositories are repository names skipped in every organization.
	ReservedRepositories []string

	// ReservedDirectories are top-level directory names that are not modules.
	ReservedDirectories []string

	// APIURL is the base URL of the GitHub REST API.
	APIURL string

	// Proxy is an optional proxy URL (http, https, socks5 or socks5h).
	Proxy string

	// Timeout bounds each API request.
	Timeout time.Duration

	// CacheMaxAge is how long cached API responses are kept. Zero keeps
	// them forever.
	CacheMaxAge time.Duration

	// CacheSize is the number of API responses held in memory.
	CacheSize int

	// Token is the GitHub access token. It is never read from the
	// configuration file.
	Token string

	// DatasetPath is the SQLite file holding the dataset.
	DatasetPath string

	// ConfigFilePath is the explicitly requested configuration file.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// Verbose enables detailed log output.
	Verbose bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Organizations:        DefaultOrganizations(),
		Versions:             DefaultVersions(),
		BranchFormat:         DefaultBranchFormat,
		ManifestFile:         DefaultManifestFile,
		ReservedRepositories: DefaultReservedRepositories(),
		ReservedDirectories:  DefaultReservedDirectories(),
		APIURL:               DefaultAPIURL,
		Timeout:              DefaultTimeout,
		CacheMaxAge:          DefaultCacheMaxAge,
		CacheSize:            DefaultCacheSize,
		DatasetPath:          DefaultDatasetPath(),
	}
}

// XDGDataDir returns the XDG data directory for modscan.
// On Linux: ~/.local/share/modscan
// On macOS: ~/Library/Application Support/modscan
// On Windows: %LOCALAPPDATA%\modscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for modscan.
// On Linux: ~/.config/modscan
// On macOS: ~/Library/Application Support/modscan
// On Windows: %APPDATA%\modscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultDatasetPath returns the dataset location inside XDGDataDir.
func DefaultDatasetPath() string {
	return filepath.Join(XDGDataDir(), DefaultDatasetFile)
}

// Branch returns the branch name for version according to BranchFormat.
func (c *Config) Branch(version string) string {
	return strings.ReplaceAll(c.BranchFormat, VersionPlaceholder, version)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if len(c.Organizations) == 0 || slices.Contains(c.Organizations, "") {
		return ErrNoOrganization
	}

	if len(c.Versions) == 0 || slices.Contains(c.Versions, "") {
		return ErrNoVersion
	}
	if len(slices.Compact(slices.Sorted(slices.Values(c.Versions)))) != len(c.Versions) {
		return ErrDuplicateVersion
	}

	if !strings.Contains(c.BranchFormat, VersionPlaceholder) {
		return ErrInvalidBranchFormat
	}

	if c.ManifestFile == "" || strings.ContainsAny(c.ManifestFile, `/\`) {
		return ErrInvalidManifestFile
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.CacheMaxAge < 0 {
		return ErrInvalidCacheMaxAge
	}

	if c.CacheSize <= 0 {
		return ErrInvalidCacheSize
	}

	if u, err := url.Parse(c.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidAPIURL
	}

	if c.Proxy != "" {
		u, err := url.Parse(c.Proxy)
		if err != nil || u.Host == "" {
			return ErrInvalidProxy
		}
		switch u.Scheme {
		case "http", "https", "socks5", "socks5h":
		default:
			return ErrInvalidProxy
		}
	}

	return nil
}
