package config

import "time"

// File represents the structure of the .modscan configuration file.
// Every field is optional; unset fields keep the value already in Config.
type File struct {
	Organizations        []string       `yaml:"organizations,omitempty"`
	Versions             []string       `yaml:"versions,omitempty"`
	BranchFormat         string         `yaml:"branchFormat,omitempty"`
	ManifestFile         string         `yaml:"manifestFile,omitempty"`
	ReservedRepositories []string       `yaml:"reservedRepositories,omitempty"`
	ReservedDirectories  []string       `yaml:"reservedDirectories,omitempty"`
	APIURL               string         `yaml:"apiURL,omitempty"`
	Proxy                string         `yaml:"proxy,omitempty"`
	Timeout              time.Duration  `yaml:"timeout,omitempty"`
	CacheMaxAge          *time.Duration `yaml:"cacheMaxAge,omitempty"`
	CacheSize            int            `yaml:"cacheSize,omitempty"`
	Dataset              string         `yaml:"dataset,omitempty"`
}

// Apply overrides c with every value set in f.
// Lists replace the configured list rather than extending it.
func (c *Config) Apply(f *File) {
	if f == nil {
		return
	}
	if len(f.Organizations) > 0 {
		c.Organizations = f.Organizations
	}
	if len(f.Versions) > 0 {
		c.Versions = f.Versions
	}
	if f.BranchFormat != "" {
		c.BranchFormat = f.BranchFormat
	}
	if f.ManifestFile != "" {
		c.ManifestFile = f.ManifestFile
	}
	// An explicit empty list disables the reserved names.
	if f.ReservedRepositories != nil {
		c.ReservedRepositories = f.ReservedRepositories
	}
	if f.ReservedDirectories != nil {
		c.ReservedDirectories = f.ReservedDirectories
	}
	if f.APIURL != "" {
		c.APIURL = f.APIURL
	}
	if f.Proxy != "" {
		c.Proxy = f.Proxy
	}
	if f.Timeout != 0 {
		c.Timeout = f.Timeout
	}
	// Zero is meaningful here, so only an absent key keeps the default.
	if f.CacheMaxAge != nil {
		c.CacheMaxAge = *f.CacheMaxAge
	}
	if f.CacheSize != 0 {
		c.CacheSize = f.CacheSize
	}
	if f.Dataset != "" {
		c.DatasetPath = f.Dataset
	}
}
