// Package config loads and validates the optional .strata YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for runner and workflow configuration.
const (
	DefaultTimeout      = 60 * time.Second
	DefaultMaxOutput    = 1 << 20 // 1 MB
	DefaultCLI          = "terramate"
	DefaultBranchPrefix = "trigger-"
	DefaultRemote       = "origin"
	DefaultRegion       = "eu"
)

// Config holds the parsed .strata configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Version      int           `yaml:"version"`
	RawTimeout   string        `yaml:"timeout"`    // e.g. "60s", "5m"
	RawMaxOutput int           `yaml:"max_output"` // bytes
	RawCLI       string        `yaml:"cli"`        // stack CLI binary name
	Trigger      TriggerConfig `yaml:"trigger"`
	Cloud        CloudConfig   `yaml:"cloud"`
}

// TriggerConfig controls the git side of the trigger workflow.
type TriggerConfig struct {
	BranchPrefix string `yaml:"branch_prefix"` // prefix for generated branch names
	Remote       string `yaml:"remote"`        // git remote to push to
}

// CloudConfig controls access to the cloud API.
type CloudConfig struct {
	Region string `yaml:"region"` // "eu" or "us"
}

// Timeout returns the configured per-command timeout or the default.
func (c *Config) Timeout() time.Duration {
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err == nil && d > 0 {
			return d
		}
	}
	return DefaultTimeout
}

// MaxOutputBytes returns the configured max output size or the default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// CLI returns the configured stack CLI binary name or the default.
func (c *Config) CLI() string {
	if c.RawCLI != "" {
		return c.RawCLI
	}
	return DefaultCLI
}

// BranchPrefix returns the configured branch prefix or the default.
func (c *Config) BranchPrefix() string {
	if c.Trigger.BranchPrefix != "" {
		return c.Trigger.BranchPrefix
	}
	return DefaultBranchPrefix
}

// Remote returns the configured git remote or the default.
func (c *Config) Remote() string {
	if c.Trigger.Remote != "" {
		return c.Trigger.Remote
	}
	return DefaultRemote
}

// Region returns the cloud region, preferring the STRATA_REGION
// environment variable over the config file.
func (c *Config) Region() string {
	if r := os.Getenv("STRATA_REGION"); r != "" {
		return r
	}
	if c.Cloud.Region != "" {
		return c.Cloud.Region
	}
	return DefaultRegion
}

// APIKey returns the cloud API key from the environment.
// An empty key means the cloud tools are unavailable.
func APIKey() string {
	return os.Getenv("STRATA_API_KEY")
}

// LoadResult holds the parsed config and the discovered repository root.
type LoadResult struct {
	Config   *Config
	RepoRoot string // directory containing .git; falls back to workspace
}

// Load reads the .strata file from the repository root.
// The repository root is discovered by walking upward from workspace
// looking for .git. If no .strata file exists, a default Config is returned.
func Load(workspace string) (*LoadResult, error) {
	root, err := findRepoRoot(workspace)
	if err != nil {
		// No .git found; use workspace as root.
		root = workspace
	}

	path := filepath.Join(root, ".strata")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &LoadResult{Config: &Config{}, RepoRoot: root}, nil
		}
		return nil, fmt.Errorf("reading .strata: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing .strata: %w", err)
	}
	return &LoadResult{Config: cfg, RepoRoot: root}, nil
}

// findRepoRoot walks upward from dir looking for a directory containing .git.
func findRepoRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf(".git not found")
		}
		dir = parent
	}
}
