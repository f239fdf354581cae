package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Nesting strategies accepted in Client.Nesting
const (
	NestingParam = "param"
	NestingFlat  = "flat"
)

// Config represents the complete configuration for SDK generation
type Config struct {
	Spec    string   `yaml:"spec"`
	Name    string   `yaml:"name"`
	Clients []Client `yaml:"clients"`
}

// Client represents configuration for a single client SDK
type Client struct {
	Type   string `yaml:"type"`
	OutDir string `yaml:"outDir"`
	// PackageName and Name default to values derived from info.title
	PackageName string `yaml:"packageName"`
	Name        string `yaml:"name"`
	// Version overrides info.version in the generated package
	Version string `yaml:"version"`
	// Nesting is the resource nesting strategy: "param" (default) or "flat"
	Nesting     string   `yaml:"nesting"`
	IncludeTags []string `yaml:"includeTags"`
	ExcludeTags []string `yaml:"excludeTags"`
	// PreCommand is an optional command to run before SDK generation starts.
	// Uses Docker Compose array format: ["npm", "ci"]
	// The command will be executed in the output directory.
	PreCommand []string `yaml:"preCommand"`
	// PostCommand is an optional command to run after SDK generation completes.
	// Uses Docker Compose array format: ["npx", "prettier", "--write", "."]
	// The command will be executed in the output directory.
	PostCommand []string `yaml:"postCommand"`
	// DefaultBaseURL is the default base URL that will be used if no base URL is provided when creating a client
	DefaultBaseURL string `yaml:"defaultBaseURL"`
	// ExcludeFiles is a list of file paths (relative to outDir) that should not be generated
	// Example: ["package.json", "resources/"]
	ExcludeFiles []string `yaml:"exclude"`
}

// GetPreCommand returns the pre-generation command to execute.
func (c *Client) GetPreCommand() []string {
	return c.PreCommand
}

// GetPostCommand returns the post-generation command to execute.
func (c *Client) GetPostCommand() []string {
	return c.PostCommand
}

// ShouldExcludeFile checks if a file path should be excluded based on the ExcludeFiles list.
// targetPath should be an absolute path, and the comparison is done relative to OutDir.
func (c *Client) ShouldExcludeFile(targetPath string) bool {
	if len(c.ExcludeFiles) == 0 {
		return false
	}

	// Get relative path from OutDir to targetPath
	relPath, err := filepath.Rel(c.OutDir, targetPath)
	if err != nil {
		// If we can't get a relative path, the file is not under OutDir, so don't exclude
		return false
	}

	// Normalize the path (use forward slashes for consistency, handle . and ..)
	relPath = filepath.ToSlash(relPath)
	if relPath == "." {
		relPath = ""
	}

	// Check if the relative path matches any exclude pattern
	for _, excludePattern := range c.ExcludeFiles {
		// Normalize exclude pattern
		normalizedExclude := filepath.ToSlash(excludePattern)

		// Exact match
		if relPath == normalizedExclude {
			return true
		}

		// Check if the file is in a directory that matches the exclude pattern
		// For example, if exclude is "src/", then "src/client.ts" should match
		if normalizedExclude != "" && strings.HasPrefix(relPath, normalizedExclude+"/") {
			return true
		}
	}

	return false
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Normalize checks required fields and absolutizes local paths. Spec URLs are
// kept as-is.
func (cfg *Config) Normalize() error {
	if cfg.Spec == "" {
		return errors.New("config.spec is required")
	}
	if len(cfg.Clients) == 0 {
		return errors.New("config.clients must list at least one client")
	}
	for i := range cfg.Clients {
		c := &cfg.Clients[i]
		if c.Type == "" || c.OutDir == "" {
			return fmt.Errorf("clients[%d] missing required fields (type, outDir)", i)
		}
		switch c.Nesting {
		case "", NestingParam, NestingFlat:
		default:
			return fmt.Errorf("clients[%d] has unknown nesting %q (want %q or %q)", i, c.Nesting, NestingParam, NestingFlat)
		}
		if !filepath.IsAbs(c.OutDir) {
			abs, _ := filepath.Abs(c.OutDir)
			c.OutDir = abs
		}
	}
	if !IsURL(cfg.Spec) && !filepath.IsAbs(cfg.Spec) {
		abs, _ := filepath.Abs(cfg.Spec)
		cfg.Spec = abs
	}
	return nil
}

// IsURL reports whether spec names an HTTP(S) document
func IsURL(spec string) bool {
	u, err := url.Parse(spec)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}
