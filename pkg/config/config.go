package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/multierr"
)

// Config holds all configuration options for couette.
type Config struct {
	// Report rendering settings
	Report ReportConfig `koanf:"report" toml:"report" yaml:"report"`

	// Coverage summary locations
	Inputs InputsConfig `koanf:"inputs" toml:"inputs" yaml:"inputs"`

	// Baseline cache settings
	Baseline BaselineConfig `koanf:"baseline" toml:"baseline" yaml:"baseline"`

	// Annotation settings
	Annotations AnnotationsConfig `koanf:"annotations" toml:"annotations" yaml:"annotations"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output" yaml:"output"`
}

// ReportConfig controls report rendering.
type ReportConfig struct {
	// RepositoryRoot is stripped from file paths. Empty means the git
	// worktree root, or the working directory outside a repository.
	RepositoryRoot string `koanf:"repository_root" toml:"repository_root" yaml:"repository_root"`
	// Marker is the body prefix used to find an existing report comment.
	Marker string `koanf:"marker" toml:"marker" yaml:"marker"`
}

// InputsConfig locates the coverage summaries.
type InputsConfig struct {
	Current  string `koanf:"current" toml:"current" yaml:"current"`
	Baseline string `koanf:"baseline" toml:"baseline" yaml:"baseline"`
}

// BaselineConfig controls the baseline cache.
type BaselineConfig struct {
	CacheDir string `koanf:"cache_dir" toml:"cache_dir" yaml:"cache_dir"`
	TTL      int    `koanf:"ttl" toml:"ttl" yaml:"ttl"` // TTL in hours, 0 disables expiry
	Ref      string `koanf:"ref" toml:"ref" yaml:"ref"`
}

// AnnotationsConfig controls CI annotations.
type AnnotationsConfig struct {
	Enabled bool `koanf:"enabled" toml:"enabled" yaml:"enabled"`
	// AddedThreshold is the percentage under which a new file is annotated.
	AddedThreshold float64 `koanf:"added_threshold" toml:"added_threshold" yaml:"added_threshold"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format" yaml:"format"` // text, json, markdown, toon
	Color  bool   `koanf:"color" toml:"color" yaml:"color"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Report: ReportConfig{
			Marker: "## Coverage report",
		},
		Inputs: InputsConfig{
			Current: "coverage/coverage-summary.json",
		},
		Baseline: BaselineConfig{
			CacheDir: ".couette/cache",
			TTL:      168,
		},
		Annotations: AnnotationsConfig{
			Enabled:        true,
			AddedThreshold: 70,
		},
		Output: OutputConfig{
			Format: "markdown",
			Color:  true,
		},
	}
}

// Load loads configuration from a file, layered over the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// configNames are searched, in order, in each of searchDirs.
var (
	configNames = []string{
		"couette.toml",
		"couette.yaml",
		"couette.yml",
		"couette.json",
		".couette.toml",
		".couette.yaml",
		".couette.yml",
		".couette.json",
	}
	searchDirs = []string{".", ".couette"}
)

// LoadResult is a loaded config and the file it came from. Source is empty
// when defaults were used.
type LoadResult struct {
	Config *Config
	Source string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

type loadOptions struct {
	path string
	dir  string
}

// WithPath loads the given file instead of searching standard locations.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// WithDir searches standard locations relative to dir.
func WithDir(dir string) LoadOption {
	return func(o *loadOptions) {
		o.dir = dir
	}
}

// LoadConfig loads and validates configuration. An explicit path must
// exist; otherwise the first standard location found is used, falling back
// to defaults.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := &loadOptions{dir: "."}
	for _, opt := range opts {
		opt(o)
	}

	if o.path != "" {
		cfg, err := Load(o.path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", o.path, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return &LoadResult{Config: cfg, Source: o.path}, nil
	}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(o.dir, dir, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			cfg, err := Load(path)
			if err != nil {
				return nil, fmt.Errorf("failed to load config %s: %w", path, err)
			}
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
			return &LoadResult{Config: cfg, Source: path}, nil
		}
	}

	return &LoadResult{Config: DefaultConfig()}, nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	result, err := LoadConfig()
	if err != nil {
		return DefaultConfig()
	}
	return result.Config
}

var validFormats = map[string]bool{
	"text":     true,
	"json":     true,
	"markdown": true,
	"md":       true,
	"toon":     true,
}

// Validate reports every invalid value at once.
func (c *Config) Validate() error {
	var err error

	if strings.TrimSpace(c.Report.Marker) == "" {
		err = multierr.Append(err, errors.New("report.marker must not be empty"))
	}
	if c.Inputs.Current == "" {
		err = multierr.Append(err, errors.New("inputs.current must not be empty"))
	}
	if c.Baseline.TTL < 0 {
		err = multierr.Append(err, fmt.Errorf("baseline.ttl must be >= 0, got %d", c.Baseline.TTL))
	}
	if c.Annotations.AddedThreshold < 0 || c.Annotations.AddedThreshold > 100 {
		err = multierr.Append(err, fmt.Errorf("annotations.added_threshold must be within 0-100, got %v", c.Annotations.AddedThreshold))
	}
	if !validFormats[strings.ToLower(c.Output.Format)] {
		err = multierr.Append(err, fmt.Errorf("output.format %q is not one of text, json, markdown, toon", c.Output.Format))
	}

	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
