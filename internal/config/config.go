// Package config loads the verifier settings from frogcheck.yml.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"frogcheck/internal/polka"
	"frogcheck/internal/property"
)

// FileName is the configuration file looked up in the working directory
const FileName = "frogcheck.yml"

// Config controls one verification run. It is passed explicitly; nothing
// reads it from globals.
type Config struct {
	// Properties to check, in reporting order
	Properties []property.Property `yaml:"properties"`

	// Verbosity of the log: 0 notices and worse, 1 info, 2 debug
	Verbosity int    `yaml:"verbosity"`
	LogFile   string `yaml:"log_file"`
	Color     bool   `yaml:"color"`

	// Domain options
	Templates      bool `yaml:"templates"`
	MaxConstraints int  `yaml:"max_constraints"`

	// Files verified in parallel
	Jobs int `yaml:"jobs"`
}

// Default checks every property with template joins on
func Default() *Config {
	return &Config{
		Properties:     append([]property.Property{}, property.All...),
		Verbosity:      0,
		Color:          true,
		Templates:      true,
		MaxConstraints: polka.NewManager().MaxConstraints,
		Jobs:           runtime.NumCPU(),
	}
}

// Load reads path over the defaults. A missing file at the default location
// is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = FileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the verifier cannot run with
func (c *Config) Validate() error {
	if len(c.Properties) == 0 {
		return fmt.Errorf("no properties selected")
	}
	if c.Verbosity < 0 {
		return fmt.Errorf("verbosity must not be negative")
	}
	if c.MaxConstraints < 0 {
		return fmt.Errorf("max_constraints must not be negative")
	}
	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1")
	}
	return nil
}

// NewManager builds a fresh domain manager, one per analyzed method
func (c *Config) NewManager() *polka.Manager {
	man := polka.NewManager()
	man.Templates = c.Templates
	man.MaxConstraints = c.MaxConstraints
	return man
}
