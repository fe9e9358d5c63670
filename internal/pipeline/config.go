// Package pipeline orchestrates cleanup runs: per-file stage sequencing
// and file-level fan-out across worker goroutines.
package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/user/clfd_go/internal/features"
)

// Config holds the settings of a cleanup run. A YAML file can provide
// defaults; command-line flags override individual values.
type Config struct {
	// Features are the profile features used for profile masking.
	Features []string `yaml:"features"`

	// QMask is the Tukey multiplier for profile masking.
	QMask float64 `yaml:"qmask"`

	// Despike enables the time-phase spike removal stage.
	Despike bool `yaml:"despike"`

	// QSpike is the Tukey multiplier for spike finding.
	QSpike float64 `yaml:"qspike"`

	// Zapfile is an optional text file listing channel indices to
	// forcibly mask, one per line.
	Zapfile string `yaml:"zapfile"`

	// Ext is the extension appended to cleaned output files.
	Ext string `yaml:"ext"`

	// OutDir receives the output files; empty means next to each input.
	OutDir string `yaml:"outdir"`

	// Processes is the number of files processed concurrently.
	Processes int `yaml:"processes"`

	// Report controls writing the JSON report; PDF additionally renders
	// plots and assembles the PDF version.
	Report bool `yaml:"report"`
	PDF    bool `yaml:"pdf"`
}

// DefaultConfig mirrors the historical command-line defaults.
func DefaultConfig() Config {
	return Config{
		Features:  append([]string{}, features.DefaultFeatures...),
		QMask:     2.0,
		Despike:   false,
		QSpike:    4.0,
		Ext:       "clfd",
		Processes: 1,
		Report:    true,
		PDF:       false,
	}
}

// LoadConfig reads a YAML config file on top of the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings that cannot produce a meaningful run.
func (c Config) Validate() error {
	if len(c.Features) == 0 {
		return fmt.Errorf("at least one profile feature is required")
	}
	for _, name := range c.Features {
		if _, err := features.Get(name); err != nil {
			return err
		}
	}
	if c.QMask <= 0 {
		return fmt.Errorf("qmask must be positive, got %g", c.QMask)
	}
	if c.QSpike <= 0 {
		return fmt.Errorf("qspike must be positive, got %g", c.QSpike)
	}
	if c.Processes < 1 {
		return fmt.Errorf("processes must be at least 1, got %d", c.Processes)
	}
	if c.Ext == "" {
		return fmt.Errorf("output extension must not be empty")
	}
	return nil
}
