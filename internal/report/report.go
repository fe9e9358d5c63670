// Package report assembles, serializes and renders cleanup reports:
// the audit record of one profile masking run and, when despiking was
// requested, one spike finding run.
package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/user/clfd_go/internal/masking"
)

// FeatureDisplayNames maps feature names to the long names used in plots
// and report text.
var FeatureDisplayNames = map[string]string{
	"std":      "Standard deviation",
	"var":      "Variance",
	"ptp":      "Peak-to-peak difference",
	"lfamp":    "Lowest frequency bin amplitude",
	"skew":     "Skewness",
	"kurtosis": "Kurtosis",
	"acf":      "Lag-1 autocorrelation",
}

// DisplayName returns the long name of a feature, falling back to the
// short name for unregistered ones.
func DisplayName(feature string) string {
	if long, ok := FeatureDisplayNames[feature]; ok {
		return long
	}
	return feature
}

// Report is the complete record of one file's cleanup run. SpikeFinding is
// nil when despiking was not requested.
type Report struct {
	Filename       string                        `json:"filename"`
	ProfileMasking *masking.ProfileMaskingResult `json:"profile_masking"`
	SpikeFinding   *masking.SpikeFindingResult   `json:"spike_finding,omitempty"`
}

// MaskedProfileFraction returns the fraction of profiles flagged by the
// profile mask.
func (r *Report) MaskedProfileFraction() float64 {
	mask := r.ProfileMasking.Mask
	return float64(mask.CountTrue()) / float64(mask.Size())
}

// BadBinFraction returns the fraction of time-phase bins flagged by spike
// finding, or 0 when despiking was skipped.
func (r *Report) BadBinFraction() float64 {
	if r.SpikeFinding == nil {
		return 0
	}
	mask := r.SpikeFinding.Mask
	return float64(mask.CountTrue()) / float64(mask.Size())
}

// Save writes the report as an indented JSON document. Embedded arrays
// survive the round trip bit-exactly.
func (r *Report) Save(path string) error {
	encoded, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// Load reads back a report written by Save.
func Load(path string) (*Report, error) {
	encoded, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(encoded, &r); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", path, err)
	}
	return &r, nil
}
