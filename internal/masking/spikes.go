package masking

import (
	"fmt"

	"github.com/user/clfd_go/internal/cube"
	"github.com/user/clfd_go/internal/narray"
)

// SpikeFindingResult stores the inputs to and outcome of the time-phase
// spike identification process.
type SpikeFindingResult struct {
	// Q is the Tukey multiplier that was used for flagging bad bins.
	Q float64 `json:"q"`

	// ZapChannels are the sorted, in-range channel indices that were
	// excluded from the analysis.
	ZapChannels []int `json:"zap_channels"`

	// Mask has shape (subints, bins); true marks a bad time-phase sample.
	Mask *narray.Bool `json:"mask"`
}

// SpikeSubtractionPlan carries the information needed to replace the bad
// data identified by spike finding.
type SpikeSubtractionPlan struct {
	// ValidChannels is the sorted complement of the zapped channel set.
	ValidChannels []int `json:"valid_channels"`

	// Mask is the same (subints, bins) mask as in SpikeFindingResult.
	Mask *narray.Bool `json:"mask"`

	// ReplacementValues has the same shape as the original cube. Where
	// Mask[i, k] is true, original data at (i, c, k) should be overwritten
	// with ReplacementValues.At(i, c, k) for every valid channel c. The
	// array is defined everywhere but only meaningful at those cells.
	ReplacementValues *narray.Float `json:"replacement_values"`
}

// FindTimePhaseSpikes flags bad (subint, phase) samples of the cube's
// frequency-summed time-phase plane using Tukey's rule, applied
// independently per phase bin along the subint axis. It also returns the
// plan for substituting synthetic values into the flagged samples.
func FindTimePhaseSpikes(
	c *cube.Cube,
	q float64,
	zapChannels []int,
) (*SpikeFindingResult, *SpikeSubtractionPlan, error) {
	_, zapMask, err := resolveZapChannels(zapChannels, c.NumChans())
	if err != nil {
		return nil, nil, err
	}
	zap, valid := splitChannels(zapMask)

	nsub, nchan, nbin := c.NumSubints(), c.NumChans(), c.NumBins()

	// Sum the baseline-subtracted data over valid channels, yielding one
	// series per phase bin across all subints.
	scrunch := narray.NewFloat(nsub, nbin)
	for i := 0; i < nsub; i++ {
		for _, j := range valid {
			prof := c.Profile(i, j)
			row := scrunch.Data[i*nbin : (i+1)*nbin]
			for k, v := range prof {
				row[k] += v
			}
		}
	}

	// Quartiles along the subint axis, independently per phase bin. No row
	// exclusion here: exclusion is channel-wise and already applied above.
	med := make([]float64, nbin)
	mask := narray.NewBool(nsub, nbin)
	column := make([]float64, nsub)
	for k := 0; k < nbin; k++ {
		for i := 0; i < nsub; i++ {
			column[i] = scrunch.At(i, k)
		}
		stats := quartiles(column)
		med[k] = stats.Med

		vmin, vmax := stats.VMin(q), stats.VMax(q)
		for i := 0; i < nsub; i++ {
			if column[i] < vmin || column[i] > vmax {
				mask.Set(true, i, k)
			}
		}
	}

	// The replacement value redistributes the typical frequency-summed
	// signal back onto a single channel's baseline.
	repvals := narray.NewFloat(nsub, nchan, nbin)
	numValid := float64(len(valid))
	for i := 0; i < nsub; i++ {
		for j := 0; j < nchan; j++ {
			baseline := c.Baselines().At(i, j)
			start := (i*nchan + j) * nbin
			for k := 0; k < nbin; k++ {
				repvals.Data[start+k] = med[k]/numValid + baseline
			}
		}
	}

	result := &SpikeFindingResult{
		Q:           q,
		ZapChannels: zap,
		Mask:        mask,
	}
	plan := &SpikeSubtractionPlan{
		ValidChannels:     valid,
		Mask:              mask,
		ReplacementValues: repvals,
	}
	return result, plan, nil
}

// Apply returns a copy of raw (a 3D array with the same shape as the
// original cube) where every flagged time-phase sample has been replaced by
// the plan's synthetic values in all valid channels.
func (p *SpikeSubtractionPlan) Apply(raw *narray.Float) (*narray.Float, error) {
	want := p.ReplacementValues.Shape
	if raw.NDim() != 3 || raw.Shape[0] != want[0] ||
		raw.Shape[1] != want[1] || raw.Shape[2] != want[2] {
		return nil, fmt.Errorf(
			"plan applies to shape %v, got %v", want, raw.Shape)
	}
	clean := raw.Copy()
	nsub, nbin := p.Mask.Shape[0], p.Mask.Shape[1]
	for i := 0; i < nsub; i++ {
		for k := 0; k < nbin; k++ {
			if !p.Mask.At(i, k) {
				continue
			}
			for _, j := range p.ValidChannels {
				clean.Set(p.ReplacementValues.At(i, j, k), i, j, k)
			}
		}
	}
	return clean, nil
}

// SubintBadBins returns a map from subint index to the sorted phase bin
// indices flagged in that subint. Subints with no flagged bins are absent.
// Archive mutators use this to patch per-channel amplitude arrays.
func (p *SpikeSubtractionPlan) SubintBadBins() map[int][]int {
	out := make(map[int][]int)
	nsub, nbin := p.Mask.Shape[0], p.Mask.Shape[1]
	for i := 0; i < nsub; i++ {
		var bad []int
		for k := 0; k < nbin; k++ {
			if p.Mask.At(i, k) {
				bad = append(bad, k)
			}
		}
		if len(bad) > 0 {
			out[i] = bad
		}
	}
	return out
}

// splitChannels partitions channel indices into zapped and valid sets,
// both sorted ascending.
func splitChannels(zapMask []bool) (zap, valid []int) {
	for ichan, zapped := range zapMask {
		if zapped {
			zap = append(zap, ichan)
		} else {
			valid = append(valid, ichan)
		}
	}
	return zap, valid
}
