package masking

import (
	"github.com/user/clfd_go/internal/cube"
	"github.com/user/clfd_go/internal/features"
	"github.com/user/clfd_go/internal/narray"
)

// ProfileMaskingResult stores the inputs, intermediate values and output of
// a profile masking run. It is fully populated at construction and
// immutable afterwards.
type ProfileMaskingResult struct {
	// Q is the Tukey multiplier that was used for deriving the mask.
	Q float64 `json:"q"`

	// ZapChannels are the sorted, in-range channel indices that were
	// excluded from the analysis and then forcibly masked.
	ZapChannels []int `json:"zap_channels"`

	// FeatureValues maps feature names to (subints, chans) value arrays.
	FeatureValues map[string]*narray.Float `json:"feature_values"`

	// FeatureStats maps feature names to the quartiles of the in-bounds
	// value population.
	FeatureStats map[string]Stats `json:"feature_stats"`

	// Mask has shape (subints, chans); true marks a rejected profile.
	Mask *narray.Bool `json:"mask"`
}

// ProfileMask flags outlier profiles of a cube using Tukey's rule on the
// requested per-profile features. Channels listed in zapChannels are
// excluded from the statistics and forcibly masked in the output. The
// returned mask's true cells are a superset of the zap set and of every
// feature-driven outlier.
func ProfileMask(
	c *cube.Cube,
	featureNames []string,
	q float64,
	zapChannels []int,
) (*ProfileMaskingResult, error) {
	zap, zapMask, err := resolveZapChannels(zapChannels, c.NumChans())
	if err != nil {
		return nil, err
	}

	// Resolve every feature name before computing anything, so an unknown
	// name never yields a partial feature table.
	funcs := make([]features.Func, len(featureNames))
	for i, name := range featureNames {
		fn, err := features.Get(name)
		if err != nil {
			return nil, err
		}
		funcs[i] = fn
	}

	featureValues := make(map[string]*narray.Float, len(featureNames))
	featureStats := make(map[string]Stats, len(featureNames))
	mask := narray.NewBool(c.NumSubints(), c.NumChans())

	for i, name := range featureNames {
		values := funcs[i](c)
		featureValues[name] = values

		stats := quartiles(inBoundsValues(values, zapMask))
		featureStats[name] = stats

		// Fence test runs over every cell, zapped or not; zapped columns
		// are overridden below regardless.
		vmin, vmax := stats.VMin(q), stats.VMax(q)
		for cell, v := range values.Data {
			if v < vmin || v > vmax {
				mask.Data[cell] = true
			}
		}
	}

	for i := 0; i < c.NumSubints(); i++ {
		for _, ichan := range zap {
			mask.Set(true, i, ichan)
		}
	}

	return &ProfileMaskingResult{
		Q:             q,
		ZapChannels:   zap,
		FeatureValues: featureValues,
		FeatureStats:  featureStats,
		Mask:          mask,
	}, nil
}

// inBoundsValues collects the values of all cells whose channel is not
// zapped, across all subints.
func inBoundsValues(values *narray.Float, zapMask []bool) []float64 {
	nsub, nchan := values.Shape[0], values.Shape[1]
	out := make([]float64, 0, values.Size())
	for i := 0; i < nsub; i++ {
		for j := 0; j < nchan; j++ {
			if !zapMask[j] {
				out = append(out, values.At(i, j))
			}
		}
	}
	return out
}
