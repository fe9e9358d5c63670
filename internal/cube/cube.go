// Package cube wraps three-dimensional folded pulsar data. The axis order
// is (sub-integration, frequency channel, phase bin).
package cube

import (
	"fmt"
	"sort"

	"github.com/user/clfd_go/internal/narray"
)

// ShapeError reports malformed cube geometry. It is fatal for the cube in
// question and never retried.
type ShapeError struct {
	Msg string
}

func (e *ShapeError) Error() string {
	return "bad cube shape: " + e.Msg
}

func shapeErrorf(format string, args ...interface{}) error {
	return &ShapeError{Msg: fmt.Sprintf(format, args...)}
}

// Cube holds folded data with per-profile baselines removed. The baseline
// of a profile is its median phase value, computed once at construction.
type Cube struct {
	data      *narray.Float // (subints, chans, bins), baseline-subtracted
	baselines *narray.Float // (subints, chans)
}

// New validates the input array and returns a Cube with baselines
// subtracted. The input is copied and never mutated.
func New(data *narray.Float) (*Cube, error) {
	if data.NDim() != 3 {
		return nil, shapeErrorf("data must be 3-dimensional, got %d axes", data.NDim())
	}
	nsub, nchan, nbin := data.Shape[0], data.Shape[1], data.Shape[2]
	if nsub*nchan < 2 {
		return nil, shapeErrorf("data must contain at least 2 profiles, got %d", nsub*nchan)
	}
	if nbin < 2 {
		return nil, shapeErrorf("profiles must have at least 2 phase bins, got %d", nbin)
	}

	c := &Cube{
		data:      data.Copy(),
		baselines: narray.NewFloat(nsub, nchan),
	}
	c.subtractBaselines()
	return c, nil
}

// subtractBaselines removes from every profile its median value.
func (c *Cube) subtractBaselines() {
	nbin := c.NumBins()
	scratch := make([]float64, nbin)
	for i := 0; i < c.NumSubints(); i++ {
		for j := 0; j < c.NumChans(); j++ {
			prof := c.Profile(i, j)
			baseline := median(prof, scratch)
			c.baselines.Set(baseline, i, j)
			for k := range prof {
				prof[k] -= baseline
			}
		}
	}
}

// Data returns the baseline-subtracted 3D array. The caller must treat it
// as read-only.
func (c *Cube) Data() *narray.Float {
	return c.data
}

// Baselines returns the (subint, channel) baseline array.
func (c *Cube) Baselines() *narray.Float {
	return c.baselines
}

func (c *Cube) NumSubints() int { return c.data.Shape[0] }
func (c *Cube) NumChans() int   { return c.data.Shape[1] }
func (c *Cube) NumBins() int    { return c.data.Shape[2] }

// Profile returns the baseline-subtracted phase series for one
// (subint, channel) pair as a view into the underlying data.
func (c *Cube) Profile(isub, ichan int) []float64 {
	nbin := c.NumBins()
	start := (isub*c.NumChans() + ichan) * nbin
	return c.data.Data[start : start+nbin]
}

// Original reconstructs the pre-subtraction data: data plus baselines
// broadcast over the phase axis.
func (c *Cube) Original() *narray.Float {
	out := c.data.Copy()
	nbin := c.NumBins()
	for i := 0; i < c.NumSubints(); i++ {
		for j := 0; j < c.NumChans(); j++ {
			baseline := c.baselines.At(i, j)
			start := (i*c.NumChans() + j) * nbin
			for k := start; k < start+nbin; k++ {
				out.Data[k] += baseline
			}
		}
	}
	return out
}

func (c *Cube) String() string {
	return fmt.Sprintf("Cube(shape=(%d, %d, %d))",
		c.NumSubints(), c.NumChans(), c.NumBins())
}

// median computes the median of values using scratch as sorting space.
// scratch must have len(values) capacity.
func median(values, scratch []float64) float64 {
	scratch = scratch[:len(values)]
	copy(scratch, values)
	sort.Float64s(scratch)
	n := len(scratch)
	if n%2 == 1 {
		return scratch[n/2]
	}
	return 0.5 * (scratch[n/2-1] + scratch[n/2])
}
