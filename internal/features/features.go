// Package features computes scalar statistical features of folded profiles.
// Every feature reduces the phase axis, turning a data cube into a
// (subint, channel) array of values.
package features

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/user/clfd_go/internal/cube"
	"github.com/user/clfd_go/internal/narray"
)

// FeatureNotFoundError reports a feature name with no registered function.
type FeatureNotFoundError struct {
	Name string
}

func (e *FeatureNotFoundError) Error() string {
	return fmt.Sprintf("no feature named %q", e.Name)
}

// Func evaluates one feature over every profile of a cube.
type Func func(c *cube.Cube) *narray.Float

// The registry is populated once at process start and is read-only
// afterwards. Lookups by unknown name fail, never silently default.
var registry = map[string]Func{
	"std":      std,
	"var":      variance,
	"ptp":      ptp,
	"lfamp":    lfamp,
	"skew":     skew,
	"kurtosis": kurtosis,
	"acf":      acf,
}

// DefaultFeatures is the feature set used when the caller does not choose
// one explicitly.
var DefaultFeatures = []string{"std", "ptp", "lfamp"}

// Get returns the feature function with the given name. There is no
// case-folding or fuzzy matching.
func Get(name string) (Func, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, &FeatureNotFoundError{Name: name}
	}
	return fn, nil
}

// Available returns the sorted list of registered feature names.
func Available() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// reduce applies fn to every profile of the cube.
func reduce(c *cube.Cube, fn func(prof []float64) float64) *narray.Float {
	out := narray.NewFloat(c.NumSubints(), c.NumChans())
	for i := 0; i < c.NumSubints(); i++ {
		for j := 0; j < c.NumChans(); j++ {
			out.Set(fn(c.Profile(i, j)), i, j)
		}
	}
	return out
}

// ptp computes the peak-to-peak difference (max minus min) of each profile.
func ptp(c *cube.Cube) *narray.Float {
	return reduce(c, func(prof []float64) float64 {
		lo, hi := prof[0], prof[0]
		for _, v := range prof[1:] {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		return hi - lo
	})
}

// std computes the standard deviation of each profile.
func std(c *cube.Cube) *narray.Float {
	return reduce(c, func(prof []float64) float64 {
		m := mean(prof)
		return math.Sqrt(moment(prof, m, 2))
	})
}

// variance computes the variance of each profile.
func variance(c *cube.Cube) *narray.Float {
	return reduce(c, func(prof []float64) float64 {
		m := mean(prof)
		return moment(prof, m, 2)
	})
}

// lfamp computes the amplitude of the second Fourier coefficient of each
// profile, i.e. the lowest non-DC frequency component of the profile shape.
func lfamp(c *cube.Cube) *narray.Float {
	fft := fourier.NewFFT(c.NumBins())
	coeff := make([]complex128, c.NumBins()/2+1)
	return reduce(c, func(prof []float64) float64 {
		coeff = fft.Coefficients(coeff, prof)
		return cmplx.Abs(coeff[1])
	})
}

// skew computes the third standardized central moment of each profile.
// Sample bias is not removed. Constant profiles yield 0.
func skew(c *cube.Cube) *narray.Float {
	return reduce(c, func(prof []float64) float64 {
		m := mean(prof)
		m2 := moment(prof, m, 2)
		if m2 == 0 {
			return 0
		}
		return moment(prof, m, 3) / math.Pow(m2, 1.5)
	})
}

// kurtosis computes the excess kurtosis of each profile. Sample bias is not
// removed. Constant profiles yield +Inf.
func kurtosis(c *cube.Cube) *narray.Float {
	return reduce(c, func(prof []float64) float64 {
		m := mean(prof)
		m2 := moment(prof, m, 2)
		if m2 == 0 {
			return math.Inf(1)
		}
		return moment(prof, m, 4)/(m2*m2) - 3
	})
}

// acf computes the lag-1 normalized autocovariance of each profile. A
// variance of exactly zero is replaced with +Inf before the division, so
// constant profiles yield 0 rather than NaN.
func acf(c *cube.Cube) *narray.Float {
	return reduce(c, func(prof []float64) float64 {
		m := mean(prof)
		v := moment(prof, m, 2)
		if v == 0 {
			v = math.Inf(1)
		}
		acov := 0.0
		for k := 0; k+1 < len(prof); k++ {
			acov += (prof[k] - m) * (prof[k+1] - m)
		}
		acov /= float64(len(prof) - 1)
		return acov / v
	})
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// moment computes the raw central moment of the given order around the
// externally provided mean.
func moment(values []float64, mean float64, order int) float64 {
	sum := 0.0
	for _, v := range values {
		d := v - mean
		p := d
		for i := 1; i < order; i++ {
			p *= d
		}
		sum += p
	}
	return sum / float64(len(values))
}
