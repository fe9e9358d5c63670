package masking

import (
	"math"
	"sort"
)

// Stats holds the quartiles of a value population. The inlier bounds
// derived from a Tukey multiplier q are computed on demand.
type Stats struct {
	Q1  float64 `json:"q1"`
	Med float64 `json:"med"`
	Q3  float64 `json:"q3"`
}

// IQR returns the interquartile range.
func (s Stats) IQR() float64 {
	return s.Q3 - s.Q1
}

// VMin returns the lower inlier bound Q1 - q*IQR.
func (s Stats) VMin(q float64) float64 {
	return s.Q1 - q*s.IQR()
}

// VMax returns the upper inlier bound Q3 + q*IQR.
func (s Stats) VMax(q float64) float64 {
	return s.Q3 + q*s.IQR()
}

// quartiles computes Q1, median and Q3 of values. The input is not
// modified.
func quartiles(values []float64) Stats {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return Stats{
		Q1:  percentile(sorted, 25),
		Med: percentile(sorted, 50),
		Q3:  percentile(sorted, 75),
	}
}

// percentile returns the p-th percentile of sorted data, linearly
// interpolating between adjacent order statistics.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
