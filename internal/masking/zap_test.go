package masking

import (
	"errors"
	"reflect"
	"testing"
)

func TestResolveZapChannels(t *testing.T) {
	cases := []struct {
		name     string
		in       []int
		numChans int
		want     []int
	}{
		{"empty", nil, 8, []int{}},
		{"unsorted with duplicates", []int{5, 1, 5, 3, 1}, 8, []int{1, 3, 5}},
		{"out of range dropped", []int{-3, 2, 200, 7, 8}, 8, []int{2, 7}},
		{"all out of range", []int{100, 101}, 8, []int{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			zap, zapMask, err := resolveZapChannels(tc.in, tc.numChans)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(zap, tc.want) {
				t.Fatalf("zap = %v, want %v", zap, tc.want)
			}
			if len(zapMask) != tc.numChans {
				t.Fatalf("mask length %d, want %d", len(zapMask), tc.numChans)
			}
			for ichan, zapped := range zapMask {
				inSet := false
				for _, z := range tc.want {
					if z == ichan {
						inSet = true
					}
				}
				if zapped != inSet {
					t.Fatalf("mask[%d] = %v, zap set %v", ichan, zapped, tc.want)
				}
			}
		})
	}
}

func TestResolveZapChannelsAllZapped(t *testing.T) {
	_, _, err := resolveZapChannels([]int{0, 1, 2, 3}, 4)
	if err == nil {
		t.Fatal("expected error with all channels zapped")
	}
	var confErr *ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("expected ConfigurationError, got %T: %v", err, err)
	}
}

func TestQuartilesAndBounds(t *testing.T) {
	// 1..9: Q1 = 3, median = 5, Q3 = 7 with linear interpolation.
	values := []float64{9, 1, 8, 2, 7, 3, 6, 4, 5}
	s := quartiles(values)
	if s.Q1 != 3 || s.Med != 5 || s.Q3 != 7 {
		t.Fatalf("quartiles = %+v, want q1=3 med=5 q3=7", s)
	}
	if s.IQR() != 4 {
		t.Fatalf("IQR = %g, want 4", s.IQR())
	}
	if s.VMin(1.5) != 3-6 || s.VMax(1.5) != 7+6 {
		t.Fatalf("bounds = [%g, %g], want [-3, 13]", s.VMin(1.5), s.VMax(1.5))
	}
}

func TestQuartilesDegenerateDistribution(t *testing.T) {
	s := quartiles([]float64{2, 2, 2, 2})
	if s.IQR() != 0 {
		t.Fatalf("IQR = %g, want 0", s.IQR())
	}
	// Zero IQR collapses the inlier range to a point for any q.
	if s.VMin(1e9) != 2 || s.VMax(1e9) != 2 {
		t.Fatalf("bounds = [%g, %g], want [2, 2]", s.VMin(1e9), s.VMax(1e9))
	}
}

func TestPercentileInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	if got := percentile(sorted, 25); got != 1.75 {
		t.Fatalf("25th percentile = %g, want 1.75", got)
	}
	if got := percentile(sorted, 50); got != 2.5 {
		t.Fatalf("50th percentile = %g, want 2.5", got)
	}
	if got := percentile(sorted, 100); got != 4 {
		t.Fatalf("100th percentile = %g, want 4", got)
	}
	if got := percentile([]float64{42}, 75); got != 42 {
		t.Fatalf("single element percentile = %g, want 42", got)
	}
}
