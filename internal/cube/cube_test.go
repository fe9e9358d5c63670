package cube

import (
	"errors"
	"math"
	"testing"

	"github.com/user/clfd_go/internal/narray"
)

func TestNewRejectsBadGeometry(t *testing.T) {
	cases := []struct {
		name  string
		shape []int
	}{
		{"two axes", []int{4, 8}},
		{"four axes", []int{2, 2, 2, 2}},
		{"single profile", []int{1, 1, 16}},
		{"single phase bin", []int{4, 8, 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(narray.NewFloat(tc.shape...))
			if err == nil {
				t.Fatal("expected error")
			}
			var shapeErr *ShapeError
			if !errors.As(err, &shapeErr) {
				t.Fatalf("expected ShapeError, got %T: %v", err, err)
			}
		})
	}
}

func TestBaselineSubtraction(t *testing.T) {
	// Two profiles with known medians 2 and 10.
	data, err := narray.FloatFromSlice([]float64{
		1, 2, 3,
		9, 10, 11,
	}, 1, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	c, err := New(data)
	if err != nil {
		t.Fatal(err)
	}

	if got := c.Baselines().At(0, 0); got != 2 {
		t.Fatalf("baseline[0,0] = %g, want 2", got)
	}
	if got := c.Baselines().At(0, 1); got != 10 {
		t.Fatalf("baseline[0,1] = %g, want 10", got)
	}
	want := []float64{-1, 0, 1}
	for k, w := range want {
		if c.Profile(0, 0)[k] != w || c.Profile(0, 1)[k] != w {
			t.Fatalf("profiles not centered: %v / %v",
				c.Profile(0, 0), c.Profile(0, 1))
		}
	}
}

func TestNewDoesNotMutateInput(t *testing.T) {
	data, _ := narray.FloatFromSlice([]float64{5, 6, 7, 8}, 2, 1, 2)
	_, err := New(data)
	if err != nil {
		t.Fatal(err)
	}
	if data.Data[0] != 5 || data.Data[3] != 8 {
		t.Fatalf("input array was mutated: %v", data.Data)
	}
}

func TestOriginalRecoversInput(t *testing.T) {
	raw := narray.NewFloat(3, 4, 8)
	for i := range raw.Data {
		raw.Data[i] = math.Sin(float64(i)) + float64(i%7)
	}
	c, err := New(raw)
	if err != nil {
		t.Fatal(err)
	}
	orig := c.Original()
	for i := range raw.Data {
		if math.Abs(orig.Data[i]-raw.Data[i]) > 1e-12 {
			t.Fatalf("original[%d] = %g, want %g", i, orig.Data[i], raw.Data[i])
		}
	}
}

func TestMedianEvenAndOdd(t *testing.T) {
	scratch := make([]float64, 4)
	if got := median([]float64{3, 1, 2}, scratch); got != 2 {
		t.Fatalf("odd median = %g, want 2", got)
	}
	if got := median([]float64{4, 1, 3, 2}, scratch); got != 2.5 {
		t.Fatalf("even median = %g, want 2.5", got)
	}
}
