package masking

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"github.com/user/clfd_go/internal/cube"
	"github.com/user/clfd_go/internal/narray"
)

// spikyData builds a (20, 8, 32) raw array of noise with broadband spikes
// injected at the given (subint, phase) pairs.
func spikyData(spikes [][2]int) *narray.Float {
	rng := rand.New(rand.NewSource(1234))
	raw := narray.NewFloat(20, 8, 32)
	for i := range raw.Data {
		raw.Data[i] = rng.NormFloat64()
	}
	for _, sp := range spikes {
		isub, ibin := sp[0], sp[1]
		for j := 0; j < 8; j++ {
			raw.Set(raw.At(isub, j, ibin)+50, isub, j, ibin)
		}
	}
	return raw
}

func mustCube(t *testing.T, raw *narray.Float) *cube.Cube {
	t.Helper()
	c, err := cube.New(raw)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestFindTimePhaseSpikesMaskShapeAndHits(t *testing.T) {
	spikes := [][2]int{{3, 5}, {10, 20}, {15, 7}}
	c := mustCube(t, spikyData(spikes))

	result, plan, err := FindTimePhaseSpikes(c, 2.0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Mask.Shape[0] != 20 || result.Mask.Shape[1] != 32 {
		t.Fatalf("mask shape %v, want (20, 32)", result.Mask.Shape)
	}
	for _, sp := range spikes {
		if !result.Mask.At(sp[0], sp[1]) {
			t.Fatalf("injected spike at (%d, %d) not flagged", sp[0], sp[1])
		}
	}
	if plan.ReplacementValues.NDim() != 3 {
		t.Fatalf("replacement values shape %v, want 3 axes",
			plan.ReplacementValues.Shape)
	}
}

func TestFindTimePhaseSpikesValidChannels(t *testing.T) {
	c := mustCube(t, spikyData(nil))
	zap := []int{2, 5}
	_, plan, err := FindTimePhaseSpikes(c, 4.0, zap)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{0, 1, 3, 4, 6, 7}
	if len(plan.ValidChannels) != len(want) {
		t.Fatalf("valid channels %v, want %v", plan.ValidChannels, want)
	}
	for i, j := range want {
		if plan.ValidChannels[i] != j {
			t.Fatalf("valid channels %v, want %v", plan.ValidChannels, want)
		}
	}
}

func TestFindTimePhaseSpikesAllChannelsZapped(t *testing.T) {
	c := mustCube(t, spikyData(nil))
	_, _, err := FindTimePhaseSpikes(c, 4.0, []int{0, 1, 2, 3, 4, 5, 6, 7})
	var confErr *ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

// Once bad values have been replaced, re-running the detector with the same
// parameters must not re-flag any previously flagged bin. Newly flagged
// bins are allowed: removing outliers tightens the IQR-derived bounds.
func TestReplacedSpikesAreNotFlaggedAgain(t *testing.T) {
	raw := spikyData([][2]int{{3, 5}, {10, 20}, {15, 7}, {0, 0}})
	c := mustCube(t, raw)
	q := 2.0
	zap := []int{6}

	result, plan, err := FindTimePhaseSpikes(c, q, zap)
	if err != nil {
		t.Fatal(err)
	}
	if result.Mask.CountTrue() == 0 {
		t.Fatal("expected at least one flagged bin")
	}

	patched, err := plan.Apply(raw)
	if err != nil {
		t.Fatal(err)
	}
	newResult, _, err := FindTimePhaseSpikes(mustCube(t, patched), q, zap)
	if err != nil {
		t.Fatal(err)
	}

	for i := range result.Mask.Data {
		if result.Mask.Data[i] && newResult.Mask.Data[i] {
			t.Fatalf("bin %d flagged in both passes", i)
		}
	}
}

func TestApplyLeavesZappedChannelsUntouched(t *testing.T) {
	raw := spikyData([][2]int{{3, 5}})
	c := mustCube(t, raw)
	_, plan, err := FindTimePhaseSpikes(c, 2.0, []int{4})
	if err != nil {
		t.Fatal(err)
	}
	patched, err := plan.Apply(raw)
	if err != nil {
		t.Fatal(err)
	}
	for k := 0; k < 32; k++ {
		if patched.At(3, 4, k) != raw.At(3, 4, k) {
			t.Fatal("zapped channel data was modified")
		}
	}
}

func TestApplyRejectsWrongShape(t *testing.T) {
	c := mustCube(t, spikyData(nil))
	_, plan, err := FindTimePhaseSpikes(c, 4.0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := plan.Apply(narray.NewFloat(2, 2, 2)); err == nil {
		t.Fatal("expected shape error")
	}
}

func TestSubintBadBins(t *testing.T) {
	c := mustCube(t, spikyData([][2]int{{3, 5}, {3, 9}}))
	_, plan, err := FindTimePhaseSpikes(c, 2.0, nil)
	if err != nil {
		t.Fatal(err)
	}
	mapping := plan.SubintBadBins()
	bins, ok := mapping[3]
	if !ok {
		t.Fatal("subint 3 missing from bad-bin mapping")
	}
	found := map[int]bool{}
	for _, k := range bins {
		found[k] = true
	}
	if !found[5] || !found[9] {
		t.Fatalf("subint 3 bad bins %v, want to include 5 and 9", bins)
	}
	for isub, bins := range mapping {
		if len(bins) == 0 {
			t.Fatalf("subint %d mapped to empty bin list", isub)
		}
	}
}

func TestSpikeFindingResultJSONRoundTrip(t *testing.T) {
	c := mustCube(t, spikyData([][2]int{{3, 5}}))
	result, _, err := FindTimePhaseSpikes(c, 2.0, []int{1})
	if err != nil {
		t.Fatal(err)
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		t.Fatal(err)
	}
	var decoded SpikeFindingResult
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Q != result.Q || !decoded.Mask.Equal(result.Mask) {
		t.Fatal("spike finding result did not round trip")
	}
}
