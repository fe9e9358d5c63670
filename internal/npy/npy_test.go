package npy

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/user/clfd_go/internal/narray"
)

func TestRoundTripFloat64(t *testing.T) {
	arr := narray.NewFloat(3, 4, 5)
	for i := range arr.Data {
		arr.Data[i] = math.Sin(float64(i)) * 1e-3
	}
	path := filepath.Join(t.TempDir(), "cube.npy")
	if err := Write(path, arr, DtypeFloat64); err != nil {
		t.Fatal(err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(arr) {
		t.Fatal("float64 round trip is not bit-exact")
	}
}

func TestRoundTripFloat32Narrows(t *testing.T) {
	arr := narray.NewFloat(2, 3)
	arr.Data = []float64{1.5, -2.25, 0, 1e-10, 3.75, 100}
	path := filepath.Join(t.TempDir(), "small.npy")
	if err := Write(path, arr, DtypeFloat32); err != nil {
		t.Fatal(err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Shape) != 2 || got.Shape[0] != 2 || got.Shape[1] != 3 {
		t.Fatalf("shape %v, want (2, 3)", got.Shape)
	}
	for i, v := range arr.Data {
		if got.Data[i] != float64(float32(v)) {
			t.Fatalf("element %d = %g, want %g", i, got.Data[i], float64(float32(v)))
		}
	}
}

func TestDataSectionAlignment(t *testing.T) {
	arr := narray.NewFloat(4)
	path := filepath.Join(t.TempDir(), "vec.npy")
	if err := Write(path, arr, DtypeFloat64); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	headerLen := int(raw[8]) | int(raw[9])<<8
	if (10+headerLen)%64 != 0 {
		t.Fatalf("data section starts at offset %d, want multiple of 64", 10+headerLen)
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.npy")
	if err := os.WriteFile(path, []byte("not an npy file at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(path); err == nil {
		t.Fatal("expected error for non-npy input")
	}
}

func TestWriteRejectsUnknownDtype(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.npy")
	if err := Write(path, narray.NewFloat(2), "<i8"); err == nil {
		t.Fatal("expected error for unsupported dtype")
	}
}
