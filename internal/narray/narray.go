// Package narray provides minimal dense n-dimensional arrays (float64 and
// bool) with a JSON encoding that preserves shape, element type and exact
// bit patterns.
package narray

import (
	"fmt"
)

// Float is a dense n-dimensional float64 array in row-major order.
type Float struct {
	Shape []int
	Data  []float64
}

// NewFloat allocates a zero-filled array with the given shape.
func NewFloat(shape ...int) *Float {
	return &Float{
		Shape: append([]int{}, shape...),
		Data:  make([]float64, sizeOf(shape)),
	}
}

// FloatFromSlice wraps an existing flat slice. The slice length must match
// the product of the shape dimensions.
func FloatFromSlice(data []float64, shape ...int) (*Float, error) {
	if len(data) != sizeOf(shape) {
		return nil, fmt.Errorf(
			"data length %d does not match shape %v", len(data), shape)
	}
	return &Float{Shape: append([]int{}, shape...), Data: data}, nil
}

// Size returns the total number of elements.
func (a *Float) Size() int {
	return sizeOf(a.Shape)
}

// NDim returns the number of axes.
func (a *Float) NDim() int {
	return len(a.Shape)
}

// At returns the element at the given multi-dimensional index.
func (a *Float) At(indices ...int) float64 {
	return a.Data[flatIndex(a.Shape, indices)]
}

// Set stores v at the given multi-dimensional index.
func (a *Float) Set(v float64, indices ...int) {
	a.Data[flatIndex(a.Shape, indices)] = v
}

// Copy returns a deep copy.
func (a *Float) Copy() *Float {
	out := NewFloat(a.Shape...)
	copy(out.Data, a.Data)
	return out
}

// Equal reports whether b has the same shape and bit-identical elements.
// NaNs compare equal to NaNs with the same bit pattern.
func (a *Float) Equal(b *Float) bool {
	if !shapeEqual(a.Shape, b.Shape) {
		return false
	}
	for i, v := range a.Data {
		if !sameBits(v, b.Data[i]) {
			return false
		}
	}
	return true
}

// Bool is a dense n-dimensional boolean array in row-major order.
type Bool struct {
	Shape []int
	Data  []bool
}

// NewBool allocates a false-filled array with the given shape.
func NewBool(shape ...int) *Bool {
	return &Bool{
		Shape: append([]int{}, shape...),
		Data:  make([]bool, sizeOf(shape)),
	}
}

// Size returns the total number of elements.
func (a *Bool) Size() int {
	return sizeOf(a.Shape)
}

// At returns the element at the given multi-dimensional index.
func (a *Bool) At(indices ...int) bool {
	return a.Data[flatIndex(a.Shape, indices)]
}

// Set stores v at the given multi-dimensional index.
func (a *Bool) Set(v bool, indices ...int) {
	a.Data[flatIndex(a.Shape, indices)] = v
}

// Copy returns a deep copy.
func (a *Bool) Copy() *Bool {
	out := NewBool(a.Shape...)
	copy(out.Data, a.Data)
	return out
}

// Equal reports whether b has the same shape and elements.
func (a *Bool) Equal(b *Bool) bool {
	if !shapeEqual(a.Shape, b.Shape) {
		return false
	}
	for i, v := range a.Data {
		if v != b.Data[i] {
			return false
		}
	}
	return true
}

// CountTrue returns the number of true elements.
func (a *Bool) CountTrue() int {
	n := 0
	for _, v := range a.Data {
		if v {
			n++
		}
	}
	return n
}

func sizeOf(shape []int) int {
	n := 1
	for _, dim := range shape {
		n *= dim
	}
	return n
}

func flatIndex(shape, indices []int) int {
	if len(indices) != len(shape) {
		panic(fmt.Sprintf(
			"narray: %d indices for %d-dimensional array",
			len(indices), len(shape)))
	}
	flat := 0
	for axis, ix := range indices {
		if ix < 0 || ix >= shape[axis] {
			panic(fmt.Sprintf(
				"narray: index %d out of range for axis %d with size %d",
				ix, axis, shape[axis]))
		}
		flat = flat*shape[axis] + ix
	}
	return flat
}

func shapeEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i, dim := range a {
		if dim != b[i] {
			return false
		}
	}
	return true
}
