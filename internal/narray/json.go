package narray

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
)

// Arrays are embedded in JSON documents as objects carrying an explicit
// shape and element type, with the raw element bytes encoded in base64
// (little-endian for float64). Decoding reconstructs identical
// dimensionality and bit-identical values.

const (
	dtypeFloat64 = "float64"
	dtypeBool    = "bool"
)

type arrayDocument struct {
	Shape []int  `json:"shape"`
	Dtype string `json:"dtype"`
	Data  string `json:"base64_data"`
}

// MarshalJSON implements json.Marshaler.
func (a *Float) MarshalJSON() ([]byte, error) {
	raw := make([]byte, 8*len(a.Data))
	for i, v := range a.Data {
		binary.LittleEndian.PutUint64(raw[8*i:], math.Float64bits(v))
	}
	return json.Marshal(arrayDocument{
		Shape: a.Shape,
		Dtype: dtypeFloat64,
		Data:  base64.StdEncoding.EncodeToString(raw),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Float) UnmarshalJSON(b []byte) error {
	var doc arrayDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	if doc.Dtype != dtypeFloat64 {
		return fmt.Errorf("cannot decode dtype %q into float64 array", doc.Dtype)
	}
	raw, err := base64.StdEncoding.DecodeString(doc.Data)
	if err != nil {
		return fmt.Errorf("decoding array data: %w", err)
	}
	if len(raw) != 8*sizeOf(doc.Shape) {
		return fmt.Errorf(
			"array data has %d bytes, want %d for shape %v",
			len(raw), 8*sizeOf(doc.Shape), doc.Shape)
	}
	out := NewFloat(doc.Shape...)
	for i := range out.Data {
		out.Data[i] = math.Float64frombits(
			binary.LittleEndian.Uint64(raw[8*i:]))
	}
	*a = *out
	return nil
}

// MarshalJSON implements json.Marshaler.
func (a *Bool) MarshalJSON() ([]byte, error) {
	raw := make([]byte, len(a.Data))
	for i, v := range a.Data {
		if v {
			raw[i] = 1
		}
	}
	return json.Marshal(arrayDocument{
		Shape: a.Shape,
		Dtype: dtypeBool,
		Data:  base64.StdEncoding.EncodeToString(raw),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Bool) UnmarshalJSON(b []byte) error {
	var doc arrayDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	if doc.Dtype != dtypeBool {
		return fmt.Errorf("cannot decode dtype %q into bool array", doc.Dtype)
	}
	raw, err := base64.StdEncoding.DecodeString(doc.Data)
	if err != nil {
		return fmt.Errorf("decoding array data: %w", err)
	}
	if len(raw) != sizeOf(doc.Shape) {
		return fmt.Errorf(
			"array data has %d bytes, want %d for shape %v",
			len(raw), sizeOf(doc.Shape), doc.Shape)
	}
	out := NewBool(doc.Shape...)
	for i, c := range raw {
		out.Data[i] = c != 0
	}
	*a = *out
	return nil
}

func sameBits(a, b float64) bool {
	return math.Float64bits(a) == math.Float64bits(b)
}
