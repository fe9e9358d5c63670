// Package npy reads and writes NumPy .npy (format version 1.0) files
// holding real-valued arrays, the interchange format used for data cubes.
// Only little-endian float32/float64 arrays in C order are supported.
package npy

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/user/clfd_go/internal/narray"
)

var npyMagic = []byte("\x93NUMPY")

const (
	// Dtype descriptors accepted on read; DtypeFloat32 matches the
	// original interchange files, which store folded data as float32.
	DtypeFloat32 = "<f4"
	DtypeFloat64 = "<f8"

	headerAlign = 64
)

var headerPattern = regexp.MustCompile(
	`^\{\s*'descr':\s*'([^']+)',\s*'fortran_order':\s*(True|False),` +
		`\s*'shape':\s*\(([^)]*)\),?\s*\}\s*$`)

// Read loads an array from a .npy file. Values are widened to float64.
func Read(path string) (*narray.Float, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open npy file: %w", err)
	}
	defer file.Close()
	arr, err := decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return arr, nil
}

// Write saves an array to a .npy file with the given element type
// (DtypeFloat32 or DtypeFloat64). Writing float32 narrows values the same
// way the original interchange files do.
func Write(path string, arr *narray.Float, dtype string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create npy file: %w", err)
	}
	defer file.Close()
	if err := encode(file, arr, dtype); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func decode(r io.Reader) (*narray.Float, error) {
	preamble := make([]byte, 10)
	if _, err := io.ReadFull(r, preamble); err != nil {
		return nil, fmt.Errorf("reading npy preamble: %w", err)
	}
	if string(preamble[:6]) != string(npyMagic) {
		return nil, fmt.Errorf("not an npy file (bad magic)")
	}
	major, minor := preamble[6], preamble[7]
	if major != 1 || minor != 0 {
		return nil, fmt.Errorf("unsupported npy format version %d.%d", major, minor)
	}
	headerLen := int(binary.LittleEndian.Uint16(preamble[8:10]))

	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("reading npy header: %w", err)
	}
	match := headerPattern.FindStringSubmatch(string(header))
	if match == nil {
		return nil, fmt.Errorf("cannot parse npy header: %q", string(header))
	}
	descr, fortran, shapeText := match[1], match[2], match[3]
	if fortran != "False" {
		return nil, fmt.Errorf("fortran-ordered npy files are not supported")
	}
	if descr != DtypeFloat32 && descr != DtypeFloat64 {
		return nil, fmt.Errorf("unsupported npy dtype %q", descr)
	}

	shape, err := parseShape(shapeText)
	if err != nil {
		return nil, err
	}
	out := narray.NewFloat(shape...)

	switch descr {
	case DtypeFloat32:
		raw := make([]byte, 4*out.Size())
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("reading npy data: %w", err)
		}
		for i := range out.Data {
			bits := binary.LittleEndian.Uint32(raw[4*i:])
			out.Data[i] = float64(math.Float32frombits(bits))
		}
	case DtypeFloat64:
		raw := make([]byte, 8*out.Size())
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("reading npy data: %w", err)
		}
		for i := range out.Data {
			bits := binary.LittleEndian.Uint64(raw[8*i:])
			out.Data[i] = math.Float64frombits(bits)
		}
	}
	return out, nil
}

func encode(w io.Writer, arr *narray.Float, dtype string) error {
	if dtype != DtypeFloat32 && dtype != DtypeFloat64 {
		return fmt.Errorf("unsupported npy dtype %q", dtype)
	}

	dims := make([]string, len(arr.Shape))
	for i, dim := range arr.Shape {
		dims[i] = strconv.Itoa(dim)
	}
	shapeText := strings.Join(dims, ", ")
	if len(arr.Shape) == 1 {
		shapeText += ","
	}
	header := fmt.Sprintf(
		"{'descr': '%s', 'fortran_order': False, 'shape': (%s), }",
		dtype, shapeText)

	// Pad so that the data section starts on a 64-byte boundary.
	total := 10 + len(header) + 1
	if pad := total % headerAlign; pad != 0 {
		header += strings.Repeat(" ", headerAlign-pad)
	}
	header += "\n"

	preamble := make([]byte, 10)
	copy(preamble, npyMagic)
	preamble[6], preamble[7] = 1, 0
	binary.LittleEndian.PutUint16(preamble[8:10], uint16(len(header)))
	if _, err := w.Write(preamble); err != nil {
		return err
	}
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}

	switch dtype {
	case DtypeFloat32:
		raw := make([]byte, 4*len(arr.Data))
		for i, v := range arr.Data {
			binary.LittleEndian.PutUint32(
				raw[4*i:], math.Float32bits(float32(v)))
		}
		_, err := w.Write(raw)
		return err
	default:
		raw := make([]byte, 8*len(arr.Data))
		for i, v := range arr.Data {
			binary.LittleEndian.PutUint64(raw[8*i:], math.Float64bits(v))
		}
		_, err := w.Write(raw)
		return err
	}
}

func parseShape(text string) ([]int, error) {
	var shape []int
	for _, field := range strings.Split(text, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		dim, err := strconv.Atoi(field)
		if err != nil || dim < 0 {
			return nil, fmt.Errorf("bad npy shape entry %q", field)
		}
		shape = append(shape, dim)
	}
	if len(shape) == 0 {
		return nil, fmt.Errorf("npy file holds a scalar, expected an array")
	}
	return shape, nil
}
