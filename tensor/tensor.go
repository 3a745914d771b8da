// SPDX-License-Identifier: EPL-2.0

package tensor

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Tensor is a dense row-major float32 array.
type Tensor struct {
	Shape []int     `json:"shape" msgpack:"shape"`
	Data  []float32 `json:"data" msgpack:"data"`
}

// New wraps data with shape. The element count must match.
func New(shape []int, data []float32) (Tensor, error) {
	n, err := size(shape)
	if err != nil {
		return Tensor{}, err
	}
	if n != len(data) {
		return Tensor{}, fmt.Errorf("%w: shape %v holds %d values, got %d", ErrInvalidShape, shape, n, len(data))
	}

	return Tensor{Shape: slices.Clone(shape), Data: data}, nil
}

// FromFloat64 converts data to float32 and wraps it with shape.
func FromFloat64(shape []int, data []float64) (Tensor, error) {
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = float32(v)
	}

	return New(shape, out)
}

// FromMatrix copies m into a rows x cols tensor.
func FromMatrix(m mat.Matrix) Tensor {
	rows, cols := m.Dims()
	data := make([]float32, 0, rows*cols)
	for i := range rows {
		for j := range cols {
			data = append(data, float32(m.At(i, j)))
		}
	}

	return Tensor{Shape: []int{rows, cols}, Data: data}
}

// Zeros returns a zero-filled tensor. It panics on a non-positive dimension,
// like make does on a negative length.
func Zeros(shape ...int) Tensor {
	n, err := size(shape)
	if err != nil {
		panic(err)
	}

	return Tensor{Shape: slices.Clone(shape), Data: make([]float32, n)}
}

func size(shape []int) (int, error) {
	if len(shape) == 0 {
		return 0, fmt.Errorf("%w: empty shape", ErrInvalidShape)
	}

	n := 1
	for _, d := range shape {
		if d <= 0 {
			return 0, fmt.Errorf("%w: %v", ErrInvalidShape, shape)
		}
		n *= d
	}

	return n, nil
}

// Len returns the number of elements.
func (t Tensor) Len() int { return len(t.Data) }

// Rank returns the number of axes.
func (t Tensor) Rank() int { return len(t.Shape) }

// Clone returns a deep copy of t.
func (t Tensor) Clone() Tensor {
	return Tensor{Shape: slices.Clone(t.Shape), Data: slices.Clone(t.Data)}
}

// Reshape returns a copy of t with a new shape holding the same number of
// elements. A single -1 dimension is inferred from the others.
func (t Tensor) Reshape(shape ...int) (Tensor, error) {
	shape = slices.Clone(shape)

	infer := -1
	known := 1
	for i, d := range shape {
		switch {
		case d == -1 && infer < 0:
			infer = i
		case d <= 0:
			return Tensor{}, fmt.Errorf("%w: cannot reshape %v to %v", ErrInvalidShape, t.Shape, shape)
		default:
			known *= d
		}
	}

	if infer >= 0 {
		if known == 0 || t.Len()%known != 0 {
			return Tensor{}, fmt.Errorf("%w: cannot reshape %v to %v", ErrInvalidShape, t.Shape, shape)
		}
		shape[infer] = t.Len() / known
	}

	return New(shape, slices.Clone(t.Data))
}

// ExpandDims inserts a length-1 axis at position axis. Negative values count
// from the end, so -1 appends a trailing axis.
func (t Tensor) ExpandDims(axis int) (Tensor, error) {
	rank := t.Rank()
	if axis < 0 {
		axis += rank + 1
	}
	if axis < 0 || axis > rank {
		return Tensor{}, fmt.Errorf("%w: axis %d out of range for rank %d", ErrInvalidShape, axis, rank)
	}

	shape := slices.Insert(slices.Clone(t.Shape), axis, 1)

	return Tensor{Shape: shape, Data: slices.Clone(t.Data)}, nil
}

// At returns the element at the given index. It panics when the index does
// not address an element, as slice indexing does.
func (t Tensor) At(idx ...int) float32 {
	if len(idx) != t.Rank() {
		panic(fmt.Sprintf("tensor: %d indices for rank %d", len(idx), t.Rank()))
	}

	off := 0
	for i, v := range idx {
		if v < 0 || v >= t.Shape[i] {
			panic(fmt.Sprintf("tensor: index %v out of range for shape %v", idx, t.Shape))
		}
		off = off*t.Shape[i] + v
	}

	return t.Data[off]
}

// CheckShape reports ErrShapeMismatch unless t has exactly the shape want.
func (t Tensor) CheckShape(want ...int) error {
	if !slices.Equal(t.Shape, want) {
		return fmt.Errorf("%w: got %v, want %v", ErrShapeMismatch, t.Shape, want)
	}
	if n, err := size(want); err != nil || n != t.Len() {
		return fmt.Errorf("%w: shape %v with %d values", ErrShapeMismatch, t.Shape, t.Len())
	}

	return nil
}

// Equal reports whether both tensors have the same shape and bit-identical
// data.
func (t Tensor) Equal(o Tensor) bool {
	if !slices.Equal(t.Shape, o.Shape) || len(t.Data) != len(o.Data) {
		return false
	}
	for i, v := range t.Data {
		if math.Float32bits(v) != math.Float32bits(o.Data[i]) {
			return false
		}
	}

	return true
}

// IsFinite reports whether no element is NaN or infinite.
func (t Tensor) IsFinite() bool {
	for _, v := range t.Data {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}

	return true
}

// String formats the shape, for logs.
func (t Tensor) String() string {
	dims := make([]string, len(t.Shape))
	for i, d := range t.Shape {
		dims[i] = fmt.Sprint(d)
	}

	return "(" + strings.Join(dims, ",") + ")"
}
