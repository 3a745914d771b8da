// SPDX-License-Identifier: EPL-2.0

package tensor

import (
	"errors"
	"math"
	"slices"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		shape []int
		n     int
		err   error
	}{
		{name: "matrix", shape: []int{2, 3}, n: 6},
		{name: "batched", shape: []int{1, 25, 1}, n: 25},
		{name: "count mismatch", shape: []int{2, 3}, n: 5, err: ErrInvalidShape},
		{name: "zero dim", shape: []int{0, 3}, n: 0, err: ErrInvalidShape},
		{name: "negative dim", shape: []int{-1, 3}, n: 3, err: ErrInvalidShape},
		{name: "empty shape", shape: nil, n: 0, err: ErrInvalidShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := New(tt.shape, make([]float32, tt.n))
			if !errors.Is(err, tt.err) {
				t.Fatalf("New() error = %v, want %v", err, tt.err)
			}
			if err == nil && got.Len() != tt.n {
				t.Errorf("Len() = %d, want %d", got.Len(), tt.n)
			}
		})
	}
}

func TestNew_CopiesShape(t *testing.T) {
	t.Parallel()

	shape := []int{2, 2}
	got, err := New(shape, make([]float32, 4))
	if err != nil {
		t.Fatal(err)
	}

	shape[0] = 4
	if got.Shape[0] != 2 {
		t.Error("New aliases the caller's shape slice")
	}
}

func TestReshape(t *testing.T) {
	t.Parallel()

	src := Zeros(4, 6)

	tests := []struct {
		name  string
		shape []int
		want  []int
		err   error
	}{
		{name: "explicit", shape: []int{2, 12}, want: []int{2, 12}},
		{name: "inferred", shape: []int{1, -1, 1}, want: []int{1, 24, 1}},
		{name: "wrong count", shape: []int{5, 5}, err: ErrInvalidShape},
		{name: "two inferred", shape: []int{-1, -1}, err: ErrInvalidShape},
		{name: "not divisible", shape: []int{5, -1}, err: ErrInvalidShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := src.Reshape(tt.shape...)
			if !errors.Is(err, tt.err) {
				t.Fatalf("Reshape() error = %v, want %v", err, tt.err)
			}
			if err == nil && !slices.Equal(got.Shape, tt.want) {
				t.Errorf("Shape = %v, want %v", got.Shape, tt.want)
			}
		})
	}
}

func TestExpandDims(t *testing.T) {
	t.Parallel()

	src := Zeros(100, 40)

	tests := []struct {
		axis int
		want []int
		err  error
	}{
		{axis: 0, want: []int{1, 100, 40}},
		{axis: 1, want: []int{100, 1, 40}},
		{axis: 2, want: []int{100, 40, 1}},
		{axis: -1, want: []int{100, 40, 1}},
		{axis: -3, want: []int{1, 100, 40}},
		{axis: 3, err: ErrInvalidShape},
		{axis: -4, err: ErrInvalidShape},
	}

	for _, tt := range tests {
		got, err := src.ExpandDims(tt.axis)
		if !errors.Is(err, tt.err) {
			t.Errorf("ExpandDims(%d) error = %v, want %v", tt.axis, err, tt.err)
			continue
		}
		if err == nil && !slices.Equal(got.Shape, tt.want) {
			t.Errorf("ExpandDims(%d) shape = %v, want %v", tt.axis, got.Shape, tt.want)
		}
	}
}

func TestAt_RowMajor(t *testing.T) {
	t.Parallel()

	data := make([]float32, 24)
	for i := range data {
		data[i] = float32(i)
	}
	tn, err := New([]int{2, 3, 4}, data)
	if err != nil {
		t.Fatal(err)
	}

	if got := tn.At(1, 2, 3); got != 23 {
		t.Errorf("At(1,2,3) = %v, want 23", got)
	}
	if got := tn.At(0, 1, 0); got != 4 {
		t.Errorf("At(0,1,0) = %v, want 4", got)
	}
}

func TestAt_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("At out of range did not panic")
		}
	}()

	Zeros(2, 2).At(2, 0)
}

func TestCheckShape(t *testing.T) {
	t.Parallel()

	tn := Zeros(128, 128, 1)
	if err := tn.CheckShape(128, 128, 1); err != nil {
		t.Errorf("CheckShape() = %v, want nil", err)
	}
	if err := tn.CheckShape(128, 128); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("CheckShape() = %v, want ErrShapeMismatch", err)
	}

	broken := Tensor{Shape: []int{2, 2}, Data: make([]float32, 3)}
	if err := broken.CheckShape(2, 2); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("CheckShape() on short data = %v, want ErrShapeMismatch", err)
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()

	a, _ := New([]int{2}, []float32{1, 2})
	b := a.Clone()
	if !a.Equal(b) {
		t.Error("clone is not equal")
	}

	b.Data[1] = 3
	if a.Equal(b) {
		t.Error("different data compared equal")
	}
	if a.Data[1] != 2 {
		t.Error("Clone shares data")
	}

	c, _ := New([]int{1, 2}, []float32{1, 2})
	if a.Equal(c) {
		t.Error("different shapes compared equal")
	}
}

func TestIsFinite(t *testing.T) {
	t.Parallel()

	tn := Zeros(3)
	if !tn.IsFinite() {
		t.Error("zeros reported non-finite")
	}

	tn.Data[1] = float32(math.NaN())
	if tn.IsFinite() {
		t.Error("NaN reported finite")
	}

	tn.Data[1] = float32(math.Inf(-1))
	if tn.IsFinite() {
		t.Error("-Inf reported finite")
	}
}

func TestFromMatrix(t *testing.T) {
	t.Parallel()

	m := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	tn := FromMatrix(m)

	if err := tn.CheckShape(2, 3); err != nil {
		t.Fatal(err)
	}
	if got := tn.At(1, 0); got != 4 {
		t.Errorf("At(1,0) = %v, want 4", got)
	}

	// transposed views are read through At
	tt := FromMatrix(m.T())
	if err := tt.CheckShape(3, 2); err != nil {
		t.Fatal(err)
	}
	if got := tt.At(0, 1); got != 4 {
		t.Errorf("transposed At(0,1) = %v, want 4", got)
	}
}

func TestString(t *testing.T) {
	t.Parallel()

	if got := Zeros(1, 25, 1).String(); got != "(1,25,1)" {
		t.Errorf("String() = %q, want (1,25,1)", got)
	}
}
