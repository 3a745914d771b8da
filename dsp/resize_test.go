// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestResize_Identity(t *testing.T) {
	t.Parallel()

	src := mat.NewDense(3, 4, []float64{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
	})

	out, err := Resize(src, 3, 4)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(src, out) {
		t.Errorf("Resize to the same size changed values:\n%v", mat.Formatted(out))
	}
}

func TestResize_Upscale(t *testing.T) {
	t.Parallel()

	src := mat.NewDense(1, 2, []float64{0, 4})

	out, err := Resize(src, 1, 4)
	if err != nil {
		t.Fatal(err)
	}

	// half-pixel centers: -0.25 -> edge, 0.25, 0.75, 1.25 -> edge
	want := []float64{0, 1, 3, 4}
	for j, w := range want {
		if math.Abs(out.At(0, j)-w) > 1e-12 {
			t.Errorf("out[0][%d] = %v, want %v", j, out.At(0, j), w)
		}
	}
}

func TestResize_Downscale(t *testing.T) {
	t.Parallel()

	src := mat.NewDense(1, 4, []float64{0, 2, 4, 6})

	out, err := Resize(src, 1, 2)
	if err != nil {
		t.Fatal(err)
	}

	// centers at 0.5 and 2.5
	want := []float64{1, 5}
	for j, w := range want {
		if math.Abs(out.At(0, j)-w) > 1e-12 {
			t.Errorf("out[0][%d] = %v, want %v", j, out.At(0, j), w)
		}
	}
}

func TestResize_MelShape(t *testing.T) {
	t.Parallel()

	src := mat.NewDense(128, 126, nil)
	for i := range 128 {
		for j := range 126 {
			src.Set(i, j, float64(j))
		}
	}

	out, err := Resize(src, 128, 128)
	if err != nil {
		t.Fatal(err)
	}

	r, c := out.Dims()
	if r != 128 || c != 128 {
		t.Fatalf("Dims() = %dx%d, want 128x128", r, c)
	}
	if out.At(5, 0) != 0 || out.At(5, 127) != 125 {
		t.Errorf("edges = %v,%v, want 0,125", out.At(5, 0), out.At(5, 127))
	}
	for j := 1; j < 128; j++ {
		if out.At(0, j) < out.At(0, j-1) {
			t.Fatalf("column %d breaks monotonicity", j)
		}
	}
}

func TestResize_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := Resize(mat.NewDense(2, 2, nil), 0, 2); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("Resize(0 rows) error = %v, want ErrInvalidSize", err)
	}
}
