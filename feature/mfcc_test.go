// SPDX-License-Identifier: EPL-2.0

package feature

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ik5/cryfeat/internal/audiotest"
)

func TestDCTMatrix_Orthonormal(t *testing.T) {
	t.Parallel()

	for _, n := range []int{4, 13, 128} {
		d := DCTMatrix(n, n)

		var prod mat.Dense
		prod.Mul(d, d.T())

		if !mat.EqualApprox(&prod, identity(n), 1e-9) {
			t.Errorf("DCTMatrix(%d) * DCTMatrix(%d)^T is not the identity", n, n)
		}
	}
}

func TestDCTMatrix_Constant(t *testing.T) {
	t.Parallel()

	// only the first coefficient responds to a flat input
	d := DCTMatrix(8, 32)
	x := mat.NewVecDense(32, nil)
	for i := range 32 {
		x.SetVec(i, 2)
	}

	var c mat.VecDense
	c.MulVec(d, x)

	if want := 2 * math.Sqrt(32); math.Abs(c.AtVec(0)-want) > 1e-9 {
		t.Errorf("c[0] = %v, want %v", c.AtVec(0), want)
	}
	for j := 1; j < 8; j++ {
		if math.Abs(c.AtVec(j)) > 1e-9 {
			t.Errorf("c[%d] = %v, want 0", j, c.AtVec(j))
		}
	}
}

func TestMFCCs_Shape(t *testing.T) {
	t.Parallel()

	y := audiotest.SineSamples(64000, 16000, 440, 0.3)
	m, err := MFCCs(y, 16000, DefaultMFCCConfig())
	if err != nil {
		t.Fatal(err)
	}

	rows, cols := m.Dims()
	if rows != 40 || cols != 126 {
		t.Fatalf("Dims() = %dx%d, want 40x126", rows, cols)
	}
	for _, v := range m.RawMatrix().Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatal("MFCCs contain non-finite values")
		}
	}
}

func TestNewMFCC_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		nmfcc int
	}{
		{name: "zero", nmfcc: 0},
		{name: "more than mel bands", nmfcc: 129},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultMFCCConfig()
			cfg.NMFCC = tt.nmfcc
			if _, err := NewMFCC(16000, cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("NewMFCC() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestStandardize(t *testing.T) {
	t.Parallel()

	M := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	out, err := Standardize(M, 1e-8)
	if err != nil {
		t.Fatal(err)
	}

	mean, std := stat.PopMeanStdDev(out.RawMatrix().Data, nil)
	if math.Abs(mean) > 1e-12 || math.Abs(std-1) > 1e-12 {
		t.Errorf("mean, std = %v, %v; want 0, 1", mean, std)
	}
	if M.At(0, 0) != 1 {
		t.Error("Standardize modified its input")
	}
}

func TestStandardize_Degenerate(t *testing.T) {
	t.Parallel()

	M := mat.NewDense(3, 4, nil)
	for i := range 3 {
		for j := range 4 {
			M.Set(i, j, -7)
		}
	}

	out, err := Standardize(M, 1e-8)
	if !errors.Is(err, ErrDegenerateSignal) {
		t.Fatalf("Standardize() error = %v, want ErrDegenerateSignal", err)
	}
	if mat.Max(out) != 0 || mat.Min(out) != 0 {
		t.Error("degenerate input should standardize to zeros")
	}
}

func TestFixFrames(t *testing.T) {
	t.Parallel()

	M := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})

	tests := []struct {
		name string
		n    int
		want []float64
	}{
		{name: "pad", n: 5, want: []float64{1, 2, 3, 0, 0, 4, 5, 6, 0, 0}},
		{name: "truncate", n: 2, want: []float64{1, 2, 4, 5}},
		{name: "exact", n: 3, want: []float64{1, 2, 3, 4, 5, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := FixFrames(M, tt.n)
			if err != nil {
				t.Fatal(err)
			}
			if !mat.Equal(got, mat.NewDense(2, tt.n, tt.want)) {
				t.Errorf("FixFrames(%d) = %v, want %v", tt.n, got.RawMatrix().Data, tt.want)
			}
		})
	}

	if _, err := FixFrames(M, 0); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("FixFrames(0) error = %v, want ErrInvalidConfig", err)
	}
}

func identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := range n {
		m.Set(i, i, 1)
	}
	return m
}

func BenchmarkMFCC_Coefficients(b *testing.B) {
	m, err := NewMFCC(16000, DefaultMFCCConfig())
	if err != nil {
		b.Fatal(err)
	}
	y := audiotest.SineSamples(64000, 16000, 440, 0.5)

	b.ReportAllocs()
	for b.Loop() {
		_ = m.Coefficients(y)
	}
}
