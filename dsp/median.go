// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Axis selects the direction a filter runs along.
type Axis int

const (
	// AlongRows filters each row across its columns (time, for a spectrogram).
	AlongRows Axis = iota
	// AlongCols filters each column across its rows (frequency).
	AlongCols
)

// MedianFilter applies a 1-D median filter of odd width size along axis.
// Borders are extended by mirror reflection including the edge sample
// (d c b a | a b c d | d c b a).
func MedianFilter(m mat.Matrix, size int, axis Axis) (*mat.Dense, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: median width %d", ErrInvalidSize, size)
	}

	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)

	lines, length := rows, cols
	at := func(line, k int) float64 { return m.At(line, k) }
	set := func(line, k int, v float64) { out.Set(line, k, v) }
	if axis == AlongCols {
		lines, length = cols, rows
		at = func(line, k int) float64 { return m.At(k, line) }
		set = func(line, k int, v float64) { out.Set(k, line, v) }
	}

	half := size / 2
	src := make([]float64, length)
	win := make([]float64, size)

	for l := range lines {
		for k := range src {
			src[k] = at(l, k)
		}
		for k := range length {
			for j := range size {
				win[j] = src[reflect(k-half+j, length)]
			}
			slices.Sort(win)
			set(l, k, win[half])
		}
	}

	return out, nil
}

// reflect maps an out-of-range index back into [0,n) by half-sample symmetry.
func reflect(i, n int) int {
	if n == 1 {
		return 0
	}

	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}

	return i
}
