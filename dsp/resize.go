// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Resize scales src to rows x cols with bilinear interpolation on half-pixel
// centers, the INTER_LINEAR mapping of OpenCV: a destination index d samples
// the source at (d+0.5)*scale-0.5, clamped to the edges.
func Resize(src mat.Matrix, rows, cols int) (*mat.Dense, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, rows, cols)
	}

	srcRows, srcCols := src.Dims()
	ry := linearTaps(srcRows, rows)
	rx := linearTaps(srcCols, cols)

	out := mat.NewDense(rows, cols, nil)
	for i, y := range ry {
		for j, x := range rx {
			top := src.At(y.i0, x.i0)*(1-x.w) + src.At(y.i0, x.i1)*x.w
			bottom := src.At(y.i1, x.i0)*(1-x.w) + src.At(y.i1, x.i1)*x.w
			out.Set(i, j, top*(1-y.w)+bottom*y.w)
		}
	}

	return out, nil
}

type tap struct {
	i0, i1 int
	w      float64
}

func linearTaps(srcLen, dstLen int) []tap {
	scale := float64(srcLen) / float64(dstLen)

	out := make([]tap, dstLen)
	for d := range out {
		f := (float64(d)+0.5)*scale - 0.5
		i := int(math.Floor(f))
		w := f - float64(i)

		switch {
		case i < 0:
			i, w = 0, 0
		case i >= srcLen-1:
			i, w = srcLen-1, 0
		}

		out[d] = tap{i0: i, i1: min(i+1, srcLen-1), w: w}
	}

	return out
}
