// SPDX-License-Identifier: EPL-2.0

package feature

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// TonnetzDims is the number of tonal centroid dimensions: fifths, minor
// thirds and major thirds, each as an x/y pair.
const TonnetzDims = 6

var (
	tonnetzScale  = [TonnetzDims]float64{7.0 / 6, 7.0 / 6, 3.0 / 2, 3.0 / 2, 2.0 / 3, 2.0 / 3}
	tonnetzRadius = [TonnetzDims]float64{1, 1, 1, 1, 0.5, 0.5}
)

// TonnetzBasis returns the 6 x nChroma projection onto the tonal centroid
// space of Harte et al. (2006).
func TonnetzBasis(nChroma int) *mat.Dense {
	out := mat.NewDense(TonnetzDims, nChroma, nil)
	for r := range TonnetzDims {
		row := out.RawRowView(r)
		for c := range row {
			v := tonnetzScale[r] * float64(c) * 12 / float64(nChroma)
			if r%2 == 0 {
				v -= 0.5
			}
			row[c] = tonnetzRadius[r] * math.Cos(math.Pi*v)
		}
	}

	return out
}

// Tonnetz projects an n_chroma x frames chromagram onto the tonal centroid
// space after L1-normalizing every frame.
func Tonnetz(chroma mat.Matrix) *mat.Dense {
	rows, frames := chroma.Dims()

	norm := mat.DenseCopyOf(chroma)
	normalizeColumns(norm, 1)

	out := mat.NewDense(TonnetzDims, frames, nil)
	out.Mul(TonnetzBasis(rows), norm)

	return out
}
