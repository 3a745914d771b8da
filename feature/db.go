// SPDX-License-Identifier: EPL-2.0

package feature

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ik5/cryfeat/dsp"
)

// PowerToDB converts a power matrix to decibels relative to ref, clipping
// values more than topDB below the peak. topDB <= 0 disables clipping.
// Pass mat.Max(S) as ref to scale against the loudest bin.
func PowerToDB(S mat.Matrix, ref, topDB float64) *mat.Dense {
	out := mat.DenseCopyOf(S)
	raw := out.RawMatrix()

	// DenseCopyOf is contiguous, so the backing slice is exactly rows*cols
	copy(raw.Data, dsp.PowerToDB(raw.Data, ref, dsp.Amin, topDB))

	return out
}
