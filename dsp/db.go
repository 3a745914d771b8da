// SPDX-License-Identifier: EPL-2.0

package dsp

import "math"

// Amin is the floor applied before taking logarithms of power values.
const Amin = 1e-10

// PowerToDB converts power values to decibels relative to ref:
// 10*log10(max(amin, x)) - 10*log10(max(amin, |ref|)). When topDB is positive
// the result is clipped from below at max(result) - topDB. The input is not
// modified.
func PowerToDB(x []float64, ref, amin, topDB float64) []float64 {
	out := make([]float64, len(x))
	refDB := 10 * math.Log10(math.Max(amin, math.Abs(ref)))

	peak := math.Inf(-1)
	for i, v := range x {
		out[i] = 10*math.Log10(math.Max(amin, v)) - refDB
		peak = math.Max(peak, out[i])
	}

	if topDB > 0 {
		floor := peak - topDB
		for i, v := range out {
			out[i] = math.Max(v, floor)
		}
	}

	return out
}
