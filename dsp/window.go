// SPDX-License-Identifier: EPL-2.0

package dsp

import "github.com/mjibson/go-dsp/window"

// Tiny is the smallest normal float32, the threshold librosa uses to decide a
// value is numerically zero.
const Tiny = 1.1754943508222875e-38

// Hann returns a periodic Hann window of length n, the DFT-even form used for
// spectral analysis.
func Hann(n int) []float64 {
	if n <= 0 {
		return nil
	}

	return window.Hann(n + 1)[:n]
}
