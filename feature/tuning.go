// SPDX-License-Identifier: EPL-2.0

package feature

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/ik5/cryfeat/dsp"
)

// Pitch tracking range and thresholds used by EstimateTuning.
const (
	DefaultTuningResolution = 0.01

	pitchFMin      = 150.0
	pitchFMax      = 4000.0
	pitchThreshold = 0.1
)

// PitchTrack finds spectral peaks of S (bins x frames) between fmin and fmax
// and refines them by parabolic interpolation. A bin is a peak when it
// exceeds threshold times its frame's maximum and is a local maximum along
// frequency. Non-peak cells are zero in both outputs.
func PitchTrack(S mat.Matrix, sr, nfft int, fmin, fmax, threshold float64) (pitches, mags *mat.Dense) {
	bins, frames := S.Dims()
	pitches = mat.NewDense(bins, frames, nil)
	mags = mat.NewDense(bins, frames, nil)

	fmin = math.Max(fmin, 0)
	fmax = math.Min(fmax, float64(sr)/2)

	col := make([]float64, bins)
	gated := make([]float64, bins)

	for t := range frames {
		mat.Col(col, t, S)

		ref := threshold * slices.Max(col)
		for b, v := range col {
			gated[b] = 0
			if v > ref {
				gated[b] = v
			}
		}

		for b := 1; b < bins-1; b++ {
			f := float64(b) * float64(sr) / float64(nfft)
			if f < fmin || f >= fmax {
				continue
			}
			if !(gated[b] > gated[b-1] && gated[b] >= gated[b+1]) {
				continue
			}

			avg := 0.5 * (col[b+1] - col[b-1])
			curv := 2*col[b] - col[b+1] - col[b-1]
			if math.Abs(curv) < dsp.Tiny {
				curv++
			}
			shift := avg / curv

			pitches.Set(b, t, (float64(b)+shift)*float64(sr)/float64(nfft))
			mags.Set(b, t, col[b]+0.5*avg*shift)
		}
	}

	return pitches, mags
}

// EstimateTuning returns the tuning offset of the power spectrogram S in
// fractions of a bin, in [-0.5, 0.5). Peaks with at least the median peak
// magnitude vote through PitchTuning.
func EstimateTuning(S mat.Matrix, sr, nfft int, resolution float64, binsPerOctave int) float64 {
	pitches, mags := PitchTrack(S, sr, nfft, pitchFMin, pitchFMax, pitchThreshold)

	pr := pitches.RawMatrix().Data
	mr := mags.RawMatrix().Data

	var voiced []float64
	for i, p := range pr {
		if p > 0 {
			voiced = append(voiced, mr[i])
		}
	}

	threshold := 0.0
	if len(voiced) > 0 {
		threshold = median(voiced)
	}

	var freqs []float64
	for i, p := range pr {
		if p > 0 && mr[i] >= threshold {
			freqs = append(freqs, p)
		}
	}

	return PitchTuning(freqs, resolution, binsPerOctave)
}

// PitchTuning histograms the deviation of freqs from the equal-tempered grid
// at the given resolution and returns the lower edge of the most populated
// bin. Without positive frequencies it returns 0.
func PitchTuning(freqs []float64, resolution float64, binsPerOctave int) float64 {
	nBins := int(math.Ceil(1 / resolution))
	edges := make([]float64, nBins+1)
	for i := range edges {
		edges[i] = -0.5 + float64(i)/float64(nBins)
	}

	counts := make([]int, nBins)
	seen := false

	for _, f := range freqs {
		if f <= 0 {
			continue
		}
		seen = true

		r := pyMod(float64(binsPerOctave)*hzToOcts(f, 0, binsPerOctave), 1)
		if r >= 0.5 {
			r--
		}

		counts[histogramBin(r, edges)]++
	}

	if !seen {
		return 0
	}

	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}

	return edges[best]
}

// histogramBin places v in uniform edges; the last bin is closed.
func histogramBin(v float64, edges []float64) int {
	n := len(edges) - 1
	first, last := edges[0], edges[n]

	i := int((v - first) * float64(n) / (last - first))
	i = max(0, min(i, n-1))

	if v < edges[i] && i > 0 {
		i--
	}
	if v >= edges[i+1] && i < n-1 {
		i++
	}

	return i
}

func median(v []float64) float64 {
	s := slices.Clone(v)
	slices.Sort(s)

	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}

	return (s[n/2-1] + s[n/2]) / 2
}
