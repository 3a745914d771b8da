// SPDX-License-Identifier: EPL-2.0

package feature

import (
	"fmt"
	"math"
	"math/cmplx"
	"slices"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ik5/cryfeat/audio"
	"github.com/ik5/cryfeat/dsp"
)

// NoteC1 is the frequency of C1, the default lowest constant-Q bin.
const NoteC1 = 32.70319566257483

const (
	// equivalent noise bandwidth of the Hann window, in bins
	hannBandwidth = 1.50018310546875
	// passband edge of the fastest downsampling filter; bounds how early
	// the signal may be decimated
	fastestRolloff = 0.85
)

// CQTConfig parameterizes the constant-Q transform.
type CQTConfig struct {
	Hop           int
	FMin          float64
	NBins         int
	BinsPerOctave int
	// EstimateTuning derives the tuning offset from every clip; otherwise
	// Tuning (in fractions of a bin) is used as is.
	EstimateTuning bool
	Tuning         float64
	// FilterScale multiplies every filter length.
	FilterScale float64
	// Sparsity is the fraction of each filter's spectral mass discarded.
	Sparsity float64
}

// DefaultCQTConfig matches librosa.cqt.
func DefaultCQTConfig() CQTConfig {
	return CQTConfig{
		Hop:            512,
		FMin:           NoteC1,
		NBins:          84,
		BinsPerOctave:  12,
		EstimateTuning: true,
		FilterScale:    1,
		Sparsity:       0.01,
	}
}

// CQT computes constant-Q magnitudes the multirate way: every octave is
// filtered at half the rate of the one above it, with the signal halved by
// the soxr resampler in between. It is immutable and safe for concurrent use.
type CQT struct {
	cfg CQTConfig
	sr  int
	// Q factor shared by every bin
	qFactor float64
}

func NewCQT(sr int, cfg CQTConfig) (*CQT, error) {
	switch {
	case sr <= 0 || cfg.Hop <= 0 || cfg.NBins <= 0 || cfg.BinsPerOctave <= 0:
		return nil, fmt.Errorf("%w: cqt sr %d, hop %d, %d bins at %d per octave",
			ErrInvalidConfig, sr, cfg.Hop, cfg.NBins, cfg.BinsPerOctave)
	case !(cfg.FMin > 0) || !(cfg.FilterScale > 0):
		return nil, fmt.Errorf("%w: cqt fmin %v, filter scale %v", ErrInvalidConfig, cfg.FMin, cfg.FilterScale)
	case cfg.Sparsity < 0 || cfg.Sparsity >= 1:
		return nil, fmt.Errorf("%w: cqt sparsity %v", ErrInvalidConfig, cfg.Sparsity)
	}

	c := &CQT{cfg: cfg, sr: sr, qFactor: cfg.FilterScale / relativeBandwidth(cfg.BinsPerOctave)}

	// estimated tuning stays within half a bin
	worst := cfg.Tuning
	if cfg.EstimateTuning {
		worst = 0.5
	}
	if err := c.checkCutoff(c.Frequencies(worst)); err != nil {
		return nil, err
	}

	return c, nil
}

// relativeBandwidth is the bandwidth of a bin relative to its center for
// equal temperament at bpo bins per octave.
func relativeBandwidth(bpo int) float64 {
	r := math.Pow(2, 2/float64(bpo))
	return (r - 1) / (r + 1)
}

// Frequencies returns the center frequency of every bin for a tuning offset
// in fractions of a bin.
func (c *CQT) Frequencies(tuning float64) []float64 {
	bpo := float64(c.cfg.BinsPerOctave)
	out := make([]float64, c.cfg.NBins)
	for k := range out {
		out[k] = c.cfg.FMin * math.Pow(2, (float64(k)+tuning)/bpo)
	}

	return out
}

// cutoff is the highest frequency the top filter passes.
func (c *CQT) cutoff(freqs []float64) float64 {
	return freqs[len(freqs)-1] * (1 + 0.5*hannBandwidth/c.qFactor)
}

func (c *CQT) checkCutoff(freqs []float64) error {
	if f := c.cutoff(freqs); f > float64(c.sr)/2 {
		return fmt.Errorf("%w: cqt filters reach %.1f Hz above nyquist %d Hz", ErrInvalidConfig, f, c.sr/2)
	}

	return nil
}

// Frames is the number of columns for a signal of n samples.
func (c *CQT) Frames(n int) int { return 1 + n/c.cfg.Hop }

// Magnitude returns |CQT(y)| as an n_bins x frames matrix, bins ascending
// from FMin. Every bin is scaled by the inverse square root of its filter
// length, so an in-tune sinusoid of amplitude A reads sqrt(Q*sr/f)*A/2.
func (c *CQT) Magnitude(y []float64) (*mat.Dense, error) {
	tuning := c.cfg.Tuning
	if c.cfg.EstimateTuning {
		tuning = c.estimateTuning(y)
	}

	freqs := c.Frequencies(tuning)
	if err := c.checkCutoff(freqs); err != nil {
		return nil, err
	}

	nBins, bpo := c.cfg.NBins, c.cfg.BinsPerOctave
	nOctaves := (nBins + bpo - 1) / bpo
	nFilters := min(bpo, nBins)

	sr, hop := float64(c.sr), c.cfg.Hop

	if count := earlyDownsampleCount(sr/2, c.cutoff(freqs), hop, nOctaves); count > 0 {
		factor := 1 << count
		if len(y) < factor {
			return nil, fmt.Errorf("%w: %d samples are too few to decimate by %d", ErrInvalidConfig, len(y), factor)
		}

		var err error
		if y, err = decimate(y, factor); err != nil {
			return nil, err
		}
		sr /= float64(factor)
		hop /= factor
	}

	type octave struct {
		lo   int
		resp [][]complex128
	}
	octaves := make([]octave, 0, nOctaves)

	mySR, myHop, myY := sr, hop, y
	for i := range nOctaves {
		hi := nBins - nFilters*i
		lo := max(0, hi-nFilters)

		basis, nfft := cqtBasis(mySR, freqs[lo:hi], c.qFactor, c.cfg.Sparsity)
		gain := complex(math.Sqrt(sr/mySR), 0)
		for _, row := range basis {
			for j := range row.val {
				row.val[j] *= gain
			}
		}
		octaves = append(octaves, octave{lo: lo, resp: cqtResponse(myY, nfft, myHop, basis)})

		if i == nOctaves-1 || myHop%2 != 0 {
			break
		}
		myHop /= 2
		mySR /= 2

		var err error
		if myY, err = decimate(myY, 2); err != nil {
			return nil, err
		}
	}

	frames := math.MaxInt
	for _, o := range octaves {
		frames = min(frames, len(o.resp[0]))
	}

	out := mat.NewDense(nBins, frames, nil)
	for _, o := range octaves {
		for k, row := range o.resp {
			bin := o.lo + k
			scale := 1 / math.Sqrt(c.qFactor*sr/freqs[bin])
			dst := out.RawRowView(bin)
			for t := range frames {
				dst[t] = cmplx.Abs(row[t]) * scale
			}
		}
	}

	return out, nil
}

// estimateTuning tracks pitches over a 2048 point STFT of y.
func (c *CQT) estimateTuning(y []float64) float64 {
	const nfft = 2048

	stft, err := dsp.NewSTFT(nfft, nfft/4)
	if err != nil {
		return 0
	}

	return EstimateTuning(stft.Forward(y).Magnitude(1), c.sr, nfft, DefaultTuningResolution, c.cfg.BinsPerOctave)
}

// earlyDownsampleCount is how many times the signal can be halved before the
// first octave without the top filter crossing the resampler's passband and
// while the hop stays divisible through every octave.
func earlyDownsampleCount(nyquist, cutoff float64, hop, nOctaves int) int {
	byBand := max(0, int(math.Ceil(math.Log2(fastestRolloff*nyquist/cutoff)))-2)

	twos := 0
	for h := hop; h > 0 && h%2 == 0; h /= 2 {
		twos++
	}
	byHop := max(0, twos-nOctaves+1)

	return min(byBand, byHop)
}

// decimate reduces y by factor with the soxr resampler, scaling by the square
// root of factor to keep the energy per octave.
func decimate(y []float64, factor int) ([]float64, error) {
	if len(y) == 0 {
		return y, nil
	}

	out, err := audio.ResampleSamples(y, factor, 1)
	if err != nil {
		return nil, fmt.Errorf("cqt downsampling: %w", err)
	}
	floats.Scale(math.Sqrt(float64(factor)), out)

	return out, nil
}

// sparseRow holds the retained FFT bins of one filter.
type sparseRow struct {
	idx []int
	val []complex128
}

// cqtBasis builds the FFT of a Hann windowed complex exponential per
// frequency, each Q*sr/f samples long and L1 normalized, centered in the
// smallest power of two that fits the longest one. Coefficients holding the
// smallest sparsity fraction of a row's magnitude are dropped.
func cqtBasis(sr float64, freqs []float64, q, sparsity float64) ([]sparseRow, int) {
	lengths := make([]float64, len(freqs))
	for k, f := range freqs {
		lengths[k] = q * sr / f
	}

	nfft := 1 << int(math.Ceil(math.Log2(slices.Max(lengths))))
	bins := nfft/2 + 1

	fft := fourier.NewCFFT(nfft)
	seq := make([]complex128, nfft)
	coeff := make([]complex128, nfft)

	out := make([]sparseRow, len(freqs))
	for k, f := range freqs {
		l := lengths[k]
		first := int(math.Floor(-l / 2))
		n := int(math.Floor(l/2)) - first
		win := dsp.Hann(n)

		clear(seq)
		pad := (nfft - n) / 2
		norm := floats.Sum(win)
		for j := range n {
			phase := float64(first+j) * 2 * math.Pi * f / sr
			seq[pad+j] = cmplx.Rect(win[j]/norm*l/float64(nfft), phase)
		}

		coeff = fft.Coefficients(coeff, seq)
		out[k] = sparsify(coeff[:bins], sparsity)
	}

	return out, nfft
}

// sparsify keeps the coefficients of row at or above the magnitude below
// which the smallest ones add up to less than quantile of the total.
func sparsify(row []complex128, quantile float64) sparseRow {
	mags := make([]float64, len(row))
	for i, v := range row {
		mags[i] = cmplx.Abs(v)
	}
	total := floats.Sum(mags)

	sorted := slices.Clone(mags)
	slices.Sort(sorted)

	threshold := 0.0
	if total > 0 {
		var cum float64
		for _, m := range sorted {
			cum += m / total
			if cum >= quantile {
				threshold = m
				break
			}
		}
	}

	var s sparseRow
	for i, m := range mags {
		if m >= threshold {
			s.idx = append(s.idx, i)
			s.val = append(s.val, row[i])
		}
	}

	return s
}

// cqtResponse applies basis to the rectangular-window STFT of y, centered
// with nfft/2 zeros at both ends. The result is len(basis) x frames.
func cqtResponse(y []float64, nfft, hop int, basis []sparseRow) [][]complex128 {
	pad := nfft / 2
	padded := make([]float64, len(y)+2*pad)
	copy(padded[pad:], y)

	frames := 1 + len(y)/hop

	out := make([][]complex128, len(basis))
	for k := range out {
		out[k] = make([]complex128, frames)
	}

	fft := fourier.NewFFT(nfft)
	coeff := make([]complex128, nfft/2+1)

	for t := range frames {
		start := t * hop
		coeff = fft.Coefficients(coeff, padded[start:start+nfft])
		for k, row := range basis {
			var acc complex128
			for j, b := range row.idx {
				acc += row.val[j] * coeff[b]
			}
			out[k][t] = acc
		}
	}

	return out
}
