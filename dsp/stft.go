// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"
)

// Spectrum is a complex STFT laid out bin-major: Spectrum[bin][frame].
type Spectrum [][]complex128

// Bins is the number of frequency rows.
func (s Spectrum) Bins() int { return len(s) }

// Frames is the number of time columns.
func (s Spectrum) Frames() int {
	if len(s) == 0 {
		return 0
	}
	return len(s[0])
}

// Magnitude returns |S|^power as a bins x frames matrix.
func (s Spectrum) Magnitude(power float64) *mat.Dense {
	out := mat.NewDense(max(s.Bins(), 1), max(s.Frames(), 1), nil)
	for b, row := range s {
		for t, v := range row {
			var m float64
			switch power {
			case 2:
				m = real(v)*real(v) + imag(v)*imag(v)
			case 1:
				m = cmplx.Abs(v)
			default:
				m = math.Pow(cmplx.Abs(v), power)
			}
			out.Set(b, t, m)
		}
	}

	return out
}

// STFT holds the window for a fixed FFT size and hop. It is immutable and safe
// for concurrent use; FFT plans are created per call.
type STFT struct {
	nfft   int
	hop    int
	window []float64
}

func NewSTFT(nfft, hop int) (*STFT, error) {
	if nfft < 2 || nfft%2 != 0 || hop <= 0 {
		return nil, fmt.Errorf("%w: n_fft %d, hop %d", ErrInvalidFrame, nfft, hop)
	}

	return &STFT{nfft: nfft, hop: hop, window: Hann(nfft)}, nil
}

func (s *STFT) NFFT() int { return s.nfft }
func (s *STFT) Hop() int  { return s.hop }

// Bins is the number of non-negative frequency bins, n_fft/2 + 1.
func (s *STFT) Bins() int { return s.nfft/2 + 1 }

// Frames is the number of centered frames for a signal of n samples.
func (s *STFT) Frames(n int) int { return 1 + n/s.hop }

// Frequencies returns the center frequency of every bin for sample rate sr.
func (s *STFT) Frequencies(sr int) []float64 {
	out := make([]float64, s.Bins())
	for i := range out {
		out[i] = float64(i) * float64(sr) / float64(s.nfft)
	}

	return out
}

// Forward computes the centered STFT of y with zero padding of n_fft/2 at
// both ends.
func (s *STFT) Forward(y []float64) Spectrum {
	pad := s.nfft / 2
	padded := make([]float64, len(y)+2*pad)
	copy(padded[pad:], y)

	frames := s.Frames(len(y))
	bins := s.Bins()

	out := make(Spectrum, bins)
	for b := range out {
		out[b] = make([]complex128, frames)
	}

	fft := fourier.NewFFT(s.nfft)
	seg := make([]float64, s.nfft)
	coeff := make([]complex128, bins)

	for t := range frames {
		start := t * s.hop
		for i := range seg {
			seg[i] = padded[start+i] * s.window[i]
		}
		coeff = fft.Coefficients(coeff, seg)
		for b, c := range coeff {
			out[b][t] = c
		}
	}

	return out
}

// Power is |Forward(y)|^2.
func (s *STFT) Power(y []float64) *mat.Dense {
	return s.Forward(y).Magnitude(2)
}

// Inverse reconstructs a signal of exactly length samples by windowed
// overlap-add, normalized by the summed squared window wherever that sum is
// above Tiny.
func (s *STFT) Inverse(spec Spectrum, length int) []float64 {
	frames := spec.Frames()
	total := s.nfft + s.hop*max(frames-1, 0)

	y := make([]float64, total)
	norm := make([]float64, total)

	fft := fourier.NewFFT(s.nfft)
	coeff := make([]complex128, s.Bins())
	seq := make([]float64, s.nfft)
	scale := 1 / float64(s.nfft)

	for t := range frames {
		for b := range coeff {
			coeff[b] = spec[b][t]
		}
		seq = fft.Sequence(seq, coeff)

		start := t * s.hop
		for i, v := range seq {
			w := s.window[i]
			y[start+i] += v * scale * w
			norm[start+i] += w * w
		}
	}

	for i := range y {
		if norm[i] > Tiny {
			y[i] /= norm[i]
		}
	}

	// drop the centering pad and fix the length
	out := make([]float64, max(length, 0))
	pad := s.nfft / 2
	if pad < len(y) {
		copy(out, y[pad:])
	}

	return out
}
