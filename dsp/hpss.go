// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// HPSSConfig parameterizes median-filtering harmonic/percussive separation.
type HPSSConfig struct {
	// Kernel is the median filter width in frames (harmonic) and bins (percussive).
	Kernel int
	// Power is the soft mask exponent.
	Power float64
	// Margin scales the competing component; 1 gives complementary masks.
	Margin float64
}

// DefaultHPSSConfig matches librosa.effects.harmonic.
func DefaultHPSSConfig() HPSSConfig {
	return HPSSConfig{Kernel: 31, Power: 2, Margin: 1}
}

// HPSS splits spec into harmonic and percussive spectra. The magnitude is
// median filtered along time for the harmonic estimate and along frequency for
// the percussive one; each output is spec multiplied by its soft mask.
func HPSS(spec Spectrum, cfg HPSSConfig) (harmonic, percussive Spectrum, err error) {
	if cfg.Kernel <= 0 || cfg.Margin < 1 {
		return nil, nil, fmt.Errorf("%w: kernel %d, margin %v", ErrInvalidSize, cfg.Kernel, cfg.Margin)
	}

	mag := spec.Magnitude(1)

	harm, err := MedianFilter(mag, cfg.Kernel, AlongRows)
	if err != nil {
		return nil, nil, fmt.Errorf("harmonic filter: %w", err)
	}
	perc, err := MedianFilter(mag, cfg.Kernel, AlongCols)
	if err != nil {
		return nil, nil, fmt.Errorf("percussive filter: %w", err)
	}

	split := cfg.Margin == 1

	var scaledPerc, scaledHarm mat.Dense
	scaledPerc.Scale(cfg.Margin, perc)
	scaledHarm.Scale(cfg.Margin, harm)

	maskH := SoftMask(harm, &scaledPerc, cfg.Power, split)
	maskP := SoftMask(perc, &scaledHarm, cfg.Power, split)

	return applyMask(spec, maskH), applyMask(spec, maskP), nil
}

// SoftMask returns x^p / (x^p + ref^p) computed on values scaled by
// max(x, ref). Where both are below Tiny the mask is 0.5 when splitZeros is
// set and 0 otherwise.
func SoftMask(x, ref mat.Matrix, power float64, splitZeros bool) *mat.Dense {
	rows, cols := x.Dims()
	out := mat.NewDense(rows, cols, nil)

	fill := 0.0
	if splitZeros {
		fill = 0.5
	}

	for i := range rows {
		for j := range cols {
			a, b := x.At(i, j), ref.At(i, j)
			z := math.Max(a, b)
			if z < Tiny {
				out.Set(i, j, fill)
				continue
			}

			ma := math.Pow(a/z, power)
			mb := math.Pow(b/z, power)
			out.Set(i, j, ma/(ma+mb))
		}
	}

	return out
}

func applyMask(spec Spectrum, mask mat.Matrix) Spectrum {
	out := make(Spectrum, len(spec))
	for b, row := range spec {
		out[b] = make([]complex128, len(row))
		for t, v := range row {
			out[b][t] = v * complex(mask.At(b, t), 0)
		}
	}

	return out
}

// Harmonic returns the harmonic part of y, reconstructed to len(y) samples.
func Harmonic(y []float64, stft *STFT, cfg HPSSConfig) ([]float64, error) {
	harmonic, _, err := HPSS(stft.Forward(y), cfg)
	if err != nil {
		return nil, err
	}

	return stft.Inverse(harmonic, len(y)), nil
}
