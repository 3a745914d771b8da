// SPDX-License-Identifier: EPL-2.0

package feature

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/ik5/cryfeat/dsp"
)

// ContrastConfig parameterizes octave-band spectral contrast.
type ContrastConfig struct {
	NFFT   int
	Hop    int
	NBands int
	// FMin is the upper edge of the lowest band.
	FMin     float64
	Quantile float64
	TopDB    float64
}

// DefaultContrastConfig matches librosa.feature.spectral_contrast.
func DefaultContrastConfig() ContrastConfig {
	return ContrastConfig{NFFT: 2048, Hop: 512, NBands: 6, FMin: 200, Quantile: 0.02, TopDB: 80}
}

// contrastBand is an inclusive bin range and the number of bins averaged at
// each end.
type contrastBand struct {
	lo, hi int
	take   int
}

// Contrast measures, per octave band and frame, the dB difference between
// spectral peaks and valleys. It returns n_bands+1 rows; the last row covers
// everything above the top octave.
type Contrast struct {
	cfg   ContrastConfig
	stft  *dsp.STFT
	bands []contrastBand
}

func NewContrast(sr int, cfg ContrastConfig) (*Contrast, error) {
	if cfg.FMin <= 0 || cfg.NBands < 1 || cfg.Quantile <= 0 || cfg.Quantile >= 1 {
		return nil, fmt.Errorf("%w: fmin %v, bands %d, quantile %v", ErrInvalidConfig, cfg.FMin, cfg.NBands, cfg.Quantile)
	}

	stft, err := dsp.NewSTFT(cfg.NFFT, cfg.Hop)
	if err != nil {
		return nil, fmt.Errorf("contrast stft: %w", err)
	}

	// octave edges 0, fmin, 2fmin, ... fmin*2^nBands
	octa := make([]float64, cfg.NBands+2)
	for i := 1; i < len(octa); i++ {
		octa[i] = cfg.FMin * math.Pow(2, float64(i-1))
	}
	if octa[len(octa)-2] >= float64(sr)/2 {
		return nil, fmt.Errorf("%w: band edge %v Hz above Nyquist", ErrInvalidConfig, octa[len(octa)-2])
	}

	freqs := stft.Frequencies(sr)
	nBins := len(freqs)

	bands := make([]contrastBand, 0, cfg.NBands+1)
	for k := range cfg.NBands + 1 {
		lo, hi := -1, -1
		for b, f := range freqs {
			if f >= octa[k] && f <= octa[k+1] {
				if lo < 0 {
					lo = b
				}
				hi = b
			}
		}
		if lo < 0 {
			return nil, fmt.Errorf("%w: band %d has no bins", ErrInvalidConfig, k)
		}

		if k > 0 {
			lo--
		}
		if k == cfg.NBands {
			hi = nBins - 1
		}

		count := hi - lo + 1
		take := max(int(math.RoundToEven(cfg.Quantile*float64(count))), 1)

		if k < cfg.NBands {
			hi--
		}

		bands = append(bands, contrastBand{lo: lo, hi: hi, take: take})
	}

	return &Contrast{cfg: cfg, stft: stft, bands: bands}, nil
}

// STFT returns the transform whose magnitude spectra FromMagnitude expects.
func (c *Contrast) STFT() *dsp.STFT { return c.stft }

// FromMagnitude computes contrast from a magnitude spectrogram.
func (c *Contrast) FromMagnitude(S mat.Matrix) *mat.Dense {
	_, frames := S.Dims()
	rows := len(c.bands)

	peak := mat.NewDense(rows, frames, nil)
	valley := mat.NewDense(rows, frames, nil)

	for k, band := range c.bands {
		sub := make([]float64, band.hi-band.lo+1)
		take := min(band.take, len(sub))

		for t := range frames {
			for i := range sub {
				sub[i] = S.At(band.lo+i, t)
			}
			slices.Sort(sub)

			var lo, hi float64
			for i := range take {
				lo += sub[i]
				hi += sub[len(sub)-1-i]
			}
			valley.Set(k, t, lo/float64(take))
			peak.Set(k, t, hi/float64(take))
		}
	}

	out := PowerToDB(peak, 1, c.cfg.TopDB)
	out.Sub(out, PowerToDB(valley, 1, c.cfg.TopDB))

	return out
}

// Compute returns the contrast of y.
func (c *Contrast) Compute(y []float64) *mat.Dense {
	return c.FromMagnitude(c.stft.Forward(y).Magnitude(1))
}

// SpectralContrast is a one-shot NewContrast followed by Compute.
func SpectralContrast(y []float64, sr int, cfg ContrastConfig) (*mat.Dense, error) {
	c, err := NewContrast(sr, cfg)
	if err != nil {
		return nil, err
	}

	return c.Compute(y), nil
}
