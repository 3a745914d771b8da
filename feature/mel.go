// SPDX-License-Identifier: EPL-2.0

package feature

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ik5/cryfeat/dsp"
)

// Slaney mel scale: linear below 1 kHz, logarithmic above.
const (
	melFSp       = 200.0 / 3
	melMinLogHz  = 1000.0
	melMinLogMel = melMinLogHz / melFSp
)

var melLogStep = math.Log(6.4) / 27

// HzToMel converts a frequency to the Slaney mel scale.
func HzToMel(f float64) float64 {
	if f >= melMinLogHz {
		return melMinLogMel + math.Log(f/melMinLogHz)/melLogStep
	}

	return f / melFSp
}

// MelToHz is the inverse of HzToMel.
func MelToHz(m float64) float64 {
	if m >= melMinLogMel {
		return melMinLogHz * math.Exp(melLogStep*(m-melMinLogMel))
	}

	return melFSp * m
}

// MelConfig parameterizes the mel spectrogram.
type MelConfig struct {
	NFFT  int
	Hop   int
	NMels int
	FMin  float64
	// FMax of 0 means the Nyquist frequency.
	FMax  float64
	Power float64
}

// DefaultMelConfig matches librosa.feature.melspectrogram defaults.
func DefaultMelConfig() MelConfig {
	return MelConfig{NFFT: 2048, Hop: 512, NMels: 128, Power: 2}
}

// MelFilterbank builds nMels triangular filters over the nfft/2+1 FFT bins,
// with Slaney area normalization so each filter has unit area in Hz.
func MelFilterbank(sr, nfft, nMels int, fmin, fmax float64) (*mat.Dense, error) {
	if sr <= 0 || nfft <= 0 || nMels <= 0 || fmin < 0 || fmax <= fmin {
		return nil, fmt.Errorf("%w: sr %d, n_fft %d, n_mels %d, fmin %v, fmax %v", ErrInvalidConfig, sr, nfft, nMels, fmin, fmax)
	}

	bins := nfft/2 + 1
	fftFreqs := make([]float64, bins)
	for i := range fftFreqs {
		fftFreqs[i] = float64(i) * float64(sr) / float64(nfft)
	}

	lo, hi := HzToMel(fmin), HzToMel(fmax)
	melF := make([]float64, nMels+2)
	for i := range melF {
		melF[i] = MelToHz(lo + (hi-lo)*float64(i)/float64(nMels+1))
	}

	weights := mat.NewDense(nMels, bins, nil)
	for m := range nMels {
		lower := melF[m+1] - melF[m]
		upper := melF[m+2] - melF[m+1]
		enorm := 2 / (melF[m+2] - melF[m])

		row := weights.RawRowView(m)
		for k, f := range fftFreqs {
			up := (f - melF[m]) / lower
			down := (melF[m+2] - f) / upper
			row[k] = math.Max(0, math.Min(up, down)) * enorm
		}
	}

	return weights, nil
}

// Mel computes power mel spectrograms with a precomputed filterbank.
type Mel struct {
	cfg  MelConfig
	stft *dsp.STFT
	bank *mat.Dense
}

func NewMel(sr int, cfg MelConfig) (*Mel, error) {
	if cfg.FMax == 0 {
		cfg.FMax = float64(sr) / 2
	}
	if cfg.Power <= 0 {
		return nil, fmt.Errorf("%w: power %v", ErrInvalidConfig, cfg.Power)
	}

	stft, err := dsp.NewSTFT(cfg.NFFT, cfg.Hop)
	if err != nil {
		return nil, fmt.Errorf("mel stft: %w", err)
	}

	bank, err := MelFilterbank(sr, cfg.NFFT, cfg.NMels, cfg.FMin, cfg.FMax)
	if err != nil {
		return nil, err
	}

	return &Mel{cfg: cfg, stft: stft, bank: bank}, nil
}

// Config returns the resolved configuration.
func (m *Mel) Config() MelConfig { return m.cfg }

// Filterbank returns the n_mels x bins weights. Callers must not modify it.
func (m *Mel) Filterbank() *mat.Dense { return m.bank }

// Spectrogram returns the n_mels x frames mel spectrogram of y.
func (m *Mel) Spectrogram(y []float64) *mat.Dense {
	spec := m.stft.Forward(y).Magnitude(m.cfg.Power)

	_, frames := spec.Dims()
	out := mat.NewDense(m.cfg.NMels, frames, nil)
	out.Mul(m.bank, spec)

	return out
}

// MelSpectrogram is a one-shot NewMel followed by Spectrogram.
func MelSpectrogram(y []float64, sr int, cfg MelConfig) (*mat.Dense, error) {
	mel, err := NewMel(sr, cfg)
	if err != nil {
		return nil, err
	}

	return mel.Spectrogram(y), nil
}
