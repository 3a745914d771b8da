// SPDX-License-Identifier: EPL-2.0

package feature

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// MFCCConfig parameterizes MFCC extraction.
type MFCCConfig struct {
	NMFCC int
	Mel   MelConfig
	// TopDB clips the log-mel spectrogram before the DCT.
	TopDB float64
}

// DefaultMFCCConfig matches librosa.feature.mfcc with 40 coefficients.
func DefaultMFCCConfig() MFCCConfig {
	return MFCCConfig{NMFCC: 40, Mel: DefaultMelConfig(), TopDB: 80}
}

// DCTMatrix returns the k x n orthonormal DCT-II basis: row j holds
// s_j*cos(pi*j*(2i+1)/(2n)) with s_0 = sqrt(1/n) and s_j = sqrt(2/n).
func DCTMatrix(k, n int) *mat.Dense {
	out := mat.NewDense(k, n, nil)
	for j := range k {
		s := math.Sqrt(2 / float64(n))
		if j == 0 {
			s = math.Sqrt(1 / float64(n))
		}

		row := out.RawRowView(j)
		for i := range row {
			row[i] = s * math.Cos(math.Pi*float64(j)*float64(2*i+1)/float64(2*n))
		}
	}

	return out
}

// MFCC computes cepstral coefficients with a precomputed mel bank and DCT.
type MFCC struct {
	cfg MFCCConfig
	mel *Mel
	dct *mat.Dense
}

func NewMFCC(sr int, cfg MFCCConfig) (*MFCC, error) {
	if cfg.NMFCC <= 0 || cfg.NMFCC > cfg.Mel.NMels {
		return nil, fmt.Errorf("%w: %d coefficients from %d mel bands", ErrInvalidConfig, cfg.NMFCC, cfg.Mel.NMels)
	}

	mel, err := NewMel(sr, cfg.Mel)
	if err != nil {
		return nil, err
	}

	return &MFCC{cfg: cfg, mel: mel, dct: DCTMatrix(cfg.NMFCC, cfg.Mel.NMels)}, nil
}

// Coefficients returns the n_mfcc x frames MFCC matrix of y.
func (m *MFCC) Coefficients(y []float64) *mat.Dense {
	logMel := PowerToDB(m.mel.Spectrogram(y), 1, m.cfg.TopDB)

	_, frames := logMel.Dims()
	out := mat.NewDense(m.cfg.NMFCC, frames, nil)
	out.Mul(m.dct, logMel)

	return out
}

// MFCCs is a one-shot NewMFCC followed by Coefficients.
func MFCCs(y []float64, sr int, cfg MFCCConfig) (*mat.Dense, error) {
	m, err := NewMFCC(sr, cfg)
	if err != nil {
		return nil, err
	}

	return m.Coefficients(y), nil
}

// Standardize subtracts the global mean and divides by the global population
// standard deviation. A deviation below eps (or non-finite) returns a zero
// matrix together with ErrDegenerateSignal.
func Standardize(M mat.Matrix, eps float64) (*mat.Dense, error) {
	out := mat.DenseCopyOf(M)
	data := out.RawMatrix().Data

	mean, std := stat.PopMeanStdDev(data, nil)
	if std < eps || math.IsNaN(std) || math.IsInf(std, 0) {
		out.Zero()
		return out, fmt.Errorf("%w: standard deviation %g", ErrDegenerateSignal, std)
	}

	for i, v := range data {
		data[i] = (v - mean) / std
	}

	return out, nil
}

// FixFrames returns M with exactly n columns, zero padding on the right or
// keeping the first n.
func FixFrames(M mat.Matrix, n int) (*mat.Dense, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d frames", ErrInvalidConfig, n)
	}

	rows, cols := M.Dims()
	out := mat.NewDense(rows, n, nil)
	for i := range rows {
		for j := range min(cols, n) {
			out.Set(i, j, M.At(i, j))
		}
	}

	return out, nil
}
