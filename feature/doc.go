// SPDX-License-Identifier: EPL-2.0

// Package feature computes spectral features from mono signals: mel
// spectrograms, MFCCs, chroma, tonnetz and spectral contrast.
//
// Chroma comes in two forms: ChromaSTFT folds a power spectrogram and
// ChromaCQT folds a multirate constant-Q transform. Tonnetz is meant to be fed
// the constant-Q form.
//
// Each feature has a constructor that precomputes its filterbank and window
// once. The resulting values are read-only and safe for concurrent use:
//
//	mel, err := feature.NewMel(16000, feature.DefaultMelConfig())
//	S := mel.Spectrogram(samples) // 128 x frames power
//	db := feature.PowerToDB(S, mat.Max(S), 80)
//
// Matrices are gonum Dense values with one row per band and one column per
// frame.
package feature
