// SPDX-License-Identifier: EPL-2.0

// Package dsp holds the signal primitives the feature extractors are built
// from: a centered short-time Fourier transform and its inverse, silence
// trimming, median filtering, harmonic/percussive separation and bilinear
// image resizing.
//
// Spectrograms are gonum matrices laid out frequency-major: one row per FFT
// bin, one column per frame. The numerics follow librosa's defaults (periodic
// Hann window, zero padding of n_fft/2 on both ends) so a 4 s clip at 16 kHz
// with n_fft 2048 and hop 512 gives 1025 bins by 126 frames.
package dsp
