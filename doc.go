// SPDX-License-Identifier: EPL-2.0

// Package cryfeat extracts the acoustic feature tensors that infant cry
// classifiers consume.
//
// A clip goes through a fixed sequence of stages: it is decoded and mixed
// down to mono at 16 kHz, fixed to a four second window, transformed and
// finally shaped into the tensor the paired model expects. Three variants
// share the loader and the length fixer:
//
//   - VariantMel: peak normalization, silence trimming, a dB mel
//     spectrogram relative to its own maximum, bilinearly resized to
//     (128,128,1).
//   - VariantMFCC: 40 MFCCs standardized over the whole matrix, fixed to 100
//     frames and transposed to (100,40).
//   - VariantCombined: time averages of chroma (12), tonnetz of the harmonic
//     component (6) and spectral contrast (7), shaped (1,25,1).
//
// # Quick Start
//
//	p, err := cryfeat.NewPipeline(cryfeat.DefaultConfig())
//	if err != nil {
//		return err
//	}
//
//	f, _ := os.Open("cry.wav")
//	defer f.Close()
//
//	t, err := p.Extract(ctx, cryfeat.VariantMel, f)
//	// t.Shape is [128 128 1]
//
//	in, err := cryfeat.Batch(cryfeat.VariantMel, t)
//	// in.Shape is [1 128 128 1], ready for a model
//
// # Silence
//
// A silent clip would divide by zero in peak normalization, and a constant
// coefficient matrix in standardization. A window held at one DC level
// carries no more signal than silence. Config.Silence picks the outcome:
// SilenceZero (the default) substitutes zeros and marks Steps.Degenerate,
// SilenceReject fails with ErrDegenerateSignal.
//
// # Errors
//
// Failures are *StageError values naming the variant and stage. Use
// errors.Is with ErrDecode, ErrDegenerateSignal or ErrShapeMismatch to
// tell the kinds apart, or Kind to get the matching one.
//
// # Concurrency
//
// Extractors and Pipeline are immutable once built and safe for concurrent
// use. Every call checks its context between stages.
package cryfeat
