// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize = errors.New("dst size must be multiple of channels")

	// ErrDecode marks every failure to turn the input bytes into samples.
	ErrDecode = errors.New("audio decode failed")

	// ErrEmptyInput is returned when the input stream holds no bytes or no samples.
	ErrEmptyInput = errors.New("empty audio input")

	// ErrUnknownFormat is returned when the container cannot be identified.
	ErrUnknownFormat = errors.New("unknown audio format")

	// ErrNoDecoder is returned when the format is known but nothing is registered for it.
	ErrNoDecoder = errors.New("no decoder registered for format")

	// ErrSilentBuffer is returned by PeakNormalize for an all-zero buffer.
	ErrSilentBuffer = errors.New("buffer is silent")

	// ErrInvalidLength is returned for negative target lengths.
	ErrInvalidLength = errors.New("invalid target length")

	// ErrInvalidRate is returned for non-positive sample rates.
	ErrInvalidRate = errors.New("invalid sample rate")
)
