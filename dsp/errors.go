// SPDX-License-Identifier: EPL-2.0

package dsp

import "errors"

var (
	// ErrInvalidFrame is returned for non-positive or odd FFT sizes and hops.
	ErrInvalidFrame = errors.New("invalid frame parameters")

	// ErrInvalidSize is returned when a resize or filter target is not positive.
	ErrInvalidSize = errors.New("invalid size")
)
