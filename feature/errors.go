// SPDX-License-Identifier: EPL-2.0

package feature

import "errors"

var (
	// ErrDegenerateSignal is returned when a normalization would divide by a
	// (near) zero spread, as for silent input.
	ErrDegenerateSignal = errors.New("degenerate signal")

	// ErrInvalidConfig is returned for sizes or frequencies a feature cannot use.
	ErrInvalidConfig = errors.New("invalid feature config")
)
