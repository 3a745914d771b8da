// SPDX-License-Identifier: EPL-2.0

package tensor

import "errors"

var (
	// ErrShapeMismatch is returned when a tensor's shape differs from the
	// expected one.
	ErrShapeMismatch = errors.New("tensor shape mismatch")

	// ErrInvalidShape is returned for shapes with non-positive dimensions or
	// whose element count does not match the data.
	ErrInvalidShape = errors.New("invalid tensor shape")

	// ErrUnknownEncoding is returned by ParseEncoding, Encode and Decode.
	ErrUnknownEncoding = errors.New("unknown tensor encoding")
)
