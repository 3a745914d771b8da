// SPDX-License-Identifier: EPL-2.0

package predict

import "errors"

var (
	// ErrModel marks a failing model or an unusable probability vector.
	ErrModel = errors.New("model prediction failed")

	// ErrLabel marks a class index the label decoder cannot name.
	ErrLabel = errors.New("label decoding failed")
)
