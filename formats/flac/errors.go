// SPDX-License-Identifier: EPL-2.0

package flac

import "errors"

var (
	// ErrNotFlacFile indicates the stream has no fLaC marker or STREAMINFO block.
	ErrNotFlacFile = errors.New("not a FLAC stream")

	// ErrUnsupportedLayout indicates STREAMINFO values the decoder cannot use.
	ErrUnsupportedLayout = errors.New("unsupported FLAC layout")
)
