// SPDX-License-Identifier: EPL-2.0

package cryfeat

import (
	"errors"
	"fmt"

	"github.com/ik5/cryfeat/audio"
	"github.com/ik5/cryfeat/feature"
	"github.com/ik5/cryfeat/tensor"
)

// Error kinds. They alias the sentinels of the packages that raise them, so
// errors.Is works the same against either name.
var (
	// ErrDecode marks input that is not parseable audio.
	ErrDecode = audio.ErrDecode

	// ErrDegenerateSignal marks silent or constant input under SilenceReject,
	// or a standardization whose spread is below Config.Epsilon.
	ErrDegenerateSignal = feature.ErrDegenerateSignal

	// ErrShapeMismatch marks a finalized tensor of the wrong shape.
	ErrShapeMismatch = tensor.ErrShapeMismatch

	// ErrInvalidConfig marks a Config no extractor can be built from.
	ErrInvalidConfig = feature.ErrInvalidConfig

	ErrUnknownVariant = errors.New("unknown feature variant")
)

// Stage names a step of a pipeline.
type Stage string

const (
	StageLoad      Stage = "load"
	StageNormalize Stage = "normalize"
	StageTrim      Stage = "trim"
	StageFix       Stage = "fix_length"
	StageTransform Stage = "transform"
	StageFinalize  Stage = "finalize"
)

// StageError records which variant and stage failed.
type StageError struct {
	Variant Variant
	Stage   Stage
	Err     error
}

func (e *StageError) Error() string {
	if e.Variant == "" {
		return fmt.Sprintf("cryfeat: %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("cryfeat: %s: %s: %v", e.Variant, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Kind returns the first error kind err matches, for logs and status
// mapping: ErrDecode, ErrDegenerateSignal, ErrShapeMismatch, ErrInvalidConfig
// or ErrUnknownVariant. Other errors return nil.
func Kind(err error) error {
	for _, k := range []error{ErrDecode, ErrDegenerateSignal, ErrShapeMismatch, ErrInvalidConfig, ErrUnknownVariant} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
