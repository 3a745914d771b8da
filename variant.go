// SPDX-License-Identifier: EPL-2.0

package cryfeat

import (
	"fmt"
	"strings"
)

// Variant selects one of the feature representations.
type Variant string

const (
	// VariantMel is a dB mel spectrogram resized to a square image.
	VariantMel Variant = "mel"
	// VariantMFCC is a standardized, time-major MFCC sequence.
	VariantMFCC Variant = "mfcc"
	// VariantCombined is mean chroma, tonnetz and spectral contrast.
	VariantCombined Variant = "combined"
)

// Variants lists every variant in a stable order.
func Variants() []Variant {
	return []Variant{VariantMel, VariantMFCC, VariantCombined}
}

// ParseVariant is case insensitive.
func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	if !v.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
	}

	return v, nil
}

// Valid reports whether v names a known variant.
func (v Variant) Valid() bool {
	switch v {
	case VariantMel, VariantMFCC, VariantCombined:
		return true
	}
	return false
}

func (v Variant) String() string { return string(v) }

func (v Variant) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, string(v))
	}
	return []byte(v), nil
}

func (v *Variant) UnmarshalText(b []byte) error {
	p, err := ParseVariant(string(b))
	if err != nil {
		return err
	}
	*v = p
	return nil
}
