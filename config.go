// SPDX-License-Identifier: EPL-2.0

package cryfeat

import (
	"fmt"
	"math"
	"time"

	"github.com/ik5/cryfeat/dsp"
	"github.com/ik5/cryfeat/feature"
)

// SilencePolicy chooses what happens when a clip is silent or constant and a
// normalization would divide by zero.
type SilencePolicy int

const (
	// SilenceZero substitutes zeros for the undefined values and carries on,
	// so a silent clip still yields a finite tensor.
	SilenceZero SilencePolicy = iota
	// SilenceReject fails with ErrDegenerateSignal.
	SilenceReject
)

var silenceNames = map[SilencePolicy]string{
	SilenceZero:   "zero",
	SilenceReject: "reject",
}

func (p SilencePolicy) String() string {
	if s, ok := silenceNames[p]; ok {
		return s
	}
	return fmt.Sprintf("SilencePolicy(%d)", int(p))
}

// ParseSilencePolicy accepts "zero" or "reject".
func ParseSilencePolicy(s string) (SilencePolicy, error) {
	for p, name := range silenceNames {
		if name == s {
			return p, nil
		}
	}

	return 0, fmt.Errorf("%w: silence policy %q", ErrInvalidConfig, s)
}

func (p SilencePolicy) MarshalText() ([]byte, error) {
	if _, ok := silenceNames[p]; !ok {
		return nil, fmt.Errorf("%w: silence policy %d", ErrInvalidConfig, int(p))
	}
	return []byte(p.String()), nil
}

func (p *SilencePolicy) UnmarshalText(b []byte) error {
	v, err := ParseSilencePolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Config holds every tunable of the three pipelines. It is a plain value:
// extractors copy it at construction and never change it.
type Config struct {
	// SampleRate every clip is resampled to.
	SampleRate int
	// Duration of the fixed analysis window.
	Duration time.Duration
	// Silence decides how degenerate clips are handled.
	Silence SilencePolicy
	// Epsilon is the smallest standard deviation Standardize accepts.
	Epsilon float64

	// Silence trimming, mel variant only.
	TrimTopDB float64
	TrimFrame int
	TrimHop   int

	Mel      feature.MelConfig
	MelTopDB float64
	// MelSize is the side of the square mel image.
	MelSize int

	MFCC feature.MFCCConfig
	// MFCCFrames is the fixed number of time steps of the MFCC tensor.
	MFCCFrames int

	Chroma feature.ChromaConfig
	HPSS   dsp.HPSSConfig
	// Tonnetz is the constant-Q chroma the tonal centroids are projected
	// from.
	Tonnetz  feature.ChromaCQTConfig
	Contrast feature.ContrastConfig
}

// DefaultConfig returns the parameters the pre-trained models were fitted
// with: 16 kHz, 4 s windows, librosa defaults for every transform.
func DefaultConfig() Config {
	return Config{
		SampleRate: 16000,
		Duration:   4 * time.Second,
		Silence:    SilenceZero,
		Epsilon:    1e-8,

		TrimTopDB: 60,
		TrimFrame: 2048,
		TrimHop:   512,

		Mel:      feature.DefaultMelConfig(),
		MelTopDB: 80,
		MelSize:  128,

		MFCC:       feature.DefaultMFCCConfig(),
		MFCCFrames: 100,

		Chroma:   feature.DefaultChromaConfig(),
		HPSS:     dsp.DefaultHPSSConfig(),
		Tonnetz:  feature.DefaultChromaCQTConfig(),
		Contrast: feature.DefaultContrastConfig(),
	}
}

// Samples returns the length of the fixed analysis window in samples.
func (c Config) Samples() int {
	return int(math.Round(float64(c.SampleRate) * c.Duration.Seconds()))
}

// Validate reports the first setting no pipeline can run with. Transform
// specific limits are checked again when extractors are built.
func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidConfig, c.SampleRate)
	case c.Duration <= 0 || c.Samples() < 1:
		return fmt.Errorf("%w: duration %v", ErrInvalidConfig, c.Duration)
	case c.Silence != SilenceZero && c.Silence != SilenceReject:
		return fmt.Errorf("%w: silence policy %d", ErrInvalidConfig, int(c.Silence))
	case !(c.Epsilon > 0):
		return fmt.Errorf("%w: epsilon %v", ErrInvalidConfig, c.Epsilon)
	case c.TrimTopDB <= 0 || c.TrimFrame <= 0 || c.TrimHop <= 0:
		return fmt.Errorf("%w: trim top_db %v, frame %d, hop %d", ErrInvalidConfig, c.TrimTopDB, c.TrimFrame, c.TrimHop)
	case c.MelSize <= 0:
		return fmt.Errorf("%w: mel image size %d", ErrInvalidConfig, c.MelSize)
	case c.MFCCFrames <= 0:
		return fmt.Errorf("%w: mfcc frames %d", ErrInvalidConfig, c.MFCCFrames)
	case c.Chroma.NChroma <= 0:
		return fmt.Errorf("%w: %d chroma bins", ErrInvalidConfig, c.Chroma.NChroma)
	case c.Tonnetz.NChroma <= 0 || c.Tonnetz.NOctaves <= 0:
		return fmt.Errorf("%w: tonnetz chroma %d bins over %d octaves", ErrInvalidConfig, c.Tonnetz.NChroma, c.Tonnetz.NOctaves)
	case c.Contrast.NBands <= 0:
		return fmt.Errorf("%w: %d contrast bands", ErrInvalidConfig, c.Contrast.NBands)
	}

	return nil
}

// FeatureShape is the shape of the tensor an extractor of variant v returns.
func (c Config) FeatureShape(v Variant) []int {
	switch v {
	case VariantMel:
		return []int{c.MelSize, c.MelSize, 1}
	case VariantMFCC:
		return []int{c.MFCCFrames, c.MFCC.NMFCC}
	case VariantCombined:
		return []int{1, c.combinedLen(), 1}
	}

	return nil
}

// InputShape is the batched shape a model of variant v consumes.
func (c Config) InputShape(v Variant) []int {
	switch v {
	case VariantMel:
		return []int{1, c.MelSize, c.MelSize, 1}
	case VariantMFCC:
		return []int{1, c.MFCCFrames, c.MFCC.NMFCC, 1}
	case VariantCombined:
		return []int{1, c.combinedLen(), 1}
	}

	return nil
}

// combinedLen is chroma bins, tonnetz dimensions and contrast bands plus the
// residual band.
func (c Config) combinedLen() int {
	return c.Chroma.NChroma + feature.TonnetzDims + c.Contrast.NBands + 1
}
