// SPDX-License-Identifier: EPL-2.0

package cryfeat

import (
	"context"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"github.com/ik5/cryfeat/audio"
	"github.com/ik5/cryfeat/tensor"
)

// Extractor turns a mono clip at Config.SampleRate into a feature tensor.
// Implementations precompute their filterbanks at construction and are safe
// for concurrent use.
type Extractor interface {
	Variant() Variant
	// Shape of every tensor Extract returns.
	Shape() []int
	Extract(ctx context.Context, b *audio.Buffer) (tensor.Tensor, error)
	// Steps is Extract keeping the intermediate values.
	Steps(ctx context.Context, b *audio.Buffer) (*Steps, error)
}

// Steps holds the intermediate values of one extraction.
type Steps struct {
	Variant Variant
	// Samples is the fixed-length window the transform consumed.
	Samples []float64
	// Features is the transform output before shape finalization: the dB mel
	// spectrogram, the standardized MFCC matrix (coefficients x frames) or
	// the column of time-averaged combined descriptors.
	Features *mat.Dense
	// Degenerate is set when a silence guard replaced undefined values.
	Degenerate bool
	Tensor     tensor.Tensor
}

// Option configures NewExtractor and NewPipeline.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	registry *audio.Registry
}

// WithLogger sets the logger stages report to. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegistry sets the decoders a Pipeline loads audio with. The default
// holds every format in package formats.
func WithRegistry(reg *audio.Registry) Option {
	return func(o *options) { o.registry = reg }
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// NewExtractor builds the extractor for v from cfg.
func NewExtractor(v Variant, cfg Config, opts ...Option) (Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := common{variant: v, cfg: cfg, log: newOptions(opts).logger}

	var (
		e   Extractor
		err error
	)
	switch v {
	case VariantMel:
		e, err = newMelExtractor(base)
	case VariantMFCC:
		e, err = newMFCCExtractor(base)
	case VariantCombined:
		e, err = newCombinedExtractor(base)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, string(v))
	}
	if err != nil {
		return nil, fmt.Errorf("building %s extractor: %w", v, err)
	}

	return e, nil
}

// Batch adds the axes a model of variant v expects around an extracted
// tensor: a leading batch axis for mel, batch and channel axes for MFCC.
// Combined tensors are already batched.
func Batch(v Variant, t tensor.Tensor) (tensor.Tensor, error) {
	switch v {
	case VariantMel:
		return t.ExpandDims(0)
	case VariantMFCC:
		b, err := t.ExpandDims(0)
		if err != nil {
			return tensor.Tensor{}, err
		}
		return b.ExpandDims(-1)
	case VariantCombined:
		return t.Clone(), nil
	}

	return tensor.Tensor{}, fmt.Errorf("%w: %q", ErrUnknownVariant, string(v))
}

// common carries what every variant shares: the config, the input checks and
// the length fixer.
type common struct {
	variant Variant
	cfg     Config
	log     *slog.Logger
}

func (c *common) Variant() Variant { return c.variant }

func (c *common) Shape() []int { return c.cfg.FeatureShape(c.variant) }

func (c *common) fail(stage Stage, err error) error {
	c.log.Debug("cryfeat: stage failed", "variant", c.variant, "stage", stage, "err", err)
	return &StageError{Variant: c.variant, Stage: stage, Err: err}
}

// check fails with the context's error between stages.
func (c *common) check(ctx context.Context, next Stage) error {
	if err := ctx.Err(); err != nil {
		return c.fail(next, err)
	}
	return nil
}

// input validates a loaded buffer before any stage runs.
func (c *common) input(ctx context.Context, b *audio.Buffer) error {
	if err := c.check(ctx, StageLoad); err != nil {
		return err
	}
	if b == nil || b.Len() == 0 {
		return c.fail(StageLoad, fmt.Errorf("%w: %w", ErrDecode, audio.ErrEmptyInput))
	}
	if b.SampleRate != c.cfg.SampleRate {
		return c.fail(StageLoad, fmt.Errorf("%w: buffer at %d Hz, extractor at %d Hz", audio.ErrInvalidRate, b.SampleRate, c.cfg.SampleRate))
	}
	return nil
}

// fix pads or truncates to the analysis window.
func (c *common) fix(ctx context.Context, b *audio.Buffer) (*audio.Buffer, error) {
	if err := c.check(ctx, StageFix); err != nil {
		return nil, err
	}

	fixed, err := audio.FixLength(b, c.cfg.Samples())
	if err != nil {
		return nil, c.fail(StageFix, err)
	}

	c.log.Debug("cryfeat: fixed length", "variant", c.variant, "stage", StageFix, "samples", b.Len(), "fixed", fixed.Len())

	return fixed, nil
}

// silent handles a window without signal, all zero or held at one DC level,
// according to the silence policy. Under SilenceZero a constant window is
// zeroed in place. It returns true when the pipeline may continue on silence.
func (c *common) silent(stage Stage, y []float64) (bool, error) {
	if len(y) == 0 {
		return false, nil
	}

	level := y[0]
	for _, v := range y[1:] {
		if v != level {
			return false, nil
		}
	}

	if c.cfg.Silence == SilenceReject {
		if level != 0 {
			return true, c.fail(stage, fmt.Errorf("%w: constant clip at %g", ErrDegenerateSignal, level))
		}
		return true, c.fail(stage, fmt.Errorf("%w: silent clip", ErrDegenerateSignal))
	}

	clear(y)
	c.log.Debug("cryfeat: silent clip", "variant", c.variant, "stage", stage, "level", level)

	return true, nil
}

// finalize verifies the tensor shape and records it.
func (c *common) finalize(st *Steps, t tensor.Tensor) (*Steps, error) {
	if err := t.CheckShape(c.Shape()...); err != nil {
		return nil, c.fail(StageFinalize, err)
	}

	st.Tensor = t
	c.log.Debug("cryfeat: extracted", "variant", c.variant, "stage", StageFinalize, "shape", t.String(), "degenerate", st.Degenerate)

	return st, nil
}

func extract(ctx context.Context, e Extractor, b *audio.Buffer) (tensor.Tensor, error) {
	st, err := e.Steps(ctx, b)
	if err != nil {
		return tensor.Tensor{}, err
	}
	return st.Tensor, nil
}
