// SPDX-License-Identifier: EPL-2.0

package cryfeat

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/ik5/cryfeat/audio"
	"github.com/ik5/cryfeat/formats"
	"github.com/ik5/cryfeat/tensor"
)

// Pipeline loads audio and runs it through the extractor of each variant.
// It is built once at start-up and shared between requests.
type Pipeline struct {
	cfg        Config
	reg        *audio.Registry
	log        *slog.Logger
	extractors map[Variant]Extractor
}

// NewPipeline validates cfg and builds every extractor.
func NewPipeline(cfg Config, opts ...Option) (*Pipeline, error) {
	o := newOptions(opts)
	if o.registry == nil {
		o.registry = formats.NewRegistry()
	}

	p := &Pipeline{
		cfg:        cfg,
		reg:        o.registry,
		log:        o.logger,
		extractors: make(map[Variant]Extractor, len(Variants())),
	}

	for _, v := range Variants() {
		e, err := NewExtractor(v, cfg, WithLogger(o.logger))
		if err != nil {
			return nil, err
		}
		p.extractors[v] = e
	}

	return p, nil
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() Config { return p.cfg }

// Extractor returns the extractor for v.
func (p *Pipeline) Extractor(v Variant) (Extractor, error) {
	e, ok := p.extractors[v]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, string(v))
	}
	return e, nil
}

// Load decodes r into a mono buffer at the configured sample rate.
func (p *Pipeline) Load(ctx context.Context, r io.Reader) (*audio.Buffer, error) {
	return p.load(ctx, "", r)
}

func (p *Pipeline) load(ctx context.Context, v Variant, r io.Reader) (*audio.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StageError{Variant: v, Stage: StageLoad, Err: err}
	}

	b, err := audio.Load(r, p.reg, p.cfg.SampleRate)
	if err != nil {
		p.log.Debug("cryfeat: load failed", "variant", v, "stage", StageLoad, "err", err)
		return nil, &StageError{Variant: v, Stage: StageLoad, Err: err}
	}

	p.log.Debug("cryfeat: loaded", "variant", v, "stage", StageLoad, "samples", b.Len(), "duration", b.Duration())

	return b, nil
}

// Extract loads r and returns the feature tensor of variant v.
func (p *Pipeline) Extract(ctx context.Context, v Variant, r io.Reader) (tensor.Tensor, error) {
	st, err := p.Steps(ctx, v, r)
	if err != nil {
		return tensor.Tensor{}, err
	}
	return st.Tensor, nil
}

// Steps loads r and returns every intermediate value of variant v.
func (p *Pipeline) Steps(ctx context.Context, v Variant, r io.Reader) (*Steps, error) {
	e, err := p.Extractor(v)
	if err != nil {
		return nil, err
	}

	b, err := p.load(ctx, v, r)
	if err != nil {
		return nil, err
	}

	return e.Steps(ctx, b)
}

var defaultPipeline = sync.OnceValues(func() (*Pipeline, error) {
	return NewPipeline(DefaultConfig())
})

// ExtractFeatures runs r through variant v with DefaultConfig and every
// registered format.
func ExtractFeatures(ctx context.Context, v Variant, r io.Reader) (tensor.Tensor, error) {
	p, err := defaultPipeline()
	if err != nil {
		return tensor.Tensor{}, err
	}

	return p.Extract(ctx, v, r)
}
