// SPDX-License-Identifier: EPL-2.0

package cryfeat

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ik5/cryfeat/audio"
	"github.com/ik5/cryfeat/dsp"
	"github.com/ik5/cryfeat/feature"
	"github.com/ik5/cryfeat/tensor"
)

// combinedExtractor averages chroma, tonnetz of the harmonic component and
// spectral contrast over time into one (1, n, 1) vector. The tonnetz is
// projected from a constant-Q chroma, the chroma from the STFT.
type combinedExtractor struct {
	common
	chroma   *feature.Chroma
	tonal    *feature.ConstantQChroma
	contrast *feature.Contrast
}

func newCombinedExtractor(base common) (*combinedExtractor, error) {
	chroma, err := feature.NewChroma(base.cfg.SampleRate, base.cfg.Chroma)
	if err != nil {
		return nil, err
	}

	tonal, err := feature.NewConstantQChroma(base.cfg.SampleRate, base.cfg.Tonnetz)
	if err != nil {
		return nil, err
	}

	contrast, err := feature.NewContrast(base.cfg.SampleRate, base.cfg.Contrast)
	if err != nil {
		return nil, err
	}

	return &combinedExtractor{common: base, chroma: chroma, tonal: tonal, contrast: contrast}, nil
}

func (e *combinedExtractor) Extract(ctx context.Context, b *audio.Buffer) (tensor.Tensor, error) {
	return extract(ctx, e, b)
}

func (e *combinedExtractor) Steps(ctx context.Context, b *audio.Buffer) (*Steps, error) {
	if err := e.input(ctx, b); err != nil {
		return nil, err
	}

	st := &Steps{Variant: e.variant}

	fixed, err := e.fix(ctx, b)
	if err != nil {
		return nil, err
	}
	y := fixed.Samples
	st.Samples = y

	if st.Degenerate, err = e.silent(StageFix, y); err != nil {
		return nil, err
	}

	if err := e.check(ctx, StageTransform); err != nil {
		return nil, err
	}

	stft := e.chroma.STFT()
	spec := stft.Forward(y)

	chroma, err := e.chroma.FromPower(spec.Magnitude(2))
	if err != nil {
		return nil, e.fail(StageTransform, fmt.Errorf("chroma: %w", err))
	}

	if err := e.check(ctx, StageTransform); err != nil {
		return nil, err
	}
	harmonic, _, err := dsp.HPSS(spec, e.cfg.HPSS)
	if err != nil {
		return nil, e.fail(StageTransform, fmt.Errorf("harmonic separation: %w", err))
	}
	harmonicChroma, err := e.tonal.Chromagram(stft.Inverse(harmonic, len(y)))
	if err != nil {
		return nil, e.fail(StageTransform, fmt.Errorf("harmonic chroma: %w", err))
	}
	tonnetz := feature.Tonnetz(harmonicChroma)

	if err := e.check(ctx, StageTransform); err != nil {
		return nil, err
	}
	var contrast *mat.Dense
	if cs := e.contrast.STFT(); cs.NFFT() == stft.NFFT() && cs.Hop() == stft.Hop() {
		contrast = e.contrast.FromMagnitude(spec.Magnitude(1))
	} else {
		contrast = e.contrast.Compute(y)
	}

	if err := e.check(ctx, StageFinalize); err != nil {
		return nil, err
	}
	var vec []float64
	vec = append(vec, feature.RowMeans(chroma)...)
	vec = append(vec, feature.RowMeans(tonnetz)...)
	vec = append(vec, feature.RowMeans(contrast)...)

	st.Features = mat.NewDense(len(vec), 1, vec)

	t, err := tensor.FromFloat64([]int{1, len(vec), 1}, vec)
	if err != nil {
		return nil, e.fail(StageFinalize, err)
	}

	return e.finalize(st, t)
}
