// SPDX-License-Identifier: EPL-2.0

package cryfeat

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ik5/cryfeat/audio"
	"github.com/ik5/cryfeat/dsp"
	"github.com/ik5/cryfeat/feature"
	"github.com/ik5/cryfeat/tensor"
)

// melExtractor peak-normalizes and trims the clip, then renders its dB mel
// spectrogram as a MelSize x MelSize x 1 image.
type melExtractor struct {
	common
	mel *feature.Mel
}

func newMelExtractor(base common) (*melExtractor, error) {
	mel, err := feature.NewMel(base.cfg.SampleRate, base.cfg.Mel)
	if err != nil {
		return nil, err
	}

	return &melExtractor{common: base, mel: mel}, nil
}

func (e *melExtractor) Extract(ctx context.Context, b *audio.Buffer) (tensor.Tensor, error) {
	return extract(ctx, e, b)
}

func (e *melExtractor) Steps(ctx context.Context, b *audio.Buffer) (*Steps, error) {
	if err := e.input(ctx, b); err != nil {
		return nil, err
	}

	st := &Steps{Variant: e.variant}
	cfg := e.cfg

	if err := e.check(ctx, StageNormalize); err != nil {
		return nil, err
	}
	norm, err := audio.PeakNormalize(b)
	if errors.Is(err, audio.ErrSilentBuffer) {
		if st.Degenerate, err = e.silent(StageNormalize, norm.Samples); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, e.fail(StageNormalize, err)
	}

	if err := e.check(ctx, StageTrim); err != nil {
		return nil, err
	}
	trimmed, start, end, err := dsp.Trim(norm.Samples, cfg.TrimTopDB, cfg.TrimFrame, cfg.TrimHop)
	if err != nil {
		return nil, e.fail(StageTrim, err)
	}
	e.log.Debug("cryfeat: trimmed", "variant", e.variant, "stage", StageTrim, "start", start, "end", end)

	fixed, err := e.fix(ctx, &audio.Buffer{Samples: trimmed, SampleRate: norm.SampleRate})
	if err != nil {
		return nil, err
	}
	st.Samples = fixed.Samples

	if err := e.check(ctx, StageTransform); err != nil {
		return nil, err
	}
	S := e.mel.Spectrogram(fixed.Samples)
	st.Features = feature.PowerToDB(S, mat.Max(S), cfg.MelTopDB)

	if err := e.check(ctx, StageFinalize); err != nil {
		return nil, err
	}
	img, err := dsp.Resize(st.Features, cfg.MelSize, cfg.MelSize)
	if err != nil {
		return nil, e.fail(StageFinalize, err)
	}

	t, err := tensor.FromMatrix(img).ExpandDims(-1)
	if err != nil {
		return nil, e.fail(StageFinalize, fmt.Errorf("adding channel axis: %w", err))
	}

	return e.finalize(st, t)
}
