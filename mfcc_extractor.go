// SPDX-License-Identifier: EPL-2.0

package cryfeat

import (
	"context"
	"errors"

	"github.com/ik5/cryfeat/audio"
	"github.com/ik5/cryfeat/feature"
	"github.com/ik5/cryfeat/tensor"
)

// mfccExtractor standardizes the MFCC matrix of the raw clip and returns it
// time-major with a fixed number of frames.
type mfccExtractor struct {
	common
	mfcc *feature.MFCC
}

func newMFCCExtractor(base common) (*mfccExtractor, error) {
	m, err := feature.NewMFCC(base.cfg.SampleRate, base.cfg.MFCC)
	if err != nil {
		return nil, err
	}

	return &mfccExtractor{common: base, mfcc: m}, nil
}

func (e *mfccExtractor) Extract(ctx context.Context, b *audio.Buffer) (tensor.Tensor, error) {
	return extract(ctx, e, b)
}

func (e *mfccExtractor) Steps(ctx context.Context, b *audio.Buffer) (*Steps, error) {
	if err := e.input(ctx, b); err != nil {
		return nil, err
	}

	st := &Steps{Variant: e.variant}

	fixed, err := e.fix(ctx, b)
	if err != nil {
		return nil, err
	}
	st.Samples = fixed.Samples

	if st.Degenerate, err = e.silent(StageFix, fixed.Samples); err != nil {
		return nil, err
	}

	if err := e.check(ctx, StageTransform); err != nil {
		return nil, err
	}
	coeffs := e.mfcc.Coefficients(fixed.Samples)

	if err := e.check(ctx, StageFinalize); err != nil {
		return nil, err
	}
	std, err := feature.Standardize(coeffs, e.cfg.Epsilon)
	if errors.Is(err, feature.ErrDegenerateSignal) {
		if e.cfg.Silence == SilenceReject {
			return nil, e.fail(StageFinalize, err)
		}
		st.Degenerate = true
		e.log.Debug("cryfeat: degenerate coefficients", "variant", e.variant, "stage", StageFinalize, "err", err)
	} else if err != nil {
		return nil, e.fail(StageFinalize, err)
	}
	st.Features = std

	framed, err := feature.FixFrames(std, e.cfg.MFCCFrames)
	if err != nil {
		return nil, e.fail(StageFinalize, err)
	}

	return e.finalize(st, tensor.FromMatrix(framed.T()))
}
