// SPDX-License-Identifier: EPL-2.0

package predict

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"

	"github.com/ik5/cryfeat"
	"github.com/ik5/cryfeat/tensor"
)

// Model maps a batched feature tensor to one probability per class.
type Model interface {
	Predict(ctx context.Context, in tensor.Tensor) ([]float32, error)
}

// Func adapts a function to Model.
type Func func(ctx context.Context, in tensor.Tensor) ([]float32, error)

func (f Func) Predict(ctx context.Context, in tensor.Tensor) ([]float32, error) {
	return f(ctx, in)
}

// LabelDecoder names class indices. *labels.Encoder implements it.
type LabelDecoder interface {
	Decode(index int) (string, error)
	Classes() []string
}

// Extractor loads a clip and extracts the features of a variant.
// *cryfeat.Pipeline implements it.
type Extractor interface {
	Extract(ctx context.Context, v cryfeat.Variant, r io.Reader) (tensor.Tensor, error)
}

// Prediction is the outcome of one classification.
type Prediction struct {
	Variant cryfeat.Variant `json:"variant"`
	Index   int             `json:"index"`
	Label   string          `json:"label"`
	// Confidence is the winning probability in percent.
	Confidence    float64   `json:"confidence"`
	Probabilities []float32 `json:"probabilities"`
	Classes       []string  `json:"classes"`
}

// Classifier ties an extractor, a model and a label decoder together for one
// variant. It holds no per-request state.
type Classifier struct {
	Extractor Extractor
	Variant   cryfeat.Variant
	Model     Model
	Labels    LabelDecoder
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Classify extracts the features of r and predicts its class.
func (c *Classifier) Classify(ctx context.Context, r io.Reader) (*Prediction, error) {
	t, err := c.Extractor.Extract(ctx, c.Variant, r)
	if err != nil {
		return nil, err
	}

	return c.Predict(ctx, t)
}

// Predict classifies an already extracted, unbatched feature tensor.
func (c *Classifier) Predict(ctx context.Context, features tensor.Tensor) (*Prediction, error) {
	in, err := cryfeat.Batch(c.Variant, features)
	if err != nil {
		return nil, err
	}

	probs, err := c.Model.Predict(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModel, err)
	}

	idx, err := Argmax(probs)
	if err != nil {
		return nil, err
	}

	classes := c.Labels.Classes()
	if len(classes) != len(probs) {
		return nil, fmt.Errorf("%w: model returned %d probabilities for %d classes", ErrLabel, len(probs), len(classes))
	}

	label, err := c.Labels.Decode(idx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLabel, err)
	}

	p := &Prediction{
		Variant:       c.Variant,
		Index:         idx,
		Label:         label,
		Confidence:    float64(probs[idx]) * 100,
		Probabilities: slices.Clone(probs),
		Classes:       classes,
	}

	c.logger().Debug("predict: classified", "variant", c.Variant, "label", label, "confidence", p.Confidence)

	return p, nil
}

func (c *Classifier) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Argmax returns the index of the largest probability; ties go to the lowest
// index. Empty or non-finite vectors are model errors.
func Argmax(probs []float32) (int, error) {
	if len(probs) == 0 {
		return 0, fmt.Errorf("%w: empty probability vector", ErrModel)
	}

	best := 0
	for i, p := range probs {
		f := float64(p)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%w: probability %d is %v", ErrModel, i, p)
		}
		if p > probs[best] {
			best = i
		}
	}

	return best, nil
}
