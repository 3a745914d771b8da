// SPDX-License-Identifier: EPL-2.0

package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ik5/cryfeat"
	"github.com/ik5/cryfeat/predict"
	"github.com/ik5/cryfeat/predict/tfserving"
)

// Classifier wires the served model and the classes of variant v to x.
func (f *File) Classifier(v cryfeat.Variant, x predict.Extractor, log *slog.Logger) (*predict.Classifier, error) {
	name, err := f.ModelName(v)
	if err != nil {
		return nil, err
	}

	client, err := tfserving.New(f.Model.Endpoint, name, tfserving.WithTimeout(time.Duration(f.Model.Timeout)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	enc, err := f.LabelEncoder(v)
	if err != nil {
		return nil, fmt.Errorf("%w: labels for %s: %w", ErrInvalid, v, err)
	}

	return &predict.Classifier{
		Extractor: x,
		Variant:   v,
		Model:     client,
		Labels:    enc,
		Logger:    log,
	}, nil
}

// Classifiers returns a classifier for every variant with a model name.
func (f *File) Classifiers(x predict.Extractor, log *slog.Logger) (map[cryfeat.Variant]*predict.Classifier, error) {
	out := make(map[cryfeat.Variant]*predict.Classifier, len(f.Model.Names))

	for _, v := range cryfeat.Variants() {
		if f.Model.Names[string(v)] == "" {
			continue
		}

		c, err := f.Classifier(v, x, log)
		if err != nil {
			return nil, err
		}
		out[v] = c
	}

	return out, nil
}
