// SPDX-License-Identifier: EPL-2.0

// Package predict runs extracted feature tensors through a classification
// model and decodes the winning class.
//
// The model and the label decoder are collaborators supplied by the caller,
// typically loaded once at start-up:
//
//	c := &predict.Classifier{
//		Extractor: pipeline,
//		Variant:   cryfeat.VariantCombined,
//		Model:     tfserving.New(endpoint, "cry_cts"),
//		Labels:    labels.Default(),
//	}
//	p, err := c.Classify(ctx, file)
//	fmt.Printf("%s (%.2f%%)\n", p.Label, p.Confidence)
//
// There is no retry, fallback model or calibration: the class with the
// highest probability wins.
package predict
