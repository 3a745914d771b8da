// SPDX-License-Identifier: EPL-2.0

// Package labels maps class indices of a classifier's output to class names.
//
// An Encoder is loaded once from a file that lists the classes in the order
// the model was trained with. Three layouts are accepted:
//
//	# plain text, one class per line
//	belly_pain
//	burping
//
//	# YAML or JSON sequence
//	[belly_pain, burping, discomfort, hungry, tired]
//
//	# YAML or JSON mapping
//	classes: [belly_pain, burping, discomfort, hungry, tired]
package labels

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
)

var (
	ErrEmpty      = errors.New("label set is empty")
	ErrDuplicate  = errors.New("duplicate label")
	ErrUnknown    = errors.New("unknown label")
	ErrOutOfRange = errors.New("class index out of range")
)

// Encoder is an immutable, ordered set of class names.
type Encoder struct {
	classes []string
	index   map[string]int
}

// New keeps classes in the given order. Names are trimmed; empty names and
// duplicates are rejected.
func New(classes []string) (*Encoder, error) {
	if len(classes) == 0 {
		return nil, ErrEmpty
	}

	e := &Encoder{classes: make([]string, len(classes)), index: make(map[string]int, len(classes))}
	for i, c := range classes {
		c = strings.TrimSpace(c)
		if c == "" {
			return nil, fmt.Errorf("%w: class %d has no name", ErrEmpty, i)
		}
		if _, ok := e.index[c]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicate, c)
		}
		e.classes[i] = c
		e.index[c] = i
	}

	return e, nil
}

// Fit builds an encoder from observed labels the way a label encoder is
// fitted: unique names in sorted order.
func Fit(observed []string) (*Encoder, error) {
	classes := make([]string, 0, len(observed))
	for _, o := range observed {
		classes = append(classes, strings.TrimSpace(o))
	}
	slices.Sort(classes)

	return New(slices.Compact(classes))
}

// Default returns the five cry classes of the mel and MFCC models, sorted.
func Default() *Encoder {
	e, err := Fit([]string{"hungry", "discomfort", "tired", "burping", "belly_pain"})
	if err != nil {
		panic(err)
	}
	return e
}

// Combined returns the six classes of the combined-feature model: the
// Default classes plus cranky, sorted.
func Combined() *Encoder {
	e, err := Fit(append(Default().Classes(), "cranky"))
	if err != nil {
		panic(err)
	}
	return e
}

// Len returns the number of classes.
func (e *Encoder) Len() int { return len(e.classes) }

// Classes returns a copy of the class names in index order.
func (e *Encoder) Classes() []string { return slices.Clone(e.classes) }

// Decode returns the name of class i.
func (e *Encoder) Decode(i int) (string, error) {
	if i < 0 || i >= len(e.classes) {
		return "", fmt.Errorf("%w: %d of %d", ErrOutOfRange, i, len(e.classes))
	}
	return e.classes[i], nil
}

// Encode returns the index of label.
func (e *Encoder) Encode(label string) (int, error) {
	i, ok := e.index[label]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknown, label)
	}
	return i, nil
}

// MarshalYAML writes the classes as a sequence.
func (e *Encoder) MarshalYAML() ([]byte, error) {
	return yaml.Marshal(e.classes)
}

// MarshalJSON writes the classes as an array.
func (e *Encoder) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.classes)
}

// Parse reads a plain text, YAML or JSON class list.
func Parse(data []byte) (*Encoder, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrEmpty
	}

	var list []string
	if err := yaml.Unmarshal(trimmed, &list); err == nil && len(list) > 0 {
		return New(list)
	}

	var doc struct {
		Classes []string `yaml:"classes"`
	}
	if err := yaml.Unmarshal(trimmed, &doc); err == nil && len(doc.Classes) > 0 {
		return New(doc.Classes)
	}

	if bytes.ContainsAny(trimmed, ":[{") {
		return nil, fmt.Errorf("parsing labels: no class list found")
	}

	return New(plainLines(trimmed))
}

func plainLines(data []byte) []string {
	var out []string
	for line := range strings.Lines(string(data)) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// Load parses the class list stored at path.
func Load(path string) (*Encoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading labels: %w", err)
	}

	e, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return e, nil
}
