// SPDX-License-Identifier: EPL-2.0

// Package config loads the YAML file shared by the cryfeat CLI and server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/ik5/cryfeat"
	"github.com/ik5/cryfeat/labels"
)

// EnvPath names the environment variable holding the config path.
const EnvPath = "CRYFEAT_CONFIG"

var ErrInvalid = errors.New("invalid configuration")

// Duration is a time.Duration written as "4s" or "150ms" in YAML.
type Duration time.Duration

func (d Duration) MarshalYAML() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalYAML(b []byte) error {
	var s string
	if err := yaml.Unmarshal(b, &s); err != nil {
		return err
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%w: duration %q", ErrInvalid, s)
	}
	*d = Duration(v)

	return nil
}

// File is the on-disk configuration.
type File struct {
	SampleRate int      `yaml:"sample_rate"`
	Duration   Duration `yaml:"duration"`
	// Silence is "zero" or "reject".
	Silence string `yaml:"silence"`

	Model  Model  `yaml:"model"`
	Labels Labels `yaml:"labels"`
	Server Server `yaml:"server"`

	// dir resolves relative paths against the config file.
	dir string
}

// Model points at the TensorFlow Serving model of each variant.
type Model struct {
	Endpoint string   `yaml:"endpoint"`
	Timeout  Duration `yaml:"timeout"`
	// Names maps a variant to its served model name.
	Names map[string]string `yaml:"names,omitempty"`
}

// Labels lists the classes inline or points at a labels file. Variants
// overrides both for a single variant.
type Labels struct {
	Path     string              `yaml:"path,omitempty"`
	Classes  []string            `yaml:"classes,omitempty"`
	Variants map[string][]string `yaml:"variants,omitempty"`
}

// Server configures cryfeat serve.
type Server struct {
	Addr           string   `yaml:"addr"`
	Timeout        Duration `yaml:"timeout"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes"`
}

// Default returns the configuration used when no file is given.
func Default() *File {
	cfg := cryfeat.DefaultConfig()

	return &File{
		SampleRate: cfg.SampleRate,
		Duration:   Duration(cfg.Duration),
		Silence:    cfg.Silence.String(),
		Model: Model{
			Endpoint: "http://localhost:8501",
			Timeout:  Duration(10 * time.Second),
			Names: map[string]string{
				string(cryfeat.VariantMel):      "cry_classification_mel",
				string(cryfeat.VariantMFCC):     "cry_classification_mfcc",
				string(cryfeat.VariantCombined): "cry_classification_cts",
			},
		},
		Server: Server{
			Addr:           ":8080",
			Timeout:        Duration(30 * time.Second),
			MaxUploadBytes: 32 << 20,
		},
	}
}

// Load reads path, or $CRYFEAT_CONFIG when path is empty. Without either it
// returns Default. Values missing from the file keep their defaults.
func Load(path string) (*File, error) {
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.dir = filepath.Dir(path)

	return f, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*File, error) {
	f := Default()
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if _, err := f.Pipeline(); err != nil {
		return nil, err
	}
	if f.Server.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("%w: max_upload_bytes %d", ErrInvalid, f.Server.MaxUploadBytes)
	}
	for v := range f.Model.Names {
		if _, err := cryfeat.ParseVariant(v); err != nil {
			return nil, fmt.Errorf("%w: model name for %w", ErrInvalid, err)
		}
	}
	for v := range f.Labels.Variants {
		if _, err := cryfeat.ParseVariant(v); err != nil {
			return nil, fmt.Errorf("%w: labels for %w", ErrInvalid, err)
		}
	}

	return f, nil
}

// Pipeline returns the extraction config the file describes.
func (f *File) Pipeline() (cryfeat.Config, error) {
	cfg := cryfeat.DefaultConfig()
	cfg.SampleRate = f.SampleRate
	cfg.Duration = time.Duration(f.Duration)

	silence, err := cryfeat.ParseSilencePolicy(f.Silence)
	if err != nil {
		return cryfeat.Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	cfg.Silence = silence

	if err := cfg.Validate(); err != nil {
		return cryfeat.Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return cfg, nil
}

// LabelEncoder returns the classes of variant v: its Labels.Variants entry,
// the inline classes, the classes stored at Labels.Path (relative to the
// config file), or the built-in classes of v.
func (f *File) LabelEncoder(v cryfeat.Variant) (*labels.Encoder, error) {
	switch {
	case len(f.Labels.Variants[string(v)]) > 0:
		return labels.New(f.Labels.Variants[string(v)])
	case len(f.Labels.Classes) > 0:
		return labels.New(f.Labels.Classes)
	case f.Labels.Path != "":
		path := f.Labels.Path
		if !filepath.IsAbs(path) && f.dir != "" {
			path = filepath.Join(f.dir, path)
		}
		return labels.Load(path)
	}

	if v == cryfeat.VariantCombined {
		return labels.Combined(), nil
	}
	return labels.Default(), nil
}

// ModelName returns the served model of variant v.
func (f *File) ModelName(v cryfeat.Variant) (string, error) {
	name, ok := f.Model.Names[string(v)]
	if !ok || name == "" {
		return "", fmt.Errorf("%w: no model configured for %s", ErrInvalid, v)
	}
	return name, nil
}

// Marshal renders f as YAML.
func (f *File) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}
