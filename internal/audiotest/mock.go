// SPDX-License-Identifier: EPL-2.0

// Package audiotest holds sources and fixtures shared by the package tests.
package audiotest

import (
	"io"
	"math"
)

// MockSource generates audio on demand.
// It implements the audio.Source interface (without importing it to avoid cycles).
type MockSource struct {
	sampleRate   int
	channels     int
	totalSamples int // per channel
	generated    int // per channel
	waveform     func(sample int, channel int) float32

	closed bool
}

// NewMockSource creates a source producing totalSamples frames of waveform.
func NewMockSource(sampleRate, channels, totalSamples int, waveform func(sample int, channel int) float32) *MockSource {
	return &MockSource{
		sampleRate:   sampleRate,
		channels:     channels,
		totalSamples: totalSamples,
		waveform:     waveform,
	}
}

// NewSilentSource creates a source of zeros.
func NewSilentSource(sampleRate, channels, totalSamples int) *MockSource {
	return NewMockSource(sampleRate, channels, totalSamples, func(int, int) float32 { return 0 })
}

// NewSineSource creates a source of a full-scale sine at frequency Hz on every channel.
func NewSineSource(sampleRate, channels, totalSamples int, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, totalSamples, func(sample int, _ int) float32 {
		return float32(Sine(sample, sampleRate, frequency, 1))
	})
}

// NewConstantSource creates a source holding value on every sample.
func NewConstantSource(sampleRate, channels, totalSamples int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, totalSamples, func(int, int) float32 { return value })
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }
func (m *MockSource) BufSize() int    { return 4096 }

func (m *MockSource) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockSource) Closed() bool { return m.closed }

// Reset rewinds the generator.
func (m *MockSource) Reset() {
	m.generated = 0
}

func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	if m.generated >= m.totalSamples {
		return 0, io.EOF
	}

	frames := min(len(dst)/m.channels, m.totalSamples-m.generated)
	for f := range frames {
		idx := m.generated + f
		for ch := range m.channels {
			dst[f*m.channels+ch] = m.waveform(idx, ch)
		}
	}

	m.generated += frames
	if m.generated >= m.totalSamples {
		return frames * m.channels, io.EOF
	}

	return frames * m.channels, nil
}

// Sine returns sample i of a sine at frequency Hz and the given amplitude.
func Sine(i, sampleRate int, frequency, amplitude float64) float64 {
	return amplitude * math.Sin(2*math.Pi*frequency*float64(i)/float64(sampleRate))
}

// SineSamples returns n samples of a sine wave.
func SineSamples(n, sampleRate int, frequency, amplitude float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = Sine(i, sampleRate, frequency, amplitude)
	}

	return out
}

// Ramp returns n samples rising linearly from -1 towards 1, useful when sample
// positions must stay distinguishable.
func Ramp(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = -1 + 2*float64(i)/float64(max(n, 1))
	}

	return out
}
