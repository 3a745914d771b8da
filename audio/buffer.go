// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"
)

// Buffer is a decoded mono clip held in memory.
type Buffer struct {
	Samples    []float64
	SampleRate int
}

// Len returns the number of samples.
func (b *Buffer) Len() int { return len(b.Samples) }

// Duration of the clip at its sample rate.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}

	return time.Duration(float64(len(b.Samples)) / float64(b.SampleRate) * float64(time.Second))
}

// Clone returns a deep copy of b.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{SampleRate: b.SampleRate, Samples: make([]float64, len(b.Samples))}
	copy(out.Samples, b.Samples)

	return out
}

// Collect drains a mono source into a Buffer.
func Collect(src Source) (*Buffer, error) {
	if src.Channels() != 1 {
		src = NewMonoMixer(src)
	}

	bufSize := src.BufSize()
	if bufSize <= 0 {
		bufSize = 4096
	}

	out := &Buffer{SampleRate: src.SampleRate(), Samples: make([]float64, 0, bufSize)}
	buf := make([]float32, bufSize)

	for {
		n, err := src.ReadSamples(buf)
		for i := range n {
			out.Samples = append(out.Samples, float64(buf[i]))
		}

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("collecting samples: %w", err)
		}
		if n == 0 {
			// a source that neither advances nor ends would spin forever
			return nil, fmt.Errorf("collecting samples: %w", io.ErrNoProgress)
		}
	}

	return out, nil
}

// FixLength returns a copy of b holding exactly n samples: zeros are appended
// to shorter clips and longer clips keep their first n samples.
func FixLength(b *Buffer, n int) (*Buffer, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}

	out := &Buffer{SampleRate: b.SampleRate, Samples: make([]float64, n)}
	copy(out.Samples, b.Samples)

	return out, nil
}

// PeakNormalize returns a copy of b divided by its largest absolute sample.
// A silent buffer is returned unchanged together with ErrSilentBuffer.
func PeakNormalize(b *Buffer) (*Buffer, error) {
	out := b.Clone()

	var peak float64
	for _, v := range out.Samples {
		peak = math.Max(peak, math.Abs(v))
	}

	if peak == 0 || math.IsNaN(peak) || math.IsInf(peak, 0) {
		for i := range out.Samples {
			out.Samples[i] = 0
		}
		return out, ErrSilentBuffer
	}

	for i := range out.Samples {
		out.Samples[i] /= peak
	}

	return out, nil
}
