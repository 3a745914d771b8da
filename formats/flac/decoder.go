// SPDX-License-Identifier: EPL-2.0

package flac

import (
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"

	"github.com/ik5/cryfeat/audio"
)

// frameReader is the part of flac.Stream the source needs, split out for tests.
type frameReader interface {
	ParseNext() (*frame.Frame, error)
	Close() error
}

// source interleaves the subframes of each decoded FLAC frame.
type source struct {
	stream     frameReader
	sampleRate int
	channels   int
	scale      float32

	pending []float32
	done    bool
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) BufSize() int    { return 4096 }

func (s *source) Close() error {
	if err := s.stream.Close(); err != nil {
		return fmt.Errorf("closing flac stream: %w", err)
	}

	return nil
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	for len(s.pending) == 0 && !s.done {
		if err := s.next(); err != nil {
			return 0, err
		}
	}

	n := copy(dst, s.pending)
	s.pending = s.pending[n:]

	if s.done && len(s.pending) == 0 {
		return n, io.EOF
	}

	return n, nil
}

func (s *source) next() error {
	f, err := s.stream.ParseNext()
	if errors.Is(err, io.EOF) {
		s.done = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("decoding flac frame: %w", err)
	}

	if len(f.Subframes) != s.channels {
		return fmt.Errorf("%w: frame has %d channels, stream %d", ErrUnsupportedLayout, len(f.Subframes), s.channels)
	}

	frames := len(f.Subframes[0].Samples)
	s.pending = s.pending[:0]
	for i := range frames {
		for _, sub := range f.Subframes {
			s.pending = append(s.pending, float32(sub.Samples[i])/s.scale)
		}
	}

	return nil
}

// Decoder reads native FLAC streams at any bit depth up to 32.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFlacFile, err)
	}

	info := stream.Info
	if info == nil || info.SampleRate == 0 || info.NChannels == 0 || info.BitsPerSample == 0 || info.BitsPerSample > 32 {
		_ = stream.Close()
		return nil, ErrUnsupportedLayout
	}

	return &source{
		stream:     stream,
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
		scale:      float32(uint64(1) << (info.BitsPerSample - 1)),
	}, nil
}
