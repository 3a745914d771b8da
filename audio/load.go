// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Format keys used by Sniff and expected in a Registry.
const (
	FormatWAV    = "wav"
	FormatAIFF   = "aiff"
	FormatFLAC   = "flac"
	FormatVorbis = "ogg"
	FormatMP3    = "mp3"
)

// Sniff identifies the container from the first bytes of a stream.
func Sniff(header []byte) (string, error) {
	switch {
	case len(header) >= 12 && bytes.Equal(header[:4], []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WAVE")):
		return FormatWAV, nil
	case len(header) >= 12 && bytes.Equal(header[:4], []byte("FORM")) &&
		(bytes.Equal(header[8:12], []byte("AIFF")) || bytes.Equal(header[8:12], []byte("AIFC"))):
		return FormatAIFF, nil
	case bytes.HasPrefix(header, []byte("fLaC")):
		return FormatFLAC, nil
	case bytes.HasPrefix(header, []byte("OggS")):
		return FormatVorbis, nil
	case bytes.HasPrefix(header, []byte("ID3")):
		return FormatMP3, nil
	case len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0:
		// MPEG audio frame sync
		return FormatMP3, nil
	case bytes.HasPrefix(header, []byte("RIFX")), bytes.HasPrefix(header, []byte("RF64")):
		return "", fmt.Errorf("%w: %s wave containers are not supported", ErrUnknownFormat, header[:4])
	}

	return "", ErrUnknownFormat
}

// Load reads r once, decodes it with the registry entry matching its container,
// mixes it down to mono and resamples it to rate. Every failure wraps ErrDecode.
func Load(r io.Reader, reg *Registry, rate int) (*Buffer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading input: %w", ErrDecode, err)
	}

	return LoadBytes(data, reg, rate)
}

// LoadBytes is Load over an in-memory clip.
func LoadBytes(data []byte, reg *Registry, rate int) (*Buffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrDecode, ErrEmptyInput)
	}

	format, err := Sniff(data[:min(len(data), 16)])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	dec, ok := reg.Get(format)
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", ErrDecode, ErrNoDecoder, format)
	}

	src, err := dec.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, format, err)
	}

	buf, err := decodeMono(src, rate)
	if cerr := src.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, format, err)
	}

	if buf.Len() == 0 {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, format, ErrEmptyInput)
	}

	return buf, nil
}

func decodeMono(src Source, rate int) (*Buffer, error) {
	if src.SampleRate() <= 0 || src.Channels() <= 0 {
		return nil, fmt.Errorf("%w: %d Hz, %d channels", ErrInvalidRate, src.SampleRate(), src.Channels())
	}

	mono := NewMonoMixer(src)

	res, err := NewResampler(mono, rate)
	if err != nil {
		return nil, err
	}

	buf, err := Collect(res)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	return buf, nil
}
