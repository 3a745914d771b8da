// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/ik5/cryfeat/audio"
	"github.com/ik5/cryfeat/utils"
)

// WAVE format tags accepted by the decoder.
const (
	formatPCM        = 1
	formatFloat      = 3
	formatExtensible = 0xFFFE
)

// pcmReader is the part of gowav.Decoder the source needs, split out for tests.
type pcmReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// source wraps a go-audio WAV decoder positioned on the data chunk.
type source struct {
	dec        pcmReader
	sampleRate int
	channels   int
	bitDepth   int
	float      bool
	intBuf     *goaudio.IntBuffer
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int {
	if s.intBuf != nil {
		return cap(s.intBuf.Data)
	}
	return 4096
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < len(dst) {
		s.intBuf = &goaudio.IntBuffer{
			Data:           make([]int, len(dst)),
			Format:         s.dec.Format(),
			SourceBitDepth: s.bitDepth,
		}
	}
	s.intBuf.Data = s.intBuf.Data[:len(dst)]

	n, err := s.dec.PCMBuffer(s.intBuf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("reading wav samples: %w", err)
	}
	if n == 0 {
		return 0, io.EOF
	}

	for i, v := range s.intBuf.Data[:n] {
		dst[i] = s.convert(v)
	}

	if n < len(dst) || errors.Is(err, io.EOF) {
		return n, io.EOF
	}

	return n, nil
}

func (s *source) convert(v int) float32 {
	switch {
	case s.float:
		return math.Float32frombits(uint32(int32(v)))
	case s.bitDepth == 8:
		// 8-bit WAV is unsigned
		return utils.IntToFloat32(v-128, 8)
	default:
		return utils.IntToFloat32(v, s.bitDepth)
	}
}

// Decoder reads RIFF/WAVE files holding integer PCM (8, 16, 24 or 32 bit) or
// 32-bit IEEE float samples, tagged directly or through a
// WAVE_FORMAT_EXTENSIBLE sub format. Chunks other than fmt and data are skipped.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading wav data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := gowav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotWavFile
	}

	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedWavLayout, err)
	}

	if dec.PCMChunk == nil {
		if err := dec.FwdToPCM(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedWavLayout, err)
		}
	}

	if dec.SampleRate == 0 || dec.NumChans == 0 {
		return nil, ErrUnsupportedWavLayout
	}

	bitDepth := int(dec.BitDepth)
	isFloat := false

	tag := dec.WavAudioFormat
	if tag == formatExtensible {
		sub, err := subFormat(rs)
		if err != nil {
			return nil, err
		}
		tag = sub
	}

	switch tag {
	case formatPCM:
		switch bitDepth {
		case 8, 16, 24, 32:
		default:
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
		}
	case formatFloat:
		if bitDepth != 32 {
			return nil, fmt.Errorf("%w: %d-bit float", ErrUnsupportedBitDepth, bitDepth)
		}
		isFloat = true
	default:
		return nil, fmt.Errorf("%w: format tag %#x", ErrUnsupportedEncoding, tag)
	}

	return &source{
		dec:        dec,
		sampleRate: int(dec.SampleRate),
		channels:   int(dec.NumChans),
		bitDepth:   bitDepth,
		float:      isFloat,
	}, nil
}

// guidTail is bytes 2..15 of every KSDATAFORMAT_SUBTYPE GUID; the first two
// bytes carry the plain format tag.
var guidTail = []byte{0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71}

// subFormat returns the format tag inside the SubFormat GUID of an extensible
// fmt chunk. go-audio skips the extension bytes, so the chunk is read again
// and rs is left where it was.
func subFormat(rs io.ReadSeeker) (uint16, error) {
	pos, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnsupportedWavLayout, err)
	}
	defer rs.Seek(pos, io.SeekStart)

	if _, err := rs.Seek(12, io.SeekStart); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnsupportedWavLayout, err)
	}

	var hdr [8]byte
	for {
		if _, err := io.ReadFull(rs, hdr[:]); err != nil {
			return 0, fmt.Errorf("%w: fmt chunk not found", ErrUnsupportedWavLayout)
		}
		size := int64(binary.LittleEndian.Uint32(hdr[4:]))

		if string(hdr[:4]) != "fmt " {
			if _, err := rs.Seek(size+size%2, io.SeekCurrent); err != nil {
				return 0, fmt.Errorf("%w: %w", ErrUnsupportedWavLayout, err)
			}
			continue
		}

		// 16 base bytes, cbSize, valid bits, channel mask, then the GUID
		if size < 40 {
			return 0, fmt.Errorf("%w: extensible fmt chunk of %d bytes", ErrUnsupportedWavLayout, size)
		}
		ext := make([]byte, 40)
		if _, err := io.ReadFull(rs, ext); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrUnsupportedWavLayout, err)
		}

		guid := ext[24:40]
		if !bytes.Equal(guid[2:], guidTail) {
			return 0, fmt.Errorf("%w: sub format %x", ErrUnsupportedEncoding, guid)
		}

		return binary.LittleEndian.Uint16(guid[:2]), nil
	}
}
