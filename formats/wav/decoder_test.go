// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ik5/cryfeat/audio"
	"github.com/ik5/cryfeat/internal/audiotest"
)

type chunk struct {
	id   string
	data []byte
}

// buildWAV assembles a RIFF/WAVE file from a fmt description, raw sample
// bytes and optional extra chunks placed before data.
func buildWAV(format, channels uint16, rate uint32, bits uint16, pcm []byte, extra ...chunk) []byte {
	return assembleWAV(fmtBytes(format, channels, rate, bits), pcm, extra...)
}

func fmtBytes(format, channels uint16, rate uint32, bits uint16) []byte {
	fmtChunk := new(bytes.Buffer)
	_ = binary.Write(fmtChunk, binary.LittleEndian, format)
	_ = binary.Write(fmtChunk, binary.LittleEndian, channels)
	_ = binary.Write(fmtChunk, binary.LittleEndian, rate)
	_ = binary.Write(fmtChunk, binary.LittleEndian, rate*uint32(channels)*uint32(bits/8))
	_ = binary.Write(fmtChunk, binary.LittleEndian, channels*(bits/8))
	_ = binary.Write(fmtChunk, binary.LittleEndian, bits)

	return fmtChunk.Bytes()
}

// buildExtensibleWAV writes a WAVE_FORMAT_EXTENSIBLE fmt chunk whose SubFormat
// GUID starts with sub followed by tail.
func buildExtensibleWAV(sub uint16, tail []byte, channels uint16, rate uint32, bits uint16, pcm []byte) []byte {
	fmtChunk := bytes.NewBuffer(fmtBytes(formatExtensible, channels, rate, bits))
	_ = binary.Write(fmtChunk, binary.LittleEndian, uint16(22)) // cbSize
	_ = binary.Write(fmtChunk, binary.LittleEndian, bits)       // valid bits
	_ = binary.Write(fmtChunk, binary.LittleEndian, uint32(0))  // channel mask
	_ = binary.Write(fmtChunk, binary.LittleEndian, sub)
	fmtChunk.Write(tail)

	return assembleWAV(fmtChunk.Bytes(), pcm, chunk{id: "LIST", data: []byte("INFOISFT")})
}

func assembleWAV(fmtData, pcm []byte, extra ...chunk) []byte {
	body := new(bytes.Buffer)
	body.WriteString("WAVE")

	chunks := append([]chunk{{id: "fmt ", data: fmtData}}, extra...)
	chunks = append(chunks, chunk{id: "data", data: pcm})

	for _, c := range chunks {
		body.WriteString(c.id)
		_ = binary.Write(body, binary.LittleEndian, uint32(len(c.data)))
		body.Write(c.data)
		if len(c.data)%2 == 1 {
			body.WriteByte(0)
		}
	}

	out := new(bytes.Buffer)
	out.WriteString("RIFF")
	_ = binary.Write(out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())

	return out.Bytes()
}

func readAll(t *testing.T, src audio.Source) []float32 {
	t.Helper()

	var out []float32
	buf := make([]float32, 64*src.Channels())
	for {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}
}

func TestDecoder_Encodings(t *testing.T) {
	t.Parallel()

	le16 := func(v ...int16) []byte {
		b := new(bytes.Buffer)
		_ = binary.Write(b, binary.LittleEndian, v)
		return b.Bytes()
	}
	le32 := func(v ...int32) []byte {
		b := new(bytes.Buffer)
		_ = binary.Write(b, binary.LittleEndian, v)
		return b.Bytes()
	}
	f32 := func(v ...float32) []byte {
		b := new(bytes.Buffer)
		_ = binary.Write(b, binary.LittleEndian, v)
		return b.Bytes()
	}

	tests := []struct {
		name     string
		file     []byte
		channels int
		want     []float32
	}{
		{
			name:     "pcm16 mono",
			file:     buildWAV(formatPCM, 1, 16000, 16, le16(0, 16384, -16384, -32768)),
			channels: 1,
			want:     []float32{0, 0.5, -0.5, -1},
		},
		{
			name:     "pcm16 stereo",
			file:     buildWAV(formatPCM, 2, 44100, 16, le16(16384, -16384, 8192, -8192)),
			channels: 2,
			want:     []float32{0.5, -0.5, 0.25, -0.25},
		},
		{
			name:     "pcm8 unsigned",
			file:     buildWAV(formatPCM, 1, 8000, 8, []byte{128, 192, 64, 0}),
			channels: 1,
			want:     []float32{0, 0.5, -0.5, -1},
		},
		{
			name:     "pcm24",
			file:     buildWAV(formatPCM, 1, 16000, 24, []byte{0, 0, 0x40, 0, 0, 0xC0}),
			channels: 1,
			want:     []float32{0.5, -0.5},
		},
		{
			name:     "pcm32",
			file:     buildWAV(formatPCM, 1, 16000, 32, le32(1<<30, -(1<<30))),
			channels: 1,
			want:     []float32{0.5, -0.5},
		},
		{
			name:     "float32",
			file:     buildWAV(formatFloat, 1, 16000, 32, f32(0.25, -0.75)),
			channels: 1,
			want:     []float32{0.25, -0.75},
		},
		{
			name:     "extensible pcm16",
			file:     buildExtensibleWAV(formatPCM, guidTail, 2, 16000, 16, le16(16384, -16384)),
			channels: 2,
			want:     []float32{0.5, -0.5},
		},
		{
			name:     "extensible float32",
			file:     buildExtensibleWAV(formatFloat, guidTail, 1, 16000, 32, f32(0.3802, -0.5, 0.125)),
			channels: 1,
			want:     []float32{0.3802, -0.5, 0.125},
		},
		{
			name: "unknown chunks skipped",
			file: buildWAV(formatPCM, 1, 16000, 16, le16(16384),
				chunk{id: "LIST", data: []byte("INFOISFT")},
				chunk{id: "junk", data: []byte{1, 2, 3}},
			),
			channels: 1,
			want:     []float32{0.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src, err := Decoder{}.Decode(bytes.NewReader(tt.file))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			defer src.Close()

			if src.Channels() != tt.channels {
				t.Errorf("Channels() = %d, want %d", src.Channels(), tt.channels)
			}

			got := readAll(t, src)
			if len(got) != len(tt.want) {
				t.Fatalf("read %d samples, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if math.Abs(float64(got[i]-tt.want[i])) > 1e-6 {
					t.Errorf("sample %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDecoder_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		file []byte
		want error
	}{
		{name: "not riff", file: []byte("This is not a WAV file at all"), want: ErrNotWavFile},
		{name: "empty", file: nil, want: ErrNotWavFile},
		{name: "a-law", file: buildWAV(6, 1, 8000, 8, []byte{1, 2}), want: ErrUnsupportedEncoding},
		{name: "12 bit", file: buildWAV(formatPCM, 1, 8000, 12, []byte{1, 2}), want: ErrUnsupportedBitDepth},
		{name: "64 bit float", file: buildWAV(formatFloat, 1, 8000, 64, make([]byte, 8)), want: ErrUnsupportedBitDepth},
		{name: "extensible a-law", file: buildExtensibleWAV(6, guidTail, 1, 8000, 8, []byte{1, 2}), want: ErrUnsupportedEncoding},
		{name: "extensible foreign guid", file: buildExtensibleWAV(formatPCM, make([]byte, 14), 1, 8000, 16, []byte{1, 2}), want: ErrUnsupportedEncoding},
		{name: "extensible short fmt", file: assembleWAV(fmtBytes(formatExtensible, 1, 8000, 16), []byte{1, 2}), want: ErrUnsupportedWavLayout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decoder{}.Decode(bytes.NewReader(tt.file))
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecoder_NonSeekableReader(t *testing.T) {
	t.Parallel()

	file := audiotest.SineWAV(16000, 0.5, 440, 0.5)
	src, err := Decoder{}.Decode(io.MultiReader(bytes.NewReader(file)))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if got := len(readAll(t, src)); got != 8000 {
		t.Errorf("read %d samples, want 8000", got)
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, depth := range []int{16, 24} {
		path := filepath.Join(t.TempDir(), "clip.wav")
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}

		in := &audio.Buffer{SampleRate: 22050, Samples: audiotest.SineSamples(2205, 22050, 300, 0.8)}
		if err := Encode(f, in, depth); err != nil {
			t.Fatalf("Encode(%d) error = %v", depth, err)
		}
		_ = f.Close()

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}

		src, err := Decoder{}.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if src.SampleRate() != 22050 {
			t.Errorf("SampleRate() = %d, want 22050", src.SampleRate())
		}

		got := readAll(t, src)
		if len(got) != len(in.Samples) {
			t.Fatalf("depth %d: read %d samples, want %d", depth, len(got), len(in.Samples))
		}
		for i := range got {
			if math.Abs(float64(got[i])-in.Samples[i]) > 1e-3 {
				t.Fatalf("depth %d: sample %d = %v, want %v", depth, i, got[i], in.Samples[i])
			}
		}
	}
}

func TestEncode_BitDepth(t *testing.T) {
	t.Parallel()

	f, err := os.Create(filepath.Join(t.TempDir(), "x.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := Encode(f, &audio.Buffer{SampleRate: 8000}, 8); !errors.Is(err, ErrUnsupportedBitDepth) {
		t.Errorf("Encode(8) error = %v, want ErrUnsupportedBitDepth", err)
	}
}

func BenchmarkDecode_Read(b *testing.B) {
	file := audiotest.SineWAV(16000, 4, 440, 0.5)
	buf := make([]float32, 4096)

	for b.Loop() {
		src, err := Decoder{}.Decode(bytes.NewReader(file))
		if err != nil {
			b.Fatal(err)
		}
		for {
			if _, err := src.ReadSamples(buf); err != nil {
				break
			}
		}
	}
}
