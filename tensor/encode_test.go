// SPDX-License-Identifier: EPL-2.0

package tensor

import (
	"bytes"
	"errors"
	"testing"
)

func sample(t *testing.T) Tensor {
	t.Helper()

	tn, err := New([]int{1, 2, 3}, []float32{0, 0.5, -1.25, 3, 100, -0.0625})
	if err != nil {
		t.Fatal(err)
	}

	return tn
}

func TestEncode_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, enc := range []Encoding{EncodingJSON, EncodingMsgpack} {
		t.Run(string(enc), func(t *testing.T) {
			t.Parallel()

			src := sample(t)

			var buf bytes.Buffer
			if err := Encode(&buf, src, enc); err != nil {
				t.Fatal(err)
			}

			got, err := Decode(&buf, enc)
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(src) {
				t.Errorf("Decode() = %v %v, want %v %v", got.Shape, got.Data, src.Shape, src.Data)
			}
		})
	}
}

func TestEncode_Float16(t *testing.T) {
	t.Parallel()

	// every sample value is exactly representable in half precision
	src := sample(t)

	var buf bytes.Buffer
	if err := Encode(&buf, src, EncodingFloat16); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 2*src.Len() {
		t.Fatalf("encoded %d bytes, want %d", buf.Len(), 2*src.Len())
	}

	// 0.5 is 0x3800
	if b := buf.Bytes()[2:4]; b[0] != 0x00 || b[1] != 0x38 {
		t.Errorf("0.5 encoded as % x, want 00 38", b)
	}

	got, err := DecodeFloat16(&buf, 1, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(src) {
		t.Errorf("DecodeFloat16() = %v, want %v", got.Data, src.Data)
	}
}

func TestDecodeFloat16_Short(t *testing.T) {
	t.Parallel()

	if _, err := DecodeFloat16(bytes.NewReader([]byte{0, 0, 0}), 2); err == nil {
		t.Error("DecodeFloat16() on truncated data succeeded")
	}
}

func TestDecode_InvalidShape(t *testing.T) {
	t.Parallel()

	in := `{"shape":[2,2],"data":[1,2,3]}`
	if _, err := Decode(bytes.NewBufferString(in), EncodingJSON); !errors.Is(err, ErrInvalidShape) {
		t.Errorf("Decode() error = %v, want ErrInvalidShape", err)
	}
}

func TestParseEncoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Encoding
		err  error
	}{
		{in: "json", want: EncodingJSON},
		{in: "msgpack", want: EncodingMsgpack},
		{in: "f16", want: EncodingFloat16},
		{in: "float16", want: EncodingFloat16},
		{in: "npy", err: ErrUnknownEncoding},
	}

	for _, tt := range tests {
		got, err := ParseEncoding(tt.in)
		if !errors.Is(err, tt.err) {
			t.Errorf("ParseEncoding(%q) error = %v, want %v", tt.in, err, tt.err)
		}
		if got != tt.want {
			t.Errorf("ParseEncoding(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if err := Encode(&bytes.Buffer{}, sample(t), "npy"); !errors.Is(err, ErrUnknownEncoding) {
		t.Errorf("Encode(npy) error = %v, want ErrUnknownEncoding", err)
	}
	if _, err := Decode(&bytes.Buffer{}, EncodingFloat16); !errors.Is(err, ErrUnknownEncoding) {
		t.Errorf("Decode(f16) error = %v, want ErrUnknownEncoding", err)
	}
}

func BenchmarkEncode_Msgpack(b *testing.B) {
	tn := Zeros(1, 128, 128, 1)

	var buf bytes.Buffer
	b.ReportAllocs()
	for b.Loop() {
		buf.Reset()
		_ = Encode(&buf, tn, EncodingMsgpack)
	}
}
