// SPDX-License-Identifier: EPL-2.0

package tensor

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/x448/float16"
)

// Encoding names a wire format for tensors.
type Encoding string

const (
	EncodingJSON    Encoding = "json"
	EncodingMsgpack Encoding = "msgpack"
	// EncodingFloat16 is raw little-endian half precision data, no header.
	EncodingFloat16 Encoding = "f16"
)

// Encodings lists every supported encoding.
func Encodings() []Encoding {
	return []Encoding{EncodingJSON, EncodingMsgpack, EncodingFloat16}
}

// ParseEncoding maps a name to an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(s) {
	case EncodingJSON, EncodingMsgpack, EncodingFloat16:
		return Encoding(s), nil
	case "float16":
		return EncodingFloat16, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, s)
}

// Encode writes t to w in the given encoding.
func Encode(w io.Writer, t Tensor, enc Encoding) error {
	var err error

	switch enc {
	case EncodingJSON:
		err = json.NewEncoder(w).Encode(t)
	case EncodingMsgpack:
		err = msgpack.NewEncoder(w).Encode(t)
	case EncodingFloat16:
		_, err = w.Write(Float16Bytes(t))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEncoding, enc)
	}

	if err != nil {
		return fmt.Errorf("encoding tensor as %s: %w", enc, err)
	}

	return nil
}

// Decode reads a JSON or MessagePack tensor from r and validates its shape.
// Float16 data has no shape; use DecodeFloat16.
func Decode(r io.Reader, enc Encoding) (Tensor, error) {
	var (
		t   Tensor
		err error
	)

	switch enc {
	case EncodingJSON:
		err = json.NewDecoder(r).Decode(&t)
	case EncodingMsgpack:
		err = msgpack.NewDecoder(r).Decode(&t)
	default:
		return Tensor{}, fmt.Errorf("%w: cannot decode %q without a shape", ErrUnknownEncoding, enc)
	}

	if err != nil {
		return Tensor{}, fmt.Errorf("decoding %s tensor: %w", enc, err)
	}

	return New(t.Shape, t.Data)
}

// Float16Bytes converts every element to IEEE 754 binary16, little endian.
// Values outside the half range become infinities.
func Float16Bytes(t Tensor) []byte {
	out := make([]byte, 0, 2*t.Len())
	for _, v := range t.Data {
		out = binary.LittleEndian.AppendUint16(out, float16.Fromfloat32(v).Bits())
	}

	return out
}

// DecodeFloat16 reads raw half precision data for a tensor of the given shape.
func DecodeFloat16(r io.Reader, shape ...int) (Tensor, error) {
	n, err := size(shape)
	if err != nil {
		return Tensor{}, err
	}

	raw := make([]byte, 2*n)
	if _, err := io.ReadFull(r, raw); err != nil {
		return Tensor{}, fmt.Errorf("decoding f16 tensor %v: %w", shape, err)
	}

	data := make([]float32, n)
	for i := range data {
		data[i] = float16.Frombits(binary.LittleEndian.Uint16(raw[2*i:])).Float32()
	}

	return New(shape, data)
}
