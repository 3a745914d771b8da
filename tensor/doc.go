// SPDX-License-Identifier: EPL-2.0

// Package tensor holds dense float32 arrays with an explicit shape, the
// values the feature pipeline hands to a classification model.
//
// Data is row-major: the last axis varies fastest. A Tensor is a small value
// type; methods that change the shape return a new Tensor sharing no memory
// with the receiver.
//
// # Encodings
//
// Tensors can be written as JSON, as MessagePack or as raw little-endian
// IEEE 754 half precision values:
//
//	err := tensor.Encode(w, t, tensor.EncodingMsgpack)
//	t, err := tensor.Decode(r, tensor.EncodingMsgpack)
//
// The float16 encoding carries no shape; DecodeFloat16 takes it from the
// caller.
package tensor
