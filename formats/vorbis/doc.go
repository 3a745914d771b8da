// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis audio.
//
// This package uses github.com/jfreymuth/oggvorbis, a pure Go decoder for the
// Vorbis I codec in an Ogg container. Vorbis is a free lossy codec, common
// in browser recordings and in audio exported from Android devices.
//
// # Supported Formats
//
// The decoder supports:
//   - Ogg Vorbis (.ogg and .oga files)
//   - Variable bitrates
//   - Any channel count the codec allows
//   - Any sample rate
//
// # Decoding Vorbis Files
//
// Use the Decoder directly, or let audio.Load pick it from the OggS capture
// pattern:
//
//	file, _ := os.Open("cry.ogg")
//	source, err := vorbis.Decoder{}.Decode(file)
//	if err != nil {
//	    // Handle error
//	}
//
//	buf := make([]float32, 4096)
//	n, err := source.ReadSamples(buf)
//
// The input does not need to be seekable; pages are read as they come.
//
// # Output Format
//
// Vorbis decoder output:
//   - Sample format: interleaved float32, as produced by the codec
//   - Channels: as declared in the identification header
//   - Sample rate: as declared in the identification header
//
// The codec already works in floating point, so samples are passed through
// unscaled. Lossy coding can overshoot a little past [-1, 1] on clipped
// recordings; the extractors normalize later, so nothing is clamped here.
//
// # Frame Alignment
//
// oggvorbis only fills whole frames, so ReadSamples trims dst to a multiple of
// the channel count before decoding. A caller passing a buffer shorter than
// one frame gets (0, nil). Reads that decode no samples are retried a bounded
// number of times before ReadSamples reports io.ErrNoProgress.
//
// # Use in the Pipeline
//
// formats.Register adds the decoder to an audio.Registry under
// audio.FormatVorbis. audio.Load then sniffs the container, decodes it, mixes
// it down to mono and resamples it in one call:
//
//	reg := formats.NewRegistry()
//	buffer, err := audio.Load(file, reg, 16000)
//	// buffer.Samples is mono float64 at 16 kHz
//
// cryfeat.Pipeline does the same with its own registry, so most callers never
// touch this package directly.
//
// # Error Handling
//
// The package defines:
//   - ErrNotVorbisFile: the stream is not Ogg, or carries no usable Vorbis
//     identification header
//
// Decode errors met in later packets are returned wrapped from ReadSamples:
//
//	n, err := source.ReadSamples(buf)
//	if err != nil && !errors.Is(err, io.EOF) {
//	    // corrupt packet
//	}
//
// # Limitations
//
// Note:
//   - Decoding only, there is no Vorbis writer
//   - Opus, Speex and FLAC in Ogg are not handled; audio.Sniff routes every
//     OggS stream here, so they fail with ErrNotVorbisFile
//   - Chained streams with differing rates or channel counts are not supported
package vorbis
