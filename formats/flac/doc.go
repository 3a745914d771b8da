// SPDX-License-Identifier: EPL-2.0

// Package flac decodes native FLAC audio.
//
// This package uses github.com/mewkiz/flac, a pure Go FLAC decoder. FLAC is
// lossless, so it is the format of choice when recordings are archived before
// analysis.
//
// # Supported Formats
//
// The decoder supports:
//   - Native FLAC streams starting with the fLaC marker
//   - Bit depths up to 32
//   - Any channel count, including the stereo decorrelation modes
//   - Any sample rate in STREAMINFO
//
// # Decoding FLAC Files
//
// Use the Decoder directly, or let audio.Load pick it from the fLaC marker:
//
//	file, _ := os.Open("cry.flac")
//	source, err := flac.Decoder{}.Decode(file)
//	if err != nil {
//	    // Handle error
//	}
//	defer source.Close()
//
//	buf := make([]float32, 4096)
//	n, err := source.ReadSamples(buf)
//
// Close releases the underlying stream and closes the reader when it is an
// io.Closer.
//
// # Output Format
//
// FLAC decoder output:
//   - Sample format: interleaved float32, scaled by 2^(bits-1) into [-1, 1)
//   - Channels: STREAMINFO channel count
//   - Sample rate: STREAMINFO sample rate
//
// Frames are decoded one at a time and interleaved, so memory use is bounded
// by the largest block size rather than the clip length.
//
// # Use in the Pipeline
//
// formats.Register adds the decoder to an audio.Registry under
// audio.FormatFLAC. audio.Load then sniffs the container, decodes it, mixes
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
//   - ErrNotFlacFile: no fLaC marker, or a STREAMINFO block mewkiz/flac
//     could not parse
//   - ErrUnsupportedLayout: a zero rate, channel count or bit depth, a depth
//     above 32, or a frame whose channel count differs from STREAMINFO
//
//	if errors.Is(err, flac.ErrUnsupportedLayout) {
//	    // damaged stream
//	}
//
// # Limitations
//
// Note:
//   - Decoding only, there is no FLAC writer
//   - FLAC in Ogg is not handled; audio.Sniff routes OggS streams to vorbis
//   - Metadata blocks other than STREAMINFO (tags, pictures, cue sheets) are
//     ignored
package flac
