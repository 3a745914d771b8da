// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG Layer III audio.
//
// This package uses github.com/hajimehoshi/go-mp3, a pure Go decoder, so no
// cgo or system codec is needed. Phone recordings and clips shared through
// messaging apps often arrive as MP3.
//
// # Supported Formats
//
// The decoder supports:
//   - MPEG-1 and MPEG-2 Layer III
//   - Constant and variable bitrates
//   - Mono and stereo streams
//   - A leading ID3v2 tag, which go-mp3 skips
//
// audio.Sniff recognises a stream by its ID3 tag or by an MPEG frame sync
// in the first two bytes.
//
// # Decoding MP3 Files
//
// Use the Decoder directly, or let audio.Load pick it:
//
//	file, _ := os.Open("cry.mp3")
//	source, err := mp3.Decoder{}.Decode(file)
//	if err != nil {
//	    // Handle error
//	}
//
//	buf := make([]float32, 4096)
//	n, err := source.ReadSamples(buf)
//
// The input does not need to be seekable.
//
// # Output Format
//
// MP3 decoder output:
//   - Sample format: interleaved float32, PCM16 divided by 32768
//   - Channels: always 2, mono streams come out with both channels equal
//   - Sample rate: as stored in the frame headers (32, 44.1 or 48 kHz for
//     MPEG-1, half those for MPEG-2)
//
// To get the 16 kHz mono signal the extractors expect, chain the audio
// package stages:
//
//	mono := audio.NewMonoMixer(source)
//	resampled, err := audio.NewResampler(mono, 16000)
//	buffer, err := audio.Collect(resampled)
//
// # Use in the Pipeline
//
// formats.Register adds the decoder to an audio.Registry under
// audio.FormatMP3. audio.Load then sniffs the container, decodes it, mixes
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
//   - ErrNotMP3File: go-mp3 could not find or parse a first frame
//
// Decode errors met while reading later frames are returned wrapped from
// ReadSamples. A truncated final frame ends the stream with io.EOF instead.
//
// # Limitations
//
// Note:
//   - Decoding only, there is no MP3 writer
//   - Layer I and Layer II streams are not decoded
//   - MPEG-2.5 (8 kHz family) streams are not decoded
//   - The encoder delay and padding at the clip edges are kept, so the
//     decoded clip is a little longer than the source recording
package mp3
