// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF and AIFF-C audio.
//
// This package uses github.com/go-audio/aiff to parse the FORM container and
// its COMM and SSND chunks. AIFF is Apple's uncompressed counterpart to WAV and
// is what recordings exported from macOS tools usually arrive as.
//
// # Supported Formats
//
// The decoder accepts:
//   - AIFF files (FORM type AIFF)
//   - AIFF-C files stored uncompressed (NONE) or byte swapped (sowt)
//   - Signed PCM at 8, 16, 24 and 32 bits
//   - Any channel count and any sample rate
//
// # Decoding AIFF Files
//
// Use the Decoder directly, or let audio.Load pick it from the FORM header:
//
//	file, _ := os.Open("cry.aif")
//	source, err := aiff.Decoder{}.Decode(file)
//	if errors.Is(err, aiff.ErrNotAiffFile) {
//	    // not an AIFF container
//	}
//
//	buf := make([]float32, 4096)
//	n, err := source.ReadSamples(buf)
//
// go-audio seeks between chunks, so input that is not an io.ReadSeeker is
// read into memory first.
//
// # Output Format
//
// AIFF decoder output:
//   - Sample format: interleaved float32, scaled by 2^(bits-1) into [-1, 1)
//   - Channels: as stored in the COMM chunk
//   - Sample rate: the COMM chunk's 80-bit extended rate, rounded to an integer
//
// AIFF samples are signed at every depth, including 8 bits, unlike WAV where
// 8-bit data is unsigned.
//
// # AIFF vs. WAV
//
// AIFF is similar to WAV but:
//   - Uses big-endian samples (sowt AIFF-C is little-endian)
//   - Stores the sample rate as an 80-bit float
//   - Keeps audio in an SSND chunk with its own offset and block size
//
// go-audio handles these differences and hands back plain integers.
//
// # Error Handling
//
// The package defines:
//   - ErrNotAiffFile: no FORM header, or an AIFF-C compression go-audio refuses
//   - ErrUnsupportedBitDepth: a sample size other than 8, 16, 24 or 32 bits
//   - ErrUnsupportedAiffLayout: no usable sample rate or channel count
//
// Inside a pipeline these surface wrapped in audio.ErrDecode:
//
//	_, err := pipeline.Extract(ctx, cryfeat.VariantMel, file)
//	if errors.Is(err, aiff.ErrUnsupportedBitDepth) {
//	    // re-export at 16 bits
//	}
//
// # Limitations
//
// Note:
//   - Decoding only, there is no AIFF writer
//   - Compressed AIFF-C (alaw, ulaw, GSM, fl32 and others) is rejected
//   - Markers, loops and instrument chunks are ignored
//
// # File Extensions
//
// AIFF files typically use .aif or .aiff, AIFF-C files .aifc. Detection never
// looks at the extension: audio.Sniff matches FORM followed by AIFF or AIFC.
package aiff
