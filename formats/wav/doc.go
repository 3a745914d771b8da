// SPDX-License-Identifier: EPL-2.0

// Package wav decodes and writes RIFF/WAVE audio.
//
// Decoding goes through github.com/go-audio/wav, which walks the RIFF chunks,
// parses the fmt chunk and positions the reader on the data chunk. Writing
// either goes through the go-audio encoder or emits a canonical header by
// hand.
//
// # Supported Formats
//
// The decoder accepts:
//   - Integer PCM at 8 (unsigned), 16, 24 and 32 bits
//   - 32-bit IEEE float
//   - WAVE_FORMAT_EXTENSIBLE files whose SubFormat GUID names PCM or float
//   - Any channel count and any sample rate
//
// Chunks other than fmt and data (LIST, fact, cue and so on) are skipped.
//
// # Decoding WAV Files
//
// Use the Decoder directly, or let audio.Load pick it from the RIFF header:
//
//	file, _ := os.Open("cry.wav")
//	source, err := wav.Decoder{}.Decode(file)
//	if err != nil {
//	    // Handle error
//	}
//
//	buf := make([]float32, 4096)
//	n, err := source.ReadSamples(buf)
//
// Samples come out interleaved as float32. Integer PCM is scaled by
// 2^(bits-1) into [-1, 1); float data is passed through as stored. Input that
// is not an io.ReadSeeker is read into memory first, since go-audio seeks
// between chunks.
//
// # Extensible Format
//
// go-audio reports the 0xFFFE format tag but drops the fmt extension, so the
// decoder reads the fmt chunk a second time to get the SubFormat GUID. The
// first two GUID bytes carry the plain format tag and the remaining fourteen
// must be the standard KSDATAFORMAT_SUBTYPE suffix. A-law, mu-law and any
// vendor GUID are rejected.
//
// # Writing WAV Files
//
// Two writers exist:
//
//	// mono PCM16 or PCM24 through go-audio; needs an io.WriteSeeker
//	err := wav.Encode(file, buffer, 16)
//
//	// mono PCM16 with a 44-byte header; any io.Writer works
//	err = wav.WriteBuffer(w, buffer)
//	err = wav.WriteWAV16(w, 16000, samples)
//
// Encode patches the RIFF and data sizes when it closes, which is why it
// needs to seek. WriteBuffer knows the length up front, so it can stream into
// an HTTP response. The fix command writes its 16 kHz mono output this way.
//
// # Error Handling
//
// The package defines:
//   - ErrNotWavFile: no RIFF/WAVE header
//   - ErrUnsupportedWavLayout: missing or malformed fmt or data chunks
//   - ErrUnsupportedEncoding: a format tag or SubFormat other than PCM or float
//   - ErrUnsupportedBitDepth: PCM outside 8/16/24/32 bits, float other than 32
//
// Errors are wrapped, so compare with errors.Is:
//
//	if errors.Is(err, wav.ErrUnsupportedEncoding) {
//	    // compressed WAV, transcode it first
//	}
//
// # Limitations
//
// Note:
//   - RIFX (big-endian) and RF64 containers are refused by audio.Sniff
//   - 64-bit float data is not decoded
//   - Compressed codecs stored in WAV (ADPCM, GSM, A-law, mu-law) are not decoded
//   - The writers only produce mono files
package wav
