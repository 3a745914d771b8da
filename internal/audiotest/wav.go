// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"bytes"
	"encoding/binary"
)

// WAV16 builds a canonical 44-byte-header PCM16 WAV file. samples are interleaved.
func WAV16(sampleRate, channels int, samples []int16) []byte {
	buf := new(bytes.Buffer)

	numChannels := uint16(channels)
	byteRate := uint32(sampleRate) * uint32(numChannels) * 2
	blockAlign := numChannels * 2
	dataSize := uint32(len(samples) * 2)

	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(buf, binary.LittleEndian, numChannels)
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, byteRate)
	_ = binary.Write(buf, binary.LittleEndian, blockAlign)
	_ = binary.Write(buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, dataSize)
	_ = binary.Write(buf, binary.LittleEndian, samples)

	return buf.Bytes()
}

// PCM16 quantizes float samples in [-1,1] to int16 with clamping.
func PCM16(samples []float64) []int16 {
	out := make([]int16, len(samples))
	for i, v := range samples {
		v = max(-1, min(1, v))
		out[i] = int16(v * 32767)
	}

	return out
}

// SineWAV builds a mono PCM16 WAV holding seconds of a sine at frequency Hz.
func SineWAV(sampleRate int, seconds, frequency, amplitude float64) []byte {
	n := int(seconds * float64(sampleRate))
	return WAV16(sampleRate, 1, PCM16(SineSamples(n, sampleRate, frequency, amplitude)))
}

// SilentWAV builds a mono PCM16 WAV of zeros.
func SilentWAV(sampleRate int, seconds float64) []byte {
	return WAV16(sampleRate, 1, make([]int16, int(seconds*float64(sampleRate))))
}
