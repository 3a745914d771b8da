// SPDX-License-Identifier: EPL-2.0

// Package formats wires every container decoder into an audio.Registry.
package formats

import (
	"github.com/ik5/cryfeat/audio"
	"github.com/ik5/cryfeat/formats/aiff"
	"github.com/ik5/cryfeat/formats/flac"
	"github.com/ik5/cryfeat/formats/mp3"
	"github.com/ik5/cryfeat/formats/vorbis"
	"github.com/ik5/cryfeat/formats/wav"
)

// Register adds the WAV, AIFF, FLAC, Ogg Vorbis and MP3 decoders to reg under
// the keys returned by audio.Sniff.
func Register(reg *audio.Registry) {
	reg.Register(audio.FormatWAV, wav.Decoder{})
	reg.Register(audio.FormatAIFF, aiff.Decoder{})
	reg.Register(audio.FormatFLAC, flac.Decoder{})
	reg.Register(audio.FormatVorbis, vorbis.Decoder{})
	reg.Register(audio.FormatMP3, mp3.Decoder{})
}

// NewRegistry returns a registry holding every supported decoder.
func NewRegistry() *audio.Registry {
	reg := audio.NewRegistry()
	Register(reg)

	return reg
}
