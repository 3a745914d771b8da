// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/ik5/cryfeat/audio"
	"github.com/ik5/cryfeat/utils"
)

// Encode writes b as a mono integer PCM WAV of the given bit depth (16 or 24).
// The encoder patches the header sizes on Close, so w must be seekable.
func Encode(w io.WriteSeeker, b *audio.Buffer, bitDepth int) error {
	if bitDepth != 16 && bitDepth != 24 {
		return fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}

	enc := gowav.NewEncoder(w, b.SampleRate, bitDepth, 1, formatPCM)

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: b.SampleRate},
		Data:           make([]int, len(b.Samples)),
		SourceBitDepth: bitDepth,
	}
	for i, v := range b.Samples {
		buf.Data[i] = utils.FloatToPCM(v, bitDepth)
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("writing wav samples: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("closing wav encoder: %w", err)
	}

	return nil
}
