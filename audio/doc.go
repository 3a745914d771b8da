// SPDX-License-Identifier: EPL-2.0

// Package audio turns encoded clips into mono float64 buffers at a fixed
// sample rate.
//
// # Source Interface
//
// Every decoder and processor implements Source, so stages chain freely:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// # Channel Mixing
//
// MonoMixer averages the channels of every frame:
//
//	mono := audio.NewMonoMixer(source)
//
// # Resampling
//
// Resampler converts the rate with the soxr port from
// github.com/tphakala/go-audio-resampling. Once the source is drained the
// output holds exactly ceil(n*dst/src) frames:
//
//	res, err := audio.NewResampler(mono, 16000)
//
// # Loading
//
// Load sniffs the container, decodes it with the matching Registry entry and
// runs the mix and resample chain, returning a Buffer. Every failure wraps
// ErrDecode:
//
//	buf, err := audio.Load(r, registry, 16000)
//	if errors.Is(err, audio.ErrDecode) {
//	    // unreadable input
//	}
//
// FixLength and PeakNormalize are the two clip-level operations applied before
// feature extraction.
package audio
