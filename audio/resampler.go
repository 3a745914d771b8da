// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resampler streams from src to a target sample rate using the pure Go soxr
// port at its high quality preset. Works on interleaved samples and preserves
// the channel count. The engine's filter delay is removed, so output frame k
// lines up with source time k/dstRate, and the total output length is fixed to
// ceil(inputFrames * dstRate / srcRate) frames once the source is drained.
type Resampler struct {
	src      Source
	srcRate  int
	dstRate  int
	channels int

	// one mono engine per channel; nil when srcRate == dstRate
	engines []resampling.Resampler
	// engine lag in output frames
	delay int
	// leading output frames still to drop per channel
	skip []int
	// resampled frames per channel not yet interleaved
	queues [][]float64

	in      []float32
	scratch []float64
	pending []float64

	consumed int // source frames read
	emitted  int // output frames handed out
	stalls   int // consecutive empty reads
	drained  bool
}

const maxStalls = 64

func NewResampler(src Source, dstRate int) (*Resampler, error) {
	if src.SampleRate() <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("%w: %d -> %d", ErrInvalidRate, src.SampleRate(), dstRate)
	}

	channels := max(src.Channels(), 1)

	r := &Resampler{
		src:      src,
		srcRate:  src.SampleRate(),
		dstRate:  dstRate,
		channels: channels,
		in:       make([]float32, 4096*channels),
	}

	if r.srcRate == r.dstRate {
		return r, nil
	}

	delay, err := engineDelay(r.srcRate, r.dstRate)
	if err != nil {
		return nil, err
	}

	r.delay = delay
	r.engines = make([]resampling.Resampler, channels)
	r.skip = make([]int, channels)
	r.queues = make([][]float64, channels)
	for c := range channels {
		if r.engines[c], err = newEngine(r.srcRate, r.dstRate); err != nil {
			return nil, err
		}
		r.skip[c] = delay
	}

	return r, nil
}

// newEngine builds a mono engine; the library's Process and Flush only drive
// the first channel of a multichannel engine.
func newEngine(srcRate, dstRate int) (resampling.Resampler, error) {
	engine, err := resampling.New(&resampling.Config{
		InputRate:  float64(srcRate),
		OutputRate: float64(dstRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("creating resampler: %w", err)
	}

	return engine, nil
}

var delays sync.Map // [2]int{src, dst} -> int

// engineDelay is the lag, in output frames, between an input sample and its
// resampled image. GetLatency does not report it, so it is measured once per
// rate pair by pushing an impulse through a scratch engine in the same chunk
// size the Resampler uses.
func engineDelay(srcRate, dstRate int) (int, error) {
	key := [2]int{srcRate, dstRate}
	if d, ok := delays.Load(key); ok {
		return d.(int), nil
	}

	engine, err := newEngine(srcRate, dstRate)
	if err != nil {
		return 0, err
	}

	var out []float64
	chunk := make([]float64, 4096)
	chunk[0] = 1
	for range max(1, srcRate/len(chunk)) {
		o, err := engine.Process(chunk)
		if err != nil {
			return 0, fmt.Errorf("measuring resampler delay: %w", err)
		}
		out = append(out, o...)
		chunk[0] = 0
	}
	tail, err := engine.Flush()
	if err != nil {
		return 0, fmt.Errorf("measuring resampler delay: %w", err)
	}
	out = append(out, tail...)

	peak := 0
	for i, v := range out {
		if math.Abs(v) > math.Abs(out[peak]) {
			peak = i
		}
	}

	// parabolic refinement around the peak, then the nearest whole frame
	delay := float64(peak)
	if peak > 0 && peak < len(out)-1 {
		a, b, c := out[peak-1], out[peak], out[peak+1]
		if den := a - 2*b + c; den != 0 {
			delay += 0.5 * (a - c) / den
		}
	}

	d := max(0, int(math.Round(delay)))
	delays.Store(key, d)

	return d, nil
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("closing resampler source: %w", err)
	}

	return nil
}

// ReadSamples produces samples at the target rate. dst length should be a
// multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if len(dst) == 0 {
		return 0, nil
	}

	for len(r.pending) < len(dst) && !r.drained {
		if err := r.fill(); err != nil {
			return 0, err
		}
	}

	n := min(len(dst), len(r.pending))
	for i := range n {
		dst[i] = float32(r.pending[i])
	}
	r.pending = r.pending[n:]
	r.emitted += n / r.channels

	if r.drained && len(r.pending) == 0 {
		if n == 0 {
			return 0, io.EOF
		}
		return n, io.EOF
	}

	return n, nil
}

// fill pulls one chunk from the source through the engines.
func (r *Resampler) fill() error {
	n, err := r.src.ReadSamples(r.in)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading resampler source: %w", err)
	}

	n -= n % r.channels
	if n == 0 && err == nil {
		r.stalls++
		if r.stalls > maxStalls {
			return fmt.Errorf("reading resampler source: %w", io.ErrNoProgress)
		}
		return nil
	}
	r.stalls = 0

	if n > 0 {
		r.consumed += n / r.channels
		if err := r.push(r.in[:n]); err != nil {
			return err
		}
	}

	if errors.Is(err, io.EOF) {
		return r.drain()
	}

	return nil
}

func (r *Resampler) push(chunk []float32) error {
	if r.engines == nil {
		for _, v := range chunk {
			r.pending = append(r.pending, float64(v))
		}
		return nil
	}

	frames := len(chunk) / r.channels
	if cap(r.scratch) < frames {
		r.scratch = make([]float64, frames)
	}
	r.scratch = r.scratch[:frames]

	for c, engine := range r.engines {
		for i := range frames {
			r.scratch[i] = float64(chunk[i*r.channels+c])
		}

		out, err := engine.Process(r.scratch)
		if err != nil {
			return fmt.Errorf("resampling: %w", err)
		}
		r.enqueue(c, out)
	}
	r.interleave()

	return nil
}

// enqueue appends engine output for channel c past its remaining delay.
func (r *Resampler) enqueue(c int, out []float64) {
	drop := min(r.skip[c], len(out))
	r.skip[c] -= drop
	r.queues[c] = append(r.queues[c], out[drop:]...)
}

// interleave moves the frames every channel has produced into pending.
func (r *Resampler) interleave() {
	frames := len(r.queues[0])
	for _, q := range r.queues[1:] {
		frames = min(frames, len(q))
	}

	for i := range frames {
		for c := range r.channels {
			r.pending = append(r.pending, r.queues[c][i])
		}
	}
	for c := range r.queues {
		r.queues[c] = r.queues[c][frames:]
	}
}

// drain flushes the engine tails and fixes the total output length.
func (r *Resampler) drain() error {
	r.drained = true

	if r.engines != nil {
		// Flush only pads the last stage of a multi-stage engine, so push
		// enough silence through every stage to release the delayed tail.
		pad := make([]float64, (r.delay+1)*r.srcRate/r.dstRate+len(r.in)/r.channels)

		for c, engine := range r.engines {
			out, err := engine.Process(pad)
			if err != nil {
				return fmt.Errorf("flushing resampler: %w", err)
			}
			r.enqueue(c, out)

			tail, err := engine.Flush()
			if err != nil {
				return fmt.Errorf("flushing resampler: %w", err)
			}
			r.enqueue(c, tail)
		}
		r.interleave()
	}

	want := (ExpectedFrames(r.consumed, r.srcRate, r.dstRate) - r.emitted) * r.channels
	switch {
	case want <= 0:
		r.pending = r.pending[:0]
	case len(r.pending) > want:
		r.pending = r.pending[:want]
	default:
		for len(r.pending) < want {
			r.pending = append(r.pending, 0)
		}
	}

	return nil
}

// ExpectedFrames is the number of output frames produced for frames input
// frames converted from srcRate to dstRate.
func ExpectedFrames(frames, srcRate, dstRate int) int {
	if srcRate == dstRate {
		return frames
	}

	return (frames*dstRate + srcRate - 1) / srcRate
}

// ResampleSamples converts a mono signal held in memory from srcRate to
// dstRate with the same delay compensation as Resampler. The result has
// ExpectedFrames(len(y), srcRate, dstRate) samples.
func ResampleSamples(y []float64, srcRate, dstRate int) ([]float64, error) {
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("%w: %d -> %d", ErrInvalidRate, srcRate, dstRate)
	}

	want := ExpectedFrames(len(y), srcRate, dstRate)
	if srcRate == dstRate {
		return append(make([]float64, 0, want), y...), nil
	}

	delay, err := engineDelay(srcRate, dstRate)
	if err != nil {
		return nil, err
	}
	engine, err := newEngine(srcRate, dstRate)
	if err != nil {
		return nil, err
	}

	out, err := engine.Process(y)
	if err != nil {
		return nil, fmt.Errorf("resampling: %w", err)
	}
	out = append([]float64(nil), out...)

	pad, err := engine.Process(make([]float64, (delay+1)*srcRate/dstRate+4096))
	if err != nil {
		return nil, fmt.Errorf("flushing resampler: %w", err)
	}
	out = append(out, pad...)

	tail, err := engine.Flush()
	if err != nil {
		return nil, fmt.Errorf("flushing resampler: %w", err)
	}
	out = append(out, tail...)

	out = out[min(delay, len(out)):]
	if len(out) >= want {
		return out[:want], nil
	}

	return append(out, make([]float64, want-len(out))...), nil
}
