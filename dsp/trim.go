// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// RMS returns the root-mean-square energy of centered frames of y, zero padded
// by frameLength/2 at both ends.
func RMS(y []float64, frameLength, hop int) ([]float64, error) {
	if frameLength <= 0 || hop <= 0 {
		return nil, fmt.Errorf("%w: frame %d, hop %d", ErrInvalidFrame, frameLength, hop)
	}

	pad := frameLength / 2
	padded := make([]float64, len(y)+2*pad)
	copy(padded[pad:], y)

	frames := 1 + (len(padded)-frameLength)/hop
	if len(padded) < frameLength {
		frames = 0
	}

	out := make([]float64, frames)
	for t := range out {
		seg := padded[t*hop : t*hop+frameLength]
		out[t] = math.Sqrt(floats.Dot(seg, seg) / float64(frameLength))
	}

	return out, nil
}

// Trim removes leading and trailing silence from y. A frame is silent when its
// mean power is more than topDB below the loudest frame. The returned slice
// shares memory with y and spans samples [start, end). When no frame is
// loud enough the result is empty.
func Trim(y []float64, topDB float64, frameLength, hop int) (trimmed []float64, start, end int, err error) {
	rms, err := RMS(y, frameLength, hop)
	if err != nil {
		return nil, 0, 0, err
	}
	if len(rms) == 0 {
		return y[:0], 0, 0, nil
	}

	power := make([]float64, len(rms))
	for i, v := range rms {
		power[i] = v * v
	}

	db := PowerToDB(power, floats.Max(power), Amin, 0)

	first, last := -1, -1
	for i, v := range db {
		if v > -topDB {
			if first < 0 {
				first = i
			}
			last = i
		}
	}

	if first < 0 {
		return y[:0], 0, 0, nil
	}

	start = min(first*hop, len(y))
	end = min(len(y), (last+1)*hop)

	return y[start:end], start, end, nil
}
