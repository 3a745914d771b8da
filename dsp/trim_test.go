// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"math"
	"testing"

	"github.com/ik5/cryfeat/internal/audiotest"
)

func TestRMS(t *testing.T) {
	t.Parallel()

	y := make([]float64, 4096)
	for i := range y {
		y[i] = 0.5
	}

	rms, err := RMS(y, 2048, 512)
	if err != nil {
		t.Fatal(err)
	}
	if len(rms) != 9 {
		t.Fatalf("len(RMS) = %d, want 9", len(rms))
	}

	// the first frame is half padding
	if want := math.Sqrt(0.25 / 2); math.Abs(rms[0]-want) > 1e-12 {
		t.Errorf("rms[0] = %v, want %v", rms[0], want)
	}
	if math.Abs(rms[4]-0.5) > 1e-12 {
		t.Errorf("rms[4] = %v, want 0.5", rms[4])
	}
}

func TestTrim(t *testing.T) {
	t.Parallel()

	tone := func(n int) []float64 { return audiotest.SineSamples(n, 16000, 440, 0.8) }

	tests := []struct {
		name      string
		y         []float64
		wantStart int
		wantEnd   int
	}{
		{
			name:      "silence around tone",
			y:         append(append(make([]float64, 8000), tone(16000)...), make([]float64, 8000)...),
			wantStart: 7168,
			wantEnd:   25088,
		},
		{
			name:      "loud everywhere",
			y:         tone(16000),
			wantStart: 0,
			wantEnd:   16000,
		},
		{
			name:      "all zero keeps everything",
			y:         make([]float64, 5000),
			wantStart: 0,
			wantEnd:   5000,
		},
		{
			name:      "empty",
			y:         nil,
			wantStart: 0,
			wantEnd:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, start, end, err := Trim(tt.y, 60, 2048, 512)
			if err != nil {
				t.Fatalf("Trim() error = %v", err)
			}
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("Trim() span = [%d,%d), want [%d,%d)", start, end, tt.wantStart, tt.wantEnd)
			}
			if len(out) != end-start {
				t.Errorf("len(out) = %d, want %d", len(out), end-start)
			}
		})
	}
}

func TestPowerToDB(t *testing.T) {
	t.Parallel()

	got := PowerToDB([]float64{1, 0.1, 1e-3, 0, 1e-12}, 1, Amin, 80)
	want := []float64{0, -10, -30, -80, -80}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("PowerToDB()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	unclipped := PowerToDB([]float64{0}, 0, Amin, 0)
	if unclipped[0] != 0 {
		t.Errorf("PowerToDB(0, ref 0) = %v, want 0", unclipped[0])
	}
}
