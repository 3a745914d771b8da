// SPDX-License-Identifier: EPL-2.0

package feature

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ik5/cryfeat/dsp"
)

// ChromaConfig parameterizes short-time chroma.
type ChromaConfig struct {
	NChroma int
	NFFT    int
	Hop     int
	// EstimateTuning derives the tuning offset from every clip; otherwise
	// Tuning (in fractions of a chroma bin) is used as is.
	EstimateTuning bool
	Tuning         float64
	// CtrOct and OctWidth shape the Gaussian octave weighting; OctWidth 0
	// disables it.
	CtrOct   float64
	OctWidth float64
}

// DefaultChromaConfig matches librosa.feature.chroma_stft.
func DefaultChromaConfig() ChromaConfig {
	return ChromaConfig{
		NChroma:        12,
		NFFT:           2048,
		Hop:            512,
		EstimateTuning: true,
		CtrOct:         5,
		OctWidth:       2,
	}
}

// hzToOcts maps a frequency to octaves above C0 for the given tuning.
func hzToOcts(f, tuning float64, binsPerOctave int) float64 {
	a440 := 440 * math.Pow(2, tuning/float64(binsPerOctave))
	return math.Log2(f / (a440 / 16))
}

// pyMod is a modulo whose result takes the sign of the divisor.
func pyMod(a, n float64) float64 {
	r := math.Mod(a, n)
	if r < 0 {
		r += n
	}
	return r
}

// ChromaFilter builds the nChroma x (nfft/2+1) projection from FFT bins onto
// pitch classes, starting at C. Every bin spreads over neighbouring classes
// with a Gaussian whose width follows the bin spacing; columns are L2
// normalized and weighted towards octave ctroct.
func ChromaFilter(sr, nfft, nChroma int, tuning, ctroct, octwidth float64) (*mat.Dense, error) {
	if sr <= 0 || nfft < 2 || nChroma <= 0 {
		return nil, fmt.Errorf("%w: sr %d, n_fft %d, n_chroma %d", ErrInvalidConfig, sr, nfft, nChroma)
	}

	nc := float64(nChroma)

	frqbins := make([]float64, nfft)
	for k := 1; k < nfft; k++ {
		frqbins[k] = nc * hzToOcts(float64(k)*float64(sr)/float64(nfft), tuning, nChroma)
	}
	frqbins[0] = frqbins[1] - 1.5*nc

	binwidth := make([]float64, nfft)
	for k := range nfft - 1 {
		binwidth[k] = math.Max(frqbins[k+1]-frqbins[k], 1)
	}
	binwidth[nfft-1] = 1

	half := math.RoundToEven(nc / 2)

	wts := mat.NewDense(nChroma, nfft, nil)
	for c := range nChroma {
		row := wts.RawRowView(c)
		for k, fb := range frqbins {
			d := pyMod(fb-float64(c)+half+10*nc, nc) - half
			row[k] = math.Exp(-0.5 * math.Pow(2*d/binwidth[k], 2))
		}
	}

	for k := range nfft {
		var norm float64
		for c := range nChroma {
			norm += wts.At(c, k) * wts.At(c, k)
		}
		norm = math.Sqrt(norm)
		if norm < dsp.Tiny {
			continue
		}

		oct := 1.0
		if octwidth > 0 {
			oct = math.Exp(-0.5 * math.Pow((frqbins[k]/nc-ctroct)/octwidth, 2))
		}
		for c := range nChroma {
			wts.Set(c, k, wts.At(c, k)/norm*oct)
		}
	}

	// rotate so row 0 is C rather than A, and keep the non-negative bins
	shift := 3 * (nChroma / 12)
	bins := nfft/2 + 1
	out := mat.NewDense(nChroma, bins, nil)
	for c := range nChroma {
		copy(out.RawRowView(c), wts.RawRowView((c + shift) % nChroma)[:bins])
	}

	return out, nil
}

// Chroma projects power spectrograms onto pitch classes.
type Chroma struct {
	cfg  ChromaConfig
	sr   int
	stft *dsp.STFT
	// nil when the tuning is estimated per clip
	filter *mat.Dense
}

func NewChroma(sr int, cfg ChromaConfig) (*Chroma, error) {
	stft, err := dsp.NewSTFT(cfg.NFFT, cfg.Hop)
	if err != nil {
		return nil, fmt.Errorf("chroma stft: %w", err)
	}

	c := &Chroma{cfg: cfg, sr: sr, stft: stft}
	if !cfg.EstimateTuning {
		if c.filter, err = ChromaFilter(sr, cfg.NFFT, cfg.NChroma, cfg.Tuning, cfg.CtrOct, cfg.OctWidth); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// STFT returns the transform whose power spectra FromPower expects.
func (c *Chroma) STFT() *dsp.STFT { return c.stft }

// FromPower returns the n_chroma x frames chromagram of a power spectrogram,
// each frame scaled so its largest class is 1.
func (c *Chroma) FromPower(S *mat.Dense) (*mat.Dense, error) {
	filter := c.filter
	if filter == nil {
		tuning := EstimateTuning(S, c.sr, c.cfg.NFFT, DefaultTuningResolution, c.cfg.NChroma)

		var err error
		if filter, err = ChromaFilter(c.sr, c.cfg.NFFT, c.cfg.NChroma, tuning, c.cfg.CtrOct, c.cfg.OctWidth); err != nil {
			return nil, err
		}
	}

	_, frames := S.Dims()
	out := mat.NewDense(c.cfg.NChroma, frames, nil)
	out.Mul(filter, S)

	normalizeColumns(out, math.Inf(1))

	return out, nil
}

// Chromagram computes the chromagram of y.
func (c *Chroma) Chromagram(y []float64) (*mat.Dense, error) {
	return c.FromPower(c.stft.Power(y))
}

// ChromaSTFT is a one-shot NewChroma followed by Chromagram.
func ChromaSTFT(y []float64, sr int, cfg ChromaConfig) (*mat.Dense, error) {
	c, err := NewChroma(sr, cfg)
	if err != nil {
		return nil, err
	}

	return c.Chromagram(y)
}

// normalizeColumns scales every column to unit L1 (norm 1) or max (norm +Inf)
// norm. Columns whose norm is below dsp.Tiny are left unchanged.
func normalizeColumns(m *mat.Dense, norm float64) {
	rows, cols := m.Dims()
	for j := range cols {
		var n float64
		for i := range rows {
			v := math.Abs(m.At(i, j))
			if math.IsInf(norm, 1) {
				n = math.Max(n, v)
			} else {
				n += v
			}
		}
		if n < dsp.Tiny {
			continue
		}
		for i := range rows {
			m.Set(i, j, m.At(i, j)/n)
		}
	}
}

// RowMeans averages every row of m over its columns.
func RowMeans(m mat.Matrix) []float64 {
	rows, cols := m.Dims()
	out := make([]float64, rows)
	for i := range rows {
		var s float64
		for j := range cols {
			s += m.At(i, j)
		}
		out[i] = s / float64(cols)
	}

	return out
}

// ChromaCQTConfig parameterizes constant-Q chroma.
type ChromaCQTConfig struct {
	NChroma       int
	NOctaves      int
	BinsPerOctave int
	Hop           int
	FMin          float64
	// EstimateTuning derives the tuning offset from every clip; otherwise
	// Tuning (in fractions of a constant-Q bin) is used as is.
	EstimateTuning bool
	Tuning         float64
}

// DefaultChromaCQTConfig matches librosa.feature.chroma_cqt, the chroma
// librosa.feature.tonnetz is computed from.
func DefaultChromaCQTConfig() ChromaCQTConfig {
	return ChromaCQTConfig{
		NChroma:        12,
		NOctaves:       7,
		BinsPerOctave:  36,
		Hop:            512,
		FMin:           NoteC1,
		EstimateTuning: true,
	}
}

func hzToMidi(f float64) float64 {
	return 12*math.Log2(f/440) + 69
}

// CQToChroma builds the nChroma x nInput matrix folding constant-Q bins that
// start at fmin onto pitch classes, row 0 being C. Each class gathers the
// binsPerOctave/nChroma bins centered on it in every octave.
func CQToChroma(nInput, binsPerOctave, nChroma int, fmin float64) (*mat.Dense, error) {
	if nInput <= 0 || nChroma <= 0 || binsPerOctave <= 0 || binsPerOctave%nChroma != 0 || !(fmin > 0) {
		return nil, fmt.Errorf("%w: %d constant-Q bins at %d per octave onto %d chroma",
			ErrInvalidConfig, nInput, binsPerOctave, nChroma)
	}

	merge := binsPerOctave / nChroma
	roll := int(math.RoundToEven(pyMod(hzToMidi(fmin), 12) * float64(nChroma) / 12))

	out := mat.NewDense(nChroma, nInput, nil)
	for j := range nInput {
		c := ((j + merge/2) % binsPerOctave) / merge
		out.Set(int(pyMod(float64(c+roll), float64(nChroma))), j, 1)
	}

	return out, nil
}

// ConstantQChroma folds constant-Q magnitudes onto pitch classes.
type ConstantQChroma struct {
	cfg    ChromaCQTConfig
	cqt    *CQT
	filter *mat.Dense
}

func NewConstantQChroma(sr int, cfg ChromaCQTConfig) (*ConstantQChroma, error) {
	nBins := cfg.NOctaves * cfg.BinsPerOctave

	cqt, err := NewCQT(sr, CQTConfig{
		Hop:            cfg.Hop,
		FMin:           cfg.FMin,
		NBins:          nBins,
		BinsPerOctave:  cfg.BinsPerOctave,
		EstimateTuning: cfg.EstimateTuning,
		Tuning:         cfg.Tuning,
		FilterScale:    1,
		Sparsity:       0.01,
	})
	if err != nil {
		return nil, fmt.Errorf("chroma cqt: %w", err)
	}

	filter, err := CQToChroma(nBins, cfg.BinsPerOctave, cfg.NChroma, cfg.FMin)
	if err != nil {
		return nil, err
	}

	return &ConstantQChroma{cfg: cfg, cqt: cqt, filter: filter}, nil
}

// CQT returns the transform the chromagram is folded from.
func (c *ConstantQChroma) CQT() *CQT { return c.cqt }

// Chromagram returns the n_chroma x frames chromagram of y, each frame scaled
// so its largest class is 1.
func (c *ConstantQChroma) Chromagram(y []float64) (*mat.Dense, error) {
	C, err := c.cqt.Magnitude(y)
	if err != nil {
		return nil, err
	}

	_, frames := C.Dims()
	out := mat.NewDense(c.cfg.NChroma, frames, nil)
	out.Mul(c.filter, C)

	normalizeColumns(out, math.Inf(1))

	return out, nil
}

// ChromaCQT is a one-shot NewConstantQChroma followed by Chromagram.
func ChromaCQT(y []float64, sr int, cfg ChromaCQTConfig) (*mat.Dense, error) {
	c, err := NewConstantQChroma(sr, cfg)
	if err != nil {
		return nil, err
	}

	return c.Chromagram(y)
}
