package dsp

import (
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

const fullScale = 32768.0 // 2^15 for 16-bit signed samples

// Analyzer computes dBFS spectra of interleaved int16 I/Q blocks for
// the waterfall display. The Hamming window and FFT plan are built once
// and reused across calls; recreating them per buffer is far too
// expensive on the sample path.
type Analyzer struct {
	mu        sync.Mutex
	size      int
	window    []float64
	windowSum float64
	fft       *fourier.CmplxFFT
}

// NewAnalyzer creates an analyzer for blocks of size complex samples
// (2*size interleaved int16 values).
func NewAnalyzer(size int) *Analyzer {
	window := Hamming(size)
	sum := 0.0
	for _, v := range window {
		sum += v
	}
	return &Analyzer{
		size:      size,
		window:    window,
		windowSum: sum,
		fft:       fourier.NewCmplxFFT(size),
	}
}

// Size returns the analyzer's FFT size in complex samples.
func (a *Analyzer) Size() int { return a.size }

// SpectrumDBFS returns the dBFS magnitude spectrum of the leading
// 2*Size() values of iq, DC-centered. Returns nil when the block is too
// short.
func (a *Analyzer) SpectrumDBFS(iq []int16) []float64 {
	if len(iq) < 2*a.size {
		return nil
	}
	windowed := applyWindowIQ(iq[:2*a.size], a.window)

	a.mu.Lock()
	coeffs := a.fft.Coefficients(nil, windowed)
	a.mu.Unlock()

	for i := range coeffs {
		coeffs[i] /= complex(a.windowSum, 0)
	}

	shifted := FFTShift(coeffs)
	dbfs := make([]float64, len(shifted))
	for i, v := range shifted {
		mag := cmplx.Abs(v)
		if mag == 0 {
			dbfs[i] = math.Inf(-1)
			continue
		}
		dbfs[i] = 20 * math.Log10(mag/fullScale)
	}
	return dbfs
}

// FFTShift returns the FFT output reordered so that DC is centered.
func FFTShift(data []complex128) []complex128 {
	n := len(data)
	if n == 0 {
		return []complex128{}
	}
	half := n / 2
	out := make([]complex128, n)
	copy(out, data[half:])
	copy(out[n-half:], data[:half])
	return out
}

// PeakFrequency returns the frequency in Hz of the strongest spectral
// component of the interleaved I/Q block. Negative values indicate
// content below DC.
func PeakFrequency(iq []int16, sampleRate int) float64 {
	n := len(iq) / 2
	if n == 0 {
		return 0
	}
	samples := make([]complex128, n)
	for i := range samples {
		samples[i] = complex(float64(iq[2*i]), float64(iq[2*i+1]))
	}
	coeffs := fourier.NewCmplxFFT(n).Coefficients(nil, samples)

	best, bestMag := 0, 0.0
	for k, c := range coeffs {
		if mag := cmplx.Abs(c); mag > bestMag {
			best, bestMag = k, mag
		}
	}
	if best > n/2 {
		best -= n
	}
	return float64(best) * float64(sampleRate) / float64(n)
}
