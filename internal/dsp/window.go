package dsp

import "math"

// Hamming returns a Hamming window of length n.
// If n is zero or negative, an empty slice is returned.
func Hamming(n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	win := make([]float64, n)
	for i := 0; i < n; i++ {
		win[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return win
}

// applyWindowIQ converts an interleaved int16 I/Q block into windowed
// complex samples. len(window) must equal len(iq)/2.
func applyWindowIQ(iq []int16, window []float64) []complex128 {
	if len(iq)/2 != len(window) {
		return []complex128{}
	}
	out := make([]complex128, len(window))
	for n := range window {
		out[n] = complex(float64(iq[2*n])*window[n], float64(iq[2*n+1])*window[n])
	}
	return out
}
