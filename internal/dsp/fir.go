package dsp

import "math"

// Decimator low-pass filters an I/Q stream and reduces its rate by an
// integer factor. It sits between the downmixer and the per-client
// audio delivery: only content inside the cutoff survives, which
// removes the mixing image before the rate drops.
type Decimator struct {
	taps   []float64
	factor int
	histI  []float64
	histQ  []float64
	pos    int
	count  int
}

// NewDecimator designs a windowed-sinc low-pass of the given tap count
// (forced odd) with cutoffHz passband edge at sampleRate, decimating by
// factor. DC gain is normalized to unity.
func NewDecimator(sampleRate int, cutoffHz float64, factor, taps int) *Decimator {
	if factor < 1 {
		factor = 1
	}
	if taps < 3 {
		taps = 3
	}
	if taps%2 == 0 {
		taps++
	}

	fc := cutoffHz / float64(sampleRate)
	win := Hamming(taps)
	h := make([]float64, taps)
	mid := (taps - 1) / 2
	sum := 0.0
	for i := range h {
		m := float64(i - mid)
		if m == 0 {
			h[i] = 2 * fc
		} else {
			h[i] = math.Sin(2*math.Pi*fc*m) / (math.Pi * m)
		}
		h[i] *= win[i]
		sum += h[i]
	}
	for i := range h {
		h[i] /= sum
	}

	return &Decimator{
		taps:   h,
		factor: factor,
		histI:  make([]float64, taps),
		histQ:  make([]float64, taps),
	}
}

// Factor returns the rate reduction factor.
func (d *Decimator) Factor() int { return d.factor }

// Push feeds one I/Q sample pair. Every factor-th call it returns a
// filtered output pair and ok=true. The convolution only runs on
// emitted samples; skipped phases just enter the history ring.
func (d *Decimator) Push(i, q int16) (iOut, qOut int16, ok bool) {
	d.histI[d.pos] = float64(i)
	d.histQ[d.pos] = float64(q)
	d.pos++
	if d.pos == len(d.taps) {
		d.pos = 0
	}

	d.count++
	if d.count < d.factor {
		return 0, 0, false
	}
	d.count = 0

	var accI, accQ float64
	idx := d.pos
	for _, tap := range d.taps {
		// idx walks the ring from oldest to newest.
		accI += tap * d.histI[idx]
		accQ += tap * d.histQ[idx]
		idx++
		if idx == len(d.taps) {
			idx = 0
		}
	}
	return clampInt16(accI), clampInt16(accQ), true
}

func clampInt16(v float64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
