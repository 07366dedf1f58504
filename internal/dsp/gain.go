package dsp

const (
	// InitialShift is the output scaling exponent at process start.
	InitialShift = 10
	// MaxShift caps the scaling exponent. Once saturated, further
	// clipping is possible and goes unreported.
	MaxShift = 15
)

// GainShifter tracks the output scaling exponent shared by every
// channel. The exponent only ever grows: a single loud burst widens the
// attenuation for the remainder of the process lifetime, and saturates
// at MaxShift.
//
// The exponent is read and written on the per-sample path with no
// synchronization. The mixer contract requires samples to be processed
// from a single goroutine; see Downmixer.
type GainShifter struct {
	shift uint
}

// NewGainShifter returns a shifter at the initial exponent.
func NewGainShifter() *GainShifter {
	return &GainShifter{shift: InitialShift}
}

// Shift returns the current scaling exponent, in [InitialShift, MaxShift].
func (g *GainShifter) Shift() uint { return g.shift }

// observe widens the attenuation when the shifted product magnitude
// still exceeds the signed 16-bit range. The violating sample has
// already been emitted truncated; the wider shift applies from the next
// sample on.
func (g *GainShifter) observe(ix int32) {
	v := ix >> g.shift
	if v < 0 {
		v = -v
	}
	if v > 32767 && g.shift < MaxShift {
		g.shift++
	}
}
