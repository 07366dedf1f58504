// Package dsp implements the numerically-controlled oscillator and
// complex mixer at the heart of the receiver: each client channel
// frequency-shifts the shared I/Q input stream by its own tuned offset,
// with adaptive output scaling to avoid clipping.
package dsp

// Config carries the process-wide constants for the mixer subsystem.
type Config struct {
	// MaxClients is the number of independently tunable channels.
	MaxClients int
	// SampleRate is the I/Q input rate in samples per second. It also
	// clocks the oscillators: one accumulator step per input sample.
	SampleRate int
	// ReferenceHz is the fixed tuning point of the receiver hardware.
	// Every tune request sent to the transceiver-control path is
	// offset + ReferenceHz.
	ReferenceHz int64
	// Requests, when non-nil, receives one outbound TuneRequest per
	// SetFrequency call.
	Requests chan TuneRequest
}

// Default process constants. SampleRate matches the narrowband receiver
// hardware; ReferenceHz is the downconverted transponder tuning point.
const (
	DefaultMaxClients  = 16
	DefaultSampleRate  = 2400000
	DefaultReferenceHz = 739750000
)

func (c *Config) applyDefaults() {
	if c.MaxClients <= 0 {
		c.MaxClients = DefaultMaxClients
	}
	if c.SampleRate <= 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.ReferenceHz == 0 {
		c.ReferenceHz = DefaultReferenceHz
	}
}

// Downmixer multiplies incoming I/Q samples with each channel's local
// oscillator, shifting the channel's tuned offset down to baseband. It
// exclusively owns all per-channel oscillator state and the shared gain
// shifter.
//
// Process and ProcessBlock must be called from a single goroutine: the
// shared gain exponent is mutated on the sample path without
// synchronization. SetFrequency may be called from other goroutines;
// a torn control-word update is harmless (the oscillator picks up the
// new word on its next step).
type Downmixer struct {
	osc   *Oscillator
	tuner *Tuner
	gain  *GainShifter
}

// NewDownmixer builds the mixer subsystem and tunes every channel to
// the default shift.
func NewDownmixer(cfg Config) *Downmixer {
	cfg.applyDefaults()
	osc := NewOscillator(cfg.MaxClients)
	d := &Downmixer{
		osc:   osc,
		tuner: NewTuner(osc, cfg.SampleRate, cfg.ReferenceHz, cfg.Requests),
		gain:  NewGainShifter(),
	}
	d.InitDefaults()
	return d
}

// InitDefaults restores every channel to the 10 kHz default tuning with
// zero phase. Idempotent. The gain exponent is not touched: it never
// decreases over the process lifetime.
func (d *Downmixer) InitDefaults() {
	d.tuner.InitDefaults()
}

// SetFrequency tunes a channel to the given shift in Hz. See
// Tuner.SetFrequency for conversion and aliasing behavior.
func (d *Downmixer) SetFrequency(offsetHz int, channel int) {
	d.tuner.SetFrequency(offsetHz, channel)
}

// Process frequency-shifts one I/Q sample pair on the given channel.
//
// Both rails are multiplied by the same single-sine LO sample. That is
// sufficient here because the input is a true I/Q pair: the multiply
// realizes input * e^{-jwt} and only moves the center frequency. A mono
// real input would additionally need the cosine branch.
func (d *Downmixer) Process(iSample, qSample int16, channel int) (iOut, qOut int16) {
	lo := int32(d.osc.Step(channel))

	// Widening multiply: the product needs up to 31 bits.
	ix := int32(iSample) * lo
	qx := int32(qSample) * lo

	sht := d.gain.shift
	iOut = int16(ix >> sht)
	qOut = int16(qx >> sht)

	d.gain.observe(ix)
	return iOut, qOut
}

// ProcessBlock shifts an interleaved I/Q block in place on the given
// channel. len(iq) must be even.
func (d *Downmixer) ProcessBlock(iq []int16, channel int) {
	for n := 0; n+1 < len(iq); n += 2 {
		iq[n], iq[n+1] = d.Process(iq[n], iq[n+1], channel)
	}
}

// Channels returns the number of client channels.
func (d *Downmixer) Channels() int { return d.osc.Channels() }

// Shift returns the current shared gain exponent.
func (d *Downmixer) Shift() uint { return d.gain.Shift() }

// Tuner exposes the frequency tuner for collaborators that accept tune
// requests directly.
func (d *Downmixer) Tuner() *Tuner { return d.tuner }

// Oscillator exposes the owned oscillator, mainly for tests and
// diagnostics.
func (d *Downmixer) Oscillator() *Oscillator { return d.osc }
