package dsp

import "math"

// DefaultOffsetHz is the shift every channel is tuned to at
// initialization, before any client request arrives.
const DefaultOffsetHz = 10000

// TuneRequest asks the transceiver-control collaborator to move its
// physical local oscillator to an absolute frequency. Requests are fire
// and forget: this core never waits for, or verifies, the result.
type TuneRequest struct {
	Channel     int
	FrequencyHz int64
}

// Tuner converts a requested shift frequency in Hz into the
// oscillator's control word and notifies the external transceiver
// control path of the equivalent absolute tuning.
type Tuner struct {
	osc         *Oscillator
	sampleRate  int
	referenceHz int64
	requests    chan TuneRequest
}

// NewTuner wires a tuner to an oscillator. requests may be nil when no
// transceiver-control collaborator is attached; tuning then only
// affects the oscillator.
func NewTuner(osc *Oscillator, sampleRate int, referenceHz int64, requests chan TuneRequest) *Tuner {
	return &Tuner{
		osc:         osc,
		sampleRate:  sampleRate,
		referenceHz: referenceHz,
		requests:    requests,
	}
}

// SetFrequency tunes a channel to the given shift in Hz, relative to
// the reference tuning point.
//
// The control word is round(offsetHz * 2^32 / sampleRate), computed in
// float64 to avoid truncation bias. Negative offsets wrap through
// two's complement into the upper control-word range, and offsets
// beyond Nyquist silently alias; both are accepted oscillator behavior,
// not guarded errors. Resolution is sampleRate/2^32 Hz per step.
func (t *Tuner) SetFrequency(offsetHz int, channel int) {
	fcw := uint32(int64(math.Round(float64(offsetHz) * (1 << 32) / float64(t.sampleRate))))
	t.osc.setControlWord(channel, fcw)

	if t.requests != nil {
		req := TuneRequest{Channel: channel, FrequencyHz: int64(offsetHz) + t.referenceHz}
		// Latest request wins. The slot is small; if the collaborator
		// lags, evict the stale entry rather than block the sample path.
		select {
		case t.requests <- req:
		default:
			select {
			case <-t.requests:
			default:
			}
			select {
			case t.requests <- req:
			default:
			}
		}
	}
}

// InitDefaults tunes every channel to the 10 kHz default shift and
// clears its phase. Safe to call more than once; the result does not
// depend on prior state.
func (t *Tuner) InitDefaults() {
	for channel := 0; channel < t.osc.Channels(); channel++ {
		t.SetFrequency(DefaultOffsetHz, channel)
		t.osc.resetPhase(channel)
	}
}

// SampleRate returns the fixed sample rate used for Hz conversion.
func (t *Tuner) SampleRate() int { return t.sampleRate }

// ReferenceHz returns the fixed reference tuning point added to every
// outbound tune request.
func (t *Tuner) ReferenceHz() int64 { return t.referenceHz }
