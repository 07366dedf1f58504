package dsp

// channelState holds the oscillator state for one client channel.
// The accumulator deliberately relies on uint32 wraparound: overflow at
// 2^32 is the phase wrap at 2*pi, not an error.
type channelState struct {
	controlWord uint32 // phase increment per sample
	accumulator uint32 // current phase, wraps mod 2^32
}

// Oscillator is a numerically-controlled oscillator with one
// independent phase accumulator per client channel. All channels share
// the process-wide sine table.
//
// Channel indices must be in [0, Channels()). Indexing outside that
// range is a caller bug and panics; it is not a recoverable condition.
type Oscillator struct {
	table *[SineTableSize]int16
	chans []channelState
}

// NewOscillator creates an oscillator for the given number of client
// channels, each with a zero control word and zero phase.
func NewOscillator(channels int) *Oscillator {
	return &Oscillator{
		table: SineTable(),
		chans: make([]channelState, channels),
	}
}

// Channels returns the number of client channels.
func (o *Oscillator) Channels() int { return len(o.chans) }

// Step advances the channel's phase by one sample period and returns
// the next local-oscillator sample. Only the high 16 bits of the phase
// select the table entry; the low 16 bits carry sub-table phase
// resolution and are discarded on lookup.
func (o *Oscillator) Step(channel int) int16 {
	c := &o.chans[channel]
	c.accumulator += c.controlWord
	return o.table[c.accumulator>>16]
}

// ControlWord returns the channel's current frequency control word.
func (o *Oscillator) ControlWord(channel int) uint32 {
	return o.chans[channel].controlWord
}

// Accumulator returns the channel's current phase accumulator value.
func (o *Oscillator) Accumulator(channel int) uint32 {
	return o.chans[channel].accumulator
}

func (o *Oscillator) setControlWord(channel int, fcw uint32) {
	o.chans[channel].controlWord = fcw
}

func (o *Oscillator) resetPhase(channel int) {
	o.chans[channel].accumulator = 0
}
