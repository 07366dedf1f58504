package dsp

import (
	"math"
	"sync"
)

// SineTableSize is the number of entries in the shared oscillator
// amplitude table. The top 16 bits of a 32-bit phase accumulator index
// it directly, so the table covers exactly one oscillator period.
const SineTableSize = 65536

var (
	sineOnce  sync.Once
	sineTable [SineTableSize]int16
)

// SineTable returns the process-wide sine lookup table, building it on
// first use. Entry i holds round(sin(2*pi*i/65536) * 32767), one full
// cycle scaled to the 16-bit signed sample range. The table is
// immutable after this returns and safe for concurrent reads.
func SineTable() *[SineTableSize]int16 {
	sineOnce.Do(func() {
		for i := range sineTable {
			sineTable[i] = int16(math.Round(math.Sin(2*math.Pi*float64(i)/SineTableSize) * 32767))
		}
	})
	return &sineTable
}
