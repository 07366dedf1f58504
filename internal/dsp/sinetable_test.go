package dsp

import (
	"math"
	"testing"
)

func TestSineTableQuarterPoints(t *testing.T) {
	table := SineTable()

	tests := []struct {
		index int
		want  int16
	}{
		{index: 0, want: 0},
		{index: SineTableSize / 4, want: 32767},
		{index: SineTableSize / 2, want: 0},
		{index: 3 * SineTableSize / 4, want: -32767},
	}

	for _, tt := range tests {
		// Compare in int: want+1 would overflow int16 at the peaks.
		got := int(table[tt.index])
		if got < int(tt.want)-1 || got > int(tt.want)+1 {
			t.Fatalf("table[%d] = %d, want %d within 1", tt.index, got, tt.want)
		}
	}
}

func TestSineTableHalfPeriodSymmetry(t *testing.T) {
	table := SineTable()
	for i := 0; i < SineTableSize; i++ {
		a := int(table[i])
		b := int(table[(i+SineTableSize/2)%SineTableSize])
		if diff := a + b; diff < -1 || diff > 1 {
			t.Fatalf("half-period symmetry broken at %d: %d vs %d", i, a, b)
		}
	}
}

func TestSineTableMatchesSin(t *testing.T) {
	table := SineTable()
	for i := 0; i < SineTableSize; i += 97 {
		want := math.Round(math.Sin(2*math.Pi*float64(i)/SineTableSize) * 32767)
		if got := float64(table[i]); got != want {
			t.Fatalf("table[%d] = %v, want %v", i, got, want)
		}
	}
}
