package dsp

import (
	"math"
	"testing"
)

func TestHamming(t *testing.T) {
	win := Hamming(4)
	expected := []float64{0.08, 0.77, 0.77, 0.08}
	if len(win) != len(expected) {
		t.Fatalf("unexpected length: %d", len(win))
	}
	for i := range expected {
		if math.Abs(win[i]-expected[i]) > 1e-6 {
			t.Fatalf("index %d expected %.2f got %.6f", i, expected[i], win[i])
		}
	}
}

func TestHammingEmpty(t *testing.T) {
	if len(Hamming(0)) != 0 || len(Hamming(-3)) != 0 {
		t.Fatalf("expected empty window")
	}
}

func TestApplyWindowIQ(t *testing.T) {
	iq := []int16{100, -200, 400, 800}
	win := []float64{0.5, 0.25}
	out := applyWindowIQ(iq, win)
	if len(out) != 2 {
		t.Fatalf("length mismatch: %d", len(out))
	}
	if real(out[0]) != 50 || imag(out[0]) != -100 {
		t.Fatalf("unexpected first value %v", out[0])
	}
	if real(out[1]) != 100 || imag(out[1]) != 200 {
		t.Fatalf("unexpected second value %v", out[1])
	}
}

func TestApplyWindowIQLengthMismatch(t *testing.T) {
	out := applyWindowIQ([]int16{1, 2, 3, 4}, []float64{1})
	if len(out) != 0 {
		t.Fatalf("expected empty result on mismatch, got %v", out)
	}
}
