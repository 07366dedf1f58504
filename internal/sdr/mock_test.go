package sdr

import (
	"context"
	"testing"
)

func TestMockFrameShape(t *testing.T) {
	m := NewMock()
	if err := m.Init(context.Background(), Config{NumSamples: 512, SampleRate: 2400000, ToneOffsetHz: 100000, Amplitude: 0.25}); err != nil {
		t.Fatalf("init: %v", err)
	}

	iq, err := m.RX(context.Background())
	if err != nil {
		t.Fatalf("rx: %v", err)
	}
	if len(iq) != 1024 {
		t.Fatalf("frame length %d, want 1024", len(iq))
	}

	// Amplitude 0.25 of full scale, plus a few counts of noise.
	for i, v := range iq {
		if v > 8300 || v < -8300 {
			t.Fatalf("sample %d = %d exceeds configured amplitude", i, v)
		}
	}
}

func TestMockPhaseContinuity(t *testing.T) {
	m := NewMock()
	cfg := Config{NumSamples: 16, SampleRate: 2400000, ToneOffsetHz: 600000, Amplitude: 0.9}
	if err := m.Init(context.Background(), cfg); err != nil {
		t.Fatalf("init: %v", err)
	}

	// 600 kHz at 2.4 Msps advances 90 degrees per sample: I follows
	// the repeating pattern +A, 0, -A, 0 with only noise on top, and
	// the pattern must not restart between buffers.
	var samples []int16
	for b := 0; b < 4; b++ {
		iq, err := m.RX(context.Background())
		if err != nil {
			t.Fatalf("rx %d: %v", b, err)
		}
		for s := 0; s < len(iq); s += 2 {
			samples = append(samples, iq[s])
		}
	}
	for n := 4; n < len(samples); n++ {
		diff := int(samples[n]) - int(samples[n-4])
		if diff < -100 || diff > 100 {
			t.Fatalf("phase discontinuity at sample %d: %d vs %d", n, samples[n], samples[n-4])
		}
	}
}

func TestNetSourceRequiresAddr(t *testing.T) {
	if err := NewNet().Init(context.Background(), Config{}); err == nil {
		t.Fatal("expected error without address")
	}
}
