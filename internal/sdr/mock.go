package sdr

import (
	"context"
	"math"
	"math/rand"
	"sync"
)

// MockSource synthesizes a complex tone at a controllable offset, with
// a little noise so spectra look alive. Phase is continuous across
// buffers.
type MockSource struct {
	mu    sync.RWMutex
	cfg   Config
	phase float64
}

func NewMock() *MockSource { return &MockSource{} }

func (m *MockSource) Init(_ context.Context, cfg Config) error {
	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()
	return nil
}

func (m *MockSource) Close() error { return nil }

// SetToneOffset moves the synthesized tone, allowing runtime retuning
// tests against a live receiver loop.
func (m *MockSource) SetToneOffset(hz float64) {
	m.mu.Lock()
	m.cfg.ToneOffsetHz = hz
	m.mu.Unlock()
}

func (m *MockSource) RX(_ context.Context) ([]int16, error) {
	m.mu.Lock()
	cfg := m.cfg
	if cfg.NumSamples == 0 {
		cfg.NumSamples = 4096
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 2400000
	}
	if cfg.Amplitude == 0 {
		cfg.Amplitude = 0.5
	}
	phase := m.phase
	step := 2 * math.Pi * cfg.ToneOffsetHz / float64(cfg.SampleRate)
	m.phase = math.Mod(phase+step*float64(cfg.NumSamples), 2*math.Pi)
	m.mu.Unlock()

	amp := cfg.Amplitude * 32767
	iq := make([]int16, 2*cfg.NumSamples)
	for s := 0; s < cfg.NumSamples; s++ {
		p := phase + step*float64(s)
		iq[2*s] = clamp16(amp*math.Cos(p) + rand.NormFloat64()*4)
		iq[2*s+1] = clamp16(amp*math.Sin(p) + rand.NormFloat64()*4)
	}
	return iq, nil
}

func clamp16(v float64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
