package sdr

import "context"

// Config carries parameters required to initialize a sample source.
type Config struct {
	SampleRate int    // samples per second
	NumSamples int    // complex samples per RX buffer
	Addr       string // TCP address of the network IQ service

	// Mock-only knobs.
	ToneOffsetHz float64 // synthesized tone offset from DC
	Amplitude    float64 // tone amplitude as a fraction of full scale
}

// Source captures the minimal operations the receiver needs from an
// I/Q sample provider. RX returns one frame of interleaved int16 I/Q
// values, 2*NumSamples long, at the configured sample rate.
type Source interface {
	Init(ctx context.Context, cfg Config) error
	RX(ctx context.Context) ([]int16, error)
	Close() error
}
