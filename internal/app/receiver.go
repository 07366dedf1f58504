// Package app wires the sample source into the per-client downmix
// pipeline: every active channel mixes the shared I/Q stream down by
// its own offset, low-pass decimates it to the audio rate, and hands
// the result to the delivery hub.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sdrkit/websdr/internal/dsp"
	"github.com/sdrkit/websdr/internal/logging"
	"github.com/sdrkit/websdr/internal/sdr"
	"github.com/sdrkit/websdr/internal/stream"
)

// Config captures receiver-level configuration.
type Config struct {
	SampleRate    int
	NumSamples    int     // complex samples per RX buffer
	AudioRate     int     // decimated delivery rate
	AudioCutoffHz float64 // low-pass edge before decimation
	FilterTaps    int
	SpectrumSize  int // FFT size for the waterfall
	SpectrumEvery int // publish a waterfall line every N buffers
}

func (c *Config) applyDefaults() {
	if c.SampleRate == 0 {
		c.SampleRate = dsp.DefaultSampleRate
	}
	if c.NumSamples == 0 {
		c.NumSamples = 4096
	}
	if c.AudioRate == 0 {
		c.AudioRate = 48000
	}
	if c.AudioCutoffHz == 0 {
		// Broad enough for voice; the mixing image sits far outside.
		c.AudioCutoffHz = 4000
	}
	if c.FilterTaps == 0 {
		c.FilterTaps = 129
	}
	if c.SpectrumSize == 0 {
		c.SpectrumSize = c.NumSamples
	}
	if c.SpectrumEvery == 0 {
		c.SpectrumEvery = 4
	}
}

// Receiver runs the acquisition loop. All sample processing happens on
// the Run goroutine; that is what upholds the mixer's single-writer
// contract for the shared gain exponent.
type Receiver struct {
	source     sdr.Source
	mixer      *dsp.Downmixer
	hub        *stream.Hub
	logger     logging.Logger
	cfg        Config
	decimators []*dsp.Decimator
	analyzer   *dsp.Analyzer
	audio      []int16
	buffers    int
}

// New wires a receiver. The mixer is owned by the caller so the web
// layer can share its tuner.
func New(source sdr.Source, mixer *dsp.Downmixer, hub *stream.Hub, logger logging.Logger, cfg Config) *Receiver {
	if logger == nil {
		logger = logging.Default()
	}
	return &Receiver{
		source: source,
		mixer:  mixer,
		hub:    hub,
		logger: logger,
		cfg:    cfg,
	}
}

// Init validates the configuration, builds the per-channel filter
// chain, and initializes the sample source.
func (r *Receiver) Init(ctx context.Context, srcCfg sdr.Config) error {
	r.cfg.applyDefaults()
	if r.cfg.SampleRate%r.cfg.AudioRate != 0 {
		return fmt.Errorf("audio rate %d must divide sample rate %d", r.cfg.AudioRate, r.cfg.SampleRate)
	}
	factor := r.cfg.SampleRate / r.cfg.AudioRate

	r.decimators = make([]*dsp.Decimator, r.mixer.Channels())
	for ch := range r.decimators {
		r.decimators[ch] = dsp.NewDecimator(r.cfg.SampleRate, r.cfg.AudioCutoffHz, factor, r.cfg.FilterTaps)
	}
	r.analyzer = dsp.NewAnalyzer(r.cfg.SpectrumSize)
	r.audio = make([]int16, 0, 2*r.cfg.NumSamples/factor+2)

	srcCfg.SampleRate = r.cfg.SampleRate
	srcCfg.NumSamples = r.cfg.NumSamples
	if err := r.source.Init(ctx, srcCfg); err != nil {
		return fmt.Errorf("init source: %w", err)
	}
	return nil
}

// Run pulls buffers until the context is canceled.
func (r *Receiver) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		start := time.Now()
		iq, err := r.source.RX(ctx)
		if err != nil {
			return fmt.Errorf("receive samples: %w", err)
		}
		if len(iq) == 0 {
			r.logger.Warn("received empty buffer", logging.Field{Key: "subsystem", Value: "receiver"})
			continue
		}

		r.processBuffer(iq)
		r.logger.Debug("buffer processed",
			logging.Field{Key: "buffer", Value: r.buffers},
			logging.Field{Key: "elapsed_ms", Value: time.Since(start).Seconds() * 1000})
	}
}

func (r *Receiver) processBuffer(iq []int16) {
	if r.buffers%r.cfg.SpectrumEvery == 0 {
		if line := r.analyzer.SpectrumDBFS(iq); line != nil {
			r.hub.SetSpectrum(line)
		}
	}
	r.buffers++

	for _, channel := range r.hub.ActiveChannels() {
		dec := r.decimators[channel]
		r.audio = r.audio[:0]
		for n := 0; n+1 < len(iq); n += 2 {
			i, q := r.mixer.Process(iq[n], iq[n+1], channel)
			if ai, aq, ok := dec.Push(i, q); ok {
				r.audio = append(r.audio, ai, aq)
			}
		}
		if len(r.audio) > 0 {
			r.hub.PublishAudio(channel, r.audio)
		}
	}
}
