package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdrkit/websdr/internal/dsp"
	"github.com/sdrkit/websdr/internal/sdr"
	"github.com/sdrkit/websdr/internal/stream"
)

func newTestReceiver(t *testing.T) (*Receiver, *dsp.Downmixer, *stream.Hub) {
	t.Helper()
	mixer := dsp.NewDownmixer(dsp.Config{MaxClients: 4, SampleRate: 2400000})
	hub := stream.NewHub(4)
	r := New(sdr.NewMock(), mixer, hub, nil, Config{
		SampleRate: 2400000,
		NumSamples: 4800,
		AudioRate:  48000,
	})
	require.NoError(t, r.Init(context.Background(), sdr.Config{ToneOffsetHz: 10000, Amplitude: 0.5}))
	return r, mixer, hub
}

func TestInitRejectsNonIntegerDecimation(t *testing.T) {
	mixer := dsp.NewDownmixer(dsp.Config{MaxClients: 2, SampleRate: 2400000})
	r := New(sdr.NewMock(), mixer, stream.NewHub(2), nil, Config{
		SampleRate: 2400000,
		AudioRate:  44100,
	})
	assert.Error(t, r.Init(context.Background(), sdr.Config{}))
}

func TestProcessBufferPublishesAudio(t *testing.T) {
	r, _, hub := newTestReceiver(t)
	feed, cancel, err := hub.Subscribe(0)
	require.NoError(t, err)
	defer cancel()

	iq := make([]int16, 2*4800)
	for n := range iq {
		iq[n] = int16(n % 1000)
	}
	r.processBuffer(iq)

	select {
	case block := <-feed:
		// 4800 samples decimated by 50 is 96 pairs.
		assert.Equal(t, 0, block.Channel)
		assert.Len(t, block.Samples, 192)
	default:
		t.Fatal("no audio block published")
	}
}

func TestProcessBufferSkipsIdleChannels(t *testing.T) {
	r, _, hub := newTestReceiver(t)
	feed, cancel, err := hub.Subscribe(3)
	require.NoError(t, err)
	cancel()

	r.processBuffer(make([]int16, 2*4800))

	select {
	case <-feed:
	default:
	}
	// No subscriber was active, so channel 3's oscillator never moved.
	osc := r.mixer.Oscillator()
	assert.Equal(t, uint32(0), osc.Accumulator(3))
}

func TestProcessBufferSetsSpectrum(t *testing.T) {
	r, _, hub := newTestReceiver(t)

	iq := make([]int16, 2*4800)
	r.processBuffer(iq)

	line, at := hub.Spectrum()
	assert.Len(t, line, 4800)
	assert.False(t, at.IsZero())
}

func TestRunStopsOnCancel(t *testing.T) {
	r, _, _ := newTestReceiver(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

func TestRunDeliversLiveAudio(t *testing.T) {
	r, mixer, hub := newTestReceiver(t)
	mixer.SetFrequency(10000, 1)

	feed, cancelSub, err := hub.Subscribe(1)
	require.NoError(t, err)
	defer cancelSub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case block := <-feed:
		assert.Equal(t, 1, block.Channel)
		assert.NotEmpty(t, block.Samples)
	case <-time.After(2 * time.Second):
		t.Fatal("no audio delivered")
	}
	cancel()
	<-done
}
