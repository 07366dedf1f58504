package cat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdrkit/websdr/internal/dsp"
)

type fakePort struct {
	mu     sync.Mutex
	writes [][]byte
	fail   bool
	closed bool
}

func (f *fakePort) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return 0, errors.New("port gone")
	}
	buf := append([]byte(nil), p...)
	f.writes = append(f.writes, buf)
	return len(p), nil
}

func (f *fakePort) Read(p []byte) (int, error) { return 0, nil }

func (f *fakePort) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakePort) frames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.writes...)
}

func TestEncodeSetFrequency(t *testing.T) {
	frame := EncodeSetFrequency(739760000)
	want := []byte{0xFE, 0xFE, 0x94, 0xE0, 0x05, 0x00, 0x00, 0x76, 0x39, 0x07, 0xFD}
	assert.Equal(t, want, frame)
}

func TestEncodeSetFrequencyDigits(t *testing.T) {
	tests := []struct {
		hz   int64
		want []byte // BCD payload only, low pair first
	}{
		{hz: 0, want: []byte{0x00, 0x00, 0x00, 0x00, 0x00}},
		{hz: 7100000, want: []byte{0x00, 0x00, 0x10, 0x07, 0x00}},
		{hz: 1296100500, want: []byte{0x00, 0x05, 0x10, 0x96, 0x12}},
	}
	for _, tt := range tests {
		frame := EncodeSetFrequency(tt.hz)
		require.Len(t, frame, 11)
		assert.Equal(t, tt.want, frame[5:10], "payload for %d Hz", tt.hz)
	}
}

func TestRunWritesLatestRequest(t *testing.T) {
	port := &fakePort{}
	c := New(Config{Device: "/dev/ttyUSB0"}, nil)
	c.open = func() (Port, error) { return port, nil }

	requests := make(chan dsp.TuneRequest, 4)
	requests <- dsp.TuneRequest{Channel: 0, FrequencyHz: 739760000}
	close(requests)

	err := c.Run(context.Background(), requests)
	require.NoError(t, err)

	frames := port.frames()
	require.Len(t, frames, 1)
	assert.Equal(t, EncodeSetFrequency(739760000), frames[0])
	assert.True(t, port.closed, "port must be closed on shutdown")
}

func TestRunStopsOnCancel(t *testing.T) {
	c := New(Config{Device: "/dev/ttyUSB0"}, nil)
	c.open = func() (Port, error) { return &fakePort{}, nil }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, make(chan dsp.TuneRequest)) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

func TestDrainToLatest(t *testing.T) {
	requests := make(chan dsp.TuneRequest, 4)
	requests <- dsp.TuneRequest{FrequencyHz: 2}
	requests <- dsp.TuneRequest{FrequencyHz: 3}

	got := drainToLatest(requests, dsp.TuneRequest{FrequencyHz: 1})
	assert.Equal(t, int64(3), got.FrequencyHz)
}

func TestSendReopensAfterWriteFailure(t *testing.T) {
	bad := &fakePort{fail: true}
	good := &fakePort{}
	ports := []*fakePort{bad, good}
	c := New(Config{Device: "/dev/ttyUSB0"}, nil)
	c.open = func() (Port, error) {
		p := ports[0]
		ports = ports[1:]
		return p, nil
	}

	err := c.send(context.Background(), dsp.TuneRequest{FrequencyHz: 7100000})
	require.Error(t, err)
	assert.True(t, bad.closed, "failed port must be dropped")

	err = c.send(context.Background(), dsp.TuneRequest{FrequencyHz: 7100000})
	require.NoError(t, err)
	require.Len(t, good.frames(), 1)
}
