// Package stream delivers downmixed audio and spectrum data to web
// clients and accepts their tuning requests. Each client listens on one
// mixer channel.
package stream

import (
	"fmt"
	"sync"
	"time"
)

// AudioBlock is one block of downmixed, low-pass filtered I/Q at the
// audio rate, ready for client-side demodulation.
type AudioBlock struct {
	Channel int     `json:"channel"`
	Samples []int16 `json:"samples"`
}

// Hub fans audio blocks out to per-channel subscribers and keeps the
// latest spectrum snapshot for the waterfall.
type Hub struct {
	mu          sync.RWMutex
	maxClients  int
	subscribers map[int]map[chan AudioBlock]struct{}
	spectrum    []float64
	spectrumAt  time.Time
}

// NewHub builds a hub for the given number of mixer channels.
func NewHub(maxClients int) *Hub {
	return &Hub{
		maxClients:  maxClients,
		subscribers: make(map[int]map[chan AudioBlock]struct{}),
	}
}

// MaxClients returns the number of mixer channels the hub serves.
func (h *Hub) MaxClients() int { return h.maxClients }

// Subscribe registers a listener on a channel and returns its feed
// plus a cancel function. Slow listeners lose blocks rather than stall
// the sample path.
func (h *Hub) Subscribe(channel int) (chan AudioBlock, func(), error) {
	if channel < 0 || channel >= h.maxClients {
		return nil, nil, fmt.Errorf("channel %d out of range [0, %d)", channel, h.maxClients)
	}
	ch := make(chan AudioBlock, 8)
	h.mu.Lock()
	subs := h.subscribers[channel]
	if subs == nil {
		subs = make(map[chan AudioBlock]struct{})
		h.subscribers[channel] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers[channel], ch)
			close(ch)
			h.mu.Unlock()
		})
	}
	return ch, cancel, nil
}

// PublishAudio fans a block out to the channel's subscribers. The
// samples are copied once; subscribers share the copy read-only.
func (h *Hub) PublishAudio(channel int, samples []int16) {
	block := AudioBlock{Channel: channel, Samples: append([]int16(nil), samples...)}

	h.mu.RLock()
	for ch := range h.subscribers[channel] {
		select {
		case ch <- block:
		default:
		}
	}
	h.mu.RUnlock()
}

// ActiveChannels returns the channels that currently have at least one
// subscriber, in unspecified order.
func (h *Hub) ActiveChannels() []int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var active []int
	for channel, subs := range h.subscribers {
		if len(subs) > 0 {
			active = append(active, channel)
		}
	}
	return active
}

// SetSpectrum stores the latest waterfall line.
func (h *Hub) SetSpectrum(dbfs []float64) {
	snapshot := append([]float64(nil), dbfs...)
	h.mu.Lock()
	h.spectrum = snapshot
	h.spectrumAt = time.Now()
	h.mu.Unlock()
}

// Spectrum returns the latest waterfall line and its timestamp.
func (h *Hub) Spectrum() ([]float64, time.Time) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.spectrum, h.spectrumAt
}
