package sdr

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"
)

// NetSource reads interleaved little-endian int16 I/Q frames from the
// TCP sample service on the receiver hardware host.
type NetSource struct {
	cfg  Config
	conn net.Conn
	raw  []byte
}

func NewNet() *NetSource { return &NetSource{} }

func (n *NetSource) Init(ctx context.Context, cfg Config) error {
	if cfg.Addr == "" {
		return fmt.Errorf("net source: no address configured")
	}
	if cfg.NumSamples == 0 {
		cfg.NumSamples = 4096
	}
	d := net.Dialer{Timeout: 3 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("connect to IQ service at %s: %w", cfg.Addr, err)
	}
	n.cfg = cfg
	n.conn = conn
	n.raw = make([]byte, 4*cfg.NumSamples)
	return nil
}

func (n *NetSource) RX(ctx context.Context) ([]int16, error) {
	if n.conn == nil {
		return nil, fmt.Errorf("net source: not initialized")
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = n.conn.SetReadDeadline(deadline)
	}
	if _, err := io.ReadFull(n.conn, n.raw); err != nil {
		return nil, fmt.Errorf("read IQ frame: %w", err)
	}
	iq := make([]int16, 2*n.cfg.NumSamples)
	for i := range iq {
		iq[i] = int16(binary.LittleEndian.Uint16(n.raw[2*i:]))
	}
	return iq, nil
}

func (n *NetSource) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}
