// Package cat drives the transceiver's local oscillator over its CI-V
// serial CAT interface. Tune requests arrive from the mixer's tuner as
// fire-and-forget messages; this package owns pacing, framing, and
// serial-port reconnects. The tuner never learns whether a command was
// applied.
package cat

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/tarm/serial"

	"github.com/sdrkit/websdr/internal/dsp"
	"github.com/sdrkit/websdr/internal/logging"
)

// Port is the serial connection to the transceiver, an interface so
// tests can substitute a recording fake.
type Port interface {
	io.ReadWriteCloser
}

// Config selects the serial device.
type Config struct {
	Device string
	Baud   int
}

// Client consumes tune requests and writes CI-V frames to the serial
// port, reopening it with exponential backoff after failures.
type Client struct {
	cfg    Config
	logger logging.Logger
	open   func() (Port, error)
	port   Port
}

// New builds a CAT client for the given serial device.
func New(cfg Config, logger logging.Logger) *Client {
	if cfg.Baud == 0 {
		cfg.Baud = 19200
	}
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{cfg: cfg, logger: logger}
	c.open = func() (Port, error) {
		return serial.OpenPort(&serial.Config{
			Name:        cfg.Device,
			Baud:        cfg.Baud,
			ReadTimeout: 500 * time.Millisecond,
		})
	}
	return c
}

// Run consumes tune requests until the context is canceled or the
// request channel closes. Bursts of retune requests collapse to the
// latest one before anything touches the wire.
func (c *Client) Run(ctx context.Context, requests <-chan dsp.TuneRequest) error {
	defer c.closePort()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req, ok := <-requests:
			if !ok {
				return nil
			}
			req = drainToLatest(requests, req)
			if err := c.send(ctx, req); err != nil {
				c.logger.Warn("tune command failed",
					logging.Field{Key: "frequency_hz", Value: req.FrequencyHz},
					logging.Field{Key: "channel", Value: req.Channel},
					logging.Field{Key: "err", Value: err})
			} else {
				c.logger.Info("transceiver tuned",
					logging.Field{Key: "frequency_hz", Value: req.FrequencyHz},
					logging.Field{Key: "channel", Value: req.Channel})
			}
		}
	}
}

func drainToLatest(requests <-chan dsp.TuneRequest, req dsp.TuneRequest) dsp.TuneRequest {
	for {
		select {
		case r, ok := <-requests:
			if !ok {
				return req
			}
			req = r
		default:
			return req
		}
	}
}

func (c *Client) send(ctx context.Context, req dsp.TuneRequest) error {
	if err := c.ensurePort(ctx); err != nil {
		return fmt.Errorf("open %s: %w", c.cfg.Device, err)
	}
	if _, err := c.port.Write(EncodeSetFrequency(req.FrequencyHz)); err != nil {
		// Drop the port; the next request reopens it.
		c.closePort()
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func (c *Client) ensurePort(ctx context.Context) error {
	if c.port != nil {
		return nil
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 15 * time.Second
	return backoff.Retry(func() error {
		p, err := c.open()
		if err != nil {
			c.logger.Debug("serial open failed, retrying",
				logging.Field{Key: "device", Value: c.cfg.Device},
				logging.Field{Key: "err", Value: err})
			return err
		}
		c.port = p
		return nil
	}, backoff.WithContext(b, ctx))
}

func (c *Client) closePort() {
	if c.port != nil {
		_ = c.port.Close()
		c.port = nil
	}
}
