package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sdrkit/websdr/internal/app"
	"github.com/sdrkit/websdr/internal/cat"
	"github.com/sdrkit/websdr/internal/dsp"
	"github.com/sdrkit/websdr/internal/logging"
	"github.com/sdrkit/websdr/internal/mdns"
	"github.com/sdrkit/websdr/internal/sdr"
	"github.com/sdrkit/websdr/internal/stream"
)

func main() {
	const configPath = "config.json"

	persistentCfg, err := loadOrCreateConfig(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	cfg, err := parseConfig(os.Args[1:], os.LookupEnv, persistentCfg)
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}
	if err := saveConfig(configPath, persistentFromCLI(cfg)); err != nil {
		log.Fatalf("save config: %v", err)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		log.Fatalf("configure logging: %v", err)
	}
	logging.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var requests chan dsp.TuneRequest
	if cfg.catDevice != "" {
		requests = make(chan dsp.TuneRequest, 1)
	}

	mixer := dsp.NewDownmixer(dsp.Config{
		MaxClients:  cfg.maxClients,
		SampleRate:  cfg.sampleRate,
		ReferenceHz: cfg.referenceHz,
		Requests:    requests,
	})

	source, srcCfg, err := selectSource(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("select source: %v", err)
	}
	defer source.Close()

	hub := stream.NewHub(cfg.maxClients)
	ws := stream.NewWebServer(cfg.webAddr, hub, mixer.Tuner(), logger)
	go func() {
		if err := ws.Start(ctx); err != nil {
			logger.Error("web server stopped", logging.Field{Key: "error", Value: err})
			cancel()
		}
	}()
	logger.Info("web interface up", logging.Field{Key: "addr", Value: cfg.webAddr})

	if requests != nil {
		client := cat.New(cat.Config{Device: cfg.catDevice, Baud: cfg.catBaud}, logger)
		go func() {
			if err := client.Run(ctx, requests); err != nil && err != context.Canceled {
				logger.Error("transceiver control stopped", logging.Field{Key: "error", Value: err})
			}
		}()
	}

	receiver := app.New(source, mixer, hub, logger, app.Config{
		SampleRate: cfg.sampleRate,
		NumSamples: cfg.numSamples,
		AudioRate:  cfg.audioRate,
	})
	if err := receiver.Init(ctx, srcCfg); err != nil {
		log.Fatalf("init receiver: %v", err)
	}

	logger.Info("receiver started",
		logging.Field{Key: "backend", Value: cfg.backend},
		logging.Field{Key: "sample_rate", Value: cfg.sampleRate},
		logging.Field{Key: "clients", Value: cfg.maxClients})
	if err := receiver.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("run receiver: %v", err)
	}
}

type cliConfig struct {
	sampleRate  int
	numSamples  int
	audioRate   int
	maxClients  int
	referenceHz int64
	backend     string
	iqAddr      string
	toneOffset  float64
	catDevice   string
	catBaud     int
	webAddr     string
	logLevel    string
	logFormat   string
}

type persistentConfig struct {
	SampleRate  int     `json:"sample_rate"`
	NumSamples  int     `json:"num_samples"`
	AudioRate   int     `json:"audio_rate"`
	MaxClients  int     `json:"max_clients"`
	ReferenceHz int64   `json:"reference_hz"`
	Backend     string  `json:"backend"`
	IQAddr      string  `json:"iq_addr"`
	ToneOffset  float64 `json:"tone_offset"`
	CATDevice   string  `json:"cat_device"`
	CATBaud     int     `json:"cat_baud"`
	WebAddr     string  `json:"web_addr"`
	LogLevel    string  `json:"log_level"`
	LogFormat   string  `json:"log_format"`
}

func parseConfig(args []string, lookup func(string) (string, bool), defaults persistentConfig) (cliConfig, error) {
	cfg := cliConfig{}
	fs := flag.NewFlagSet("websdr", flag.ContinueOnError)
	fs.IntVar(&cfg.sampleRate, "sample-rate", envInt(lookup, "WEBSDR_SAMPLE_RATE", defaults.SampleRate), "IQ sample rate in Hz")
	fs.IntVar(&cfg.numSamples, "num-samples", envInt(lookup, "WEBSDR_NUM_SAMPLES", defaults.NumSamples), "Complex samples per RX call")
	fs.IntVar(&cfg.audioRate, "audio-rate", envInt(lookup, "WEBSDR_AUDIO_RATE", defaults.AudioRate), "Audio delivery rate in Hz (must divide sample rate)")
	fs.IntVar(&cfg.maxClients, "max-clients", envInt(lookup, "WEBSDR_MAX_CLIENTS", defaults.MaxClients), "Number of independent receive channels")
	fs.Int64Var(&cfg.referenceHz, "reference-hz", envInt64(lookup, "WEBSDR_REFERENCE_HZ", defaults.ReferenceHz), "Absolute frequency of baseband zero in Hz")
	fs.StringVar(&cfg.backend, "backend", envString(lookup, "WEBSDR_BACKEND", defaults.Backend), "Sample source (mock|net|mdns)")
	fs.StringVar(&cfg.iqAddr, "iq-addr", envString(lookup, "WEBSDR_IQ_ADDR", defaults.IQAddr), "host:port of the IQ service (net backend)")
	fs.Float64Var(&cfg.toneOffset, "tone-offset", envFloat(lookup, "WEBSDR_TONE_OFFSET", defaults.ToneOffset), "Test tone offset in Hz (mock backend)")
	fs.StringVar(&cfg.catDevice, "cat-device", envString(lookup, "WEBSDR_CAT_DEVICE", defaults.CATDevice), "Serial device for transceiver control (empty disables CAT)")
	fs.IntVar(&cfg.catBaud, "cat-baud", envInt(lookup, "WEBSDR_CAT_BAUD", defaults.CATBaud), "Serial baud rate for transceiver control")
	fs.StringVar(&cfg.webAddr, "web-addr", envString(lookup, "WEBSDR_WEB_ADDR", defaults.WebAddr), "Web listen address (e.g. :8080)")
	fs.StringVar(&cfg.logLevel, "log-level", envString(lookup, "WEBSDR_LOG_LEVEL", defaults.LogLevel), "Log level (debug|info|warn|error)")
	fs.StringVar(&cfg.logFormat, "log-format", envString(lookup, "WEBSDR_LOG_FORMAT", defaults.LogFormat), "Log format (text|json)")

	if err := fs.Parse(args); err != nil {
		return cliConfig{}, err
	}
	return cfg, nil
}

func persistentFromCLI(cfg cliConfig) persistentConfig {
	return persistentConfig{
		SampleRate:  cfg.sampleRate,
		NumSamples:  cfg.numSamples,
		AudioRate:   cfg.audioRate,
		MaxClients:  cfg.maxClients,
		ReferenceHz: cfg.referenceHz,
		Backend:     cfg.backend,
		IQAddr:      cfg.iqAddr,
		ToneOffset:  cfg.toneOffset,
		CATDevice:   cfg.catDevice,
		CATBaud:     cfg.catBaud,
		WebAddr:     cfg.webAddr,
		LogLevel:    cfg.logLevel,
		LogFormat:   cfg.logFormat,
	}
}

func loadOrCreateConfig(path string) (persistentConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := defaultPersistentConfig()
			if saveErr := saveConfig(path, cfg); saveErr != nil {
				return persistentConfig{}, saveErr
			}
			return cfg, nil
		}
		return persistentConfig{}, err
	}
	defer f.Close()

	var cfg persistentConfig
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return persistentConfig{}, err
	}
	return cfg, nil
}

func saveConfig(path string, cfg persistentConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func defaultPersistentConfig() persistentConfig {
	return persistentConfig{
		SampleRate:  dsp.DefaultSampleRate,
		NumSamples:  1 << 12,
		AudioRate:   48000,
		MaxClients:  dsp.DefaultMaxClients,
		ReferenceHz: dsp.DefaultReferenceHz,
		Backend:     "mock",
		IQAddr:      "",
		ToneOffset:  10e3,
		CATDevice:   "",
		CATBaud:     19200,
		WebAddr:     ":8080",
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

func buildLogger(cfg cliConfig) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.logLevel)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.logFormat)
	if err != nil {
		return nil, err
	}
	return logging.New(level, format, os.Stderr), nil
}

func selectSource(ctx context.Context, cfg cliConfig, logger logging.Logger) (sdr.Source, sdr.Config, error) {
	srcCfg := sdr.Config{ToneOffsetHz: cfg.toneOffset}
	switch cfg.backend {
	case "mock":
		return sdr.NewMock(), srcCfg, nil
	case "net":
		if cfg.iqAddr == "" {
			return nil, sdr.Config{}, fmt.Errorf("net backend requires -iq-addr")
		}
		srcCfg.Addr = cfg.iqAddr
		return sdr.NewNet(), srcCfg, nil
	case "mdns":
		hosts, err := mdns.Discover(ctx, 3*time.Second)
		if err != nil {
			return nil, sdr.Config{}, fmt.Errorf("discover IQ service: %w", err)
		}
		for _, h := range hosts {
			if addr := h.Addr(); addr != "" {
				logger.Info("discovered IQ service",
					logging.Field{Key: "instance", Value: h.Instance},
					logging.Field{Key: "addr", Value: addr})
				srcCfg.Addr = addr
				return sdr.NewNet(), srcCfg, nil
			}
		}
		return nil, sdr.Config{}, fmt.Errorf("no IQ service found via mDNS")
	default:
		return nil, sdr.Config{}, fmt.Errorf("unknown backend %s", cfg.backend)
	}
}

func envFloat(lookup func(string) (string, bool), key string, def float64) float64 {
	if val, ok := lookup(key); ok {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return def
}

func envInt(lookup func(string) (string, bool), key string, def int) int {
	if val, ok := lookup(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func envInt64(lookup func(string) (string, bool), key string, def int64) int64 {
	if val, ok := lookup(key); ok {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return def
}

func envString(lookup func(string) (string, bool), key, def string) string {
	if val, ok := lookup(key); ok {
		return val
	}
	return def
}
