package stream

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sdrkit/websdr/internal/logging"
)

//go:embed static/*
var staticFiles embed.FS

// Tuner is the retuning operation the web layer exposes to clients.
type Tuner interface {
	SetFrequency(offsetHz int, channel int)
}

// WebServer exposes the hub and tuner over HTTP: spectrum snapshots,
// live audio via server-sent events, and a tune endpoint.
type WebServer struct {
	srv    *http.Server
	hub    *Hub
	tuner  Tuner
	logger logging.Logger
}

// NewWebServer builds the HTTP server serving the embedded UI and API.
func NewWebServer(addr string, hub *Hub, tuner Tuner, logger logging.Logger) *WebServer {
	if logger == nil {
		logger = logging.Default()
	}
	w := &WebServer{hub: hub, tuner: tuner, logger: logger}

	mux := http.NewServeMux()
	mux.Handle("/static/", http.FileServer(http.FS(staticFiles)))
	mux.HandleFunc("/api/tune", w.handleTune)
	mux.HandleFunc("/api/spectrum", w.handleSpectrum)
	mux.HandleFunc("/api/audio", w.handleAudio)
	mux.HandleFunc("/", func(rw http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(rw, r, staticFiles, "static/index.html")
	})

	w.srv = &http.Server{Addr: addr, Handler: mux}
	return w
}

// Start begins listening and shuts down when the context is canceled.
// The error is nil on a clean shutdown.
func (w *WebServer) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := w.srv.Shutdown(shutdownCtx); err != nil {
			w.logger.Warn("web server shutdown", logging.Field{Key: "err", Value: err})
		}
	}()

	if err := w.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

type tuneRequest struct {
	Channel  int `json:"channel"`
	OffsetHz int `json:"offsetHz"`
}

func (w *WebServer) handleTune(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req tuneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(rw, fmt.Sprintf("invalid tune payload: %v", err), http.StatusBadRequest)
		return
	}
	if req.Channel < 0 || req.Channel >= w.hub.MaxClients() {
		http.Error(rw, fmt.Sprintf("channel %d out of range", req.Channel), http.StatusBadRequest)
		return
	}
	// The offset itself is unbounded: out-of-range shifts alias in the
	// oscillator rather than failing here.
	w.tuner.SetFrequency(req.OffsetHz, req.Channel)
	w.logger.Info("client retuned",
		logging.Field{Key: "channel", Value: req.Channel},
		logging.Field{Key: "offset_hz", Value: req.OffsetHz})

	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(req)
}

func (w *WebServer) handleSpectrum(rw http.ResponseWriter, _ *http.Request) {
	dbfs, at := w.hub.Spectrum()
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(struct {
		Updated time.Time `json:"updated"`
		DBFS    []float64 `json:"dbfs"`
	}{Updated: at, DBFS: dbfs})
}

func (w *WebServer) handleAudio(rw http.ResponseWriter, r *http.Request) {
	flusher, ok := rw.(http.Flusher)
	if !ok {
		http.Error(rw, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	channel, err := strconv.Atoi(r.URL.Query().Get("channel"))
	if err != nil {
		http.Error(rw, "channel query parameter required", http.StatusBadRequest)
		return
	}
	feed, cancel, err := w.hub.Subscribe(channel)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}
	defer cancel()

	rw.Header().Set("Content-Type", "text/event-stream")
	rw.Header().Set("Cache-Control", "no-cache")
	rw.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	for {
		select {
		case block, ok := <-feed:
			if !ok {
				return
			}
			payload, _ := json.Marshal(block)
			rw.Write([]byte("data: "))
			rw.Write(payload)
			rw.Write([]byte("\n\n"))
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
