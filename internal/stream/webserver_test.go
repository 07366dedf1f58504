package stream

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTuner struct {
	offsets  []int
	channels []int
}

func (f *fakeTuner) SetFrequency(offsetHz int, channel int) {
	f.offsets = append(f.offsets, offsetHz)
	f.channels = append(f.channels, channel)
}

func newTestServer(t *testing.T) (*WebServer, *fakeTuner, *Hub) {
	t.Helper()
	hub := NewHub(4)
	tuner := &fakeTuner{}
	return NewWebServer(":0", hub, tuner, nil), tuner, hub
}

func TestTuneEndpoint(t *testing.T) {
	ws, tuner, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/tune", strings.NewReader(`{"channel":2,"offsetHz":-150000}`))
	rec := httptest.NewRecorder()
	ws.srv.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []int{-150000}, tuner.offsets)
	assert.Equal(t, []int{2}, tuner.channels)
}

func TestTuneRejectsBadChannel(t *testing.T) {
	ws, tuner, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/tune", strings.NewReader(`{"channel":7,"offsetHz":1000}`))
	rec := httptest.NewRecorder()
	ws.srv.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, tuner.offsets)
}

func TestTuneRejectsGet(t *testing.T) {
	ws, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/tune", nil)
	rec := httptest.NewRecorder()
	ws.srv.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSpectrumEndpoint(t *testing.T) {
	ws, _, hub := newTestServer(t)
	hub.SetSpectrum([]float64{-90, -20})

	req := httptest.NewRequest(http.MethodGet, "/api/spectrum", nil)
	rec := httptest.NewRecorder()
	ws.srv.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		DBFS []float64 `json:"dbfs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []float64{-90, -20}, body.DBFS)
}

func TestAudioRequiresChannel(t *testing.T) {
	ws, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/audio", nil)
	rec := httptest.NewRecorder()
	ws.srv.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
