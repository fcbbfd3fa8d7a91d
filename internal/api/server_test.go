package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alertpipe/alertpipe/internal/alert"
	"github.com/alertpipe/alertpipe/internal/channel"
	"github.com/alertpipe/alertpipe/internal/config"
	"github.com/alertpipe/alertpipe/internal/engine"
	"github.com/alertpipe/alertpipe/internal/metrics"
)

type nullChannel struct {
	mu  sync.Mutex
	got []*alert.Alert
}

func (c *nullChannel) Name() string { return "console" }

func (c *nullChannel) Deliver(_ context.Context, a *alert.Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, a)
	return nil
}

func newTestServer(t *testing.T) (*Server, *engine.Engine, *engine.EventBuffer) {
	t.Helper()

	cfg := config.Default()
	cfg.Rules.Suppression.Enabled = false
	cfg.Rules.Grouping.Enabled = false
	cfg.Rules.Escalation.Enabled = false

	reg := channel.NewRegistry()
	reg.Register(&nullChannel{})

	promReg := prometheus.NewRegistry()
	eng := engine.New(cfg, reg, zerolog.Nop(), engine.WithMetrics(metrics.New(promReg)))

	events := engine.NewEventBuffer(100)
	eng.Subscribe(events.Record)

	return NewServer(eng, events, promReg, zerolog.Nop(), ":0"), eng, events
}

func TestHandleSubmit(t *testing.T) {
	srv, eng, events := newTestServer(t)
	handler := srv.Handler()

	t.Run("valid alert is accepted and queued", func(t *testing.T) {
		body := `{"id":"a1","type":"disk","severity":"critical","message":"disk full","timestamp":1709294400000}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts", strings.NewReader(body))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusAccepted, w.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "accepted", resp["status"])
		assert.Equal(t, "a1", resp["id"])

		assert.Equal(t, 1, eng.StatsSnapshot().QueueDepth)

		recent := events.Recent(10)
		require.Len(t, recent, 1)
		assert.Equal(t, engine.EventQueued, recent[0].Type)
		// Wire timestamps are epoch milliseconds.
		assert.Equal(t, time.UnixMilli(1709294400000).UTC(), recent[0].Alert.Timestamp)
	})

	t.Run("invalid severity still answers 202", func(t *testing.T) {
		body := `{"id":"a2","type":"disk","severity":"fatal","message":"m"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts", strings.NewReader(body))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		// The outcome is observational: a processing-error event, no queue entry.
		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, 1, eng.StatsSnapshot().QueueDepth)
	})

	t.Run("malformed JSON is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts", strings.NewReader("{nope"))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts", strings.NewReader(`{"id":"x","bogus":1}`))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReadEndpoints(t *testing.T) {
	srv, eng, _ := newTestServer(t)
	handler := srv.Handler()

	eng.Submit(&alert.Alert{ID: "a1", Type: "disk", Severity: alert.SeverityCritical, Message: "disk full"})

	get := func(path string) map[string]any {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, path)
		var out map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		return out
	}

	health := get("/health")
	assert.Equal(t, "healthy", health["status"])

	history := get("/api/v1/history")
	assert.Equal(t, float64(0), history["count"])

	events := get("/api/v1/events")
	assert.Equal(t, float64(1), events["count"])

	stats := get("/api/v1/stats")
	assert.Equal(t, float64(1), stats["queue_depth"])

	suppressions := get("/api/v1/suppressions")
	assert.Equal(t, float64(0), suppressions["count"])

	escalations := get("/api/v1/escalations")
	assert.Equal(t, float64(0), escalations["count"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, eng, _ := newTestServer(t)
	handler := srv.Handler()

	eng.Submit(&alert.Alert{ID: "a1", Type: "disk", Severity: alert.SeverityCritical, Message: "m"})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "alertpipe_alerts_submitted_total 1")
	assert.Contains(t, body, "alertpipe_queue_depth 1")
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _, _ := newTestServer(t)
	handler := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
