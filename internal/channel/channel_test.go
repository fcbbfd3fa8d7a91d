package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alertpipe/alertpipe/internal/alert"
	"github.com/alertpipe/alertpipe/internal/config"
)

func testAlert() *alert.Alert {
	return &alert.Alert{
		ID:        "a1",
		Type:      "disk",
		Severity:  alert.SeverityCritical,
		Message:   "disk full",
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Source:    "alertpipe",
		Host:      "node-1",
		Priority:  alert.PriorityFor(alert.SeverityCritical),
	}
}

func TestConsoleDeliver(t *testing.T) {
	var buf bytes.Buffer
	ch := NewConsole(&buf)

	require.NoError(t, ch.Deliver(context.Background(), testAlert()))

	line := buf.String()
	assert.Contains(t, line, "CRIT")
	assert.Contains(t, line, "a1")
	assert.Contains(t, line, "disk full")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestFileDeliverAppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.log")
	ch, err := NewFile(path)
	require.NoError(t, err)
	defer ch.Close()

	require.NoError(t, ch.Deliver(context.Background(), testAlert()))
	second := testAlert()
	second.ID = "a2"
	require.NoError(t, ch.Deliver(context.Background(), second))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var record struct {
		Alert alert.Alert `json:"alert"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, "a1", record.Alert.ID)
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &record))
	assert.Equal(t, "a2", record.Alert.ID)
}

func TestWebhookDeliver(t *testing.T) {
	t.Run("posts alert and identity", func(t *testing.T) {
		var got webhookPayload
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusAccepted)
		}))
		defer srv.Close()

		identity := Identity{Name: "alertpipe", Host: "node-1", PID: 42, Version: "test"}
		ch := NewWebhook(srv.URL, time.Second, identity)

		require.NoError(t, ch.Deliver(context.Background(), testAlert()))
		assert.Equal(t, "a1", got.Alert.ID)
		assert.Equal(t, "alertpipe", got.System.Name)
		assert.Equal(t, 42, got.System.PID)
	})

	t.Run("non-2xx is a failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusInternalServerError)
		}))
		defer srv.Close()

		ch := NewWebhook(srv.URL, time.Second, Identity{})
		err := ch.Deliver(context.Background(), testAlert())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "500")
	})

	t.Run("breaker opens after consecutive failures", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusBadGateway)
		}))
		defer srv.Close()

		ch := NewWebhook(srv.URL, time.Second, Identity{})
		for i := 0; i < 5; i++ {
			assert.Error(t, ch.Deliver(context.Background(), testAlert()))
		}
		// Next call is rejected by the open breaker without a request.
		err := ch.Deliver(context.Background(), testAlert())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "circuit breaker is open")
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		ch := NewWebhook("http://127.0.0.1:1/hook", 200*time.Millisecond, Identity{})
		assert.Error(t, ch.Deliver(context.Background(), testAlert()))
	})
}

type recordingSender struct {
	from    string
	to      []string
	subject string
	body    string
}

func (s *recordingSender) Send(_ context.Context, from string, to []string, subject, body string) error {
	s.from = from
	s.to = to
	s.subject = subject
	s.body = body
	return nil
}

func TestEmailDeliver(t *testing.T) {
	sender := &recordingSender{}
	ch := NewEmail(sender, "alerts@example.com", []string{"ops@example.com"})

	require.NoError(t, ch.Deliver(context.Background(), testAlert()))

	assert.Equal(t, "alerts@example.com", sender.from)
	assert.Equal(t, []string{"ops@example.com"}, sender.to)
	assert.Contains(t, sender.subject, "CRITICAL")
	assert.Contains(t, sender.subject, "disk")
	assert.Contains(t, sender.body, "disk full")
	assert.Contains(t, sender.body, "node-1")
}

func TestBuildRegistry(t *testing.T) {
	log := zerolog.Nop()

	t.Run("skips misconfigured channels", func(t *testing.T) {
		cfg := config.ChannelsConfig{
			Console: config.ConsoleChannelConfig{Enabled: true},
			Webhook: config.WebhookChannelConfig{Enabled: true}, // no URL
			File:    config.FileChannelConfig{Enabled: true},    // no path
		}

		reg, errs := BuildRegistry(cfg, Identity{}, nil, log)
		require.Len(t, errs, 2)

		names := make([]string, 0)
		for _, ch := range reg.Enabled() {
			names = append(names, ch.Name())
		}
		assert.Equal(t, []string{"console"}, names)
	})

	t.Run("email requires a sender", func(t *testing.T) {
		cfg := config.ChannelsConfig{
			Email: config.EmailChannelConfig{Enabled: true, Recipients: []string{"ops@example.com"}},
		}
		_, errs := BuildRegistry(cfg, Identity{}, nil, log)
		require.Len(t, errs, 1)
		assert.Equal(t, "email", errs[0].Channel)
	})

	t.Run("all channels healthy", func(t *testing.T) {
		cfg := config.ChannelsConfig{
			Console: config.ConsoleChannelConfig{Enabled: true},
			File:    config.FileChannelConfig{Enabled: true, Path: filepath.Join(t.TempDir(), "alerts.log")},
			Webhook: config.WebhookChannelConfig{Enabled: true, URL: "http://example.com/hook", Timeout: config.Duration(time.Second)},
			Email:   config.EmailChannelConfig{Enabled: true, From: "a@b", Recipients: []string{"c@d"}},
		}
		reg, errs := BuildRegistry(cfg, Identity{}, &recordingSender{}, log)
		assert.Empty(t, errs)
		assert.Len(t, reg.Enabled(), 4)
	})
}
