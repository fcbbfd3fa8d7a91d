package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/alertpipe/alertpipe/internal/alert"
)

// Webhook posts alerts to a configured HTTP endpoint. A 2xx response counts
// as delivered; anything else is a failure. Repeated failures trip a circuit
// breaker so a dead endpoint does not slow every subsequent tick.
type Webhook struct {
	url      string
	client   *http.Client
	identity Identity
	breaker  *gobreaker.CircuitBreaker
}

// webhookPayload is the wire body: the alert plus the sending system.
type webhookPayload struct {
	Alert  *alert.Alert `json:"alert"`
	System Identity     `json:"system"`
}

// NewWebhook creates a webhook channel. The timeout bounds each POST.
func NewWebhook(url string, timeout time.Duration, identity Identity) *Webhook {
	return &Webhook{
		url:      url,
		client:   &http.Client{Timeout: timeout},
		identity: identity,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "webhook",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

func (c *Webhook) Name() string { return "webhook" }

// Deliver posts {alert, system} and requires a 2xx response.
func (c *Webhook) Deliver(ctx context.Context, a *alert.Alert) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.post(ctx, a)
	})
	if err != nil {
		return fmt.Errorf("webhook %s: %w", c.url, err)
	}
	return nil
}

func (c *Webhook) post(ctx context.Context, a *alert.Alert) error {
	body, err := json.Marshal(webhookPayload{Alert: a, System: c.identity})
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(snippet))
	}
	return nil
}
