package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/alertpipe/alertpipe/internal/alert"
	"github.com/alertpipe/alertpipe/internal/channel"
)

// dispatch removes up to batch_size alerts from the front of the queue and
// fans each one out to every enabled channel. An alert is delivered only
// when all enabled channels succeed; any channel failure marks it failed.
// There is no automatic redelivery.
func (e *Engine) dispatch(ctx context.Context, now time.Time) {
	e.mu.Lock()
	n := e.cfg.Notifications.BatchSize
	if n > len(e.queue) {
		n = len(e.queue)
	}
	if n == 0 {
		e.mu.Unlock()
		return
	}
	batch := make([]*alert.Alert, n)
	copy(batch, e.queue[:n])
	e.queue = e.queue[n:]
	if e.metrics != nil {
		e.metrics.QueueDepth.Set(float64(len(e.queue)))
	}
	e.mu.Unlock()

	channels := e.registry.Enabled()

	for _, a := range batch {
		err := e.deliverAll(ctx, channels, a)

		outcome := alert.OutcomeDelivered
		errText := ""
		if err != nil {
			outcome = alert.OutcomeFailed
			errText = err.Error()
		}

		e.mu.Lock()
		e.history[a.ID] = &Record{
			Alert:       a,
			Outcome:     outcome,
			ProcessedAt: now,
			Error:       errText,
		}
		e.mu.Unlock()

		if err != nil {
			if e.metrics != nil {
				e.metrics.Failed.Inc()
			}
			e.log.Error().
				Err(err).
				Str("alert_id", a.ID).
				Msg("Alert delivery failed")
			ev := Event{Type: EventDeliveryFailed, Time: now, Alert: a}
			ev.Fields = map[string]any{"error": errText}
			e.emit(ev)
			continue
		}

		if e.metrics != nil {
			e.metrics.Delivered.Inc()
		}
		e.log.Info().
			Str("alert_id", a.ID).
			Str("type", a.Type).
			Str("severity", string(a.Severity)).
			Int("channels", len(channels)).
			Msg("Alert delivered")
		e.emit(Event{Type: EventDelivered, Time: now, Alert: a})
	}
}

// deliverAll invokes every channel concurrently and waits for the set.
// Per-channel failures are aggregated into one DeliveryError.
func (e *Engine) deliverAll(ctx context.Context, channels []channel.Channel, a *alert.Alert) error {
	if len(channels) == 0 {
		return nil
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		merr   *multierror.Error
		failed []string
	)

	for _, ch := range channels {
		wg.Add(1)
		go func(ch channel.Channel) {
			defer wg.Done()
			if err := ch.Deliver(ctx, a); err != nil {
				mu.Lock()
				merr = multierror.Append(merr, fmt.Errorf("%s: %w", ch.Name(), err))
				failed = append(failed, ch.Name())
				mu.Unlock()
			}
		}(ch)
	}
	wg.Wait()

	if merr == nil {
		return nil
	}
	sort.Strings(failed)
	return &alert.DeliveryError{AlertID: a.ID, Channels: failed, Err: merr.ErrorOrNil()}
}
