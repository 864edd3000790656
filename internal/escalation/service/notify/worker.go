package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/voicedesk/voicedesk/internal/escalation/service/engine"
)

// Worker drains the engine's notification job channel: resolves recipients,
// dispatches, and writes the outcome back onto the escalation record.
// Escalation creation already happened by the time a job arrives, so every
// failure here is recoverable: the row stays unnotified and the next sweep
// re-queues it.
type Worker struct {
	resolver   *Resolver
	dispatcher *Dispatcher
	store      engine.EscalationStore

	// now allows overriding the clock in tests.
	now func() time.Time
}

func NewWorker(resolver *Resolver, dispatcher *Dispatcher, store engine.EscalationStore) *Worker {
	return &Worker{
		resolver:   resolver,
		dispatcher: dispatcher,
		store:      store,
		now:        time.Now,
	}
}

// Start consumes jobs until the context is cancelled.
func (w *Worker) Start(ctx context.Context, ch <-chan engine.NotificationJob) {
	if ch == nil {
		log.Warn().Msg("notification worker started without channel; no-op")
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-ch:
			w.Process(ctx, job)
		}
	}
}

// Process handles one job end to end.
func (w *Worker) Process(ctx context.Context, job engine.NotificationJob) {
	esc := job.Escalation
	if esc == nil {
		return
	}

	recipients, err := w.resolver.Resolve(ctx, esc.TenantID, job.Roles)
	if err != nil {
		log.Error().Err(err).Str("escalation", esc.ID).Msg("recipient resolution failed")
		return
	}
	if len(recipients) == 0 {
		// Valid outcome: nobody holds the configured roles yet. The
		// escalation stands unnotified and is retried once staffing changes.
		log.Warn().Str("escalation", esc.ID).Str("tenant", esc.TenantID).
			Msg("no recipients for configured roles, skipping dispatch")
		return
	}

	report := w.dispatcher.Dispatch(ctx, esc, recipients, job.Channels)
	if !report.AnySuccess() {
		log.Warn().Str("escalation", esc.ID).Int("attempts", len(report.Attempts)).
			Msg("all deliveries failed, escalation left unnotified for retry")
		return
	}

	// Partial failure still counts as notified: at least one human was
	// reached, and the attempt breakdown is in the logs and metrics.
	if err := w.store.MarkNotified(ctx, esc.ID, w.now(), report.SucceededChannels(), report.NotifiedUserIDs()); err != nil {
		log.Error().Err(err).Str("escalation", esc.ID).Msg("mark notified failed")
		return
	}
	log.Info().Str("escalation", esc.ID).Bool("retry", job.Retry).
		Int("recipients", len(report.NotifiedUserIDs())).
		Int("channels", len(report.SucceededChannels())).Msg("escalation notified")
}
