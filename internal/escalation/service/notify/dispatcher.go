package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/voicedesk/voicedesk/internal/escalation/metrics"
	"github.com/voicedesk/voicedesk/internal/escalation/model"
)

// Transport delivers one escalation alert to one user over one channel.
// Implementations are black boxes to the dispatcher; it only orchestrates
// and keeps the books.
type Transport interface {
	Send(ctx context.Context, user *model.User, esc *model.Escalation) error
}

// Attempt records one delivery attempt.
type Attempt struct {
	UserID  string
	Channel model.Channel
	Err     error
}

// DispatchReport aggregates per-attempt outcomes for one escalation.
type DispatchReport struct {
	Attempts []Attempt
}

// AnySuccess reports whether at least one delivery went through.
func (r *DispatchReport) AnySuccess() bool {
	for _, a := range r.Attempts {
		if a.Err == nil {
			return true
		}
	}
	return false
}

// SucceededChannels returns the channels with at least one successful
// delivery, in stable channel order.
func (r *DispatchReport) SucceededChannels() []model.Channel {
	seen := make(map[model.Channel]bool)
	var out []model.Channel
	for _, a := range r.Attempts {
		if a.Err == nil && !seen[a.Channel] {
			seen[a.Channel] = true
			out = append(out, a.Channel)
		}
	}
	return out
}

// NotifiedUserIDs returns the ids of users who received at least one
// successful delivery.
func (r *DispatchReport) NotifiedUserIDs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range r.Attempts {
		if a.Err == nil && !seen[a.UserID] {
			seen[a.UserID] = true
			out = append(out, a.UserID)
		}
	}
	return out
}

// Dispatcher fans an escalation out across recipients and channels. Each
// (recipient, channel) attempt is independent; one failure never aborts the
// siblings.
type Dispatcher struct {
	transports map[model.Channel]Transport
}

func NewDispatcher(transports map[model.Channel]Transport) *Dispatcher {
	return &Dispatcher{transports: transports}
}

// Dispatch attempts every recipient x channel pair concurrently and collects
// the per-attempt results.
func (d *Dispatcher) Dispatch(ctx context.Context, esc *model.Escalation, recipients []*model.User, channels []model.Channel) DispatchReport {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		report DispatchReport
	)
	record := func(a Attempt) {
		mu.Lock()
		report.Attempts = append(report.Attempts, a)
		mu.Unlock()
		outcome := "ok"
		if a.Err != nil {
			outcome = "error"
		}
		metrics.NotificationAttempts.WithLabelValues(string(a.Channel), outcome).Inc()
	}

	for _, ch := range channels {
		transport, ok := d.transports[ch]
		if !ok {
			log.Warn().Str("channel", string(ch)).Str("escalation", esc.ID).Msg("no transport configured for channel")
			for _, u := range recipients {
				record(Attempt{UserID: u.ID, Channel: ch, Err: fmt.Errorf("no transport for channel %s", ch)})
			}
			continue
		}
		for _, u := range recipients {
			wg.Add(1)
			go func(u *model.User, ch model.Channel, t Transport) {
				defer wg.Done()
				err := t.Send(ctx, u, esc)
				if err != nil {
					log.Error().Err(err).Str("escalation", esc.ID).Str("user", u.ID).
						Str("channel", string(ch)).Msg("delivery attempt failed")
				}
				record(Attempt{UserID: u.ID, Channel: ch, Err: err})
			}(u, ch, transport)
		}
	}
	wg.Wait()
	return report
}
