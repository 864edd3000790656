package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/voicedesk/voicedesk/internal/escalation/metrics"
	"github.com/voicedesk/voicedesk/internal/escalation/model"
	"github.com/voicedesk/voicedesk/internal/escalation/service/rulecatalog"
)

var (
	// ErrEscalationNotFound indicates the escalation id does not exist.
	ErrEscalationNotFound = errors.New("escalation not found")
	// ErrAlreadyResolved indicates a resolve call on a terminal escalation.
	ErrAlreadyResolved = errors.New("escalation already resolved")
)

// EscalationStore is the durable record of escalation instances.
type EscalationStore interface {
	// FindOpen returns the unresolved escalation at the exact (feedback,
	// tier), or nil when none exists.
	FindOpen(ctx context.Context, feedbackID string, tier int) (*model.Escalation, error)

	// Create inserts the escalation. Returns false without error when an
	// unresolved row already occupies (feedback, tier); the database partial
	// unique index makes this race-safe across concurrent sweep workers.
	Create(ctx context.Context, esc *model.Escalation) (bool, error)

	MarkNotified(ctx context.Context, id string, at time.Time, channels []model.Channel, userIDs []string) error
	Resolve(ctx context.Context, id string, at time.Time, notes string) error

	Get(ctx context.Context, id string) (*model.Escalation, error)
	ListByTenant(ctx context.Context, tenantID string, unresolvedOnly bool, limit int) ([]*model.Escalation, error)
}

// FeedbackSource is the read-only view onto the feedback module.
type FeedbackSource interface {
	GetByID(ctx context.Context, id string) (*model.Feedback, error)
	// ListOpenSince returns feedback in non-terminal workflow states created
	// after since, oldest first, capped at limit.
	ListOpenSince(ctx context.Context, since time.Time, limit int) ([]*model.Feedback, error)
	// CountRecentByClient counts feedback rows from one originating client
	// of one tenant created after since.
	CountRecentByClient(ctx context.Context, tenantID, clientID string, since time.Time) (int, error)
}

// NotificationJob is what the engine hands to the notification worker. The
// engine never talks to transports directly; it records the durable fact and
// queues the side effect.
type NotificationJob struct {
	Escalation *model.Escalation
	Roles      []model.RecipientRole
	Channels   []model.Channel
	Retry      bool
}

// CheckOutcome describes what CheckFeedback decided.
type CheckOutcome string

const (
	OutcomeNoRule       CheckOutcome = "no_rule"
	OutcomeNoBreach     CheckOutcome = "no_breach"
	OutcomeDeduplicated CheckOutcome = "deduplicated"
	OutcomeRetryQueued  CheckOutcome = "retry_queued"
	OutcomeCreated      CheckOutcome = "created"
)

// CheckResult is the per-feedback decision record.
type CheckResult struct {
	Outcome    CheckOutcome
	Tier       int
	Escalation *model.Escalation
}

// Engine orchestrates the SLA breach check: rule match, tier math, dedup,
// escalation creation and notification hand-off.
type Engine struct {
	rules    rulecatalog.Store
	store    EscalationStore
	feedback FeedbackSource
	jobs     chan<- NotificationJob

	window time.Duration // sweep lookback for open feedback
	batch  int
	now    func() time.Time
}

type Options struct {
	Window time.Duration
	Batch  int
	// Now overrides the clock, for tests.
	Now func() time.Time
}

func New(rules rulecatalog.Store, store EscalationStore, feedback FeedbackSource, jobs chan<- NotificationJob, opts Options) *Engine {
	if opts.Window <= 0 {
		opts.Window = 30 * 24 * time.Hour
	}
	if opts.Batch <= 0 {
		opts.Batch = 200
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		rules:    rules,
		store:    store,
		feedback: feedback,
		jobs:     jobs,
		window:   opts.Window,
		batch:    opts.Batch,
		now:      opts.Now,
	}
}

// CheckFeedback runs the breach check for one feedback item against the given
// rule snapshot. "No rule", "no breach" and "already escalated" are normal
// outcomes. An unresolved-but-unnotified escalation gets its notification
// re-queued instead of being silently skipped.
func (e *Engine) CheckFeedback(ctx context.Context, fb *model.Feedback, rs *rulecatalog.RuleSet) (CheckResult, error) {
	rule := rs.FindApplicableRule(fb)
	if rule == nil {
		return CheckResult{Outcome: OutcomeNoRule}, nil
	}

	now := e.now()
	tier := RequiredTier(rule, fb.CreatedAt, now)
	if tier == 0 {
		return CheckResult{Outcome: OutcomeNoBreach}, nil
	}

	existing, err := e.store.FindOpen(ctx, fb.ID, tier)
	if err != nil {
		return CheckResult{}, fmt.Errorf("find open escalation: %w", err)
	}
	if existing != nil {
		if existing.Notified() {
			return CheckResult{Outcome: OutcomeDeduplicated, Tier: tier, Escalation: existing}, nil
		}
		e.enqueue(NotificationJob{Escalation: existing, Roles: rule.Recipients(tier), Channels: rule.Channels, Retry: true})
		return CheckResult{Outcome: OutcomeRetryQueued, Tier: tier, Escalation: existing}, nil
	}

	recent, err := e.feedback.CountRecentByClient(ctx, fb.TenantID, fb.ClientID, now.Add(-incidentWindow))
	if err != nil {
		// Reason derivation degrades to the remaining checks; the breach
		// itself must still be recorded.
		log.Warn().Err(err).Str("feedback", fb.ID).Msg("recent incident count failed")
		recent = 0
	}

	esc := &model.Escalation{
		ID:         uuid.NewString(),
		FeedbackID: fb.ID,
		TenantID:   fb.TenantID,
		Tier:       tier,
		Reason:     DeriveReason(fb, recent),
		CreatedAt:  now,
	}
	created, err := e.store.Create(ctx, esc)
	if err != nil {
		return CheckResult{}, fmt.Errorf("create escalation: %w", err)
	}
	if !created {
		// Lost a check-then-create race; the winner owns the notification.
		return CheckResult{Outcome: OutcomeDeduplicated, Tier: tier}, nil
	}

	metrics.EscalationsCreated.WithLabelValues(strconv.Itoa(tier), string(esc.Reason)).Inc()
	log.Info().Str("escalation", esc.ID).Str("feedback", fb.ID).Int("tier", tier).
		Str("reason", string(esc.Reason)).Msg("escalation created")

	e.enqueue(NotificationJob{Escalation: esc, Roles: rule.Recipients(tier), Channels: rule.Channels})
	return CheckResult{Outcome: OutcomeCreated, Tier: tier, Escalation: esc}, nil
}

// enqueue publishes a job without blocking. A full queue only delays
// notification: the escalation row already exists unnotified, so the next
// sweep re-queues it.
func (e *Engine) enqueue(job NotificationJob) {
	if e.jobs == nil {
		return
	}
	select {
	case e.jobs <- job:
	default:
		log.Warn().Str("escalation", job.Escalation.ID).Msg("notification queue full, deferring to next sweep")
	}
}

// SweepStats summarizes one sweep pass.
type SweepStats struct {
	Examined int
	Created  int
	Retried  int
}

// SweepOpenFeedback runs one bounded batch pass over open feedback. The rule
// snapshot is loaded once up front so a mid-pass rule edit cannot split the
// pass across two rule versions. Idempotent: the dedup check makes re-running
// it a no-op for already-escalated breaches.
func (e *Engine) SweepOpenFeedback(ctx context.Context) (SweepStats, error) {
	started := e.now()
	defer func() {
		metrics.SweepDuration.Observe(time.Since(started).Seconds())
	}()

	active, err := e.rules.LoadActive(ctx)
	if err != nil {
		return SweepStats{}, fmt.Errorf("load active rules: %w", err)
	}
	rs := rulecatalog.NewRuleSet(active, started)

	items, err := e.feedback.ListOpenSince(ctx, started.Add(-e.window), e.batch)
	if err != nil {
		return SweepStats{}, fmt.Errorf("list open feedback: %w", err)
	}
	metrics.SweepBatchSize.Observe(float64(len(items)))

	var stats SweepStats
	for _, fb := range items {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Examined++
		res, err := e.CheckFeedback(ctx, fb, rs)
		if err != nil {
			log.Error().Err(err).Str("feedback", fb.ID).Msg("feedback check failed")
			continue
		}
		switch res.Outcome {
		case OutcomeCreated:
			stats.Created++
		case OutcomeRetryQueued:
			stats.Retried++
		}
	}
	log.Info().Int("examined", stats.Examined).Int("created", stats.Created).
		Int("retried", stats.Retried).Str("ruleset", rs.Version).Msg("sweep pass completed")
	return stats, nil
}

// CheckFeedbackByID is the on-demand entry point used right after a feedback
// is created or updated.
func (e *Engine) CheckFeedbackByID(ctx context.Context, feedbackID string) (CheckResult, error) {
	fb, err := e.feedback.GetByID(ctx, feedbackID)
	if err != nil {
		return CheckResult{}, fmt.Errorf("load feedback: %w", err)
	}
	active, err := e.rules.LoadActive(ctx)
	if err != nil {
		return CheckResult{}, fmt.Errorf("load active rules: %w", err)
	}
	return e.CheckFeedback(ctx, fb, rulecatalog.NewRuleSet(active, e.now()))
}

// Resolve marks the escalation resolved with notes. Terminal: a later breach
// of the same tier opens a fresh escalation instead of reopening this one.
func (e *Engine) Resolve(ctx context.Context, escalationID, notes string) error {
	if err := e.store.Resolve(ctx, escalationID, e.now(), notes); err != nil {
		return err
	}
	log.Info().Str("escalation", escalationID).Msg("escalation resolved")
	return nil
}
