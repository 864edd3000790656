package engine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/voicedesk/voicedesk/internal/escalation/database"
	"github.com/voicedesk/voicedesk/internal/escalation/model"
)

// PgEscalationStore persists escalations in Postgres. The dedup invariant
// lives in the escalations_open_feedback_tier partial unique index; Create
// leans on it with ON CONFLICT DO NOTHING rather than check-then-insert.
type PgEscalationStore struct {
	DB *database.Database
}

func NewPgEscalationStore(db *database.Database) *PgEscalationStore {
	return &PgEscalationStore{DB: db}
}

const escalationColumns = `id, feedback_id, tenant_id, tier, reason, created_at,
	notified_at, notified_channels, notified_user_ids, resolved_at, resolution_notes`

func (s *PgEscalationStore) Create(ctx context.Context, esc *model.Escalation) (bool, error) {
	const q = `
	INSERT INTO escalations(id, feedback_id, tenant_id, tier, reason, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (feedback_id, tier) WHERE resolved_at IS NULL DO NOTHING
	`
	res, err := s.DB.ExecContext(ctx, q, esc.ID, esc.FeedbackID, esc.TenantID, esc.Tier, string(esc.Reason), esc.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert escalation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert escalation rows: %w", err)
	}
	return n == 1, nil
}

func (s *PgEscalationStore) FindOpen(ctx context.Context, feedbackID string, tier int) (*model.Escalation, error) {
	const q = `SELECT ` + escalationColumns + ` FROM escalations
	WHERE feedback_id = $1 AND tier = $2 AND resolved_at IS NULL`
	rows, err := s.DB.QueryContext(ctx, q, feedbackID, tier)
	if err != nil {
		return nil, fmt.Errorf("find open escalation: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		return scanEscalation(rows)
	}
	return nil, rows.Err()
}

func (s *PgEscalationStore) MarkNotified(ctx context.Context, id string, at time.Time, channels []model.Channel, userIDs []string) error {
	names := make([]string, 0, len(channels))
	for _, c := range channels {
		names = append(names, string(c))
	}
	const q = `UPDATE escalations
	SET notified_at = $2, notified_channels = $3, notified_user_ids = $4
	WHERE id = $1`
	res, err := s.DB.ExecContext(ctx, q, id, at, pq.Array(names), pq.Array(userIDs))
	if err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEscalationNotFound
	}
	return nil
}

func (s *PgEscalationStore) Resolve(ctx context.Context, id string, at time.Time, notes string) error {
	return s.DB.WithTx(ctx, func(tx *sql.Tx) error {
		var resolved sql.NullTime
		err := tx.QueryRowContext(ctx, `SELECT resolved_at FROM escalations WHERE id = $1 FOR UPDATE`, id).Scan(&resolved)
		if err == sql.ErrNoRows {
			return ErrEscalationNotFound
		}
		if err != nil {
			return fmt.Errorf("lock escalation: %w", err)
		}
		if resolved.Valid {
			return ErrAlreadyResolved
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE escalations SET resolved_at = $2, resolution_notes = $3 WHERE id = $1`,
			id, at, notes); err != nil {
			return fmt.Errorf("resolve escalation: %w", err)
		}
		return nil
	})
}

func (s *PgEscalationStore) Get(ctx context.Context, id string) (*model.Escalation, error) {
	const q = `SELECT ` + escalationColumns + ` FROM escalations WHERE id = $1`
	rows, err := s.DB.QueryContext(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("get escalation: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		return scanEscalation(rows)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nil, ErrEscalationNotFound
}

func (s *PgEscalationStore) ListByTenant(ctx context.Context, tenantID string, unresolvedOnly bool, limit int) ([]*model.Escalation, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + escalationColumns + ` FROM escalations WHERE tenant_id = $1`
	if unresolvedOnly {
		q += ` AND resolved_at IS NULL`
	}
	q += ` ORDER BY created_at DESC LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, q, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("list escalations: %w", err)
	}
	defer rows.Close()
	var out []*model.Escalation
	for rows.Next() {
		esc, err := scanEscalation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, esc)
	}
	return out, rows.Err()
}

func scanEscalation(rows *sql.Rows) (*model.Escalation, error) {
	var esc model.Escalation
	var reason string
	var notifiedAt, resolvedAt sql.NullTime
	var channels, userIDs []string
	if err := rows.Scan(
		&esc.ID, &esc.FeedbackID, &esc.TenantID, &esc.Tier, &reason, &esc.CreatedAt,
		&notifiedAt, pq.Array(&channels), pq.Array(&userIDs), &resolvedAt, &esc.ResolutionNotes,
	); err != nil {
		return nil, fmt.Errorf("scan escalation: %w", err)
	}
	esc.Reason = model.TriggerReason(reason)
	if notifiedAt.Valid {
		t := notifiedAt.Time
		esc.NotifiedAt = &t
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		esc.ResolvedAt = &t
	}
	for _, c := range channels {
		esc.NotifiedChannels = append(esc.NotifiedChannels, model.Channel(c))
	}
	esc.NotifiedUserIDs = userIDs
	return &esc, nil
}
