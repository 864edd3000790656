package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/voicedesk/voicedesk/internal/escalation/database"
	"github.com/voicedesk/voicedesk/internal/escalation/model"
)

// ErrFeedbackNotFound indicates the feedback id does not exist.
var ErrFeedbackNotFound = errors.New("feedback not found")

// PgFeedbackSource reads the feedback module's table. Strictly read-only:
// the escalation engine never mutates feedback rows.
type PgFeedbackSource struct {
	DB *database.Database
}

func NewPgFeedbackSource(db *database.Database) *PgFeedbackSource {
	return &PgFeedbackSource{DB: db}
}

const feedbackColumns = `id, tenant_id, client_id, category, severity_rating, sentiment, status, created_at`

func (s *PgFeedbackSource) GetByID(ctx context.Context, id string) (*model.Feedback, error) {
	const q = `SELECT ` + feedbackColumns + ` FROM feedbacks WHERE id = $1`
	rows, err := s.DB.QueryContext(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("get feedback: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		var fb model.Feedback
		var sentiment, status string
		if err := rows.Scan(&fb.ID, &fb.TenantID, &fb.ClientID, &fb.Category,
			&fb.SeverityRating, &sentiment, &status, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		fb.Sentiment = model.Sentiment(sentiment)
		fb.Status = model.WorkflowStatus(status)
		return &fb, nil
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nil, ErrFeedbackNotFound
}

func (s *PgFeedbackSource) ListOpenSince(ctx context.Context, since time.Time, limit int) ([]*model.Feedback, error) {
	const q = `SELECT ` + feedbackColumns + ` FROM feedbacks
	WHERE status IN ('open', 'in_review') AND created_at >= $1
	ORDER BY created_at ASC
	LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, q, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list open feedback: %w", err)
	}
	defer rows.Close()
	out := make([]*model.Feedback, 0, limit)
	for rows.Next() {
		var fb model.Feedback
		var sentiment, status string
		if err := rows.Scan(&fb.ID, &fb.TenantID, &fb.ClientID, &fb.Category,
			&fb.SeverityRating, &sentiment, &status, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		fb.Sentiment = model.Sentiment(sentiment)
		fb.Status = model.WorkflowStatus(status)
		out = append(out, &fb)
	}
	return out, rows.Err()
}

func (s *PgFeedbackSource) CountRecentByClient(ctx context.Context, tenantID, clientID string, since time.Time) (int, error) {
	if clientID == "" {
		return 0, nil
	}
	const q = `SELECT COUNT(*) FROM feedbacks
	WHERE tenant_id = $1 AND client_id = $2 AND created_at >= $3`
	var n int
	if err := s.DB.QueryRowContext(ctx, q, tenantID, clientID, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count recent feedback: %w", err)
	}
	return n, nil
}
