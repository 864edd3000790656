package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/voicedesk/voicedesk/internal/escalation/database"
	"github.com/voicedesk/voicedesk/internal/escalation/model"
)

// PgInAppTransport creates the durable user-facing notification record shown
// in the dashboard bell.
type PgInAppTransport struct {
	DB *database.Database
}

func NewPgInAppTransport(db *database.Database) *PgInAppTransport {
	return &PgInAppTransport{DB: db}
}

func (t *PgInAppTransport) Send(ctx context.Context, user *model.User, esc *model.Escalation) error {
	const q = `
	INSERT INTO in_app_notifications(id, user_id, tenant_id, escalation_id, title, body)
	VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := t.DB.ExecContext(ctx, q,
		uuid.NewString(), user.ID, esc.TenantID, esc.ID, escalationTitle(esc), escalationBody(esc))
	if err != nil {
		return fmt.Errorf("insert in-app notification: %w", err)
	}
	return nil
}
