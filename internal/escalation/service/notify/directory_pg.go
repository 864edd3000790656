package notify

import (
	"context"
	"fmt"

	"github.com/voicedesk/voicedesk/internal/escalation/database"
	"github.com/voicedesk/voicedesk/internal/escalation/model"
)

// PgDirectory reads the directory module's users and user_roles tables.
// Read-only from this side.
type PgDirectory struct {
	DB *database.Database
}

func NewPgDirectory(db *database.Database) *PgDirectory { return &PgDirectory{DB: db} }

func (d *PgDirectory) ListUsersByTenantAndRole(ctx context.Context, tenantID string, role model.RecipientRole) ([]*model.User, error) {
	const q = `
	SELECT u.id, u.tenant_id, u.name, u.email, COALESCE(u.phone, ''), u.active
	FROM users u
	JOIN user_roles ur ON ur.user_id = u.id
	WHERE u.tenant_id = $1 AND ur.role = $2 AND u.active
	ORDER BY u.id`
	rows, err := d.DB.QueryContext(ctx, q, tenantID, role.String())
	if err != nil {
		return nil, fmt.Errorf("query users by role: %w", err)
	}
	defer rows.Close()
	var out []*model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.TenantID, &u.Name, &u.Email, &u.Phone, &u.Active); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}
