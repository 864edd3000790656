package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/voicedesk/voicedesk/internal/escalation/model"
)

// Directory is the user/role directory collaborator. Implementations must
// return active users only.
type Directory interface {
	ListUsersByTenantAndRole(ctx context.Context, tenantID string, role model.RecipientRole) ([]*model.User, error)
}

// Resolver expands a tier's configured role list into the tenant's actual
// users.
type Resolver struct {
	dir Directory
}

func NewResolver(dir Directory) *Resolver { return &Resolver{dir: dir} }

// Resolve unions the users holding any of the roles, de-duplicated by user
// id so someone holding two matched roles is notified once. An empty result
// is a valid outcome, not an error; the caller decides how to log it.
func (r *Resolver) Resolve(ctx context.Context, tenantID string, roles []model.RecipientRole) ([]*model.User, error) {
	seen := make(map[string]bool)
	var out []*model.User
	for _, role := range roles {
		users, err := r.dir.ListUsersByTenantAndRole(ctx, tenantID, role)
		if err != nil {
			return nil, fmt.Errorf("list users for role %s: %w", role, err)
		}
		for _, u := range users {
			if u == nil || seen[u.ID] {
				continue
			}
			if !u.Active {
				log.Debug().Str("user", u.ID).Msg("skipping inactive user from directory")
				continue
			}
			seen[u.ID] = true
			out = append(out, u)
		}
	}
	return out, nil
}
