package rulecatalog

import (
	"context"
	"time"

	"github.com/voicedesk/voicedesk/internal/escalation/model"
)

// SlaRule defines deadline thresholds and recipient tiers for one tenant and
// feedback category. Rules are edited by tenant admins and deactivated rather
// than deleted, so history stays reconstructable.
type SlaRule struct {
	ID        string
	TenantID  string
	Category  string
	Priority  int  // higher wins at matching time
	SortOrder int  // tiebreak: lower wins
	Active    bool

	FirstResponse time.Duration
	Resolution    time.Duration

	// TierThresholds[i] is the cumulative elapsed-time threshold for tier i+1;
	// expected strictly increasing. A zero threshold disables that tier.
	TierThresholds [3]time.Duration

	// TierRecipients[i] is the role list alerted when tier i+1 opens.
	TierRecipients [3][]model.RecipientRole

	Channels []model.Channel

	// Matching conditions. MinSeverity 0 and an empty Sentiments list mean
	// the rule matches any feedback of its tenant and category.
	MinSeverity int
	Sentiments  []model.Sentiment
}

// Matches evaluates the rule's condition predicate against a feedback item.
// Tenant and category are assumed to already agree.
func (r *SlaRule) Matches(fb *model.Feedback) bool {
	if r.MinSeverity > 0 && fb.SeverityRating < r.MinSeverity {
		return false
	}
	if len(r.Sentiments) > 0 {
		found := false
		for _, s := range r.Sentiments {
			if fb.Sentiment == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Threshold returns the cumulative threshold for tier 1..3, zero otherwise.
func (r *SlaRule) Threshold(tier int) time.Duration {
	if tier < 1 || tier > 3 {
		return 0
	}
	return r.TierThresholds[tier-1]
}

// Recipients returns the configured role list for tier 1..3.
func (r *SlaRule) Recipients(tier int) []model.RecipientRole {
	if tier < 1 || tier > 3 {
		return nil
	}
	return r.TierRecipients[tier-1]
}

// Store abstracts SLA rule persistence. Upserts key on (tenant, category,
// priority); Deactivate flips the active flag and never removes rows.
type Store interface {
	UpsertRule(ctx context.Context, r *SlaRule) error
	GetRule(ctx context.Context, id string) (*SlaRule, error)
	ListRules(ctx context.Context, tenantID string) ([]*SlaRule, error)
	DeactivateRule(ctx context.Context, id string) error

	// LoadActive returns every active rule across tenants. The engine calls
	// this once per sweep pass to build an immutable RuleSet snapshot.
	LoadActive(ctx context.Context) ([]*SlaRule, error)
}
