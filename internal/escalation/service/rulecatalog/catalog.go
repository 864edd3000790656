package rulecatalog

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/voicedesk/voicedesk/internal/escalation/model"
)

// RuleSet is an immutable snapshot of the active rules, loaded once per sweep
// pass. Snapshotting keeps one pass from seeing two different rule versions
// when an admin edits rules mid-sweep.
type RuleSet struct {
	Version  string
	LoadedAt time.Time

	byScope map[scopeKey][]*SlaRule
}

type scopeKey struct {
	tenantID string
	category string
}

// NewRuleSet builds a snapshot from the given rules. Inactive rules are
// dropped; the remainder is pre-sorted by descending priority with sort order
// as tiebreak, so matching is a linear scan over an already-ordered slice.
func NewRuleSet(rules []*SlaRule, now time.Time) *RuleSet {
	byScope := make(map[scopeKey][]*SlaRule)
	for _, r := range rules {
		if r == nil || !r.Active {
			continue
		}
		k := scopeKey{tenantID: r.TenantID, category: r.Category}
		byScope[k] = append(byScope[k], r)
	}
	for _, scoped := range byScope {
		sort.SliceStable(scoped, func(i, j int) bool {
			if scoped[i].Priority != scoped[j].Priority {
				return scoped[i].Priority > scoped[j].Priority
			}
			return scoped[i].SortOrder < scoped[j].SortOrder
		})
	}
	return &RuleSet{
		Version:  uuid.NewString(),
		LoadedAt: now,
		byScope:  byScope,
	}
}

// FindApplicableRule returns the highest-priority active rule for the
// feedback's tenant and category whose conditions match, or nil when no SLA
// applies. A nil result is a normal outcome, not an error.
func (rs *RuleSet) FindApplicableRule(fb *model.Feedback) *SlaRule {
	if rs == nil || fb == nil {
		return nil
	}
	for _, r := range rs.byScope[scopeKey{tenantID: fb.TenantID, category: fb.Category}] {
		if r.Matches(fb) {
			return r
		}
	}
	return nil
}

// Len reports the number of rules in the snapshot.
func (rs *RuleSet) Len() int {
	n := 0
	for _, scoped := range rs.byScope {
		n += len(scoped)
	}
	return n
}
