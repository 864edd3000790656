package engine

import (
	"time"

	"github.com/voicedesk/voicedesk/internal/escalation/service/rulecatalog"
)

// RequiredTier computes which escalation tier should currently be active for
// a feedback created at createdAt under the given rule: the highest tier
// whose cumulative threshold the elapsed time has exceeded, or 0 when none.
//
// Pure and deterministic. Tiers are scanned 3 down to 1 and a zero threshold
// disables its tier, so even a misconfigured (non-increasing) rule yields a
// well-defined answer.
func RequiredTier(rule *rulecatalog.SlaRule, createdAt, now time.Time) int {
	if rule == nil {
		return 0
	}
	elapsed := now.Sub(createdAt)
	if elapsed <= 0 {
		return 0
	}
	for tier := 3; tier >= 1; tier-- {
		if th := rule.Threshold(tier); th > 0 && elapsed > th {
			return tier
		}
	}
	return 0
}
