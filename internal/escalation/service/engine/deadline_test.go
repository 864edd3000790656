package engine

import (
	"math/rand"
	"testing"
	"time"

	"github.com/voicedesk/voicedesk/internal/escalation/service/rulecatalog"
)

func ruleWithTiers(t1, t2, t3 time.Duration) *rulecatalog.SlaRule {
	return &rulecatalog.SlaRule{
		ID:             "r",
		TenantID:       "t",
		Category:       "service",
		Active:         true,
		TierThresholds: [3]time.Duration{t1, t2, t3},
	}
}

func TestRequiredTier(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	rule := ruleWithTiers(2*time.Hour, 4*time.Hour, 8*time.Hour)

	tests := []struct {
		name    string
		elapsed time.Duration
		want    int
	}{
		{name: "just created", elapsed: 0, want: 0},
		{name: "before tier 1", elapsed: 119 * time.Minute, want: 0},
		{name: "exactly tier 1 threshold", elapsed: 2 * time.Hour, want: 0},
		{name: "past tier 1", elapsed: 130 * time.Minute, want: 1},
		{name: "past tier 2", elapsed: 250 * time.Minute, want: 2},
		{name: "past tier 3", elapsed: 500 * time.Minute, want: 3},
		{name: "long overdue", elapsed: 30 * 24 * time.Hour, want: 3},
		{name: "clock behind creation", elapsed: -time.Hour, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RequiredTier(rule, base, base.Add(tt.elapsed)); got != tt.want {
				t.Errorf("RequiredTier(%v) = %d, want %d", tt.elapsed, got, tt.want)
			}
		})
	}
}

func TestRequiredTier_DisabledAndMisconfiguredTiers(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		rule    *rulecatalog.SlaRule
		elapsed time.Duration
		want    int
	}{
		{name: "zero threshold disables tier", rule: ruleWithTiers(2*time.Hour, 0, 8*time.Hour), elapsed: 5 * time.Hour, want: 1},
		{name: "only tier 3 configured", rule: ruleWithTiers(0, 0, time.Hour), elapsed: 2 * time.Hour, want: 3},
		{name: "non-increasing still answers highest exceeded tier", rule: ruleWithTiers(4*time.Hour, 2*time.Hour, 8*time.Hour), elapsed: 3 * time.Hour, want: 2},
		{name: "all zero never breaches", rule: ruleWithTiers(0, 0, 0), elapsed: 100 * time.Hour, want: 0},
		{name: "nil rule", rule: nil, elapsed: time.Hour, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RequiredTier(tt.rule, base, base.Add(tt.elapsed)); got != tt.want {
				t.Errorf("RequiredTier() = %d, want %d", got, tt.want)
			}
		})
	}
}

// Determinism: for a fixed (rule, createdAt, now) triple the answer never
// changes, including at random offsets straddling each threshold boundary.
func TestRequiredTier_Deterministic(t *testing.T) {
	rule := ruleWithTiers(2*time.Hour, 4*time.Hour, 8*time.Hour)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	rng := rand.New(rand.NewSource(42))

	for _, boundary := range rule.TierThresholds {
		for i := 0; i < 200; i++ {
			jitter := time.Duration(rng.Int63n(int64(2*time.Minute))) - time.Minute
			now := base.Add(boundary + jitter)
			first := RequiredTier(rule, base, now)
			for j := 0; j < 5; j++ {
				if got := RequiredTier(rule, base, now); got != first {
					t.Fatalf("RequiredTier not deterministic at %v: %d then %d", boundary+jitter, first, got)
				}
			}
		}
	}
}
