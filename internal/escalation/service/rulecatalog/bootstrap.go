package rulecatalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	prommodel "github.com/prometheus/common/model"
	"github.com/rs/zerolog/log"
	"github.com/voicedesk/voicedesk/internal/escalation/model"
)

// RuleConfigFile is the on-disk bootstrap format. Durations are human
// readable ("2h", "90m") and parsed via the Prometheus duration type.
type RuleConfigFile struct {
	Rules []RuleConfigItem `json:"rules"`
}

type RuleConfigItem struct {
	ID            string             `json:"id"`
	TenantID      string             `json:"tenant_id"`
	Category      string             `json:"category"`
	Priority      int                `json:"priority"`
	SortOrder     int                `json:"sort_order"`
	Active        *bool              `json:"active"`
	FirstResponse prommodel.Duration `json:"first_response"`
	Resolution    prommodel.Duration `json:"resolution"`
	Tiers         []RuleConfigTier   `json:"tiers"`
	Channels      []string           `json:"channels"`
	MinSeverity   int                `json:"min_severity"`
	Sentiments    []string           `json:"sentiments"`
}

type RuleConfigTier struct {
	After prommodel.Duration `json:"after"`
	Roles []string           `json:"roles"`
}

// BootstrapRulesFromConfig loads the rules config file, if any, and upserts
// its rules into the store. Existing rows with the same (tenant, category,
// priority) are overwritten; rules absent from the file are untouched.
// Returns the number of rules applied.
func BootstrapRulesFromConfig(ctx context.Context, store Store, path string) (int, error) {
	if strings.TrimSpace(path) == "" {
		return 0, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read rules config: %w", err)
	}
	var cfg RuleConfigFile
	if err := json.Unmarshal(data, &cfg); err != nil {
		return 0, fmt.Errorf("parse rules config: %w", err)
	}
	applied := 0
	for i := range cfg.Rules {
		rule, err := RuleFromConfig(&cfg.Rules[i])
		if err != nil {
			log.Warn().Err(err).Str("tenant", cfg.Rules[i].TenantID).Str("category", cfg.Rules[i].Category).
				Msg("skipping invalid bootstrap rule")
			continue
		}
		if err := store.UpsertRule(ctx, rule); err != nil {
			return applied, fmt.Errorf("bootstrap rule %s/%s: %w", rule.TenantID, rule.Category, err)
		}
		applied++
	}
	log.Info().Int("count", applied).Str("file", path).Msg("sla rules bootstrapped from config")
	return applied, nil
}

// RuleFromConfig validates one config item and converts it to a SlaRule.
// Also used by the admin API, which accepts the same shape.
func RuleFromConfig(item *RuleConfigItem) (*SlaRule, error) {
	if item.TenantID == "" || item.Category == "" {
		return nil, fmt.Errorf("rule requires tenant_id and category")
	}
	if len(item.Tiers) == 0 || len(item.Tiers) > 3 {
		return nil, fmt.Errorf("rule requires 1..3 tiers, got %d", len(item.Tiers))
	}
	r := &SlaRule{
		ID:            item.ID,
		TenantID:      item.TenantID,
		Category:      item.Category,
		Priority:      item.Priority,
		SortOrder:     item.SortOrder,
		Active:        true,
		FirstResponse: time.Duration(item.FirstResponse),
		Resolution:    time.Duration(item.Resolution),
		MinSeverity:   item.MinSeverity,
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if item.Active != nil {
		r.Active = *item.Active
	}
	for i, tier := range item.Tiers {
		r.TierThresholds[i] = time.Duration(tier.After)
		for _, name := range tier.Roles {
			role, ok := model.ParseRole(name)
			if !ok {
				return nil, fmt.Errorf("tier %d: unknown role %q", i+1, name)
			}
			r.TierRecipients[i] = append(r.TierRecipients[i], role)
		}
	}
	for _, name := range item.Channels {
		ch, ok := model.ParseChannel(name)
		if !ok {
			return nil, fmt.Errorf("unknown channel %q", name)
		}
		r.Channels = append(r.Channels, ch)
	}
	for _, s := range item.Sentiments {
		r.Sentiments = append(r.Sentiments, model.Sentiment(s))
	}
	return r, nil
}
