package rulecatalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voicedesk/voicedesk/internal/escalation/model"
)

type fakeRuleStore struct {
	upserted []*SlaRule
}

func (f *fakeRuleStore) UpsertRule(_ context.Context, r *SlaRule) error {
	f.upserted = append(f.upserted, r)
	return nil
}
func (f *fakeRuleStore) GetRule(context.Context, string) (*SlaRule, error) { return nil, ErrRuleNotFound }
func (f *fakeRuleStore) ListRules(context.Context, string) ([]*SlaRule, error) {
	return f.upserted, nil
}
func (f *fakeRuleStore) DeactivateRule(context.Context, string) error { return nil }
func (f *fakeRuleStore) LoadActive(context.Context) ([]*SlaRule, error) {
	return f.upserted, nil
}

func writeTempRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBootstrapRulesFromConfig(t *testing.T) {
	path := writeTempRules(t, `{
	  "rules": [
	    {
	      "tenant_id": "acme",
	      "category": "service",
	      "priority": 10,
	      "first_response": "30m",
	      "resolution": "8h",
	      "tiers": [
	        {"after": "2h", "roles": ["manager"]},
	        {"after": "4h", "roles": ["director"]},
	        {"after": "8h", "roles": ["director", "ceo"]}
	      ],
	      "channels": ["email", "sms", "in_app"],
	      "min_severity": 4,
	      "sentiments": ["angry", "critical"]
	    }
	  ]
	}`)

	store := &fakeRuleStore{}
	n, err := BootstrapRulesFromConfig(context.Background(), store, path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, store.upserted, 1)

	r := store.upserted[0]
	assert.NotEmpty(t, r.ID)
	assert.True(t, r.Active)
	assert.Equal(t, 30*time.Minute, r.FirstResponse)
	assert.Equal(t, [3]time.Duration{2 * time.Hour, 4 * time.Hour, 8 * time.Hour}, r.TierThresholds)
	assert.Equal(t, []model.RecipientRole{model.RoleManager}, r.TierRecipients[0])
	assert.Equal(t, []model.RecipientRole{model.RoleDirector, model.RoleCEO}, r.TierRecipients[2])
	assert.Equal(t, []model.Channel{model.ChannelEmail, model.ChannelSMS, model.ChannelInApp}, r.Channels)
	assert.Equal(t, 4, r.MinSeverity)
}

func TestBootstrapRulesFromConfig_SkipsInvalid(t *testing.T) {
	path := writeTempRules(t, `{
	  "rules": [
	    {"tenant_id": "acme", "category": "service", "tiers": [{"after": "1h", "roles": ["warlord"]}]},
	    {"tenant_id": "acme", "category": "billing", "tiers": [{"after": "1h", "roles": ["manager"]}]},
	    {"category": "missing-tenant", "tiers": [{"after": "1h", "roles": ["manager"]}]}
	  ]
	}`)

	store := &fakeRuleStore{}
	n, err := BootstrapRulesFromConfig(context.Background(), store, path)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only the valid rule should be applied")
	require.Len(t, store.upserted, 1)
	assert.Equal(t, "billing", store.upserted[0].Category)
}

func TestBootstrapRulesFromConfig_NoFileConfigured(t *testing.T) {
	n, err := BootstrapRulesFromConfig(context.Background(), &fakeRuleStore{}, "")
	require.NoError(t, err)
	assert.Zero(t, n)
}
