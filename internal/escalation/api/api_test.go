package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voicedesk/voicedesk/internal/escalation/model"
	"github.com/voicedesk/voicedesk/internal/escalation/service/engine"
	"github.com/voicedesk/voicedesk/internal/escalation/service/rulecatalog"
)

type fakeEscalationStore struct {
	mu   sync.Mutex
	rows map[string]*model.Escalation
}

func newFakeEscalationStore() *fakeEscalationStore {
	return &fakeEscalationStore{rows: make(map[string]*model.Escalation)}
}

func (s *fakeEscalationStore) FindOpen(ctx context.Context, feedbackID string, tier int) (*model.Escalation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.rows {
		if e.FeedbackID == feedbackID && e.Tier == tier && !e.Resolved() {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeEscalationStore) Create(ctx context.Context, e *model.Escalation) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rows {
		if existing.FeedbackID == e.FeedbackID && existing.Tier == e.Tier && !existing.Resolved() {
			return false, nil
		}
	}
	cp := *e
	s.rows[e.ID] = &cp
	return true, nil
}

func (s *fakeEscalationStore) MarkNotified(ctx context.Context, id string, at time.Time, channels []model.Channel, userIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.rows[id]
	if !ok {
		return engine.ErrEscalationNotFound
	}
	e.NotifiedAt = &at
	e.NotifiedChannels = channels
	e.NotifiedUserIDs = userIDs
	return nil
}

func (s *fakeEscalationStore) Resolve(ctx context.Context, id string, at time.Time, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.rows[id]
	if !ok {
		return engine.ErrEscalationNotFound
	}
	if e.Resolved() {
		return engine.ErrAlreadyResolved
	}
	e.ResolvedAt = &at
	e.ResolutionNotes = notes
	return nil
}

func (s *fakeEscalationStore) Get(ctx context.Context, id string) (*model.Escalation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.rows[id]
	if !ok {
		return nil, engine.ErrEscalationNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *fakeEscalationStore) ListByTenant(ctx context.Context, tenantID string, unresolvedOnly bool, limit int) ([]*model.Escalation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Escalation
	for _, e := range s.rows {
		if e.TenantID != tenantID {
			continue
		}
		if unresolvedOnly && e.Resolved() {
			continue
		}
		cp := *e
		out = append(out, &cp)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

type fakeRuleStore struct {
	mu    sync.Mutex
	rules map[string]*rulecatalog.SlaRule
}

func newFakeRuleStore() *fakeRuleStore {
	return &fakeRuleStore{rules: make(map[string]*rulecatalog.SlaRule)}
}

func (s *fakeRuleStore) UpsertRule(ctx context.Context, r *rulecatalog.SlaRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.rules[r.ID] = &cp
	return nil
}

func (s *fakeRuleStore) GetRule(ctx context.Context, id string) (*rulecatalog.SlaRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[id]
	if !ok {
		return nil, rulecatalog.ErrRuleNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *fakeRuleStore) ListRules(ctx context.Context, tenantID string) ([]*rulecatalog.SlaRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*rulecatalog.SlaRule
	for _, r := range s.rules {
		if r.TenantID == tenantID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeRuleStore) DeactivateRule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[id]
	if !ok {
		return rulecatalog.ErrRuleNotFound
	}
	r.Active = false
	return nil
}

func (s *fakeRuleStore) LoadActive(ctx context.Context) ([]*rulecatalog.SlaRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*rulecatalog.SlaRule
	for _, r := range s.rules {
		if r.Active {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeFeedbackSource struct{}

func (fakeFeedbackSource) GetByID(ctx context.Context, id string) (*model.Feedback, error) {
	return nil, engine.ErrFeedbackNotFound
}

func (fakeFeedbackSource) ListOpenSince(ctx context.Context, since time.Time, limit int) ([]*model.Feedback, error) {
	return nil, nil
}

func (fakeFeedbackSource) CountRecentByClient(ctx context.Context, tenantID, clientID string, since time.Time) (int, error) {
	return 0, nil
}

func newTestApi(t *testing.T) (*gin.Engine, *fakeEscalationStore, *fakeRuleStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := newFakeEscalationStore()
	rules := newFakeRuleStore()
	jobs := make(chan engine.NotificationJob, 8)
	eng := engine.New(rules, store, fakeFeedbackSource{}, jobs, engine.Options{})
	router := gin.New()
	NewApi(router, eng, store, rules, nil)
	return router, store, rules
}

func doRequest(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListEscalations(t *testing.T) {
	router, store, _ := newTestApi(t)
	now := time.Now().UTC()
	resolved := now.Add(-time.Hour)
	store.rows["esc-1"] = &model.Escalation{ID: "esc-1", FeedbackID: "fb-1", TenantID: "acme", Tier: 1, Reason: model.ReasonSLABreach, CreatedAt: now}
	store.rows["esc-2"] = &model.Escalation{ID: "esc-2", FeedbackID: "fb-2", TenantID: "acme", Tier: 1, Reason: model.ReasonSLABreach, CreatedAt: now, ResolvedAt: &resolved}
	store.rows["esc-3"] = &model.Escalation{ID: "esc-3", FeedbackID: "fb-3", TenantID: "other", Tier: 1, Reason: model.ReasonSLABreach, CreatedAt: now}

	rec := doRequest(router, http.MethodGet, "/v1/escalations?tenant=acme", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)

	rec = doRequest(router, http.MethodGet, "/v1/escalations?tenant=acme&unresolved=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)

	rec = doRequest(router, http.MethodGet, "/v1/escalations", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetEscalationByID(t *testing.T) {
	router, store, _ := newTestApi(t)
	store.rows["esc-1"] = &model.Escalation{ID: "esc-1", FeedbackID: "fb-1", TenantID: "acme", Tier: 2, Reason: model.ReasonCriticalRating, CreatedAt: time.Now().UTC()}

	rec := doRequest(router, http.MethodGet, "/v1/escalations/esc-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var esc model.Escalation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &esc))
	assert.Equal(t, 2, esc.Tier)

	rec = doRequest(router, http.MethodGet, "/v1/escalations/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolveEscalation(t *testing.T) {
	router, store, _ := newTestApi(t)
	store.rows["esc-1"] = &model.Escalation{ID: "esc-1", FeedbackID: "fb-1", TenantID: "acme", Tier: 1, Reason: model.ReasonSLABreach, CreatedAt: time.Now().UTC()}

	rec := doRequest(router, http.MethodPost, "/v1/escalations/esc-1/resolve", map[string]string{"notes": "called the client back"})
	require.Equal(t, http.StatusOK, rec.Code)
	var esc model.Escalation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &esc))
	require.NotNil(t, esc.ResolvedAt)
	assert.Equal(t, "called the client back", esc.ResolutionNotes)

	rec = doRequest(router, http.MethodPost, "/v1/escalations/esc-1/resolve", map[string]string{"notes": "again"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(router, http.MethodPost, "/v1/escalations/missing/resolve", map[string]string{"notes": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckFeedbackNotFound(t *testing.T) {
	router, _, _ := newTestApi(t)
	rec := doRequest(router, http.MethodPost, "/v1/feedbacks/missing/check", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRuleAdmin(t *testing.T) {
	router, _, rules := newTestApi(t)

	body := map[string]any{
		"id":             "rule-1",
		"tenant_id":      "acme",
		"category":       "billing",
		"priority":       10,
		"first_response": "2h",
		"resolution":     "24h",
		"tiers": []map[string]any{
			{"after": "2h", "roles": []string{"manager"}},
			{"after": "4h", "roles": []string{"director"}},
			{"after": "8h", "roles": []string{"director", "ceo"}},
		},
		"channels": []string{"email", "sms"},
	}
	rec := doRequest(router, http.MethodPut, "/v1/sla-rules", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored, err := rules.GetRule(context.Background(), "rule-1")
	require.NoError(t, err)
	assert.Equal(t, "acme", stored.TenantID)
	assert.Equal(t, 2*time.Hour, stored.TierThresholds[0])
	assert.Equal(t, []model.RecipientRole{model.RoleDirector, model.RoleCEO}, stored.TierRecipients[2])

	rec = doRequest(router, http.MethodGet, "/v1/sla-rules/rule-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ruleResp struct {
		TenantID string   `json:"tenant_id"`
		Channels []string `json:"channels"`
		Active   bool     `json:"active"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ruleResp))
	assert.Equal(t, "acme", ruleResp.TenantID)
	assert.Equal(t, []string{"email", "sms"}, ruleResp.Channels)
	assert.True(t, ruleResp.Active)

	rec = doRequest(router, http.MethodGet, "/v1/sla-rules?tenant=acme", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listResp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	assert.Equal(t, 1, listResp.Count)

	rec = doRequest(router, http.MethodDelete, "/v1/sla-rules/rule-1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	stored, err = rules.GetRule(context.Background(), "rule-1")
	require.NoError(t, err)
	assert.False(t, stored.Active)

	rec = doRequest(router, http.MethodDelete, "/v1/sla-rules/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(router, http.MethodPut, "/v1/sla-rules", map[string]any{"tenant_id": "acme"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
