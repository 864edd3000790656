package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	prommodel "github.com/prometheus/common/model"
	"github.com/voicedesk/voicedesk/internal/escalation/service/rulecatalog"
)

// UpsertRule accepts the same shape as the bootstrap config file, so admins
// and ops tooling share one format.
func (api *Api) UpsertRule(c *gin.Context) {
	var item rulecatalog.RuleConfigItem
	if err := c.ShouldBindJSON(&item); err != nil {
		sendError(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	rule, err := rulecatalog.RuleFromConfig(&item)
	if err != nil {
		sendError(c, http.StatusBadRequest, "INVALID_RULE", err.Error())
		return
	}
	if err := api.rules.UpsertRule(c.Request.Context(), rule); err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, ruleResponse(rule))
}

func (api *Api) ListRules(c *gin.Context) {
	tenantID := c.Query("tenant")
	if tenantID == "" {
		sendError(c, http.StatusBadRequest, "INVALID_PARAMETER", "missing tenant")
		return
	}
	rules, err := api.rules.ListRules(c.Request.Context(), tenantID)
	if err != nil {
		internalError(c, err)
		return
	}
	items := make([]map[string]any, 0, len(rules))
	for _, r := range rules {
		items = append(items, ruleResponse(r))
	}
	c.JSON(http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (api *Api) GetRule(c *gin.Context) {
	rule, err := api.rules.GetRule(c.Request.Context(), c.Param("ruleID"))
	if errors.Is(err, rulecatalog.ErrRuleNotFound) {
		sendError(c, http.StatusNotFound, "NOT_FOUND", "sla rule not found")
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, ruleResponse(rule))
}

// DeactivateRule flips the active flag. Rules are never deleted, so rule
// history behind old escalations stays intact.
func (api *Api) DeactivateRule(c *gin.Context) {
	err := api.rules.DeactivateRule(c.Request.Context(), c.Param("ruleID"))
	if errors.Is(err, rulecatalog.ErrRuleNotFound) {
		sendError(c, http.StatusNotFound, "NOT_FOUND", "sla rule not found")
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func ruleResponse(r *rulecatalog.SlaRule) map[string]any {
	tiers := make([]map[string]any, 0, 3)
	for i := 0; i < 3; i++ {
		roles := make([]string, 0, len(r.TierRecipients[i]))
		for _, role := range r.TierRecipients[i] {
			roles = append(roles, role.String())
		}
		tiers = append(tiers, map[string]any{
			"after": prommodel.Duration(r.TierThresholds[i]).String(),
			"roles": roles,
		})
	}
	channels := make([]string, 0, len(r.Channels))
	for _, ch := range r.Channels {
		channels = append(channels, string(ch))
	}
	sentiments := make([]string, 0, len(r.Sentiments))
	for _, s := range r.Sentiments {
		sentiments = append(sentiments, string(s))
	}
	return map[string]any{
		"id":             r.ID,
		"tenant_id":      r.TenantID,
		"category":       r.Category,
		"priority":       r.Priority,
		"sort_order":     r.SortOrder,
		"active":         r.Active,
		"first_response": formatDuration(r.FirstResponse),
		"resolution":     formatDuration(r.Resolution),
		"tiers":          tiers,
		"channels":       channels,
		"min_severity":   r.MinSeverity,
		"sentiments":     sentiments,
	}
}

func formatDuration(d time.Duration) string {
	return prommodel.Duration(d).String()
}
