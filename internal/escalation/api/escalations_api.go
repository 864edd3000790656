package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/voicedesk/voicedesk/internal/escalation/model"
	"github.com/voicedesk/voicedesk/internal/escalation/service/engine"
)

const escalationCacheTTL = 5 * time.Minute

func escalationCacheKey(id string) string { return "escalation:record:" + id }

// ListEscalations returns a tenant's escalation history, newest first.
// Admins see everything, including unnotified and resolved instances.
func (api *Api) ListEscalations(c *gin.Context) {
	tenantID := c.Query("tenant")
	if tenantID == "" {
		sendError(c, http.StatusBadRequest, "INVALID_PARAMETER", "missing tenant")
		return
	}
	unresolvedOnly := c.Query("unresolved") == "true"
	limit := 100
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	items, err := api.store.ListByTenant(c.Request.Context(), tenantID, unresolvedOnly, limit)
	if err != nil {
		internalError(c, err)
		return
	}
	if items == nil {
		items = []*model.Escalation{}
	}
	c.JSON(http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (api *Api) GetEscalationByID(c *gin.Context) {
	id := c.Param("escalationID")
	if id == "" {
		sendError(c, http.StatusBadRequest, "INVALID_PARAMETER", "missing escalationID")
		return
	}
	ctx := c.Request.Context()

	if esc, ok := api.cachedEscalation(ctx, id); ok {
		c.JSON(http.StatusOK, esc)
		return
	}

	esc, err := api.store.Get(ctx, id)
	if errors.Is(err, engine.ErrEscalationNotFound) {
		sendError(c, http.StatusNotFound, "NOT_FOUND", "escalation not found")
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	api.cacheEscalation(ctx, esc)
	c.JSON(http.StatusOK, esc)
}

type resolveRequest struct {
	Notes string `json:"notes"`
}

func (api *Api) ResolveEscalation(c *gin.Context) {
	id := c.Param("escalationID")
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	err := api.engine.Resolve(c.Request.Context(), id, req.Notes)
	switch {
	case errors.Is(err, engine.ErrEscalationNotFound):
		sendError(c, http.StatusNotFound, "NOT_FOUND", "escalation not found")
		return
	case errors.Is(err, engine.ErrAlreadyResolved):
		sendError(c, http.StatusConflict, "ALREADY_RESOLVED", "escalation is already resolved")
		return
	case err != nil:
		internalError(c, err)
		return
	}
	api.dropCachedEscalation(c.Request.Context(), id)
	esc, err := api.store.Get(c.Request.Context(), id)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, esc)
}

// CheckFeedback is the on-demand trigger surface, called right after a
// feedback is created or updated for immediate responsiveness.
func (api *Api) CheckFeedback(c *gin.Context) {
	feedbackID := c.Param("feedbackID")
	res, err := api.engine.CheckFeedbackByID(c.Request.Context(), feedbackID)
	if errors.Is(err, engine.ErrFeedbackNotFound) {
		sendError(c, http.StatusNotFound, "NOT_FOUND", "feedback not found")
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	resp := map[string]any{"outcome": string(res.Outcome), "tier": res.Tier}
	if res.Escalation != nil {
		resp["escalation"] = res.Escalation
	}
	c.JSON(http.StatusOK, resp)
}

func (api *Api) cachedEscalation(ctx context.Context, id string) (*model.Escalation, bool) {
	if api.rdb == nil {
		return nil, false
	}
	val, err := api.rdb.Get(ctx, escalationCacheKey(id)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Warn().Err(err).Str("escalation", id).Msg("escalation cache read failed")
		return nil, false
	}
	var esc model.Escalation
	if err := json.Unmarshal([]byte(val), &esc); err != nil {
		return nil, false
	}
	return &esc, true
}

func (api *Api) cacheEscalation(ctx context.Context, esc *model.Escalation) {
	if api.rdb == nil || esc == nil {
		return
	}
	payload, err := json.Marshal(esc)
	if err != nil {
		return
	}
	if err := api.rdb.Set(ctx, escalationCacheKey(esc.ID), payload, escalationCacheTTL).Err(); err != nil {
		log.Warn().Err(err).Str("escalation", esc.ID).Msg("escalation cache write failed")
	}
}

func (api *Api) dropCachedEscalation(ctx context.Context, id string) {
	if api.rdb == nil {
		return
	}
	if err := api.rdb.Del(ctx, escalationCacheKey(id)).Err(); err != nil {
		log.Warn().Err(err).Str("escalation", id).Msg("escalation cache invalidation failed")
	}
}
