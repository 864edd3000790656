package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/voicedesk/voicedesk/internal/escalation/service/engine"
	"github.com/voicedesk/voicedesk/internal/escalation/service/rulecatalog"
)

// Api binds the escalation and SLA rule routes onto the shared router.
type Api struct {
	engine *engine.Engine
	store  engine.EscalationStore
	rules  rulecatalog.Store
	rdb    *redis.Client
}

// NewApi registers routes. rdb may be nil; escalation reads then skip the
// cache and hit the database directly.
func NewApi(router *gin.Engine, eng *engine.Engine, store engine.EscalationStore, rules rulecatalog.Store, rdb *redis.Client) *Api {
	api := &Api{engine: eng, store: store, rules: rules, rdb: rdb}
	api.setupRouters(router)
	return api
}

func (api *Api) setupRouters(router *gin.Engine) {
	router.GET("/v1/escalations", api.ListEscalations)
	router.GET("/v1/escalations/:escalationID", api.GetEscalationByID)
	router.POST("/v1/escalations/:escalationID/resolve", api.ResolveEscalation)
	router.POST("/v1/feedbacks/:feedbackID/check", api.CheckFeedback)

	router.PUT("/v1/sla-rules", api.UpsertRule)
	router.GET("/v1/sla-rules", api.ListRules)
	router.GET("/v1/sla-rules/:ruleID", api.GetRule)
	router.DELETE("/v1/sla-rules/:ruleID", api.DeactivateRule)
}

func sendError(c *gin.Context, status int, code, message string) {
	c.JSON(status, map[string]any{"error": map[string]any{"code": code, "message": message}})
}

func internalError(c *gin.Context, err error) {
	sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
}
