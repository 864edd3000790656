package api

import (
	"net/http"
	"time"

	"github.com/fox-gonic/fox"
	"github.com/voicedesk/voicedesk/internal/smsadapter/service"
)

// Api exposes the adapter's operational surface: health, delivery status
// lookups and the provider's delivery callback.
type Api struct {
	status *service.StatusStore
	router *fox.Engine
}

func NewApi(status *service.StatusStore, router *fox.Engine) (*Api, error) {
	api := &Api{status: status, router: router}
	api.setupRouters(router)
	return api, nil
}

func (api *Api) setupRouters(router *fox.Engine) {
	router.GET("/healthz", api.Health)
	router.GET("/v1/sms/:messageID/status", api.GetDeliveryStatus)
	router.POST("/v1/sms/delivery-callback", api.DeliveryCallback)
}

func sendError(c *fox.Context, status int, code, message string) {
	c.JSON(status, map[string]any{"error": map[string]any{"code": code, "message": message}})
}

func (api *Api) Health(c *fox.Context) {
	c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (api *Api) GetDeliveryStatus(c *fox.Context) {
	id := c.Param("messageID")
	st, err := api.status.Get(c.Request.Context(), id)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if st == nil {
		sendError(c, http.StatusNotFound, "NOT_FOUND", "no delivery record for message")
		return
	}
	c.JSON(http.StatusOK, st)
}

type deliveryCallbackRequest struct {
	MessageID   string `json:"message_id"`
	Delivered   bool   `json:"delivered"`
	Detail      string `json:"detail"`
	DeliveredAt string `json:"delivered_at"`
}

// DeliveryCallback receives the provider's final delivery receipt and
// updates the stored record.
func (api *Api) DeliveryCallback(c *fox.Context) {
	var req deliveryCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if req.MessageID == "" {
		sendError(c, http.StatusBadRequest, "INVALID_PARAMETER", "message_id is required")
		return
	}
	ctx := c.Request.Context()
	st, err := api.status.Get(ctx, req.MessageID)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if st == nil {
		st = &service.DeliveryStatus{MessageID: req.MessageID}
	}
	if req.Delivered {
		st.State = service.StateDelivered
	} else {
		st.State = service.StateFailed
	}
	st.Detail = req.Detail
	st.UpdatedAt = time.Now()
	if err := api.status.Put(ctx, st); err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	c.JSON(http.StatusOK, map[string]string{"status": "success"})
}
