package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/studynotes-backend/internal/platform/logger"
	"github.com/yungbote/studynotes-backend/internal/realtime"
	"github.com/yungbote/studynotes-backend/internal/viewstate"
)

type RealtimeHandler struct {
	log     *logger.Logger
	hub     *realtime.SSEHub
	ctrl    *viewstate.Controller
	channel string
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub, ctrl *viewstate.Controller, channel string) *RealtimeHandler {
	if channel == "" {
		channel = realtime.DefaultChannel
	}
	return &RealtimeHandler{
		log:     log.With("handler", "RealtimeHandler"),
		hub:     hub,
		ctrl:    ctrl,
		channel: channel,
	}
}

// GET /api/stream. The current state is sent first so a new client can render
// without a separate fetch.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	client := h.hub.NewSSEClient()
	h.hub.AddChannel(client, h.channel)
	defer h.hub.CloseClient(client)

	st := h.ctrl.State()
	h.hub.Send(client, realtime.SSEMessage{
		Channel: h.channel,
		Event:   realtime.SSEEventViewStateChanged,
		Data:    &st,
	})

	h.log.Debug("SSE stream open", "clientID", client.ID)
	h.hub.ServeHTTP(c.Writer, c.Request, client)
	h.log.Debug("SSE stream closed", "clientID", client.ID)
}
