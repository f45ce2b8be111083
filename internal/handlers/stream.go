package handlers

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"order-desk-backend/internal/models"
	"order-desk-backend/internal/services"
)

const streamHeartbeat = 25 * time.Second

// StreamHandler pushes the live order view to browsers over server-sent
// events.
type StreamHandler struct {
	feed *services.OrderFeed
}

func NewStreamHandler(feed *services.OrderFeed) *StreamHandler {
	return &StreamHandler{feed: feed}
}

// Stream godoc
// @Summary     Live order feed
// @Description Server-sent events. The first "snapshot" event carries every order; then each change arrives as an "order" event. A "resync" event carries a fresh snapshot. The stream closes if the client falls behind; reconnect to get a new snapshot.
// @Tags        orders
// @Produce     text/event-stream
// @Security    Bearer
// @Param       access_token query string false "Access token, for clients that cannot set headers"
// @Success     200 {object} models.OrderListResponse "snapshot event"
// @Router      /orders/stream [get]
func (h *StreamHandler) Stream(c *gin.Context) {
	events, cancel := h.feed.Subscribe()
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("snapshot", models.OrderListResponse{Orders: h.feed.View().Snapshot()})
	c.Writer.Flush()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		case ev, ok := <-events:
			if !ok {
				return false
			}
			if ev.Type == models.ChangeResync {
				c.SSEvent("resync", models.OrderListResponse{Orders: h.feed.View().Snapshot()})
				return true
			}
			c.SSEvent("order", ev)
			return true
		}
	})
}
