package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mvibe/marketplace/internal/services"
	"github.com/mvibe/marketplace/pkg/logger"
)

const sseKeepAlive = 25 * time.Second

// SSEHandler streams catalog change notifications.
type SSEHandler struct {
	hub *services.SSEHub
}

func NewSSEHandler(hub *services.SSEHub) *SSEHandler {
	return &SSEHandler{hub: hub}
}

// StreamCatalogEvents pushes CatalogEvents to the client, which reacts by
// fetching its page data again. ?project_id= narrows the stream to one
// project detail page.
// GET /api/events/catalog
func (h *SSEHandler) StreamCatalogEvents(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	clientID := uuid.New().String()

	projectID := c.Query("project_id")
	events := h.hub.Subscribe(clientID, projectID)
	defer h.hub.Unsubscribe(clientID)

	// send headers now so clients see the stream open before the first event
	c.Status(200)
	c.Writer.Flush()

	log := logger.FromGin(c)
	log.Info().Str("client_id", clientID).Str("project_id", projectID).Int("total", h.hub.ClientCount()).Msg("SSE client connected")

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			data, err := json.Marshal(event)
			if err != nil {
				log.Error().Err(err).Msg("SSE marshal error")
				return true
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			return true
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			return true
		case <-c.Request.Context().Done():
			log.Info().Str("client_id", clientID).Msg("SSE client disconnected")
			return false
		}
	})
}
