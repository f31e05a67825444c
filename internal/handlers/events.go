package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yukikurage/taskboard-api/internal/events"
)

// Frame names written on the event stream besides the task event types.
const (
	frameRegistered = "registered"
	framePing       = "ping"
)

// EventsHandler streams task events to the authenticated user over SSE.
type EventsHandler struct {
	hub       *events.Hub
	keepAlive time.Duration
	log       *zap.Logger
}

func NewEventsHandler(hub *events.Hub, keepAlive time.Duration, log *zap.Logger) *EventsHandler {
	if keepAlive <= 0 {
		keepAlive = 25 * time.Second
	}
	return &EventsHandler{hub: hub, keepAlive: keepAlive, log: log}
}

// Stream registers the connection for the token's user and relays events
// until the client goes away or the hub closes the connection.
func (h *EventsHandler) Stream(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	client := h.hub.Register(actor.ID, actor.Role)
	defer h.hub.Unregister(client)

	c.Header("Content-Type", sse.ContentType)
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	c.Render(-1, sse.Event{
		Event: frameRegistered,
		Data:  gin.H{"userId": actor.ID, "connectionId": client.ID},
	})
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, open := <-client.Events():
			if !open {
				h.log.Debug("event stream closed by hub", zap.Uint64("user_id", actor.ID), zap.String("connection_id", client.ID))
				return
			}
			c.Render(-1, sse.Event{
				Id:    evt.ID,
				Event: string(evt.Type),
				Data:  evt,
			})
			c.Writer.Flush()
		case now := <-ticker.C:
			c.Render(-1, sse.Event{
				Event: framePing,
				Data:  gin.H{"time": now.UTC()},
			})
			c.Writer.Flush()
		}
	}
}
