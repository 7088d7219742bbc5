package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"datapact/internal/models"
	"datapact/internal/router"
)

// IngestEvent accepts one compliance event of a fixed type, routes it into
// pending notifications, and schedules their delivery. The route path pins
// the event type; a conflicting event_type in the body is overridden.
func (h *Handler) IngestEvent(eventType models.EventType) gin.HandlerFunc {
	return func(c *gin.Context) {
		var event models.Event
		if err := c.ShouldBindJSON(&event); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if event.ContractName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "contract_name is required"})
			return
		}

		event.EventType = eventType
		if event.Timestamp.IsZero() {
			event.Timestamp = time.Now().UTC()
		}
		if event.EventID == "" {
			event.EventID = router.DeriveEventID(event)
		}

		created, err := h.events.RouteEvent(c.Request.Context(), event)
		if err != nil {
			h.logger.Errorf("Routing of %s event for %s failed: %v", eventType, event.ContractName, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		for _, n := range created {
			h.deliverer.Enqueue(n.ID)
			h.stream.Publish(n.RecipientEmail, []byte(fmt.Sprintf("New alert: %s", n.Subject)))
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status":               "accepted",
			"event_id":             event.EventID,
			"notifications_queued": len(created),
		})
	}
}
