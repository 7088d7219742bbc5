package api

import (
	"github.com/gin-gonic/gin"

	"datapact/internal/logging"
	"datapact/internal/models"
)

// NewRouter assembles the gin engine with all notifier routes.
func NewRouter(h *Handler, logger *logging.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(logger))

	base := h.config.API.BasePath
	if base == "" {
		base = "/api/v1"
	}

	api := r.Group(base)
	{
		// Event intake
		api.POST("/events/schema-drift", h.IngestEvent(models.EventSchemaDrift))
		api.POST("/events/quality-breach", h.IngestEvent(models.EventQualityBreach))
		api.POST("/events/pr-blocked", h.IngestEvent(models.EventPRBlocked))
		api.POST("/events/contract-updated", h.IngestEvent(models.EventContractUpdated))
		api.POST("/events/deprecation-warning", h.IngestEvent(models.EventDeprecationWarning))
		api.POST("/events/availability-failure", h.IngestEvent(models.EventAvailabilityFailure))

		// Notifications
		api.GET("/notifications", h.ListNotifications)
		api.GET("/notifications/:id", h.GetNotification)
		api.POST("/notifications/:id/mark-read", h.MarkNotificationRead)
		api.POST("/notifications/mark-all-read", h.MarkAllNotificationsRead)

		// Watchers
		api.POST("/watchers", h.CreateWatcher)
		api.GET("/watchers", h.ListWatchers)
		api.GET("/watchers/:id", h.GetWatcher)
		api.PUT("/watchers/:id", h.UpdateWatcher)
		api.DELETE("/watchers/:id", h.DeleteWatcher)

		// Preferences
		api.GET("/preferences/:email", h.GetPreference)
		api.PUT("/preferences/:email", h.UpsertPreference)

		// Live stream
		api.GET("/ws/notifications/:email", h.StreamNotifications)
	}

	r.GET("/health", h.Health)

	return r
}
