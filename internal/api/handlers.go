// Package api exposes the notifier's HTTP surface: event intake, the
// notification inbox, watcher and preference management, and the websocket
// stream.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"datapact/internal/config"
	"datapact/internal/dispatch"
	"datapact/internal/logging"
	"datapact/internal/models"
)

// Store is the persistence the HTTP handlers need.
type Store interface {
	ListNotifications(ctx context.Context, email, status, eventType string, limit, offset int) ([]models.Notification, int, error)
	GetNotification(ctx context.Context, id string) (models.Notification, error)
	MarkRead(ctx context.Context, id string, readAt time.Time) error
	MarkAllRead(ctx context.Context, email string, readAt time.Time) (int, error)

	CreateWatcher(ctx context.Context, w models.Watcher) error
	GetWatcher(ctx context.Context, id string) (models.Watcher, error)
	ListWatchersByEmail(ctx context.Context, email string) ([]models.Watcher, error)
	UpdateWatcher(ctx context.Context, w models.Watcher) error
	DeleteWatcher(ctx context.Context, id string) error

	GetPreference(ctx context.Context, email string) (models.NotificationPreference, error)
	UpsertPreference(ctx context.Context, p models.NotificationPreference) error
}

// EventRouter turns an event into pending notifications.
type EventRouter interface {
	RouteEvent(ctx context.Context, event models.Event) ([]models.Notification, error)
}

// Deliverer schedules delivery of a created notification.
type Deliverer interface {
	Enqueue(id string)
}

type Handler struct {
	store     Store
	events    EventRouter
	deliverer Deliverer
	stream    *StreamManager
	logger    *logging.Logger
	config    config.Config
}

func NewHandler(store Store, events EventRouter, deliverer Deliverer, stream *StreamManager, logger *logging.Logger, cfg config.Config) *Handler {
	return &Handler{
		store:     store,
		events:    events,
		deliverer: deliverer,
		stream:    stream,
		logger:    logger,
		config:    cfg,
	}
}

func (h *Handler) ListNotifications(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}
	limit := queryInt(c, "limit", 50)
	if limit > 200 {
		limit = 200
	}
	offset := queryInt(c, "offset", 0)

	items, total, err := h.store.ListNotifications(c.Request.Context(), email,
		c.Query("status"), c.Query("event_type"), limit, offset)
	if err != nil {
		h.logger.Errorf("List notifications failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if items == nil {
		items = []models.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": items,
		"total":         total,
		"limit":         limit,
		"offset":        offset,
	})
}

func (h *Handler) GetNotification(c *gin.Context) {
	id := c.Param("id")
	n, err := h.store.GetNotification(c.Request.Context(), id)
	if errors.Is(err, dispatch.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}
	if err != nil {
		h.logger.Errorf("Get notification %s failed: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	id := c.Param("id")
	err := h.store.MarkRead(c.Request.Context(), id, time.Now().UTC())
	if errors.Is(err, dispatch.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}
	if err != nil {
		h.logger.Errorf("Mark notification %s read failed: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "read"})
}

func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}
	updated, err := h.store.MarkAllRead(c.Request.Context(), email, time.Now().UTC())
	if err != nil {
		h.logger.Errorf("Mark all read for %s failed: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// CreateWatcher registers a new watcher. New registrations are always
// active; use PUT to deactivate.
func (h *Handler) CreateWatcher(c *gin.Context) {
	var w models.Watcher
	if err := c.ShouldBindJSON(&w); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if w.WatcherEmail == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "watcher_email is required"})
		return
	}
	w.ID = uuid.NewString()
	w.IsActive = true
	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now

	if err := h.store.CreateWatcher(c.Request.Context(), w); err != nil {
		h.logger.Errorf("Create watcher failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.logger.Infof("Created watcher %s for %s", w.ID, w.WatcherEmail)
	c.JSON(http.StatusCreated, w)
}

func (h *Handler) GetWatcher(c *gin.Context) {
	id := c.Param("id")
	w, err := h.store.GetWatcher(c.Request.Context(), id)
	if errors.Is(err, dispatch.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Watcher not found"})
		return
	}
	if err != nil {
		h.logger.Errorf("Get watcher %s failed: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *Handler) ListWatchers(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}
	watchers, err := h.store.ListWatchersByEmail(c.Request.Context(), email)
	if err != nil {
		h.logger.Errorf("List watchers for %s failed: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if watchers == nil {
		watchers = []models.Watcher{}
	}
	c.JSON(http.StatusOK, gin.H{"watchers": watchers})
}

func (h *Handler) UpdateWatcher(c *gin.Context) {
	var w models.Watcher
	if err := c.ShouldBindJSON(&w); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w.ID = c.Param("id")
	w.UpdatedAt = time.Now().UTC()

	err := h.store.UpdateWatcher(c.Request.Context(), w)
	if errors.Is(err, dispatch.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Watcher not found"})
		return
	}
	if err != nil {
		h.logger.Errorf("Update watcher %s failed: %v", w.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *Handler) DeleteWatcher(c *gin.Context) {
	id := c.Param("id")
	err := h.store.DeleteWatcher(c.Request.Context(), id)
	if errors.Is(err, dispatch.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Watcher not found"})
		return
	}
	if err != nil {
		h.logger.Errorf("Delete watcher %s failed: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// GetPreference returns the stored preference for an email, or the implicit
// default when no row exists.
func (h *Handler) GetPreference(c *gin.Context) {
	email := c.Param("email")
	p, err := h.store.GetPreference(c.Request.Context(), email)
	if errors.Is(err, dispatch.ErrNotFound) {
		c.JSON(http.StatusOK, models.DefaultPreference(email))
		return
	}
	if err != nil {
		h.logger.Errorf("Get preference for %s failed: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) UpsertPreference(c *gin.Context) {
	var p models.NotificationPreference
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p.Email = c.Param("email")
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	if err := h.store.UpsertPreference(c.Request.Context(), p); err != nil {
		h.logger.Errorf("Upsert preference for %s failed: %v", p.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.logger.Infof("Updated preferences for %s", p.Email)
	c.JSON(http.StatusOK, p)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}
