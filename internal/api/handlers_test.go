package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datapact/internal/config"
	"datapact/internal/dispatch"
	"datapact/internal/logging"
	"datapact/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStore struct {
	notifications map[string]models.Notification
	watchers      map[string]models.Watcher
	preferences   map[string]models.NotificationPreference
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		notifications: make(map[string]models.Notification),
		watchers:      make(map[string]models.Watcher),
		preferences:   make(map[string]models.NotificationPreference),
	}
}

func (s *fakeStore) ListNotifications(ctx context.Context, email, status, eventType string, limit, offset int) ([]models.Notification, int, error) {
	var out []models.Notification
	for _, n := range s.notifications {
		if n.RecipientEmail != email {
			continue
		}
		if status != "" && n.Status != status {
			continue
		}
		if eventType != "" && n.EventType != eventType {
			continue
		}
		out = append(out, n)
	}
	return out, len(out), nil
}

func (s *fakeStore) GetNotification(ctx context.Context, id string) (models.Notification, error) {
	n, ok := s.notifications[id]
	if !ok {
		return models.Notification{}, dispatch.ErrNotFound
	}
	return n, nil
}

func (s *fakeStore) MarkRead(ctx context.Context, id string, readAt time.Time) error {
	n, ok := s.notifications[id]
	if !ok {
		return dispatch.ErrNotFound
	}
	n.ReadAt = &readAt
	s.notifications[id] = n
	return nil
}

func (s *fakeStore) MarkAllRead(ctx context.Context, email string, readAt time.Time) (int, error) {
	count := 0
	for id, n := range s.notifications {
		if n.RecipientEmail == email && n.ReadAt == nil {
			n.ReadAt = &readAt
			s.notifications[id] = n
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) CreateWatcher(ctx context.Context, w models.Watcher) error {
	s.watchers[w.ID] = w
	return nil
}

func (s *fakeStore) GetWatcher(ctx context.Context, id string) (models.Watcher, error) {
	w, ok := s.watchers[id]
	if !ok {
		return models.Watcher{}, dispatch.ErrNotFound
	}
	return w, nil
}

func (s *fakeStore) ListWatchersByEmail(ctx context.Context, email string) ([]models.Watcher, error) {
	var out []models.Watcher
	for _, w := range s.watchers {
		if w.WatcherEmail == email {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateWatcher(ctx context.Context, w models.Watcher) error {
	if _, ok := s.watchers[w.ID]; !ok {
		return dispatch.ErrNotFound
	}
	s.watchers[w.ID] = w
	return nil
}

func (s *fakeStore) DeleteWatcher(ctx context.Context, id string) error {
	if _, ok := s.watchers[id]; !ok {
		return dispatch.ErrNotFound
	}
	delete(s.watchers, id)
	return nil
}

func (s *fakeStore) GetPreference(ctx context.Context, email string) (models.NotificationPreference, error) {
	p, ok := s.preferences[email]
	if !ok {
		return models.NotificationPreference{}, dispatch.ErrNotFound
	}
	return p, nil
}

func (s *fakeStore) UpsertPreference(ctx context.Context, p models.NotificationPreference) error {
	s.preferences[p.Email] = p
	return nil
}

type fakeEventRouter struct {
	created   []models.Notification
	lastEvent models.Event
}

func (r *fakeEventRouter) RouteEvent(ctx context.Context, event models.Event) ([]models.Notification, error) {
	r.lastEvent = event
	return r.created, nil
}

type fakeDeliverer struct {
	enqueued []string
}

func (d *fakeDeliverer) Enqueue(id string) {
	d.enqueued = append(d.enqueued, id)
}

func newTestAPI(store Store, events EventRouter, deliverer Deliverer) *gin.Engine {
	logger := logging.NewTest()
	h := NewHandler(store, events, deliverer, NewStreamManager(logger), logger, config.Config{})
	return NewRouter(h, logger)
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestIngestEventAccepted(t *testing.T) {
	events := &fakeEventRouter{created: []models.Notification{
		{ID: "n1", RecipientEmail: "a@example.com", Subject: "s"},
		{ID: "n2", RecipientEmail: "b@example.com", Subject: "s"},
	}}
	deliverer := &fakeDeliverer{}
	engine := newTestAPI(newFakeStore(), events, deliverer)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/events/schema-drift", map[string]any{
		"contract_name": "orders",
		"errors":        []string{"Missing required field: amount"},
	})

	require.Equal(t, http.StatusAccepted, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "accepted", resp["status"])
	assert.Equal(t, 2.0, resp["notifications_queued"])
	assert.NotEmpty(t, resp["event_id"])

	assert.Equal(t, []string{"n1", "n2"}, deliverer.enqueued)
	assert.Equal(t, models.EventSchemaDrift, events.lastEvent.EventType)
	assert.False(t, events.lastEvent.Timestamp.IsZero())
}

func TestIngestEventRequiresContractName(t *testing.T) {
	engine := newTestAPI(newFakeStore(), &fakeEventRouter{}, &fakeDeliverer{})
	w := doJSON(t, engine, http.MethodPost, "/api/v1/events/quality-breach", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestEventPathPinsType(t *testing.T) {
	events := &fakeEventRouter{}
	engine := newTestAPI(newFakeStore(), events, &fakeDeliverer{})

	w := doJSON(t, engine, http.MethodPost, "/api/v1/events/availability-failure", map[string]any{
		"contract_name": "orders",
		"event_type":    "schema_drift",
	})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, models.EventAvailabilityFailure, events.lastEvent.EventType)
}

func TestListNotificationsRequiresEmail(t *testing.T) {
	engine := newTestAPI(newFakeStore(), &fakeEventRouter{}, &fakeDeliverer{})
	w := doJSON(t, engine, http.MethodGet, "/api/v1/notifications", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListNotifications(t *testing.T) {
	store := newFakeStore()
	store.notifications["n1"] = models.Notification{ID: "n1", RecipientEmail: "a@example.com", Status: "sent"}
	store.notifications["n2"] = models.Notification{ID: "n2", RecipientEmail: "b@example.com", Status: "sent"}
	engine := newTestAPI(store, &fakeEventRouter{}, &fakeDeliverer{})

	w := doJSON(t, engine, http.MethodGet, "/api/v1/notifications?email=a@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Notifications []models.Notification `json:"notifications"`
		Total         int                   `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, "n1", resp.Notifications[0].ID)
	assert.Equal(t, 1, resp.Total)
}

func TestGetNotificationNotFound(t *testing.T) {
	engine := newTestAPI(newFakeStore(), &fakeEventRouter{}, &fakeDeliverer{})
	w := doJSON(t, engine, http.MethodGet, "/api/v1/notifications/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMarkNotificationRead(t *testing.T) {
	store := newFakeStore()
	store.notifications["n1"] = models.Notification{ID: "n1", RecipientEmail: "a@example.com"}
	engine := newTestAPI(store, &fakeEventRouter{}, &fakeDeliverer{})

	w := doJSON(t, engine, http.MethodPost, "/api/v1/notifications/n1/mark-read", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, store.notifications["n1"].ReadAt)
}

func TestMarkAllNotificationsRead(t *testing.T) {
	store := newFakeStore()
	store.notifications["n1"] = models.Notification{ID: "n1", RecipientEmail: "a@example.com"}
	store.notifications["n2"] = models.Notification{ID: "n2", RecipientEmail: "a@example.com"}
	engine := newTestAPI(store, &fakeEventRouter{}, &fakeDeliverer{})

	w := doJSON(t, engine, http.MethodPost, "/api/v1/notifications/mark-all-read?email=a@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2.0, resp["updated"])
}

func TestCreateWatcher(t *testing.T) {
	store := newFakeStore()
	engine := newTestAPI(store, &fakeEventRouter{}, &fakeDeliverer{})

	w := doJSON(t, engine, http.MethodPost, "/api/v1/watchers", map[string]any{
		"watcher_email":      "watcher@example.com",
		"contract_name":      "orders",
		"watch_schema_drift": true,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Watcher
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsActive)
	assert.Contains(t, store.watchers, created.ID)
}

func TestCreateWatcherRequiresEmail(t *testing.T) {
	engine := newTestAPI(newFakeStore(), &fakeEventRouter{}, &fakeDeliverer{})
	w := doJSON(t, engine, http.MethodPost, "/api/v1/watchers", map[string]any{"contract_name": "orders"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteWatcherNotFound(t *testing.T) {
	engine := newTestAPI(newFakeStore(), &fakeEventRouter{}, &fakeDeliverer{})
	w := doJSON(t, engine, http.MethodDelete, "/api/v1/watchers/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPreferenceDefaultsWhenAbsent(t *testing.T) {
	engine := newTestAPI(newFakeStore(), &fakeEventRouter{}, &fakeDeliverer{})

	w := doJSON(t, engine, http.MethodGet, "/api/v1/preferences/a@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var pref models.NotificationPreference
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pref))
	assert.Equal(t, "a@example.com", pref.Email)
	assert.True(t, pref.EmailEnabled)
	assert.True(t, pref.SchemaDriftEnabled)
}

func TestUpsertPreference(t *testing.T) {
	store := newFakeStore()
	engine := newTestAPI(store, &fakeEventRouter{}, &fakeDeliverer{})

	w := doJSON(t, engine, http.MethodPut, "/api/v1/preferences/a@example.com", map[string]any{
		"email_enabled":        true,
		"schema_drift_enabled": false,
	})
	require.Equal(t, http.StatusOK, w.Code)

	saved, ok := store.preferences["a@example.com"]
	require.True(t, ok)
	assert.False(t, saved.SchemaDriftEnabled)
}

func TestHealth(t *testing.T) {
	engine := newTestAPI(newFakeStore(), &fakeEventRouter{}, &fakeDeliverer{})
	w := doJSON(t, engine, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
