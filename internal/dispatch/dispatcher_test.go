package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datapact/internal/channel"
	"datapact/internal/logging"
	"datapact/internal/models"
)

type memStore struct {
	byID map[string]*models.Notification
}

func newMemStore(ns ...models.Notification) *memStore {
	s := &memStore{byID: make(map[string]*models.Notification)}
	for i := range ns {
		n := ns[i]
		s.byID[n.ID] = &n
	}
	return s
}

func (s *memStore) GetNotification(ctx context.Context, id string) (models.Notification, error) {
	n, ok := s.byID[id]
	if !ok {
		return models.Notification{}, ErrNotFound
	}
	return *n, nil
}

func (s *memStore) MarkSending(ctx context.Context, id string) (bool, error) {
	n, ok := s.byID[id]
	if !ok || n.Status != models.NotificationPending {
		return false, nil
	}
	n.Status = models.NotificationSending
	return true, nil
}

func (s *memStore) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	n, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	n.Status = models.NotificationSent
	n.SentAt = &sentAt
	n.ErrorMessage = ""
	return nil
}

func (s *memStore) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	n, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	n.Status = models.NotificationFailed
	n.ErrorMessage = errorMessage
	n.RetryCount++
	return nil
}

func (s *memStore) ListFailedRetryable(ctx context.Context, maxRetries int) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range s.byID {
		if n.Status == models.NotificationFailed && n.RetryCount < maxRetries {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (s *memStore) ResetToPending(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if n, ok := s.byID[id]; ok {
			n.Status = models.NotificationPending
		}
	}
	return nil
}

func (s *memStore) ListPendingForRecipient(ctx context.Context, email string, since time.Time) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range s.byID {
		if n.RecipientEmail == email && n.Status == models.NotificationPending && !n.CreatedAt.Before(since) {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (s *memStore) CreateNotification(ctx context.Context, n models.Notification) error {
	copied := n
	s.byID[n.ID] = &copied
	return nil
}

type fakeChannel struct {
	sent    []string
	failMsg string
}

func (c *fakeChannel) Send(ctx context.Context, n models.Notification) (bool, string) {
	if c.failMsg != "" {
		return false, c.failMsg
	}
	c.sent = append(c.sent, n.ID)
	return true, ""
}

func (c *fakeChannel) SendBatch(ctx context.Context, ns []models.Notification) []channel.SendResult {
	out := make([]channel.SendResult, len(ns))
	for i, n := range ns {
		ok, msg := c.Send(ctx, n)
		out[i] = channel.SendResult{Notification: n, Success: ok, ErrorMessage: msg}
	}
	return out
}

func (c *fakeChannel) Close() error { return nil }

type staticDigest struct{}

func (staticDigest) RenderDigest(byType map[string][]models.Notification) string {
	return "<html>digest</html>"
}

func pendingNotification(id string) models.Notification {
	return models.Notification{
		ID:             id,
		EventType:      "schema_drift",
		EventID:        "ev1",
		RecipientEmail: "a@example.com",
		Subject:        "[DataPact] Schema Drift Detected: orders",
		Status:         models.NotificationPending,
		Channel:        "email",
		CreatedAt:      time.Now().UTC(),
	}
}

func newTestDispatcher(store Store, ch channel.Channel) *Dispatcher {
	return New(store, map[string]channel.Channel{"email": ch}, staticDigest{}, logging.NewTest(), Config{})
}

func TestDispatchSendsPending(t *testing.T) {
	store := newMemStore(pendingNotification("n1"))
	ch := &fakeChannel{}
	d := newTestDispatcher(store, ch)

	ok, err := d.Dispatch(context.Background(), "n1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"n1"}, ch.sent)

	n, _ := store.GetNotification(context.Background(), "n1")
	assert.Equal(t, models.NotificationSent, n.Status)
	require.NotNil(t, n.SentAt)
}

func TestDispatchIdempotentOnSent(t *testing.T) {
	store := newMemStore(pendingNotification("n1"))
	ch := &fakeChannel{}
	d := newTestDispatcher(store, ch)

	_, err := d.Dispatch(context.Background(), "n1")
	require.NoError(t, err)

	// Re-dispatching a sent notification reports success without another
	// channel call.
	ok, err := d.Dispatch(context.Background(), "n1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, ch.sent, 1)
}

func TestDispatchFailureMarksFailed(t *testing.T) {
	store := newMemStore(pendingNotification("n1"))
	ch := &fakeChannel{failMsg: "smtp refused"}
	d := newTestDispatcher(store, ch)

	ok, err := d.Dispatch(context.Background(), "n1")
	require.NoError(t, err)
	assert.False(t, ok)

	n, _ := store.GetNotification(context.Background(), "n1")
	assert.Equal(t, models.NotificationFailed, n.Status)
	assert.Equal(t, "smtp refused", n.ErrorMessage)
	assert.Equal(t, 1, n.RetryCount)
}

func TestDispatchUnknownChannel(t *testing.T) {
	n := pendingNotification("n1")
	n.Channel = "pager"
	store := newMemStore(n)
	d := newTestDispatcher(store, &fakeChannel{})

	ok, err := d.Dispatch(context.Background(), "n1")
	require.NoError(t, err)
	assert.False(t, ok)

	got, _ := store.GetNotification(context.Background(), "n1")
	assert.Equal(t, models.NotificationFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, "Unknown channel")
}

func TestDispatchUnknownID(t *testing.T) {
	d := newTestDispatcher(newMemStore(), &fakeChannel{})
	_, err := d.Dispatch(context.Background(), "missing")
	assert.Error(t, err)
}

func TestRetrySweepRequeuesWithinBudget(t *testing.T) {
	failed := pendingNotification("n1")
	failed.Status = models.NotificationFailed
	failed.RetryCount = 2

	exhausted := pendingNotification("n2")
	exhausted.Status = models.NotificationFailed
	exhausted.RetryCount = 3

	store := newMemStore(failed, exhausted)
	d := newTestDispatcher(store, &fakeChannel{})

	d.RetrySweep(context.Background())

	n1, _ := store.GetNotification(context.Background(), "n1")
	assert.Equal(t, models.NotificationPending, n1.Status)
	n2, _ := store.GetNotification(context.Background(), "n2")
	assert.Equal(t, models.NotificationFailed, n2.Status)
}

func TestSendDigest(t *testing.T) {
	a := pendingNotification("n1")
	b := pendingNotification("n2")
	b.EventType = "quality_breach"

	store := newMemStore(a, b)
	ch := &fakeChannel{}
	d := newTestDispatcher(store, ch)

	ok, err := d.SendDigest(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	// Originals folded into the digest, digest itself delivered.
	n1, _ := store.GetNotification(context.Background(), "n1")
	assert.Equal(t, models.NotificationSent, n1.Status)
	n2, _ := store.GetNotification(context.Background(), "n2")
	assert.Equal(t, models.NotificationSent, n2.Status)
	require.Len(t, ch.sent, 1)

	digest, err := store.GetNotification(context.Background(), ch.sent[0])
	require.NoError(t, err)
	assert.Equal(t, "digest", digest.EventType)
	assert.Contains(t, digest.Subject, "2 notifications")
}

func TestSendDigestInheritsChannel(t *testing.T) {
	a := pendingNotification("n1")
	a.Channel = "telegram"
	b := pendingNotification("n2")
	b.Channel = "telegram"

	store := newMemStore(a, b)
	ch := &fakeChannel{}
	d := New(store, map[string]channel.Channel{"telegram": ch}, staticDigest{}, logging.NewTest(), Config{})

	ok, err := d.SendDigest(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, ch.sent, 1)
	digest, err := store.GetNotification(context.Background(), ch.sent[0])
	require.NoError(t, err)
	assert.Equal(t, "telegram", digest.Channel)
}

func TestSendDigestNothingPending(t *testing.T) {
	d := newTestDispatcher(newMemStore(), &fakeChannel{})
	ok, err := d.SendDigest(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}
