// Package dispatch pulls pending notifications and drives them through a
// delivery channel with retry and failure bookkeeping.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"datapact/internal/channel"
	"datapact/internal/logging"
	"datapact/internal/models"
)

// ErrNotFound is returned by stores when the notification id is unknown.
var ErrNotFound = errors.New("notification not found")

// Store is the notification persistence the dispatcher needs. MarkSending
// must be a compare-and-set on status=pending so concurrent delivery
// triggers for the same id collapse to one send.
type Store interface {
	GetNotification(ctx context.Context, id string) (models.Notification, error)
	MarkSending(ctx context.Context, id string) (bool, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
	MarkFailed(ctx context.Context, id string, errorMessage string) error
	ListFailedRetryable(ctx context.Context, maxRetries int) ([]models.Notification, error)
	ResetToPending(ctx context.Context, ids []string) error
	ListPendingForRecipient(ctx context.Context, email string, since time.Time) ([]models.Notification, error)
	CreateNotification(ctx context.Context, n models.Notification) error
}

// DigestRenderer renders the digest summary body.
type DigestRenderer interface {
	RenderDigest(byType map[string][]models.Notification) string
}

// Config holds dispatcher policy knobs.
type Config struct {
	QueueSize    int
	MaxWorkers   int
	MaxRetries   int
	RetrySweep   time.Duration
	DigestWindow time.Duration
}

// Dispatcher is the delivery worker loop.
type Dispatcher struct {
	store    Store
	channels map[string]channel.Channel
	renderer DigestRenderer
	logger   *logging.Logger
	cfg      Config

	ids    chan string
	ctx    context.Context
	cancel context.CancelFunc
	wg     *sync.WaitGroup
}

// New constructs a Dispatcher. Zero config fields fall back to defaults:
// queue 500, 10 workers, 3 retries, 5 minute sweep, 24 hour digest window.
func New(store Store, channels map[string]channel.Channel, renderer DigestRenderer, logger *logging.Logger, cfg Config) *Dispatcher {
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 500
	}
	if cfg.MaxWorkers == 0 {
		cfg.MaxWorkers = 10
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetrySweep == 0 {
		cfg.RetrySweep = 5 * time.Minute
	}
	if cfg.DigestWindow == 0 {
		cfg.DigestWindow = 24 * time.Hour
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		store:    store,
		channels: channels,
		renderer: renderer,
		logger:   logger,
		cfg:      cfg,
		ids:      make(chan string, cfg.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the worker pool and the retry sweep ticker.
func (d *Dispatcher) Start(wg *sync.WaitGroup) {
	d.wg = wg
	for i := 0; i < d.cfg.MaxWorkers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ticker := time.NewTicker(d.cfg.RetrySweep)
		defer ticker.Stop()
		for {
			select {
			case <-d.ctx.Done():
				return
			case <-ticker.C:
				d.RetrySweep(d.ctx)
			}
		}
	}()
}

// Stop cancels workers and the sweep.
func (d *Dispatcher) Stop() {
	d.cancel()
}

// Enqueue schedules delivery of a notification id, dropping it with a log
// line when the queue is full (the retry sweep will pick pending rows up).
func (d *Dispatcher) Enqueue(id string) {
	select {
	case d.ids <- id:
	default:
		d.logger.Errorf("Dispatch queue full, dropping notification %s", id)
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			d.logger.Infof("Dispatch worker %d stopped", id)
			return
		case nid := <-d.ids:
			if _, err := d.Dispatch(d.ctx, nid); err != nil {
				d.logger.Errorf("Dispatch of %s failed: %v", nid, err)
			}
		}
	}
}

// Dispatch delivers one notification. A notification that is no longer
// pending is an idempotent no-op: the previous outcome is returned and no
// channel call is made.
func (d *Dispatcher) Dispatch(ctx context.Context, id string) (bool, error) {
	n, err := d.store.GetNotification(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, fmt.Errorf("notification %s not found", id)
	}
	if err != nil {
		return false, err
	}

	if n.Status != models.NotificationPending {
		return n.Status == models.NotificationSent, nil
	}

	claimed, err := d.store.MarkSending(ctx, id)
	if err != nil {
		return false, err
	}
	if !claimed {
		// Another worker got here first.
		current, err := d.store.GetNotification(ctx, id)
		if err != nil {
			return false, err
		}
		return current.Status == models.NotificationSent, nil
	}

	ch, ok := d.channels[n.Channel]
	if !ok {
		errMsg := fmt.Sprintf("Unknown channel: %s", n.Channel)
		if err := d.store.MarkFailed(ctx, id, errMsg); err != nil {
			return false, err
		}
		return false, nil
	}

	success, errMsg := ch.Send(ctx, n)
	if success {
		if err := d.store.MarkSent(ctx, id, time.Now().UTC()); err != nil {
			return false, err
		}
		return true, nil
	}

	if err := d.store.MarkFailed(ctx, id, errMsg); err != nil {
		return false, err
	}
	d.logger.Warnf("Delivery of %s to %s failed: %s", id, n.RecipientEmail, errMsg)
	return false, nil
}

// RetrySweep resets failed notifications with retry budget left back to
// pending and re-enqueues them.
func (d *Dispatcher) RetrySweep(ctx context.Context) {
	failed, err := d.store.ListFailedRetryable(ctx, d.cfg.MaxRetries)
	if err != nil {
		d.logger.Errorf("Retry sweep query failed: %v", err)
		return
	}
	if len(failed) == 0 {
		return
	}

	ids := make([]string, len(failed))
	for i, n := range failed {
		ids[i] = n.ID
	}
	if err := d.store.ResetToPending(ctx, ids); err != nil {
		d.logger.Errorf("Retry sweep reset failed: %v", err)
		return
	}

	for _, id := range ids {
		d.Enqueue(id)
	}
	d.logger.Infof("Retry sweep re-queued %d failed notifications", len(ids))
}

// SendDigest collapses a recipient's recent pending notifications into one
// summary email: the originals are marked sent (they ride along inside the
// digest) and the digest itself is dispatched immediately.
func (d *Dispatcher) SendDigest(ctx context.Context, email string) (bool, error) {
	since := time.Now().UTC().Add(-d.cfg.DigestWindow)
	pending, err := d.store.ListPendingForRecipient(ctx, email, since)
	if err != nil {
		return false, err
	}
	if len(pending) == 0 {
		return true, nil
	}

	byType := make(map[string][]models.Notification)
	for _, n := range pending {
		byType[n.EventType] = append(byType[n.EventType], n)
	}

	// The folded rows already carry the recipient's routed channel.
	digestChannel := pending[0].Channel
	if digestChannel == "" {
		digestChannel = "email"
	}

	now := time.Now().UTC()
	digest := models.Notification{
		ID:             uuid.NewString(),
		EventType:      "digest",
		EventID:        fmt.Sprintf("digest-%s", now.Format(time.RFC3339)),
		RecipientEmail: email,
		Subject:        fmt.Sprintf("DataPact Digest: %d notifications", len(pending)),
		BodyHTML:       d.renderer.RenderDigest(byType),
		Status:         models.NotificationPending,
		Channel:        digestChannel,
		CreatedAt:      now,
	}
	if err := d.store.CreateNotification(ctx, digest); err != nil {
		return false, err
	}

	for _, n := range pending {
		if err := d.store.MarkSent(ctx, n.ID, now); err != nil {
			d.logger.Errorf("Failed to fold notification %s into digest: %v", n.ID, err)
		}
	}

	return d.Dispatch(ctx, digest.ID)
}
