// Package router turns one compliance event into persisted, pending
// Notification records: resolve recipients, deduplicate, rate-limit,
// render, persist.
package router

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"datapact/internal/logging"
	"datapact/internal/models"
	"datapact/internal/resolver"
)

// ErrDuplicate is returned by stores when the dedup uniqueness backstop
// rejects an insert. The router treats it as a silent skip.
var ErrDuplicate = errors.New("duplicate notification")

// Store is the notification persistence the router needs.
type Store interface {
	CreateNotification(ctx context.Context, n models.Notification) error
	// HasRecentNotification reports whether a notification with the same
	// (event_type, event_id, recipient_email) was created at or after since.
	HasRecentNotification(ctx context.Context, eventType, eventID, email string, since time.Time) (bool, error)
	// CountRecentForRecipient counts notifications created for the email
	// at or after since, regardless of event.
	CountRecentForRecipient(ctx context.Context, email string, since time.Time) (int, error)
}

// Resolver yields the recipients for an event.
type Resolver interface {
	Resolve(ctx context.Context, event models.Event) ([]resolver.Recipient, error)
}

// Renderer produces notification content for an event.
type Renderer interface {
	Render(event models.Event) (subject, bodyHTML, bodyText string)
}

// Config holds the router's policy knobs.
type Config struct {
	DedupWindow      time.Duration
	RateLimitPerHour int
}

// Router orchestrates resolver, renderer, dedup, rate limiting, and
// persistence.
type Router struct {
	store    Store
	resolver Resolver
	renderer Renderer
	logger   *logging.Logger
	cfg      Config
	now      func() time.Time
}

// New constructs a Router. Zero config fields fall back to the defaults
// (60 minute dedup window, 100 notifications per recipient per hour).
func New(store Store, res Resolver, renderer Renderer, logger *logging.Logger, cfg Config) *Router {
	if cfg.DedupWindow == 0 {
		cfg.DedupWindow = 60 * time.Minute
	}
	if cfg.RateLimitPerHour == 0 {
		cfg.RateLimitPerHour = 100
	}
	return &Router{
		store:    store,
		resolver: res,
		renderer: renderer,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// RouteEvent processes one event and returns the newly created pending
// notifications in recipient order. Per-recipient dedup and rate-limit
// skips are logged, never surfaced as errors; the caller schedules
// delivery of each returned notification.
func (r *Router) RouteEvent(ctx context.Context, event models.Event) ([]models.Notification, error) {
	recipients, err := r.resolver.Resolve(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recipients: %w", err)
	}
	if len(recipients) == 0 {
		r.logger.Infof("No recipients for event %s on %s", event.EventType, event.ContractName)
		return nil, nil
	}

	eventID := event.EventID
	if eventID == "" {
		eventID = DeriveEventID(event)
	}

	subject, bodyHTML, bodyText := r.renderer.Render(event)

	now := r.now().UTC()
	var created []models.Notification

	for _, recipient := range recipients {
		dup, err := r.store.HasRecentNotification(ctx, string(event.EventType), eventID,
			recipient.Email, now.Add(-r.cfg.DedupWindow))
		if err != nil {
			return created, fmt.Errorf("dedup check failed: %w", err)
		}
		if dup {
			r.logger.Debugf("Skipping duplicate notification for %s", recipient.Email)
			continue
		}

		limit := r.cfg.RateLimitPerHour
		if recipient.MaxPerHour > 0 {
			limit = recipient.MaxPerHour
		}
		count, err := r.store.CountRecentForRecipient(ctx, recipient.Email, now.Add(-time.Hour))
		if err != nil {
			return created, fmt.Errorf("rate limit check failed: %w", err)
		}
		if count >= limit {
			r.logger.Warnf("Rate limited: %s", recipient.Email)
			continue
		}

		channelName := recipient.Channel
		if channelName == "" {
			channelName = "email"
		}

		n := models.Notification{
			ID:              uuid.NewString(),
			EventType:       string(event.EventType),
			EventID:         eventID,
			ContractID:      event.ContractID,
			ContractName:    event.ContractName,
			RecipientEmail:  recipient.Email,
			RecipientTeam:   recipient.Team,
			RecipientSource: recipient.Source,
			Subject:         subject,
			BodyHTML:        bodyHTML,
			BodyText:        bodyText,
			Status:          models.NotificationPending,
			Channel:         channelName,
			CreatedAt:       now,
		}

		if err := r.store.CreateNotification(ctx, n); err != nil {
			if errors.Is(err, ErrDuplicate) {
				// Lost a race with a concurrent router call; the dedup window
				// already holds an equivalent row.
				r.logger.Debugf("Skipping duplicate notification for %s (unique backstop)", recipient.Email)
				continue
			}
			return created, fmt.Errorf("failed to create notification: %w", err)
		}

		created = append(created, n)
	}

	r.logger.Infof("Created %d notifications for event %s on %s",
		len(created), event.EventType, event.ContractName)
	return created, nil
}

// DeriveEventID builds a deterministic dedup key for events without a
// caller-supplied one: a sha256 over type, contract and second-precision
// timestamp, truncated to 16 hex chars. Collisions are bounded by the
// dedup window and tolerated.
func DeriveEventID(event models.Event) string {
	content := fmt.Sprintf("%s:%s:%s",
		event.EventType, event.ContractName, event.Timestamp.UTC().Format(time.RFC3339))
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:16]
}
