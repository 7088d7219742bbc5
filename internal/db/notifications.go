package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"datapact/internal/dispatch"
	"datapact/internal/models"
	"datapact/internal/router"
)

const notificationColumns = `
        id, event_type, event_id, contract_id, contract_name,
        recipient_email, recipient_team, recipient_source, subject,
        body_html, body_text, status, channel, sent_at, read_at,
        error_message, retry_count, created_at`

// CreateNotification inserts a new notification row. A unique-constraint
// violation on the dedup backstop maps to router.ErrDuplicate.
func (d *DB) CreateNotification(ctx context.Context, n models.Notification) error {
	query := `
        INSERT INTO notifications (
            id, event_type, event_id, contract_id, contract_name,
            recipient_email, recipient_team, recipient_source, subject,
            body_html, body_text, status, channel, error_message,
            retry_count, created_at
        )
        VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := d.Pool.Exec(ctx, query,
		n.ID, n.EventType, n.EventID, n.ContractID, n.ContractName,
		n.RecipientEmail, n.RecipientTeam, n.RecipientSource, n.Subject,
		n.BodyHTML, n.BodyText, n.Status, n.Channel, n.ErrorMessage,
		n.RetryCount, n.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return router.ErrDuplicate
		}
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// GetNotification fetches one notification by id.
func (d *DB) GetNotification(ctx context.Context, id string) (models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	n, err := scanNotification(d.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Notification{}, dispatch.ErrNotFound
	}
	if err != nil {
		return models.Notification{}, fmt.Errorf("failed to get notification %s: %w", id, err)
	}
	return n, nil
}

// HasRecentNotification reports whether an equivalent notification exists
// inside the dedup window.
func (d *DB) HasRecentNotification(ctx context.Context, eventType, eventID, email string, since time.Time) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM notifications
            WHERE event_type = $1 AND event_id = $2 AND recipient_email = $3
              AND created_at >= $4
        )`
	var exists bool
	if err := d.Pool.QueryRow(ctx, query, eventType, eventID, email, since).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed dedup lookup: %w", err)
	}
	return exists, nil
}

// CountRecentForRecipient counts notifications created for the email at or
// after since.
func (d *DB) CountRecentForRecipient(ctx context.Context, email string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE recipient_email = $1 AND created_at >= $2`
	var count int
	if err := d.Pool.QueryRow(ctx, query, email, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed rate-limit count: %w", err)
	}
	return count, nil
}

// MarkSending claims a pending notification for delivery. Returns false
// when the row was not pending anymore.
func (d *DB) MarkSending(ctx context.Context, id string) (bool, error) {
	query := `UPDATE notifications SET status = 'sending' WHERE id = $1 AND status = 'pending'`
	tag, err := d.Pool.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification %s sending: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkSent records a successful delivery.
func (d *DB) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	query := `UPDATE notifications SET status = 'sent', sent_at = $2, error_message = NULL WHERE id = $1`
	if _, err := d.Pool.Exec(ctx, query, id, sentAt); err != nil {
		return fmt.Errorf("failed to mark notification %s sent: %w", id, err)
	}
	return nil
}

// MarkFailed records a delivery failure and bumps the retry counter.
func (d *DB) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	query := `
        UPDATE notifications
        SET status = 'failed', error_message = $2, retry_count = retry_count + 1
        WHERE id = $1`
	if _, err := d.Pool.Exec(ctx, query, id, errorMessage); err != nil {
		return fmt.Errorf("failed to mark notification %s failed: %w", id, err)
	}
	return nil
}

// ListFailedRetryable returns failed notifications with retry budget left.
func (d *DB) ListFailedRetryable(ctx context.Context, maxRetries int) ([]models.Notification, error) {
	query := `SELECT ` + notificationColumns + `
        FROM notifications
        WHERE status = 'failed' AND retry_count < $1
        ORDER BY created_at`
	return d.queryNotifications(ctx, query, maxRetries)
}

// ResetToPending returns the given notifications to the pending state for
// redelivery.
func (d *DB) ResetToPending(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE notifications SET status = 'pending' WHERE id = ANY($1)`
	if _, err := d.Pool.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("failed to reset notifications to pending: %w", err)
	}
	return nil
}

// ListPendingForRecipient returns a recipient's pending notifications
// created at or after since, newest first.
func (d *DB) ListPendingForRecipient(ctx context.Context, email string, since time.Time) ([]models.Notification, error) {
	query := `SELECT ` + notificationColumns + `
        FROM notifications
        WHERE recipient_email = $1 AND status = 'pending' AND created_at >= $2
        ORDER BY created_at DESC`
	return d.queryNotifications(ctx, query, email, since)
}

// ListNotifications returns a page of a recipient's notifications with
// optional status and event type filters, newest first, plus the total
// count for the filter.
func (d *DB) ListNotifications(ctx context.Context, email, status, eventType string, limit, offset int) ([]models.Notification, int, error) {
	where := `WHERE recipient_email = $1 AND ($2 = '' OR status = $2) AND ($3 = '' OR event_type = $3)`

	var total int
	countQuery := `SELECT COUNT(*) FROM notifications ` + where
	if err := d.Pool.QueryRow(ctx, countQuery, email, status, eventType).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query := `SELECT ` + notificationColumns + `
        FROM notifications ` + where + `
        ORDER BY created_at DESC
        LIMIT $4 OFFSET $5`
	items, err := d.queryNotifications(ctx, query, email, status, eventType, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// MarkRead sets the read timestamp on one notification.
func (d *DB) MarkRead(ctx context.Context, id string, readAt time.Time) error {
	query := `UPDATE notifications SET read_at = $2 WHERE id = $1`
	tag, err := d.Pool.Exec(ctx, query, id, readAt)
	if err != nil {
		return fmt.Errorf("failed to mark notification %s read: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return dispatch.ErrNotFound
	}
	return nil
}

// MarkAllRead sets the read timestamp on all of a recipient's unread
// notifications and returns how many were updated.
func (d *DB) MarkAllRead(ctx context.Context, email string, readAt time.Time) (int, error) {
	query := `UPDATE notifications SET read_at = $2 WHERE recipient_email = $1 AND read_at IS NULL`
	tag, err := d.Pool.Exec(ctx, query, email, readAt)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read for %s: %w", email, err)
	}
	return int(tag.RowsAffected()), nil
}

func (d *DB) queryNotifications(ctx context.Context, query string, args ...any) ([]models.Notification, error) {
	rows, err := d.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (models.Notification, error) {
	var (
		n            models.Notification
		contractID   *string
		errorMessage *string
	)
	err := row.Scan(
		&n.ID, &n.EventType, &n.EventID, &contractID, &n.ContractName,
		&n.RecipientEmail, &n.RecipientTeam, &n.RecipientSource, &n.Subject,
		&n.BodyHTML, &n.BodyText, &n.Status, &n.Channel, &n.SentAt, &n.ReadAt,
		&errorMessage, &n.RetryCount, &n.CreatedAt,
	)
	if err != nil {
		return models.Notification{}, err
	}
	if contractID != nil {
		n.ContractID = *contractID
	}
	if errorMessage != nil {
		n.ErrorMessage = *errorMessage
	}
	return n, nil
}
