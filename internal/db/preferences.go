package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"datapact/internal/dispatch"
	"datapact/internal/models"
)

const preferenceColumns = `
        email, team, email_enabled, slack_enabled, schema_drift_enabled,
        quality_breach_enabled, pr_blocked_enabled, contract_updated_enabled,
        deprecation_warning_enabled, digest_enabled, digest_frequency,
        preferred_channel, max_notifications_per_hour, created_at, updated_at`

// GetPreferences returns the stored preference rows for the given emails,
// keyed by email. Emails without a row are simply absent from the map.
func (d *DB) GetPreferences(ctx context.Context, emails []string) (map[string]models.NotificationPreference, error) {
	if len(emails) == 0 {
		return map[string]models.NotificationPreference{}, nil
	}

	query := `SELECT ` + preferenceColumns + ` FROM notification_preferences WHERE email = ANY($1)`
	rows, err := d.Pool.Query(ctx, query, emails)
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.NotificationPreference)
	for rows.Next() {
		p, err := scanPreference(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		out[p.Email] = p
	}
	return out, rows.Err()
}

// GetPreference fetches one email's preference row.
func (d *DB) GetPreference(ctx context.Context, email string) (models.NotificationPreference, error) {
	query := `SELECT ` + preferenceColumns + ` FROM notification_preferences WHERE email = $1`
	p, err := scanPreference(d.Pool.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NotificationPreference{}, dispatch.ErrNotFound
	}
	if err != nil {
		return models.NotificationPreference{}, fmt.Errorf("failed to get preference for %s: %w", email, err)
	}
	return p, nil
}

// UpsertPreference creates or replaces an email's preference row.
func (d *DB) UpsertPreference(ctx context.Context, p models.NotificationPreference) error {
	query := `
        INSERT INTO notification_preferences (
            email, team, email_enabled, slack_enabled, schema_drift_enabled,
            quality_breach_enabled, pr_blocked_enabled, contract_updated_enabled,
            deprecation_warning_enabled, digest_enabled, digest_frequency,
            preferred_channel, max_notifications_per_hour, created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        ON CONFLICT (email) DO UPDATE SET
            team = EXCLUDED.team,
            email_enabled = EXCLUDED.email_enabled,
            slack_enabled = EXCLUDED.slack_enabled,
            schema_drift_enabled = EXCLUDED.schema_drift_enabled,
            quality_breach_enabled = EXCLUDED.quality_breach_enabled,
            pr_blocked_enabled = EXCLUDED.pr_blocked_enabled,
            contract_updated_enabled = EXCLUDED.contract_updated_enabled,
            deprecation_warning_enabled = EXCLUDED.deprecation_warning_enabled,
            digest_enabled = EXCLUDED.digest_enabled,
            digest_frequency = EXCLUDED.digest_frequency,
            preferred_channel = EXCLUDED.preferred_channel,
            max_notifications_per_hour = EXCLUDED.max_notifications_per_hour,
            updated_at = EXCLUDED.updated_at`
	_, err := d.Pool.Exec(ctx, query,
		p.Email, p.Team, p.EmailEnabled, p.SlackEnabled, p.SchemaDriftEnabled,
		p.QualityBreachEnabled, p.PRBlockedEnabled, p.ContractUpdatedEnabled,
		p.DeprecationWarningEnabled, p.DigestEnabled, p.DigestFrequency,
		p.PreferredChannel, p.MaxNotificationsPerHour, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert preference for %s: %w", p.Email, err)
	}
	return nil
}

func scanPreference(row rowScanner) (models.NotificationPreference, error) {
	var (
		p       models.NotificationPreference
		team    *string
		freq    *string
		channel *string
	)
	err := row.Scan(
		&p.Email, &team, &p.EmailEnabled, &p.SlackEnabled, &p.SchemaDriftEnabled,
		&p.QualityBreachEnabled, &p.PRBlockedEnabled, &p.ContractUpdatedEnabled,
		&p.DeprecationWarningEnabled, &p.DigestEnabled, &freq, &channel,
		&p.MaxNotificationsPerHour, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return models.NotificationPreference{}, err
	}
	if team != nil {
		p.Team = *team
	}
	if freq != nil {
		p.DigestFrequency = *freq
	}
	if channel != nil {
		p.PreferredChannel = *channel
	}
	return p, nil
}
