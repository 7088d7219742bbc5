package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"datapact/internal/dispatch"
	"datapact/internal/models"
)

const watcherColumns = `
        id, contract_id, contract_name, publisher_team, tag,
        watcher_email, watcher_team, watch_schema_drift, watch_quality_breach,
        watch_contract_updated, watch_deprecation, watch_pr_blocked,
        is_active, notify_on_warning, reason, created_at, updated_at`

// CreateWatcher inserts a watcher registration.
func (d *DB) CreateWatcher(ctx context.Context, w models.Watcher) error {
	query := `
        INSERT INTO watchers (
            id, contract_id, contract_name, publisher_team, tag,
            watcher_email, watcher_team, watch_schema_drift, watch_quality_breach,
            watch_contract_updated, watch_deprecation, watch_pr_blocked,
            is_active, notify_on_warning, reason, created_at, updated_at
        )
        VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''),
                $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := d.Pool.Exec(ctx, query,
		w.ID, w.ContractID, w.ContractName, w.PublisherTeam, w.Tag,
		w.WatcherEmail, w.WatcherTeam, w.WatchSchemaDrift, w.WatchQualityBreach,
		w.WatchContractUpdated, w.WatchDeprecation, w.WatchPRBlocked,
		w.IsActive, w.NotifyOnWarning, w.Reason, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	return nil
}

// GetWatcher fetches one watcher by id.
func (d *DB) GetWatcher(ctx context.Context, id string) (models.Watcher, error) {
	query := `SELECT ` + watcherColumns + ` FROM watchers WHERE id = $1`
	w, err := scanWatcher(d.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Watcher{}, dispatch.ErrNotFound
	}
	if err != nil {
		return models.Watcher{}, fmt.Errorf("failed to get watcher %s: %w", id, err)
	}
	return w, nil
}

// ListWatchersByEmail returns all of one user's watcher registrations.
func (d *DB) ListWatchersByEmail(ctx context.Context, email string) ([]models.Watcher, error) {
	query := `SELECT ` + watcherColumns + ` FROM watchers WHERE watcher_email = $1 ORDER BY created_at`
	return d.queryWatchers(ctx, query, email)
}

// ListMatching returns active watchers whose target matches any of the
// given identifiers, plus global watchers with no target at all. Rows come
// back in creation order so resolution is deterministic.
func (d *DB) ListMatching(ctx context.Context, contractID, contractName, publisherTeam string) ([]models.Watcher, error) {
	query := `SELECT ` + watcherColumns + `
        FROM watchers
        WHERE is_active = TRUE
          AND (
              ($1 <> '' AND contract_id = $1)
              OR ($2 <> '' AND contract_name = $2)
              OR ($3 <> '' AND publisher_team = $3)
              OR (contract_id IS NULL AND contract_name IS NULL
                  AND publisher_team IS NULL AND tag IS NULL)
          )
        ORDER BY created_at`
	return d.queryWatchers(ctx, query, contractID, contractName, publisherTeam)
}

// UpdateWatcher rewrites a watcher's mutable fields.
func (d *DB) UpdateWatcher(ctx context.Context, w models.Watcher) error {
	query := `
        UPDATE watchers
        SET contract_id = NULLIF($2, ''), contract_name = NULLIF($3, ''),
            publisher_team = NULLIF($4, ''), tag = NULLIF($5, ''),
            watcher_team = $6, watch_schema_drift = $7, watch_quality_breach = $8,
            watch_contract_updated = $9, watch_deprecation = $10, watch_pr_blocked = $11,
            is_active = $12, notify_on_warning = $13, reason = $14, updated_at = $15
        WHERE id = $1`
	tag, err := d.Pool.Exec(ctx, query,
		w.ID, w.ContractID, w.ContractName, w.PublisherTeam, w.Tag,
		w.WatcherTeam, w.WatchSchemaDrift, w.WatchQualityBreach,
		w.WatchContractUpdated, w.WatchDeprecation, w.WatchPRBlocked,
		w.IsActive, w.NotifyOnWarning, w.Reason, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update watcher %s: %w", w.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return dispatch.ErrNotFound
	}
	return nil
}

// DeleteWatcher removes a watcher registration.
func (d *DB) DeleteWatcher(ctx context.Context, id string) error {
	tag, err := d.Pool.Exec(ctx, `DELETE FROM watchers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete watcher %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return dispatch.ErrNotFound
	}
	return nil
}

func (d *DB) queryWatchers(ctx context.Context, query string, args ...any) ([]models.Watcher, error) {
	rows, err := d.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchers: %w", err)
	}
	defer rows.Close()

	var out []models.Watcher
	for rows.Next() {
		w, err := scanWatcher(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watcher: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func scanWatcher(row rowScanner) (models.Watcher, error) {
	var (
		w                                   models.Watcher
		contractID, contractName, team, tag *string
		reason                              *string
	)
	err := row.Scan(
		&w.ID, &contractID, &contractName, &team, &tag,
		&w.WatcherEmail, &w.WatcherTeam, &w.WatchSchemaDrift, &w.WatchQualityBreach,
		&w.WatchContractUpdated, &w.WatchDeprecation, &w.WatchPRBlocked,
		&w.IsActive, &w.NotifyOnWarning, &reason, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return models.Watcher{}, err
	}
	if contractID != nil {
		w.ContractID = *contractID
	}
	if contractName != nil {
		w.ContractName = *contractName
	}
	if team != nil {
		w.PublisherTeam = *team
	}
	if tag != nil {
		w.Tag = *tag
	}
	if reason != nil {
		w.Reason = *reason
	}
	return w, nil
}
