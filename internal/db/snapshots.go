package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"painel/internal/models"
)

// SaveSnapshot archives a fetched deputy listing.
func (d *DB) SaveSnapshot(ctx context.Context, snap *models.DeputySnapshot) error {
	payload, err := json.Marshal(snap.Deputies)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = d.Pool.Exec(ctx, `
		INSERT INTO deputy_snapshots (id, fetched_at, row_count, deputies)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`, snap.ID, snap.FetchedAt, len(snap.Deputies), payload)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recently fetched snapshot.
func (d *DB) LatestSnapshot(ctx context.Context) (*models.DeputySnapshot, error) {
	var snap models.DeputySnapshot
	var payload []byte
	err := d.Pool.QueryRow(ctx, `
		SELECT id, fetched_at, deputies
		FROM deputy_snapshots
		ORDER BY fetched_at DESC
		LIMIT 1
	`).Scan(&snap.ID, &snap.FetchedAt, &payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	if err := json.Unmarshal(payload, &snap.Deputies); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", snap.ID, err)
	}
	return &snap, nil
}

// ListSnapshots returns the newest archived snapshots without their rows.
func (d *DB) ListSnapshots(ctx context.Context, limit int) ([]models.SnapshotSummary, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT id, fetched_at, row_count
		FROM deputy_snapshots
		ORDER BY fetched_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var out []models.SnapshotSummary
	for rows.Next() {
		var s models.SnapshotSummary
		if err := rows.Scan(&s.ID, &s.FetchedAt, &s.RowCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// PruneSnapshots deletes all but the newest keep snapshots and returns how
// many rows were removed.
func (d *DB) PruneSnapshots(ctx context.Context, keep int) (int64, error) {
	tag, err := d.Pool.Exec(ctx, `
		DELETE FROM deputy_snapshots
		WHERE id NOT IN (
			SELECT id FROM deputy_snapshots ORDER BY fetched_at DESC LIMIT $1
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}
