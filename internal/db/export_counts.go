package db

import (
	"context"

	"painel/internal/models"
)

// IncrementExportCount upserts an export download count by format.
func (d *DB) IncrementExportCount(ctx context.Context, export, format string) error {
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO export_counts (export, format, count, last_seen_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (export, format) DO UPDATE
		SET count = export_counts.count + 1, last_seen_at = NOW()
	`, export, format)
	return err
}

// GetAllExportCounts returns all export count rows for metrics export.
func (d *DB) GetAllExportCounts(ctx context.Context) ([]models.ExportCount, error) {
	rows, err := d.Pool.Query(ctx, `SELECT export, format, count, last_seen_at FROM export_counts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []models.ExportCount
	for rows.Next() {
		var c models.ExportCount
		if err := rows.Scan(&c.Export, &c.Format, &c.Count, &c.LastSeenAt); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
