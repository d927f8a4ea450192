package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"painel/internal/models"
)

// RecordReportImport stores the summary of one reports load.
func (d *DB) RecordReportImport(ctx context.Context, imp *models.ReportImport) error {
	if imp.ID == uuid.Nil {
		imp.ID = uuid.New()
	}
	err := d.Pool.QueryRow(ctx, `
		INSERT INTO report_imports (id, source, parsed, skipped, duration_ms)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, imp.ID, imp.Source, imp.Parsed, imp.Skipped, imp.DurationMS).Scan(&imp.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record report import: %w", err)
	}
	return nil
}

// ListReportImports returns the newest report loads first.
func (d *DB) ListReportImports(ctx context.Context, limit int) ([]models.ReportImport, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT id, source, parsed, skipped, duration_ms, created_at
		FROM report_imports
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list report imports: %w", err)
	}
	defer rows.Close()

	var imports []models.ReportImport
	for rows.Next() {
		var imp models.ReportImport
		if err := rows.Scan(&imp.ID, &imp.Source, &imp.Parsed, &imp.Skipped, &imp.DurationMS, &imp.CreatedAt); err != nil {
			return nil, err
		}
		imports = append(imports, imp)
	}
	return imports, rows.Err()
}
