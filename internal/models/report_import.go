package models

import (
	"time"

	"github.com/google/uuid"
)

// ReportImport records one load of the SEO reports source.
type ReportImport struct {
	ID         uuid.UUID `json:"id"`
	Source     string    `json:"source"`
	Parsed     int       `json:"parsed"`
	Skipped    int       `json:"skipped"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
