package models

import "time"

// Export format constants
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ExportCount represents a per-export download count by format.
type ExportCount struct {
	Export     string
	Format     string
	Count      int64
	LastSeenAt time.Time
}
