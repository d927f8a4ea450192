package models

import (
	"time"

	"github.com/google/uuid"
)

// Deputy is one row of the Chamber of Deputies listing.
type Deputy struct {
	ID           int64  `json:"id"`
	Nome         string `json:"nome"`
	SiglaPartido string `json:"siglaPartido"`
	SiglaUF      string `json:"siglaUf"`
	URI          string `json:"uri"`
	URIPartido   string `json:"uriPartido"`
	URLFoto      string `json:"urlFoto"`
}

// DeputySnapshot is one successful fetch of the full listing.
type DeputySnapshot struct {
	ID        uuid.UUID `json:"id"`
	Deputies  []Deputy  `json:"deputies"`
	FetchedAt time.Time `json:"fetched_at"`
}

// IsEmpty reports whether the snapshot carries no rows.
func (s *DeputySnapshot) IsEmpty() bool {
	return s == nil || len(s.Deputies) == 0
}

// SnapshotSummary describes an archived snapshot without its rows.
type SnapshotSummary struct {
	ID        uuid.UUID `json:"id"`
	FetchedAt time.Time `json:"fetched_at"`
	RowCount  int       `json:"row_count"`
}
