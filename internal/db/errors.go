package db

import "errors"

// Domain-level database error sentinels.
var (
	// Snapshot errors
	ErrSnapshotNotFound = errors.New("snapshot not found")
)
