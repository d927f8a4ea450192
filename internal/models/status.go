package models

import "time"

// Data source status constants, shown as the sidebar badge.
const (
	SourceAPI        = "api"
	SourceCache      = "cache"
	SourceCacheStale = "cache_stale"
	SourceError      = "error"
)

// DeputyResult is what the dashboard receives from the deputy cache.
type DeputyResult struct {
	Deputies  []Deputy
	Source    string
	FetchedAt time.Time // zero when nothing was ever fetched
	Err       error     // last refresh error, set for cache_stale and error
}

// HasData reports whether there are rows to show.
func (r DeputyResult) HasData() bool {
	return len(r.Deputies) > 0
}
