package models

import "time"

// Canonical keyword intent categories.
const (
	IntentInformational = "Informacional"
	IntentNavigational  = "Navegacional"
	IntentCommercial    = "Comercial"
	IntentTransactional = "Transacional"
)

// IntentStats holds the keyword count, traffic and share of one intent.
type IntentStats struct {
	Count      int64   `json:"count"`
	Traffic    int64   `json:"traffic"`
	Percentage float64 `json:"percentage"`
}

// KeywordRow is one entry of a report's top keywords table.
type KeywordRow struct {
	Keyword string `json:"keyword"`
	Volume  int64  `json:"volume"`
	Traffic int64  `json:"traffic"`
}

// SEOMetrics is the structured form of one SEO analysis report.
type SEOMetrics struct {
	Group            string                 `json:"group"`
	Brand            string                 `json:"brand"`
	Domain           string                 `json:"domain"`
	OrganicTraffic   int64                  `json:"organic_traffic"`
	OrganicKeywords  int64                  `json:"organic_keywords"`
	PaidKeywords     int64                  `json:"paid_keywords"`
	Backlinks        int64                  `json:"backlinks"`
	ReferringDomains int64                  `json:"referring_domains"`
	AvgPosition      float64                `json:"avg_position"`
	Intents          map[string]IntentStats `json:"intents"`
	Countries        map[string]float64     `json:"countries"`
	TopKeywords      []KeywordRow           `json:"top_keywords"`
	SourceFile       string                 `json:"source_file"`
}

// SkippedFile records a report that produced no metrics and why.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// ReportSet is the result of one pass over the reports source.
type ReportSet struct {
	Records  []SEOMetrics
	Skipped  []SkippedFile
	LoadedAt time.Time
}
