package models

// CountRow is one line of a ranking table.
type CountRow struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// DeputyKPIs are the headline numbers of the overview tab.
type DeputyKPIs struct {
	Total         int    `json:"total"`
	Parties       int    `json:"parties"`
	States        int    `json:"states"`
	TopParty      string `json:"top_party"`
	TopPartyCount int    `json:"top_party_count"`
}

// SEOKPIs are the headline numbers of the SEO tab.
type SEOKPIs struct {
	Brands          int     `json:"brands"`
	OrganicTraffic  int64   `json:"organic_traffic"`
	OrganicKeywords int64   `json:"organic_keywords"`
	Backlinks       int64   `json:"backlinks"`
	AvgPosition     float64 `json:"avg_position"`
}

// IntentRow is one intent category summed across reports.
type IntentRow struct {
	Intent string `json:"intent"`
	IntentStats
}

// CountryRow is one country share averaged across reports.
type CountryRow struct {
	Country string  `json:"country"`
	Percent float64 `json:"percent"`
}
