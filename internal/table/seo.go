package table

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"painel/internal/models"
)

// SEO sort keys.
const (
	SortTraffic   = "trafego"
	SortBrand     = "marca"
	SortBacklinks = "backlinks"
)

var intentOrder = []string{
	models.IntentInformational,
	models.IntentNavigational,
	models.IntentCommercial,
	models.IntentTransactional,
}

// SEO holds the parsed report records in display order.
type SEO struct {
	records []models.SEOMetrics
}

// NewSEO wraps records without copying them.
func NewSEO(records []models.SEOMetrics) *SEO {
	return &SEO{records: records}
}

// Len returns the number of records.
func (s *SEO) Len() int {
	return len(s.records)
}

// Records returns the records in their current order.
func (s *SEO) Records() []models.SEOMetrics {
	return s.records
}

// Groups returns the distinct groups, sorted.
func (s *SEO) Groups() []string {
	return s.unique(func(m models.SEOMetrics) string { return m.Group })
}

// Brands returns the distinct brands, sorted.
func (s *SEO) Brands() []string {
	return s.unique(func(m models.SEOMetrics) string { return m.Brand })
}

func (s *SEO) unique(key func(models.SEOMetrics) string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, m := range s.records {
		v := key(m)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Columns of the working frames. "linha" points back at the record.
const (
	colRow       = "linha"
	colGroup     = "grupo"
	colBrand     = "marca"
	colBrandKey  = "marca_chave"
	colTraffic   = "trafego"
	colKeywords  = "palavras"
	colBacklinks = "backlinks"
	colPosition  = "posicao"
	colIntent    = "intencao"
	colCountry   = "pais"
	colPercent   = "percentual"
	colKeyword   = "chave"
	colVolume    = "volume"
)

// frame lays out one row per record with the columns used to filter, sort
// and total them.
func (s *SEO) frame() dataframe.DataFrame {
	n := len(s.records)
	rows := make([]int, n)
	groups := make([]string, n)
	brands := make([]string, n)
	keys := make([]string, n)
	traffic := make([]int, n)
	keywords := make([]int, n)
	backlinks := make([]int, n)
	positions := make([]float64, n)
	for i, m := range s.records {
		rows[i] = i
		groups[i] = m.Group
		brands[i] = m.Brand
		keys[i] = strings.ToLower(m.Brand)
		traffic[i] = int(m.OrganicTraffic)
		keywords[i] = int(m.OrganicKeywords)
		backlinks[i] = int(m.Backlinks)
		positions[i] = m.AvgPosition
	}
	return dataframe.New(
		series.New(rows, series.Int, colRow),
		series.New(groups, series.String, colGroup),
		series.New(brands, series.String, colBrand),
		series.New(keys, series.String, colBrandKey),
		series.New(traffic, series.Int, colTraffic),
		series.New(keywords, series.Int, colKeywords),
		series.New(backlinks, series.Int, colBacklinks),
		series.New(positions, series.Float, colPosition),
	)
}

// pick returns the records a frame's "linha" column points at, in frame order.
func (s *SEO) pick(df dataframe.DataFrame) []models.SEOMetrics {
	out := make([]models.SEOMetrics, 0, df.Nrow())
	if df.Err != nil || df.Nrow() == 0 {
		return out
	}
	idx, err := df.Col(colRow).Int()
	if err != nil {
		return out
	}
	for _, i := range idx {
		out = append(out, s.records[i])
	}
	return out
}

// ApplyFilters keeps records in groups and brands (empty lists match all) and
// sorts them by sortBy. Traffic is the default order, largest first.
func (s *SEO) ApplyFilters(groups, brands []string, sortBy string) *SEO {
	df := s.frame()

	var where []dataframe.F
	if len(groups) > 0 {
		where = append(where, dataframe.F{Colname: colGroup, Comparator: series.In, Comparando: groups})
	}
	if len(brands) > 0 {
		where = append(where, dataframe.F{Colname: colBrand, Comparator: series.In, Comparando: brands})
	}
	if len(where) > 0 {
		df = df.FilterAggregation(dataframe.And, where...)
	}

	switch sortBy {
	case SortBrand:
		df = df.Arrange(dataframe.Sort(colBrandKey))
	case SortBacklinks:
		df = df.Arrange(dataframe.RevSort(colBacklinks))
	default:
		df = df.Arrange(dataframe.RevSort(colTraffic))
	}
	return &SEO{records: s.pick(df)}
}

// KPIs sums traffic, keywords and backlinks and averages the ranking position
// over records that report one.
func (s *SEO) KPIs() models.SEOKPIs {
	kpis := models.SEOKPIs{Brands: len(s.Brands())}
	if len(s.records) == 0 {
		return kpis
	}
	df := s.frame()
	kpis.OrganicTraffic = sumInt(df.Col(colTraffic))
	kpis.OrganicKeywords = sumInt(df.Col(colKeywords))
	kpis.Backlinks = sumInt(df.Col(colBacklinks))

	ranked := df.Filter(dataframe.F{Colname: colPosition, Comparator: series.Greater, Comparando: 0.0})
	if ranked.Err == nil && ranked.Nrow() > 0 {
		kpis.AvgPosition = round1(ranked.Col(colPosition).Mean())
	}
	return kpis
}

func sumInt(s series.Series) int64 {
	return int64(math.Round(s.Sum()))
}

// Intents sums keyword counts and traffic per intent across records and
// recomputes each share over the summed traffic, or over the keyword count
// when no traffic was reported.
func (s *SEO) Intents() []models.IntentRow {
	var names []string
	var counts, traffic []int
	for _, m := range s.records {
		for name, st := range m.Intents {
			names = append(names, name)
			counts = append(counts, int(st.Count))
			traffic = append(traffic, int(st.Traffic))
		}
	}
	if len(names) == 0 {
		return []models.IntentRow{}
	}

	long := dataframe.New(
		series.New(names, series.String, colIntent),
		series.New(counts, series.Int, colKeywords),
		series.New(traffic, series.Int, colTraffic),
	)
	summed := long.GroupBy(colIntent).Aggregation(
		[]dataframe.AggregationType{dataframe.Aggregation_SUM, dataframe.Aggregation_SUM},
		[]string{colKeywords, colTraffic},
	)
	if summed.Err != nil {
		return []models.IntentRow{}
	}

	totals := make(map[string]models.IntentStats, summed.Nrow())
	var totalTraffic, totalCount int64
	intents := summed.Col(colIntent).Records()
	countSums := summed.Col(colKeywords + "_SUM").Float()
	trafficSums := summed.Col(colTraffic + "_SUM").Float()
	for i, name := range intents {
		st := models.IntentStats{Count: int64(math.Round(countSums[i])), Traffic: int64(math.Round(trafficSums[i]))}
		totals[name] = st
		totalTraffic += st.Traffic
		totalCount += st.Count
	}

	rows := make([]models.IntentRow, 0, len(totals))
	for _, name := range intentNames(totals) {
		st := totals[name]
		switch {
		case totalTraffic > 0:
			st.Percentage = round1(float64(st.Traffic) / float64(totalTraffic) * 100)
		case totalCount > 0:
			st.Percentage = round1(float64(st.Count) / float64(totalCount) * 100)
		}
		rows = append(rows, models.IntentRow{Intent: name, IntentStats: st})
	}
	return rows
}

// intentNames lists the canonical intents first, then any others by name.
func intentNames(totals map[string]models.IntentStats) []string {
	names := make([]string, 0, len(totals))
	known := make(map[string]bool, len(intentOrder))
	for _, name := range intentOrder {
		known[name] = true
		if _, ok := totals[name]; ok {
			names = append(names, name)
		}
	}
	extra := make([]string, 0)
	for name := range totals {
		if !known[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// Countries averages each country's share over the records that list it,
// largest share first.
func (s *SEO) Countries() []models.CountryRow {
	var countries []string
	var percents []float64
	for _, m := range s.records {
		for country, pct := range m.Countries {
			countries = append(countries, country)
			percents = append(percents, pct)
		}
	}
	if len(countries) == 0 {
		return []models.CountryRow{}
	}

	long := dataframe.New(
		series.New(countries, series.String, colCountry),
		series.New(percents, series.Float, colPercent),
	)
	mean := colPercent + "_MEAN"
	avg := long.GroupBy(colCountry).
		Aggregation([]dataframe.AggregationType{dataframe.Aggregation_MEAN}, []string{colPercent}).
		Arrange(dataframe.RevSort(mean), dataframe.Sort(colCountry))
	if avg.Err != nil {
		return []models.CountryRow{}
	}

	names := avg.Col(colCountry).Records()
	values := avg.Col(mean).Float()
	rows := make([]models.CountryRow, len(names))
	for i, name := range names {
		rows[i] = models.CountryRow{Country: name, Percent: round1(values[i])}
	}
	return rows
}

// TopKeywords merges keywords across records, case-insensitively, summing
// traffic and keeping the largest search volume. The first spelling seen is
// shown. limit <= 0 returns all.
func (s *SEO) TopKeywords(limit int) []models.KeywordRow {
	var keys, spelling []string
	var order, volumes, traffic []int
	first := make(map[string]int)
	for _, m := range s.records {
		for _, kw := range m.TopKeywords {
			text := strings.TrimSpace(kw.Keyword)
			key := strings.ToLower(text)
			if key == "" {
				continue
			}
			if _, ok := first[key]; !ok {
				first[key] = len(spelling)
				spelling = append(spelling, text)
			}
			keys = append(keys, key)
			order = append(order, first[key])
			volumes = append(volumes, int(kw.Volume))
			traffic = append(traffic, int(kw.Traffic))
		}
	}
	if len(keys) == 0 {
		return []models.KeywordRow{}
	}

	long := dataframe.New(
		series.New(keys, series.String, colKeyword),
		series.New(order, series.Int, colRow),
		series.New(volumes, series.Int, colVolume),
		series.New(traffic, series.Int, colTraffic),
	)
	summed := colTraffic + "_SUM"
	merged := long.GroupBy(colKeyword).
		Aggregation(
			[]dataframe.AggregationType{dataframe.Aggregation_SUM, dataframe.Aggregation_MAX, dataframe.Aggregation_MIN},
			[]string{colTraffic, colVolume, colRow},
		).
		Arrange(dataframe.RevSort(summed), dataframe.Sort(colKeyword))
	if merged.Err != nil {
		return []models.KeywordRow{}
	}

	n := merged.Nrow()
	if limit > 0 && n > limit {
		n = limit
	}
	firstSeen := merged.Col(colRow + "_MIN").Float()
	maxVolume := merged.Col(colVolume + "_MAX").Float()
	sums := merged.Col(summed).Float()
	rows := make([]models.KeywordRow, n)
	for i := range rows {
		rows[i] = models.KeywordRow{
			Keyword: spelling[int(firstSeen[i])],
			Volume:  int64(math.Round(maxVolume[i])),
			Traffic: int64(math.Round(sums[i])),
		}
	}
	return rows
}

// MetricsFrame lays out one row per report with the flat metric columns.
func (s *SEO) MetricsFrame() dataframe.DataFrame {
	n := len(s.records)
	groups := make([]string, n)
	brands := make([]string, n)
	domains := make([]string, n)
	traffic := make([]int, n)
	organic := make([]int, n)
	paid := make([]int, n)
	backlinks := make([]int, n)
	referring := make([]int, n)
	positions := make([]string, n)
	for i, m := range s.records {
		groups[i] = m.Group
		brands[i] = m.Brand
		domains[i] = m.Domain
		traffic[i] = int(m.OrganicTraffic)
		organic[i] = int(m.OrganicKeywords)
		paid[i] = int(m.PaidKeywords)
		backlinks[i] = int(m.Backlinks)
		referring[i] = int(m.ReferringDomains)
		positions[i] = strconv.FormatFloat(m.AvgPosition, 'f', 1, 64)
	}

	return dataframe.New(
		series.New(groups, series.String, "Grupo"),
		series.New(brands, series.String, "Marca"),
		series.New(domains, series.String, "Domínio"),
		series.New(traffic, series.Int, "Tráfego Orgânico"),
		series.New(organic, series.Int, "Palavras Orgânicas"),
		series.New(paid, series.Int, "Palavras Pagas"),
		series.New(backlinks, series.Int, "Backlinks"),
		series.New(referring, series.Int, "Domínios de Referência"),
		series.New(positions, series.String, "Posição Média"),
	)
}

// IntentsFrame lays out the summed intents.
func (s *SEO) IntentsFrame() dataframe.DataFrame {
	rows := s.Intents()
	names := make([]string, len(rows))
	counts := make([]int, len(rows))
	traffic := make([]int, len(rows))
	percents := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Intent
		counts[i] = int(r.Count)
		traffic[i] = int(r.Traffic)
		percents[i] = strconv.FormatFloat(r.Percentage, 'f', 1, 64)
	}
	return dataframe.New(
		series.New(names, series.String, "Intenção"),
		series.New(counts, series.Int, "Palavras-chave"),
		series.New(traffic, series.Int, "Tráfego"),
		series.New(percents, series.String, "Percentual (%)"),
	)
}

// CountriesFrame lays out the averaged country shares.
func (s *SEO) CountriesFrame() dataframe.DataFrame {
	rows := s.Countries()
	names := make([]string, len(rows))
	percents := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Country
		percents[i] = strconv.FormatFloat(r.Percent, 'f', 1, 64)
	}
	return dataframe.New(
		series.New(names, series.String, "País"),
		series.New(percents, series.String, "Percentual (%)"),
	)
}

// KeywordsFrame lays out the merged top keywords.
func (s *SEO) KeywordsFrame(limit int) dataframe.DataFrame {
	rows := s.TopKeywords(limit)
	keywords := make([]string, len(rows))
	volumes := make([]int, len(rows))
	traffic := make([]int, len(rows))
	for i, r := range rows {
		keywords[i] = r.Keyword
		volumes[i] = int(r.Volume)
		traffic[i] = int(r.Traffic)
	}
	return dataframe.New(
		series.New(keywords, series.String, "Palavra-chave"),
		series.New(volumes, series.Int, "Volume de Busca"),
		series.New(traffic, series.Int, "Tráfego"),
	)
}
