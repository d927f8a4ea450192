// Package table reshapes deputies and SEO records into gota data frames for
// filtering, ranking, pagination and export.
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

// Deputy frame columns, named after the API fields.
const (
	ColID         = "id"
	ColNome       = "nome"
	ColPartido    = "siglaPartido"
	ColUF         = "siglaUf"
	ColURI        = "uri"
	ColURIPartido = "uriPartido"
	ColFoto       = "urlFoto"
)

var deputyColumns = []string{ColID, ColNome, ColPartido, ColUF, ColURI, ColURIPartido, ColFoto}

// Sort keys accepted by ApplyFilters.
var deputySortKeys = map[string]bool{ColNome: true, ColPartido: true, ColUF: true}

// Deputies is a frame of deputies with every column held as text.
type Deputies struct {
	df dataframe.DataFrame
}

// NewDeputies builds the frame from API rows.
func NewDeputies(rows []models.Deputy) *Deputies {
	cols := make([][]string, len(deputyColumns))
	for i := range cols {
		cols[i] = make([]string, len(rows))
	}
	for r, d := range rows {
		cols[0][r] = formatID(d.ID)
		cols[1][r] = d.Nome
		cols[2][r] = d.SiglaPartido
		cols[3][r] = d.SiglaUF
		cols[4][r] = d.URI
		cols[5][r] = d.URIPartido
		cols[6][r] = d.URLFoto
	}

	s := make([]series.Series, len(deputyColumns))
	for i, name := range deputyColumns {
		s[i] = series.New(cols[i], series.String, name)
	}
	return &Deputies{df: dataframe.New(s...)}
}

// formatID leaves a missing id empty instead of writing "0".
func formatID(id int64) string {
	if id <= 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

// Len returns the number of rows.
func (d *Deputies) Len() int {
	return d.df.Nrow()
}

// Frame exposes the underlying data frame for export.
func (d *Deputies) Frame() dataframe.DataFrame {
	return d.df
}

func (d *Deputies) column(name string) []string {
	if d.df.Nrow() == 0 {
		return nil
	}
	return d.df.Col(name).Records()
}

func (d *Deputies) subset(idx []int) *Deputies {
	return &Deputies{df: d.df.Subset(idx)}
}

// ApplyFilters keeps rows whose party is in parties and whose state is in
// states, ignoring an empty list, then stable-sorts by sortBy. Unknown sort
// keys keep the current order.
func (d *Deputies) ApplyFilters(parties, states []string, sortBy string) *Deputies {
	partySet := toSet(parties)
	stateSet := toSet(states)
	partyCol := d.column(ColPartido)
	stateCol := d.column(ColUF)

	idx := make([]int, 0, d.Len())
	for i := 0; i < d.Len(); i++ {
		if len(partySet) > 0 && !partySet[partyCol[i]] {
			continue
		}
		if len(stateSet) > 0 && !stateSet[stateCol[i]] {
			continue
		}
		idx = append(idx, i)
	}

	if deputySortKeys[sortBy] {
		keys := d.column(sortBy)
		sort.SliceStable(idx, func(a, b int) bool {
			return keys[idx[a]] < keys[idx[b]]
		})
	}
	return d.subset(idx)
}

// Search keeps rows whose name contains term, ignoring case. A blank term
// returns the frame unchanged.
func (d *Deputies) Search(term string) *Deputies {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return d
	}
	names := d.column(ColNome)
	idx := make([]int, 0)
	for i, name := range names {
		if strings.Contains(strings.ToLower(name), term) {
			idx = append(idx, i)
		}
	}
	return d.subset(idx)
}

// Head returns the first n rows.
func (d *Deputies) Head(n int) *Deputies {
	if n >= d.Len() {
		return d
	}
	if n < 0 {
		n = 0
	}
	return d.subset(seq(0, n))
}

// PageInfo describes one page of a paginated table.
type PageInfo struct {
	Page  int
	Size  int
	Pages int
	Total int
	From  int // 1-based index of the first row shown, 0 when empty
	To    int
}

// HasPrev reports whether a previous page exists.
func (p PageInfo) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p PageInfo) HasNext() bool { return p.Page < p.Pages }

// Page returns the rows of the given 1-based page. Out of range pages are
// clamped to the first or last page.
func (d *Deputies) Page(page, size int) (*Deputies, PageInfo) {
	if size <= 0 {
		size = 50
	}
	total := d.Len()
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	page = min(max(page, 1), pages)

	start := (page - 1) * size
	end := min(start+size, total)
	info := PageInfo{Page: page, Size: size, Pages: pages, Total: total}
	if end > start {
		info.From = start + 1
		info.To = end
	}
	return d.subset(seq(start, end)), info
}

// Unique returns the sorted distinct non-empty values of a column.
func (d *Deputies) Unique(column string) []string {
	if !isDeputyColumn(column) {
		return nil
	}
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, v := range d.column(column) {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// CountBy counts rows per value of column, largest first with ties broken by
// label. Percent is the share of the total rounded to one decimal.
func (d *Deputies) CountBy(column string) []models.CountRow {
	if !isDeputyColumn(column) {
		return nil
	}
	counts := make(map[string]int)
	for _, v := range d.column(column) {
		counts[v]++
	}

	rows := make([]models.CountRow, 0, len(counts))
	for label, n := range counts {
		rows = append(rows, models.CountRow{Label: label, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Label < rows[j].Label
	})

	if total := d.Len(); total > 0 {
		for i := range rows {
			rows[i].Percent = round1(float64(rows[i].Count) / float64(total) * 100)
		}
	}
	return rows
}

// KPIs returns the overview numbers. TopParty is "-" when the frame is empty.
func (d *Deputies) KPIs() models.DeputyKPIs {
	kpis := models.DeputyKPIs{
		Total:    d.Len(),
		Parties:  len(d.Unique(ColPartido)),
		States:   len(d.Unique(ColUF)),
		TopParty: "-",
	}
	if ranking := d.CountBy(ColPartido); len(ranking) > 0 {
		kpis.TopParty = ranking[0].Label
		kpis.TopPartyCount = ranking[0].Count
	}
	return kpis
}

// Records converts the frame back into deputies.
func (d *Deputies) Records() []models.Deputy {
	n := d.Len()
	if n == 0 {
		return nil
	}
	cols := make([][]string, len(deputyColumns))
	for i, name := range deputyColumns {
		cols[i] = d.column(name)
	}
	out := make([]models.Deputy, n)
	for r := 0; r < n; r++ {
		id, _ := strconv.ParseInt(cols[0][r], 10, 64)
		out[r] = models.Deputy{
			ID:           id,
			Nome:         cols[1][r],
			SiglaPartido: cols[2][r],
			SiglaUF:      cols[3][r],
			URI:          cols[4][r],
			URIPartido:   cols[5][r],
			URLFoto:      cols[6][r],
		}
	}
	return out
}

// Find returns the deputy with the given id.
func (d *Deputies) Find(id int64) (models.Deputy, bool) {
	key := strconv.FormatInt(id, 10)
	for i, v := range d.column(ColID) {
		if v == key {
			return d.subset([]int{i}).Records()[0], true
		}
	}
	return models.Deputy{}, false
}

// RankingFrame lays out a ranking as a two or three column frame:
// label, Quantidade and optionally Percentual (%).
func RankingFrame(rows []models.CountRow, label string, withPercent bool) dataframe.DataFrame {
	labels := make([]string, len(rows))
	counts := make([]int, len(rows))
	percents := make([]string, len(rows))
	for i, r := range rows {
		labels[i] = r.Label
		counts[i] = r.Count
		percents[i] = strconv.FormatFloat(r.Percent, 'f', 1, 64)
	}

	s := []series.Series{
		series.New(labels, series.String, label),
		series.New(counts, series.Int, "Quantidade"),
	}
	if withPercent {
		s = append(s, series.New(percents, series.String, "Percentual (%)"))
	}
	return dataframe.New(s...)
}

func isDeputyColumn(name string) bool {
	for _, c := range deputyColumns {
		if c == name {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = true
		}
	}
	return set
}

func seq(start, end int) []int {
	idx := make([]int, 0, max(end-start, 0))
	for i := start; i < end; i++ {
		idx = append(idx, i)
	}
	return idx
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
