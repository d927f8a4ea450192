// Package seo turns narrative SEO analysis reports into structured metrics.
package seo

import (
	"errors"
	"math"
	"regexp"
	"strings"

	"painel/internal/models"
)

var (
	// ErrEmptyContent is returned when a report has no narrative text.
	ErrEmptyContent = errors.New("report has no content")
	// ErrNoMetrics is returned when none of the headline metrics is found.
	ErrNoMetrics = errors.New("no metrics found in report content")
)

// Report is one decoded report file.
type Report struct {
	Path    string
	Group   string
	Brand   string
	Domain  string
	Date    string
	Content string
}

// Aliases resolves report labels to canonical names.
type Aliases interface {
	IntentAlias(label string) (string, bool)
	CountryAlias(label string) string
}

// Extractor recovers metrics from the "conteudo" text of a report.
type Extractor struct {
	aliases Aliases
}

// NewExtractor creates an extractor that canonicalizes labels with aliases.
func NewExtractor(aliases Aliases) *Extractor {
	return &Extractor{aliases: aliases}
}

type scalarMetric struct {
	colon  *regexp.Regexp
	before *regexp.Regexp
	after  *regexp.Regexp
	set    func(m *models.SEOMetrics, raw string) error
}

// Labels of the headline metrics. A number right after one of them belongs
// to that metric, not to the label before it.
const (
	trafficLabel     = `tr[áa]fego\s+org[âa]nico`
	organicLabel     = `(?:palavras[- ]chave|keywords)\s+org[âa]nicas`
	paidLabel        = `(?:palavras[- ]chave|keywords)\s+pagas`
	backlinksLabel   = `backlinks`
	referringLabel   = `dom[íi]nios\s+(?:de\s+refer[êe]ncia|referentes)`
	avgPositionLabel = `posi[çc][ãa]o\s+m[ée]dia`
)

var (
	nextLabelRe = regexp.MustCompile(`(?i)^\s*(?:de\s+)?(?:` + strings.Join([]string{
		trafficLabel, organicLabel, paidLabel, backlinksLabel, referringLabel, avgPositionLabel,
	}, "|") + `)`)
	clauseBreakRe = regexp.MustCompile(`(?i)[.;]|\s(?:e|and|mas|enquanto)\s`)
)

// newScalarMetric builds the three lookups for a metric label, tried in order:
// "label ...: N", then "N (de) label", then a label followed closely by a
// number in the same clause.
func newScalarMetric(label string, set func(*models.SEOMetrics, string) error) scalarMetric {
	return scalarMetric{
		colon:  regexp.MustCompile(`(?i)` + label + `[^:\n]{0,40}:\s*` + numberPattern),
		before: regexp.MustCompile(`(?i)` + numberPattern + `\s+(?:de\s+)?` + label),
		after:  regexp.MustCompile(`(?i)` + label + `([^\d\n:]{0,40}?)` + numberPattern),
		set:    set,
	}
}

// candidates returns the raw numbers found for the metric, best match first.
func (s scalarMetric) candidates(content string) []string {
	var out []string
	if m := s.colon.FindStringSubmatch(content); m != nil {
		out = append(out, m[1])
	}
	if m := s.before.FindStringSubmatch(content); m != nil {
		out = append(out, m[1])
	}
	for _, idx := range s.after.FindAllStringSubmatchIndex(content, -1) {
		gap := content[idx[2]:idx[3]]
		if clauseBreakRe.MatchString(gap) {
			continue
		}
		// "backlinks vindos de 300 domínios": 300 is the next metric's value.
		if nextLabelRe.MatchString(content[idx[5]:]) {
			continue
		}
		out = append(out, content[idx[4]:idx[5]])
		break
	}
	return out
}

func setInt(field func(m *models.SEOMetrics) *int64) func(*models.SEOMetrics, string) error {
	return func(m *models.SEOMetrics, raw string) error {
		v, err := ParseInt(raw)
		if err != nil {
			return err
		}
		*field(m) = v
		return nil
	}
}

var scalarMetrics = []scalarMetric{
	newScalarMetric(trafficLabel, setInt(func(m *models.SEOMetrics) *int64 { return &m.OrganicTraffic })),
	newScalarMetric(organicLabel, setInt(func(m *models.SEOMetrics) *int64 { return &m.OrganicKeywords })),
	newScalarMetric(paidLabel, setInt(func(m *models.SEOMetrics) *int64 { return &m.PaidKeywords })),
	newScalarMetric(backlinksLabel, setInt(func(m *models.SEOMetrics) *int64 { return &m.Backlinks })),
	newScalarMetric(referringLabel, setInt(func(m *models.SEOMetrics) *int64 { return &m.ReferringDomains })),
	newScalarMetric(avgPositionLabel, func(m *models.SEOMetrics, raw string) error {
		v, err := ParseNumber(raw)
		if err != nil {
			return err
		}
		m.AvgPosition = v
		return nil
	}),
}

var (
	brandRe  = regexp.MustCompile(`(?im)^[\s#*•-]*marca\s*:\s*(.+?)\s*$`)
	domainRe = regexp.MustCompile(`(?i)dom[íi]nio(?:\s+(?:analisado|principal|do\s+site))?\s*:\s*(?:https?://)?(?:www\.)?([a-z0-9][a-z0-9.-]*\.[a-z]{2,})`)

	intentHeaderRe  = regexp.MustCompile(`(?i)inten[çc](?:ão|ao|ões|oes)`)
	countryHeaderRe = regexp.MustCompile(`(?i)pa[íi]s(?:es)?\b|geogr[áa]f`)
	keywordHeaderRe = regexp.MustCompile(`(?i)(?:principais|top|melhores)\s+(?:\d+\s+)?(?:palavras|keywords|termos)|^[#\s]*(?:palavras[- ]chave|keywords|termos)\s*(?:(?:com|por|mais|que)\s.*)?:?$`)

	totalRowRe     = regexp.MustCompile(`(?i)^(?:total|soma|sum)\b`)
	inlineIntentRe = regexp.MustCompile(`^(\p{L}+(?:\s+\p{L}+)?)\s*(\(.*|\d.*)$`)

	keywordColRe = regexp.MustCompile(`(?i)palavra|keyword|termo|consulta`)
	volumeColRe  = regexp.MustCompile(`(?i)volume|buscas|pesquisas`)
	trafficColRe = regexp.MustCompile(`(?i)tr[áa]fego|visitas|cliques`)

	bulletRe    = regexp.MustCompile(`^\s*(?:[-*•+]|\d+[.)º])\s+`)
	separatorRe = regexp.MustCompile(`^:?-{2,}:?$`)
	parenRe     = regexp.MustCompile(`\s*\([^)]*\)`)
	numberRe    = regexp.MustCompile(`(?i)` + numberPattern)
	percentRe   = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%`)

	intentCountRe   = regexp.MustCompile(`(?i)` + numberPattern + `\s*(?:palavras|keywords|termos|consultas)`)
	intentTrafficRe = regexp.MustCompile(`(?i)` + numberPattern + `\s*(?:de\s+)?(?:tr[áa]fego|visitas|acessos|cliques)`)
	trafficLabelRe  = regexp.MustCompile(`(?i)tr[áa]fego[^\d\n]{0,15}?` + numberPattern)
	volumeLabelRe   = regexp.MustCompile(`(?i)volume[^\d\n]{0,15}?` + numberPattern)
)

type section int

const (
	sectionNone section = iota
	sectionIntents
	sectionCountries
	sectionKeywords
)

// Extract parses one report. The report's own group, brand and domain fields
// take precedence over values found in the text.
func (e *Extractor) Extract(r Report) (*models.SEOMetrics, error) {
	content := normalizeContent(r.Content)
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	m := &models.SEOMetrics{
		Group:      strings.TrimSpace(r.Group),
		Brand:      strings.TrimSpace(r.Brand),
		Domain:     strings.ToLower(strings.TrimSpace(r.Domain)),
		SourceFile: r.Path,
		Intents:    make(map[string]models.IntentStats),
		Countries:  make(map[string]float64),
	}
	if m.Brand == "" {
		if match := brandRe.FindStringSubmatch(content); match != nil {
			m.Brand = match[1]
		}
	}
	if m.Domain == "" {
		if match := domainRe.FindStringSubmatch(content); match != nil {
			m.Domain = strings.ToLower(match[1])
		}
	}

	found := 0
	for _, metric := range scalarMetrics {
		for _, raw := range metric.candidates(content) {
			if err := metric.set(m, raw); err == nil {
				found++
				break
			}
		}
	}
	if found == 0 {
		return nil, ErrNoMetrics
	}

	e.parseSections(content, m)
	fillIntentPercentages(m.Intents)

	return m, nil
}

func normalizeContent(s string) string {
	return strings.NewReplacer(
		"\r\n", "\n",
		"\r", "\n",
		"\u00a0", " ",
		"\u202f", " ",
		"\t", " ",
		"**", "",
		"__", "",
	).Replace(joinDigitGroups(s))
}

// parseSections walks the text line by line. Intent lines are recognized
// anywhere; country and keyword lines only under their headers.
func (e *Extractor) parseSections(content string, m *models.SEOMetrics) {
	current := sectionNone
	cols := noKeywordColumns
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if s, ok := headerSection(line); ok {
			current = s
			cols = noKeywordColumns
			continue
		}

		if e.parseIntentLine(line, m) {
			continue
		}

		switch current {
		case sectionCountries:
			e.parseCountryLine(line, m)
		case sectionKeywords:
			if header, ok := keywordHeader(line); ok {
				cols = header
				continue
			}
			parseKeywordLine(line, cols, m)
		}
	}
}

// headerSection reports whether line is a heading and which section it opens.
// Markdown headings and lines ending in ":" close the current section when
// they name no known one. A plain line opens a section only when it reads
// like a title: no digits and no closing period.
func headerSection(line string) (section, bool) {
	marked := strings.HasPrefix(line, "#") || strings.HasSuffix(line, ":")
	if !marked && !plainHeading(line) {
		return sectionNone, false
	}
	switch {
	case intentHeaderRe.MatchString(line):
		return sectionIntents, true
	case keywordHeaderRe.MatchString(line):
		return sectionKeywords, true
	case countryHeaderRe.MatchString(line):
		return sectionCountries, true
	default:
		return sectionNone, marked
	}
}

func plainHeading(line string) bool {
	if len(line) > 80 || strings.HasPrefix(line, "|") || bulletRe.MatchString(line) || strings.HasSuffix(line, ".") {
		return false
	}
	return !strings.ContainsAny(line, "0123456789")
}

func (e *Extractor) parseIntentLine(line string, m *models.SEOMetrics) bool {
	if cells, ok := tableCells(line); ok {
		if len(cells) < 2 {
			return false
		}
		intent, ok := e.aliases.IntentAlias(parenRe.ReplaceAllString(cells[0], ""))
		if !ok {
			return false
		}
		var stats models.IntentStats
		var plain []int64
		for _, cell := range cells[1:] {
			if pct := percentRe.FindStringSubmatch(cell); pct != nil {
				stats.Percentage, _ = ParseNumber(pct[1])
				continue
			}
			if v, err := ParseInt(cell); err == nil {
				plain = append(plain, v)
			}
		}
		if len(plain) > 0 {
			stats.Count = plain[0]
		}
		if len(plain) > 1 {
			stats.Traffic = plain[1]
		}
		return mergeIntent(m, intent, stats)
	}

	label, rest, ok := splitLabel(line)
	if !ok {
		// "- Informacional (45%)" or "Comercial 30%".
		match := inlineIntentRe.FindStringSubmatch(bulletRe.ReplaceAllString(line, ""))
		if match == nil {
			return false
		}
		label, rest = match[1], match[2]
	}
	intent, ok := e.aliases.IntentAlias(label)
	if !ok {
		return false
	}

	var stats models.IntentStats
	if match := intentCountRe.FindStringSubmatch(rest); match != nil {
		stats.Count, _ = ParseInt(match[1])
	}
	if match := intentTrafficRe.FindStringSubmatch(rest); match != nil {
		stats.Traffic, _ = ParseInt(match[1])
	} else if match := trafficLabelRe.FindStringSubmatch(rest); match != nil {
		stats.Traffic, _ = ParseInt(match[1])
	}
	if match := percentRe.FindStringSubmatch(rest); match != nil {
		stats.Percentage, _ = ParseNumber(match[1])
	}
	if stats.Count == 0 && stats.Traffic == 0 && stats.Percentage == 0 {
		if match := numberRe.FindStringSubmatch(rest); match != nil {
			stats.Count, _ = ParseInt(match[1])
		}
	}
	return mergeIntent(m, intent, stats)
}

func mergeIntent(m *models.SEOMetrics, intent string, stats models.IntentStats) bool {
	if stats == (models.IntentStats{}) {
		return false
	}
	m.Intents[intent] = stats
	return true
}

func (e *Extractor) parseCountryLine(line string, m *models.SEOMetrics) {
	var label, value string
	if cells, ok := tableCells(line); ok {
		if len(cells) < 2 {
			return
		}
		label = cells[0]
		value = cells[len(cells)-1]
		for _, cell := range cells[1:] {
			if strings.Contains(cell, "%") {
				value = cell
				break
			}
		}
	} else {
		var ok bool
		label, value, ok = splitLabel(line)
		if !ok {
			return
		}
	}

	label = strings.TrimSpace(parenRe.ReplaceAllString(label, ""))
	if label == "" || totalRowRe.MatchString(label) {
		return
	}

	var pct float64
	var err error
	if match := percentRe.FindStringSubmatch(value); match != nil {
		pct, err = ParseNumber(match[1])
	} else {
		pct, err = ParseNumber(value)
	}
	if err != nil || pct <= 0 || pct > 100 {
		return
	}
	m.Countries[e.aliases.CountryAlias(label)] = pct
}

// keywordColumns locates the keyword table columns; -1 marks a missing one.
type keywordColumns struct {
	keyword, volume, traffic int
}

var noKeywordColumns = keywordColumns{keyword: -1, volume: -1, traffic: -1}

func (k keywordColumns) known() bool {
	return k.keyword >= 0 && (k.volume >= 0 || k.traffic >= 0)
}

// keywordHeader reads a table header row such as
// "| # | Palavra-chave | Posição | Volume | Tráfego |".
func keywordHeader(line string) (keywordColumns, bool) {
	cells, ok := tableCells(line)
	if !ok || len(cells) == 0 {
		return noKeywordColumns, false
	}
	cols := noKeywordColumns
	for i, cell := range cells {
		if _, err := ParseNumber(cell); err == nil {
			return noKeywordColumns, false
		}
		switch {
		case cols.keyword < 0 && keywordColRe.MatchString(cell):
			cols.keyword = i
		case cols.volume < 0 && volumeColRe.MatchString(cell):
			cols.volume = i
		case cols.traffic < 0 && trafficColRe.MatchString(cell):
			cols.traffic = i
		}
	}
	return cols, cols.keyword >= 0
}

func cellAt(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cells[i]
}

func parseKeywordLine(line string, cols keywordColumns, m *models.SEOMetrics) {
	if cells, ok := tableCells(line); ok {
		if len(cells) == 0 {
			return
		}
		if cols.known() {
			volume, verr := ParseInt(cellAt(cells, cols.volume))
			traffic, terr := ParseInt(cellAt(cells, cols.traffic))
			if verr != nil && terr != nil {
				return
			}
			appendKeyword(m, cellAt(cells, cols.keyword), volume, traffic)
			return
		}
		if len(cells) >= 4 && isDigits(cells[0]) {
			cells = cells[1:]
		}
		if len(cells) < 2 {
			return
		}
		volume, err := ParseInt(cells[1])
		if err != nil {
			return
		}
		var traffic int64
		if len(cells) > 2 {
			traffic, _ = ParseInt(cells[2])
		}
		appendKeyword(m, cells[0], volume, traffic)
		return
	}

	text := bulletRe.ReplaceAllString(line, "")
	var volume, traffic int64
	if match := volumeLabelRe.FindStringSubmatch(text); match != nil {
		volume, _ = ParseInt(match[1])
	}
	if match := trafficLabelRe.FindStringSubmatch(text); match != nil {
		traffic, _ = ParseInt(match[1])
	}
	if volume == 0 && traffic == 0 {
		return
	}

	keyword := text
	for _, sep := range []string{" — ", " – ", " - ", "(", ":", ","} {
		if i := strings.Index(keyword, sep); i > 0 {
			keyword = keyword[:i]
		}
	}
	appendKeyword(m, keyword, volume, traffic)
}

func appendKeyword(m *models.SEOMetrics, keyword string, volume, traffic int64) {
	keyword = strings.Trim(strings.TrimSpace(keyword), `"'“”‘’`)
	if keyword == "" {
		return
	}
	m.TopKeywords = append(m.TopKeywords, models.KeywordRow{
		Keyword: keyword,
		Volume:  volume,
		Traffic: traffic,
	})
}

// tableCells splits a markdown table row. Separator rows yield ok with no cells.
func tableCells(line string) ([]string, bool) {
	if !strings.HasPrefix(line, "|") {
		return nil, false
	}
	parts := strings.Split(strings.Trim(line, "|"), "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if separatorRe.MatchString(p) {
			return nil, true
		}
		cells = append(cells, p)
	}
	return cells, true
}

// splitLabel splits "- Label: rest" or "Label — rest" into its two sides.
func splitLabel(line string) (string, string, bool) {
	text := bulletRe.ReplaceAllString(line, "")
	for _, sep := range []string{":", " — ", " – ", " - "} {
		if label, rest, ok := strings.Cut(text, sep); ok {
			label = strings.TrimSpace(label)
			if label == "" {
				return "", "", false
			}
			return label, strings.TrimSpace(rest), true
		}
	}
	return "", "", false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// fillIntentPercentages derives missing shares from each intent's traffic.
func fillIntentPercentages(intents map[string]models.IntentStats) {
	var total int64
	for _, s := range intents {
		total += s.Traffic
	}
	if total == 0 {
		return
	}
	for name, s := range intents {
		if s.Percentage == 0 && s.Traffic > 0 {
			s.Percentage = math.Round(float64(s.Traffic)/float64(total)*1000) / 10
			intents[name] = s
		}
	}
}
