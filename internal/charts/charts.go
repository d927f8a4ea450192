// Package charts renders the dashboard charts as PNG images.
package charts

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"painel/internal/config"
	"painel/internal/format"
	"painel/internal/models"
)

// ErrEmptyChart is returned when there is nothing to plot.
var ErrEmptyChart = errors.New("no data to chart")

// Chart titles.
const (
	TitleTopParties   = "Top 20 Partidos com Mais Deputados"
	TitleStates       = "Distribuição de Deputados por Estado (UF)"
	TitlePartyShare   = "Top 5 Partidos - Distribuição Percentual"
	TitleSEOTraffic   = "Tráfego Orgânico por Marca"
	TitleSEOIntents   = "Intenção das Palavras-chave"
	TitleSEOCountries = "Distribuição de Palavras-chave por País"
)

const (
	chartHeight = 480
	barWidth    = 32
	barSpacing  = 10
	minWidth    = 640
	pieSize     = 520
)

// Point is one labeled value.
type Point struct {
	Label string
	Value float64
}

// AxisMax returns the top of the value axis: 10% above the largest value, or
// 1 when every value is zero.
func AxisMax(points []Point) float64 {
	var top float64
	for _, p := range points {
		top = max(top, p.Value)
	}
	if top <= 0 {
		return 1
	}
	return top * 1.10
}

// Bar renders a vertical bar chart filled with fill, one of the theme colors.
func Bar(w io.Writer, title string, points []Point, theme config.ThemeConfig, fill string) error {
	if len(points) == 0 {
		return ErrEmptyChart
	}

	text := color(theme.Text)
	bars := make([]chart.Value, len(points))
	for i, p := range points {
		bars[i] = chart.Value{
			Label: p.Label,
			Value: p.Value,
			Style: chart.Style{FillColor: color(fill), StrokeColor: color(fill), StrokeWidth: 1},
		}
	}

	bc := chart.BarChart{
		Title:      title,
		TitleStyle: chart.Style{FontColor: text, FontSize: 14},
		Width:      max(minWidth, 140+len(points)*(barWidth+barSpacing)),
		Height:     chartHeight,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: chart.Style{
			FillColor: color(theme.Panel),
			Padding:   chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16},
		},
		Canvas: chart.Style{FillColor: color(theme.Panel)},
		XAxis:  chart.Style{FontColor: text, StrokeColor: color(theme.Border), TextRotationDegrees: 45},
		YAxis: chart.YAxis{
			Style:          chart.Style{FontColor: text, StrokeColor: color(theme.Border)},
			Range:          &chart.ContinuousRange{Min: 0, Max: AxisMax(points)},
			ValueFormatter: axisLabel,
		},
		Bars: bars,
	}
	return bc.Render(chart.PNG, w)
}

// Pie renders a pie chart with slices colored from the theme palette. Slice
// labels carry the share of the plotted total.
func Pie(w io.Writer, title string, points []Point, theme config.ThemeConfig) error {
	var total float64
	for _, p := range points {
		total += p.Value
	}
	if len(points) == 0 || total <= 0 {
		return ErrEmptyChart
	}

	values := make([]chart.Value, 0, len(points))
	for i, p := range points {
		if p.Value <= 0 {
			continue
		}
		fill := theme.Primary
		if len(theme.Palette) > 0 {
			fill = theme.Palette[i%len(theme.Palette)]
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%s)", p.Label, format.Percent(p.Value/total*100)),
			Value: p.Value,
			Style: chart.Style{FillColor: color(fill), StrokeColor: color(theme.Panel), FontColor: color(theme.Text)},
		})
	}

	pc := chart.PieChart{
		Title:      title,
		TitleStyle: chart.Style{FontColor: color(theme.Text), FontSize: 14},
		Width:      pieSize,
		Height:     pieSize,
		Background: chart.Style{FillColor: color(theme.Panel), Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		Canvas:     chart.Style{FillColor: color(theme.Panel)},
		Values:     values,
	}
	return pc.Render(chart.PNG, w)
}

// TopParties plots the 20 largest parties of a ranking.
func TopParties(w io.Writer, ranking []models.CountRow, theme config.ThemeConfig) error {
	return Bar(w, TitleTopParties, countPoints(ranking, 20), theme, theme.Primary)
}

// States plots every state of a ranking.
func States(w io.Writer, ranking []models.CountRow, theme config.ThemeConfig) error {
	return Bar(w, TitleStates, countPoints(ranking, 0), theme, theme.Info)
}

// PartyShare plots the five largest parties as a pie.
func PartyShare(w io.Writer, ranking []models.CountRow, theme config.ThemeConfig) error {
	return Pie(w, TitlePartyShare, countPoints(ranking, 5), theme)
}

// SEOTraffic plots organic traffic per brand.
func SEOTraffic(w io.Writer, records []models.SEOMetrics, theme config.ThemeConfig) error {
	points := make([]Point, len(records))
	for i, m := range records {
		points[i] = Point{Label: m.Brand, Value: float64(m.OrganicTraffic)}
	}
	return Bar(w, TitleSEOTraffic, points, theme, theme.Success)
}

// SEOIntents plots the traffic share of each keyword intent.
func SEOIntents(w io.Writer, intents []models.IntentRow, theme config.ThemeConfig) error {
	points := make([]Point, len(intents))
	for i, r := range intents {
		points[i] = Point{Label: r.Intent, Value: r.Percentage}
	}
	return Pie(w, TitleSEOIntents, points, theme)
}

// SEOCountries plots the averaged share of each country.
func SEOCountries(w io.Writer, countries []models.CountryRow, theme config.ThemeConfig) error {
	points := make([]Point, len(countries))
	for i, r := range countries {
		points[i] = Point{Label: r.Country, Value: r.Percent}
	}
	return Bar(w, TitleSEOCountries, points, theme, theme.Warning)
}

func countPoints(ranking []models.CountRow, limit int) []Point {
	if limit > 0 && len(ranking) > limit {
		ranking = ranking[:limit]
	}
	points := make([]Point, len(ranking))
	for i, r := range ranking {
		points[i] = Point{Label: r.Label, Value: float64(r.Count)}
	}
	return points
}

func axisLabel(v interface{}) string {
	if f, ok := v.(float64); ok {
		return format.Int(int64(f))
	}
	return ""
}

func color(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}
