// Package testutil provides test fixtures and fakes shared by handler tests.
package testutil

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"

	"painel/internal/models"
)

// FetchedAt is the fixed fetch time of the fixtures.
var FetchedAt = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

// Deputies returns a small listing spanning three parties and three states.
func Deputies() []models.Deputy {
	return []models.Deputy{
		{ID: 1, Nome: "Ana Souza", SiglaPartido: "PT", SiglaUF: "SP", URI: "https://dadosabertos.camara.leg.br/api/v2/deputados/1", URLFoto: "https://www.camara.leg.br/internet/deputado/bandep/1.jpg"},
		{ID: 2, Nome: "Bruno Lima", SiglaPartido: "PL", SiglaUF: "RJ", URI: "https://dadosabertos.camara.leg.br/api/v2/deputados/2"},
		{ID: 3, Nome: "Carla Dias", SiglaPartido: "PT", SiglaUF: "MG", URI: "https://dadosabertos.camara.leg.br/api/v2/deputados/3"},
		{ID: 4, Nome: "Daniel Rocha", SiglaPartido: "PSOL", SiglaUF: "SP", URI: "https://dadosabertos.camara.leg.br/api/v2/deputados/4"},
		{ID: 5, Nome: "Elisa Silva", SiglaPartido: "PT", SiglaUF: "SP", URI: "javascript:alert(1)", URLFoto: "javascript:alert(1)"},
	}
}

// Reports returns two parsed SEO reports in different groups.
func Reports() []models.SEOMetrics {
	return []models.SEOMetrics{
		{
			Group: "Varejo", Brand: "Acme", Domain: "acme.com.br",
			OrganicTraffic: 12000, OrganicKeywords: 3400, PaidKeywords: 20,
			Backlinks: 5600, ReferringDomains: 310, AvgPosition: 12.5,
			Intents: map[string]models.IntentStats{
				models.IntentInformational: {Count: 2000, Traffic: 8000},
				models.IntentTransactional: {Count: 400, Traffic: 4000},
			},
			Countries:   map[string]float64{"Brasil": 90, "Portugal": 10},
			TopKeywords: []models.KeywordRow{{Keyword: "tênis", Volume: 5000, Traffic: 900}},
			SourceFile:  "varejo/acme.json",
		},
		{
			Group: "Serviços", Brand: "Beta", Domain: "beta.com",
			OrganicTraffic: 3000, OrganicKeywords: 800,
			Backlinks: 900, ReferringDomains: 45, AvgPosition: 20,
			Intents: map[string]models.IntentStats{
				models.IntentInformational: {Count: 500, Traffic: 3000},
			},
			Countries:   map[string]float64{"Brasil": 100},
			TopKeywords: []models.KeywordRow{{Keyword: "Tênis", Volume: 4000, Traffic: 100}},
			SourceFile:  "beta.json",
		},
	}
}

// ReportSet wraps Reports with one skipped file.
func ReportSet() *models.ReportSet {
	return &models.ReportSet{
		Records:  Reports(),
		Skipped:  []models.SkippedFile{{Path: "vazio.json", Reason: "nenhuma métrica encontrada"}},
		LoadedAt: FetchedAt,
	}
}

// FakeDeputies is an in-memory deputy source.
type FakeDeputies struct {
	mu      sync.Mutex
	Result  models.DeputyResult
	Forced  int
	Cleared int
	LastTTL time.Duration
}

// NewFakeDeputies returns a source serving the fixtures as a fresh API fetch.
func NewFakeDeputies() *FakeDeputies {
	return &FakeDeputies{Result: models.DeputyResult{
		Deputies:  Deputies(),
		Source:    models.SourceAPI,
		FetchedAt: FetchedAt,
	}}
}

func (f *FakeDeputies) Get(_ context.Context, ttl time.Duration, force bool) models.DeputyResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastTTL = ttl
	if force {
		f.Forced++
	}
	return f.Result
}

func (f *FakeDeputies) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Cleared++
	return nil
}

func (f *FakeDeputies) HasData(_ context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Result.HasData()
}

func (f *FakeDeputies) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Result.Err
}

// FakeReports is an in-memory report source.
type FakeReports struct {
	mu       sync.Mutex
	Set      *models.ReportSet
	Err      error
	Reloaded int
}

// NewFakeReports returns a source serving ReportSet.
func NewFakeReports() *FakeReports {
	return &FakeReports{Set: ReportSet()}
}

func (f *FakeReports) Get(_ context.Context, _ bool) (*models.ReportSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Set, f.Err
}

func (f *FakeReports) Reload(_ context.Context) (*models.ReportSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Reloaded++
	return f.Set, f.Err
}

func (f *FakeReports) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Err
}

// Rendered is one template render captured by Views.
type Rendered struct {
	Name   string
	Data   fiber.Map
	Layout []string
}

// Views is a fiber view engine that records renders instead of executing
// templates, so handler tests can assert on the data passed to a view.
type Views struct {
	mu      sync.Mutex
	renders []Rendered
}

func (v *Views) Load() error { return nil }

func (v *Views) Render(w io.Writer, name string, binding any, layout ...string) error {
	data, _ := binding.(fiber.Map)
	if data == nil {
		if m, ok := binding.(map[string]any); ok {
			data = m
		}
	}

	v.mu.Lock()
	v.renders = append(v.renders, Rendered{Name: name, Data: data, Layout: layout})
	v.mu.Unlock()

	_, err := fmt.Fprintf(w, "<!-- %s -->", name)
	return err
}

// Last returns the most recent render, or a zero value when nothing rendered.
func (v *Views) Last() Rendered {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.renders) == 0 {
		return Rendered{}
	}
	return v.renders[len(v.renders)-1]
}
