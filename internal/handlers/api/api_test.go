package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"painel/internal/config"
	"painel/internal/models"
	"painel/internal/testutil"
)

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
}

type fakeHistory struct {
	snapshots []models.SnapshotSummary
	err       error
}

func (f *fakeHistory) ListSnapshots(context.Context, int) ([]models.SnapshotSummary, error) {
	return f.snapshots, f.err
}

func (f *fakeHistory) ListReportImports(context.Context, int) ([]models.ReportImport, error) {
	return []models.ReportImport{{Source: "dir:./relatorios", Parsed: 2, Skipped: 1}}, f.err
}

func newTestApp(deputies *testutil.FakeDeputies, reports *testutil.FakeReports, history History) *fiber.App {
	cfg := &config.Config{CacheTTLMinutes: 60}
	app := fiber.New()

	d := NewDeputyHandler(deputies, cfg)
	app.Get("/api/deputados", d.List)
	app.Get("/api/deputados/:id", d.Get)
	app.Get("/api/partidos", d.Parties)
	app.Get("/api/estados", d.States)
	app.Get("/api/kpis", d.KPIs)

	s := NewSEOHandler(reports)
	app.Get("/api/seo/registros", s.Records)
	app.Get("/api/seo/intencoes", s.Intents)
	app.Get("/api/seo/paises", s.Countries)
	app.Get("/api/seo/palavras-chave", s.Keywords)

	st := NewStatusHandler(deputies, reports, history, cfg)
	app.Get("/api/status", st.Status)
	app.Get("/api/historico/snapshots", st.Snapshots)
	app.Get("/api/historico/importacoes", st.Imports)
	return app
}

func get(t *testing.T, app *fiber.App, target string) (int, envelope) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestDeputyHandler_List(t *testing.T) {
	app := newTestApp(testutil.NewFakeDeputies(), testutil.NewFakeReports(), nil)

	status, env := get(t, app, "/api/deputados?uf=SP&ordem=siglaPartido")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", env.Status)

	var page deputyPage
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.Pages)
	assert.Equal(t, 50, page.Size)
	assert.Equal(t, models.SourceAPI, page.Source)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "PSOL", page.Items[0].SiglaPartido)

	status, env = get(t, app, "/api/deputados?busca=souza")
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 1, page.Total)
}

func TestDeputyHandler_Get(t *testing.T) {
	app := newTestApp(testutil.NewFakeDeputies(), testutil.NewFakeReports(), nil)

	status, env := get(t, app, "/api/deputados/2")
	require.Equal(t, fiber.StatusOK, status)
	var dep models.Deputy
	require.NoError(t, json.Unmarshal(env.Data, &dep))
	assert.Equal(t, "Bruno Lima", dep.Nome)

	status, env = get(t, app, "/api/deputados/42")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "deputy not found", env.Error)

	status, _ = get(t, app, "/api/deputados/x")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestDeputyHandler_Aggregates(t *testing.T) {
	app := newTestApp(testutil.NewFakeDeputies(), testutil.NewFakeReports(), nil)

	status, env := get(t, app, "/api/estados")
	require.Equal(t, fiber.StatusOK, status)
	var rows []models.CountRow
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, models.CountRow{Label: "SP", Count: 3, Percent: 60}, rows[0])

	status, env = get(t, app, "/api/kpis?partido=PT")
	require.Equal(t, fiber.StatusOK, status)
	var kpis models.DeputyKPIs
	require.NoError(t, json.Unmarshal(env.Data, &kpis))
	assert.Equal(t, 3, kpis.Total)
	assert.Equal(t, 1, kpis.Parties)
	assert.Equal(t, 2, kpis.States)
}

func TestDeputyHandler_NoData(t *testing.T) {
	deputies := testutil.NewFakeDeputies()
	deputies.Result = models.DeputyResult{Source: models.SourceError, Err: errors.New("timeout")}
	app := newTestApp(deputies, testutil.NewFakeReports(), nil)

	for _, target := range []string{"/api/deputados", "/api/deputados/1", "/api/partidos", "/api/kpis"} {
		status, env := get(t, app, target)
		assert.Equal(t, fiber.StatusServiceUnavailable, status, target)
		assert.Equal(t, "error", env.Status, target)
	}
}

func TestSEOHandler(t *testing.T) {
	reports := testutil.NewFakeReports()
	app := newTestApp(testutil.NewFakeDeputies(), reports, nil)

	status, env := get(t, app, "/api/seo/palavras-chave")
	require.Equal(t, fiber.StatusOK, status)
	var keywords []models.KeywordRow
	require.NoError(t, json.Unmarshal(env.Data, &keywords))
	require.Len(t, keywords, 1)
	assert.Equal(t, int64(1000), keywords[0].Traffic)
	assert.Equal(t, int64(5000), keywords[0].Volume)

	status, _ = get(t, app, "/api/seo/palavras-chave?limite=-1")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, env = get(t, app, "/api/seo/registros?marca=Beta")
	require.Equal(t, fiber.StatusOK, status)
	var body struct {
		KPIs    models.SEOKPIs      `json:"kpis"`
		Records []models.SEOMetrics `json:"records"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	require.Len(t, body.Records, 1)
	assert.Equal(t, int64(3000), body.KPIs.OrganicTraffic)

	status, env = get(t, app, "/api/seo/paises")
	require.Equal(t, fiber.StatusOK, status)
	var countries []models.CountryRow
	require.NoError(t, json.Unmarshal(env.Data, &countries))
	require.Len(t, countries, 2)
	assert.Equal(t, models.CountryRow{Country: "Brasil", Percent: 95}, countries[0])

	reports.Set = nil
	status, _ = get(t, app, "/api/seo/intencoes")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
}

func TestStatusHandler(t *testing.T) {
	deputies := testutil.NewFakeDeputies()
	deputies.Result.Source = models.SourceCacheStale
	deputies.Result.Err = errors.New("upstream 503")
	reports := testutil.NewFakeReports()
	app := newTestApp(deputies, reports, nil)

	status, env := get(t, app, "/api/status")
	require.Equal(t, fiber.StatusOK, status)

	var body struct {
		Deputies deputyStatus `json:"deputies"`
		Reports  reportStatus `json:"reports"`
		TTL      int          `json:"ttl_minutes"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, models.SourceCacheStale, body.Deputies.Source)
	assert.Equal(t, "upstream 503", body.Deputies.Error)
	assert.Equal(t, 5, body.Deputies.Rows)
	require.NotNil(t, body.Deputies.FetchedAt)
	assert.True(t, body.Deputies.FetchedAt.Equal(testutil.FetchedAt))
	assert.Equal(t, 2, body.Reports.Records)
	assert.Len(t, body.Reports.Skipped, 1)
	assert.Equal(t, 60, body.TTL)

	status, _ = get(t, app, "/api/historico/snapshots")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestStatusHandler_History(t *testing.T) {
	history := &fakeHistory{snapshots: []models.SnapshotSummary{{RowCount: 513, FetchedAt: testutil.FetchedAt}}}
	app := newTestApp(testutil.NewFakeDeputies(), testutil.NewFakeReports(), history)

	status, env := get(t, app, "/api/historico/snapshots")
	require.Equal(t, fiber.StatusOK, status)
	var snaps []models.SnapshotSummary
	require.NoError(t, json.Unmarshal(env.Data, &snaps))
	require.Len(t, snaps, 1)
	assert.Equal(t, 513, snaps[0].RowCount)

	status, _ = get(t, app, "/api/historico/importacoes")
	assert.Equal(t, fiber.StatusOK, status)

	history.err = errors.New("pool closed")
	status, _ = get(t, app, "/api/historico/snapshots")
	assert.Equal(t, fiber.StatusInternalServerError, status)
}
