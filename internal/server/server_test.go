package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"

	"painel/internal/config"
	"painel/internal/testutil"
)

// TestServer_ThemeSurvivesEncryptedSession replays the encrypted session
// cookie set by POST /tema and checks that later pages use the chosen theme.
func TestServer_ThemeSurvivesEncryptedSession(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.App.Test(httptest.NewRequest(http.MethodPost, "/tema", nil))
	if err != nil {
		t.Fatalf("POST /tema failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusSeeOther {
		t.Fatalf("POST /tema status = %d, want 303", resp.StatusCode)
	}
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		t.Fatal("POST /tema set no cookies")
	}
	for _, c := range cookies {
		if c.Name == "session_id" && len(c.Value) < 40 {
			t.Errorf("session cookie looks unencrypted: %q", c.Value)
		}
	}

	// Two page loads: the second replays whatever the first sent back.
	for i := range 2 {
		req := httptest.NewRequest(http.MethodGet, "/sobre", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		resp, err := s.App.Test(req)
		if err != nil {
			t.Fatalf("request %d failed (possible encryptcookie panic): %v", i+1, err)
		}
		body, _ := io.ReadAll(resp.Body)
		if !strings.Contains(string(body), `data-theme="dark"`) {
			t.Errorf("request %d: page does not use the dark theme", i+1)
		}
		if next := resp.Cookies(); len(next) > 0 {
			cookies = next
		}
	}
}

func TestDeriveEncryptionKey(t *testing.T) {
	key := deriveEncryptionKey("segredo")
	if len(key) != 44 {
		t.Errorf("key length = %d, want 44 (base64 of 32 bytes)", len(key))
	}
	if key != deriveEncryptionKey("segredo") {
		t.Error("key derivation is not deterministic")
	}
	if key == deriveEncryptionKey("outro segredo") {
		t.Error("different secrets produced the same key")
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		Env:             "test",
		BaseURL:         "http://localhost:3000",
		SessionSecret:   "test-secret-that-is-long-enough-for-production",
		CacheTTLMinutes: 60,
		SiteTitle:       "Painel de Dados",
	}
	s := New(cfg, nil)
	err := s.RegisterRoutes(context.Background(), Deps{
		Deputies: testutil.NewFakeDeputies(),
		Reports:  testutil.NewFakeReports(),
	})
	if err != nil {
		t.Fatalf("RegisterRoutes() error = %v", err)
	}
	return s
}

func TestServer_RendersPages(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		target string
		want   []string
	}{
		{target: "/", want: []string{"Total de Deputados", "Maior Partido", "Exportar todos os dados", "✓ Dados atualizados"}},
		{target: "/?partido=PL", want: []string{"1 filtro(s) aplicado(s)", "(filtros aplicados)"}},
		{target: "/partidos", want: []string{"Ranking de Partidos", "PSOL"}},
		{target: "/estados", want: []string{"Ranking por Estado (UF)", "MG"}},
		{target: "/deputados?busca=souza&selecionado=1", want: []string{"Encontrados 1 resultado(s) para", "Ver dados na API"}},
		{target: "/deputados?selecionado=5&busca=elisa", want: []string{"Foto não disponível"}},
		{target: "/seo", want: []string{"Acme", "Arquivos ignorados (1)", "vazio.json"}},
		{target: "/sobre", want: []string{"Fonte dos Dados", "Configurações Recomendadas"}},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, tt.target, nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != fiber.StatusOK {
				t.Fatalf("status = %d, want 200: %s", resp.StatusCode, body)
			}
			for _, want := range tt.want {
				if !strings.Contains(string(body), want) {
					t.Errorf("body of %s is missing %q", tt.target, want)
				}
			}
		})
	}
}

func TestServer_OverviewWithoutTopParty(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, "/?partido=NENHUM", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	page := string(body)
	if !strings.Contains(page, "Nenhum deputado corresponde aos filtros selecionados.") {
		t.Error("empty filter result is not reported")
	}
	if strings.Contains(page, "kpi-delta") {
		t.Error("KPI delta is shown without a top party")
	}
	if !strings.Contains(page, "/exportar/deputados_completo?formato=csv&amp;partido=NENHUM") {
		t.Error("complete export link does not carry the filters")
	}
}

func TestServer_ErrorHandler(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, "/nao-existe", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want html", ct)
	}

	resp, err = s.App.Test(httptest.NewRequest(http.MethodGet, "/api/v1/deputados/abc", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("api status = %d, want 400", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("api Content-Type = %q, want json", ct)
	}
}

func TestServer_ErrorPagesKeepServing(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		target string
		status int
		want   string
	}{
		{target: "/favicon.ico", status: fiber.StatusNotFound},
		{target: "/exportar/x", status: fiber.StatusNotFound, want: "Exportação não encontrada"},
		{target: "/exportar/deputados_completo?formato=pdf", status: fiber.StatusBadRequest, want: "Formato inválido"},
		{target: "/graficos/x", status: fiber.StatusNotFound, want: "Gráfico não encontrado"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, tt.target, nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("Content-Type = %q, want html", ct)
			}
			if !strings.Contains(string(body), "Painel de Dados") {
				t.Error("error page is missing the site branding")
			}
			if tt.want != "" && !strings.Contains(string(body), tt.want) {
				t.Errorf("body is missing %q", tt.want)
			}
		})
	}

	// The server must still answer after the error pages.
	resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, "/sobre", nil))
	if err != nil {
		t.Fatalf("request after error pages failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status after error pages = %d, want 200", resp.StatusCode)
	}
}

func TestServer_StaticAndProbes(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{"/static/css/app.css", "/static/js/app.js", "/healthz", "/readyz", "/metrics"} {
		resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, target, nil))
		if err != nil {
			t.Fatalf("%s: request failed: %v", target, err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Errorf("%s: status = %d, want 200", target, resp.StatusCode)
		}
	}
}

func TestBuildTLSConfig(t *testing.T) {
	cfg, err := buildTLSConfig(&config.Config{TLSEnabled: true})
	if err != nil {
		t.Fatalf("buildTLSConfig() error = %v", err)
	}
	if cfg.ClientCAs != nil {
		t.Error("ClientCAs should be nil without a CA file")
	}

	_, err = buildTLSConfig(&config.Config{TLSEnabled: true, TLSCAFile: filepath.Join(t.TempDir(), "missing.pem")})
	if err == nil {
		t.Error("expected error for a missing CA file")
	}
}
