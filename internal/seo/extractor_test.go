package seo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"painel/internal/config"
	"painel/internal/models"
)

const sampleContent = `Relatório de Análise SEO
Marca: Acme Calçados
Domínio analisado: https://www.acme.com.br

Resumo
Tráfego orgânico: 125,4 mil visitas/mês
Palavras-chave orgânicas: 12.345
Palavras-chave pagas: 230
Backlinks: 1,2 mi
Domínios de referência: 3.456
Posição média: 18,7

Intenção de busca:
- Informacional: 6.500 palavras-chave, 60.000 de tráfego (47,8%)
- Navegacional: 1.200 palavras-chave, 30.000 de tráfego (23,9%)
- Comercial: 3.000 palavras-chave, 25.000 de tráfego
- Transacional: 1.645 palavras-chave, 10.400 de tráfego (8,3%)

Distribuição por país:
- Brasil: 92,5%
- Portugal: 4,1%
- Estados Unidos (EUA): 1,9%

Principais palavras-chave:
| Palavra-chave | Volume | Tráfego |
|---|---|---|
| tênis de corrida | 22.000 | 4.300 |
| acme loja | 9.900 | 3.100 |
- "comprar tênis" — volume 12.100 — tráfego 1.250
`

func newTestExtractor() *Extractor {
	var aliases *config.YAMLConfig
	return NewExtractor(aliases)
}

func TestExtract_FullReport(t *testing.T) {
	m, err := newTestExtractor().Extract(Report{Path: "varejo/acme.json", Group: "Varejo", Content: sampleContent})
	require.NoError(t, err)

	assert.Equal(t, "Varejo", m.Group)
	assert.Equal(t, "Acme Calçados", m.Brand)
	assert.Equal(t, "acme.com.br", m.Domain)
	assert.Equal(t, int64(125400), m.OrganicTraffic)
	assert.Equal(t, int64(12345), m.OrganicKeywords)
	assert.Equal(t, int64(230), m.PaidKeywords)
	assert.Equal(t, int64(1200000), m.Backlinks)
	assert.Equal(t, int64(3456), m.ReferringDomains)
	assert.InDelta(t, 18.7, m.AvgPosition, 1e-9)
	assert.Equal(t, "varejo/acme.json", m.SourceFile)

	require.Len(t, m.Intents, 4)
	assert.Equal(t, models.IntentStats{Count: 6500, Traffic: 60000, Percentage: 47.8}, m.Intents[models.IntentInformational])
	assert.Equal(t, models.IntentStats{Count: 1200, Traffic: 30000, Percentage: 23.9}, m.Intents[models.IntentNavigational])
	assert.Equal(t, models.IntentStats{Count: 1645, Traffic: 10400, Percentage: 8.3}, m.Intents[models.IntentTransactional])

	commercial := m.Intents[models.IntentCommercial]
	assert.Equal(t, int64(3000), commercial.Count)
	assert.Equal(t, int64(25000), commercial.Traffic)
	assert.InDelta(t, 19.9, commercial.Percentage, 1e-9)

	assert.Equal(t, map[string]float64{
		"Brasil":         92.5,
		"Portugal":       4.1,
		"Estados Unidos": 1.9,
	}, m.Countries)

	assert.Equal(t, []models.KeywordRow{
		{Keyword: "tênis de corrida", Volume: 22000, Traffic: 4300},
		{Keyword: "acme loja", Volume: 9900, Traffic: 3100},
		{Keyword: "comprar tênis", Volume: 12100, Traffic: 1250},
	}, m.TopKeywords)
}

func TestExtract_ReportFieldsTakePrecedence(t *testing.T) {
	m, err := newTestExtractor().Extract(Report{
		Brand:   "Acme",
		Domain:  "Loja.Acme.com",
		Content: sampleContent,
	})
	require.NoError(t, err)

	assert.Equal(t, "Acme", m.Brand)
	assert.Equal(t, "loja.acme.com", m.Domain)
}

func TestExtract_InlineNarrative(t *testing.T) {
	content := "O site registrou tráfego orgânico de 2,3 mil visitas no período e manteve posição média 12,4."

	m, err := newTestExtractor().Extract(Report{Content: content})
	require.NoError(t, err)

	assert.Equal(t, int64(2300), m.OrganicTraffic)
	assert.InDelta(t, 12.4, m.AvgPosition, 1e-9)
	assert.Empty(t, m.Intents)
	assert.Empty(t, m.TopKeywords)
}

func TestExtract_IntentTable(t *testing.T) {
	content := `Tráfego orgânico: 2.000

## Intenção de busca
| Intenção | Palavras-chave | Tráfego | % |
|:--|--:|--:|--:|
| Informativa | 100 | 1.000 | 50% |
| Comercial | 50 | 1.000 | |
`

	m, err := newTestExtractor().Extract(Report{Content: content})
	require.NoError(t, err)

	assert.Equal(t, models.IntentStats{Count: 100, Traffic: 1000, Percentage: 50}, m.Intents[models.IntentInformational])
	assert.Equal(t, models.IntentStats{Count: 50, Traffic: 1000, Percentage: 50}, m.Intents[models.IntentCommercial])
}

func TestExtract_CountryAliases(t *testing.T) {
	aliases, err := config.ParseYAMLConfig([]byte("country_aliases:\n  br: Brasil\n"))
	require.NoError(t, err)

	content := "Backlinks: 10\n\nTráfego por país:\n| País | Participação |\n| BR | 80% |\n| Angola | 20% |\n"
	m, err := NewExtractor(aliases).Extract(Report{Content: content})
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"Brasil": 80, "Angola": 20}, m.Countries)
}

func TestExtract_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{name: "empty", content: "", want: ErrEmptyContent},
		{name: "whitespace", content: " \n\t ", want: ErrEmptyContent},
		{name: "no metrics", content: "Relatório sem dados relevantes.", want: ErrNoMetrics},
		{name: "unparseable value", content: "Backlinks: muitos", want: ErrNoMetrics},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestExtractor().Extract(Report{Content: tt.content})
			if !errors.Is(err, tt.want) {
				t.Errorf("Extract() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestExtract_SpaceGroupedNumbers(t *testing.T) {
	content := "Tráfego orgânico: 1\u00a0234 visitas\nBacklinks: 2\u00a0500\nDomínios de referência: 12 345"

	m, err := newTestExtractor().Extract(Report{Content: content})
	require.NoError(t, err)

	assert.Equal(t, int64(1234), m.OrganicTraffic)
	assert.Equal(t, int64(2500), m.Backlinks)
	assert.Equal(t, int64(12345), m.ReferringDomains)
}

func TestExtract_NumberBeforeLabel(t *testing.T) {
	content := "O domínio acumula 5.000 backlinks vindos de 300 domínios de referência e recebe 12 mil de tráfego orgânico."

	m, err := newTestExtractor().Extract(Report{Content: content})
	require.NoError(t, err)

	assert.Equal(t, int64(5000), m.Backlinks)
	assert.Equal(t, int64(300), m.ReferringDomains)
	assert.Equal(t, int64(12000), m.OrganicTraffic)
}

func TestExtract_LabelDoesNotTakeNextMetricNumber(t *testing.T) {
	content := "Backlinks somam 800 e domínios referentes 90. A posição média é 7,5"

	m, err := newTestExtractor().Extract(Report{Content: content})
	require.NoError(t, err)

	assert.Equal(t, int64(800), m.Backlinks)
	assert.Equal(t, int64(90), m.ReferringDomains)
	assert.InDelta(t, 7.5, m.AvgPosition, 1e-9)
	assert.Zero(t, m.OrganicTraffic)
}

func TestExtract_Sections(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, m *models.SEOMetrics)
	}{
		{
			name: "keyword table mapped by header",
			content: "Tráfego orgânico: 1.000\n\n## Palavras-chave\n" +
				"| # | Palavra-chave | Posição | Volume | Tráfego |\n|---|---|---|---|---|\n" +
				"| 1 | tenis | 3 | 1.000 | 10.000 |\n",
			check: func(t *testing.T, m *models.SEOMetrics) {
				assert.Equal(t, []models.KeywordRow{{Keyword: "tenis", Volume: 1000, Traffic: 10000}}, m.TopKeywords)
			},
		},
		{
			name:    "brand only at line start",
			content: "Tráfego orgânico: 1.000\nPalavras-chave de marca: 45%",
			check: func(t *testing.T, m *models.SEOMetrics) {
				assert.Empty(t, m.Brand)
			},
		},
		{
			name:    "bulleted brand",
			content: "- Marca: Acme\nTráfego orgânico: 1.000",
			check: func(t *testing.T, m *models.SEOMetrics) {
				assert.Equal(t, "Acme", m.Brand)
			},
		},
		{
			name:    "total row skipped",
			content: "Backlinks: 10\n\nDistribuição por país:\n- Brasil: 85%\n- Outros: 15%\n- Total: 100%\n",
			check: func(t *testing.T, m *models.SEOMetrics) {
				assert.Equal(t, map[string]float64{"Brasil": 85, "Outros": 15}, m.Countries)
			},
		},
		{
			name:    "intents without separator",
			content: "Backlinks: 10\n\nIntenção de busca\n- Informacional (45%)\nComercial 30%\n",
			check: func(t *testing.T, m *models.SEOMetrics) {
				assert.Equal(t, map[string]models.IntentStats{
					models.IntentInformational: {Percentage: 45},
					models.IntentCommercial:    {Percentage: 30},
				}, m.Intents)
			},
		},
		{
			name:    "plain country heading",
			content: "Backlinks: 10\n\nDistribuição geográfica do tráfego\nBrasil: 85%\nPortugal: 10%\n",
			check: func(t *testing.T, m *models.SEOMetrics) {
				assert.Equal(t, map[string]float64{"Brasil": 85, "Portugal": 10}, m.Countries)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := newTestExtractor().Extract(Report{Content: tt.content})
			require.NoError(t, err)
			tt.check(t, m)
		})
	}
}
