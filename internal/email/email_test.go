package email

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"painel/internal/config"
)

func TestNewService(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *config.Config
		wantEnabled bool
	}{
		{
			name:        "enabled when all SMTP settings configured",
			cfg:         &config.Config{SMTPEnabled: true, SMTPHost: "smtp.example.com", SMTPPort: 587, SMTPFrom: "painel@example.com"},
			wantEnabled: true,
		},
		{
			name:        "disabled when SMTPEnabled is false",
			cfg:         &config.Config{SMTPHost: "smtp.example.com", SMTPPort: 587, SMTPFrom: "painel@example.com"},
			wantEnabled: false,
		},
		{
			name:        "disabled when SMTPHost is empty",
			cfg:         &config.Config{SMTPEnabled: true, SMTPFrom: "painel@example.com"},
			wantEnabled: false,
		},
		{
			name:        "disabled when SMTPFrom is empty",
			cfg:         &config.Config{SMTPEnabled: true, SMTPHost: "smtp.example.com"},
			wantEnabled: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantEnabled, NewService(tt.cfg).IsEnabled())
		})
	}
}

func TestService_SendEmailDisabled(t *testing.T) {
	s := NewService(&config.Config{})
	assert.NoError(t, s.SendEmail([]string{"op@example.com"}, "s", "<p>h</p>", "t"))
}

func TestService_BuildMessage(t *testing.T) {
	s := NewService(&config.Config{SMTPFrom: "painel@example.com", SMTPFromName: "Painel"})

	msg := s.buildMessage([]string{"a@example.com", "b@example.com"}, "Assunto", "<p>html</p>", "texto")

	assert.Contains(t, msg, "From: Painel <painel@example.com>\r\n")
	assert.Contains(t, msg, "To: a@example.com, b@example.com\r\n")
	assert.Contains(t, msg, "Subject: Assunto\r\n")
	assert.Contains(t, msg, `Content-Type: text/plain; charset="UTF-8"`)
	assert.Contains(t, msg, `Content-Type: text/html; charset="UTF-8"`)
	assert.True(t, strings.HasSuffix(msg, "--"+boundary+"--\r\n"))
	assert.Less(t, strings.Index(msg, "texto"), strings.Index(msg, "<p>html</p>"))
}

func TestService_BuildMessageSkipsEmptyParts(t *testing.T) {
	s := NewService(&config.Config{SMTPFrom: "painel@example.com"})

	msg := s.buildMessage([]string{"a@example.com"}, "Assunto", "", "texto")

	assert.Contains(t, msg, "From: painel@example.com\r\n")
	assert.NotContains(t, msg, "text/html")
}

func TestTemplates_RefreshFailed(t *testing.T) {
	tmpl := NewTemplates(&config.Config{SiteTitle: "Painel", BaseURL: "https://painel.example.com"})
	at := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	subject, htmlBody, textBody, err := tmpl.RefreshFailed("deputados", errors.New(`<script>x</script>`), at)
	require.NoError(t, err)

	assert.Equal(t, "[Painel] Falha na atualização: deputados", subject)
	assert.Contains(t, htmlBody, "https://painel.example.com/sobre")
	assert.Contains(t, htmlBody, "&lt;script&gt;")
	assert.NotContains(t, htmlBody, "<script>x")
	assert.Contains(t, textBody, "Erro: <script>x</script>")
	assert.Contains(t, textBody, "10/03/2026")
}

func TestTemplates_RefreshRecovered(t *testing.T) {
	tmpl := NewTemplates(&config.Config{SiteTitle: "Painel", BaseURL: "https://painel.example.com"})

	subject, htmlBody, textBody, err := tmpl.RefreshRecovered("relatórios SEO", time.Now())
	require.NoError(t, err)

	assert.Equal(t, "[Painel] Atualização restabelecida: relatórios SEO", subject)
	assert.Contains(t, htmlBody, "Atualização restabelecida")
	assert.NotContains(t, htmlBody, "Erro:")
	assert.Contains(t, textBody, "relatórios SEO")
}

type fakeSender struct {
	enabled bool
	sent    []string
	to      []string
}

func (f *fakeSender) IsEnabled() bool { return f.enabled }

func (f *fakeSender) SendAsync(to []string, subject, _, _ string) {
	f.to = to
	f.sent = append(f.sent, subject)
}

func TestNotifier(t *testing.T) {
	tmpl := NewTemplates(&config.Config{SiteTitle: "Painel"})

	t.Run("sends to operators", func(t *testing.T) {
		sender := &fakeSender{enabled: true}
		n := newNotifier(sender, tmpl, []string{"op@example.com"})

		n.RefreshFailed("deputados", errors.New("timeout"))
		n.RefreshRecovered("deputados")

		assert.Equal(t, []string{"op@example.com"}, sender.to)
		assert.Equal(t, []string{
			"[Painel] Falha na atualização: deputados",
			"[Painel] Atualização restabelecida: deputados",
		}, sender.sent)
	})

	t.Run("silent without recipients", func(t *testing.T) {
		sender := &fakeSender{enabled: true}
		n := newNotifier(sender, tmpl, nil)
		n.RefreshFailed("deputados", errors.New("timeout"))
		assert.Empty(t, sender.sent)
	})

	t.Run("silent when disabled", func(t *testing.T) {
		sender := &fakeSender{}
		n := newNotifier(sender, tmpl, []string{"op@example.com"})
		n.RefreshFailed("deputados", errors.New("timeout"))
		assert.Empty(t, sender.sent)
	})
}
