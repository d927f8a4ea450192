package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"painel/internal/config"
	"painel/internal/format"
)

var alertHTML = template.Must(template.New("alert").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: {{if .Failed}}#dc3545{{else}}#198754{{end}}; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
        .content { background: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; }
        .footer { padding: 15px; text-align: center; font-size: 12px; color: #6b7280; }
        .label { font-weight: 600; }
        code { background: #e5e7eb; padding: 2px 6px; border-radius: 4px; }
    </style>
</head>
<body>
    <div class="header"><h1>{{.Heading}}</h1></div>
    <div class="content">
        <p><span class="label">Origem:</span> {{.Subject}}</p>
        <p><span class="label">Horário:</span> {{.When}}</p>
        {{with .Error}}<p><span class="label">Erro:</span> <code>{{.}}</code></p>{{end}}
        <p><a href="{{.BaseURL}}/sobre">Abrir o painel</a></p>
    </div>
    <div class="footer">{{.Site}}</div>
</body>
</html>`))

// Templates renders alert e-mails.
type Templates struct {
	cfg *config.Config
}

// NewTemplates creates a new templates instance.
func NewTemplates(cfg *config.Config) *Templates {
	return &Templates{cfg: cfg}
}

type alertData struct {
	Subject string
	Heading string
	When    string
	Error   string
	BaseURL string
	Site    string
	Failed  bool
}

// RefreshFailed renders the alert sent when a source stops refreshing.
func (t *Templates) RefreshFailed(source string, cause error, at time.Time) (subject, htmlBody, textBody string, err error) {
	data := t.data(source, at, true)
	data.Heading = "Falha na atualização"
	if cause != nil {
		data.Error = cause.Error()
	}
	subject = fmt.Sprintf("[%s] Falha na atualização: %s", t.cfg.SiteTitle, source)
	textBody = fmt.Sprintf("Falha na atualização: %s\n\nHorário: %s\nErro: %s\n\nPainel: %s\n",
		source, data.When, data.Error, t.cfg.BaseURL)
	htmlBody, err = render(data)
	return subject, htmlBody, textBody, err
}

// RefreshRecovered renders the alert sent when a failing source refreshes again.
func (t *Templates) RefreshRecovered(source string, at time.Time) (subject, htmlBody, textBody string, err error) {
	data := t.data(source, at, false)
	data.Heading = "Atualização restabelecida"
	subject = fmt.Sprintf("[%s] Atualização restabelecida: %s", t.cfg.SiteTitle, source)
	textBody = fmt.Sprintf("Atualização restabelecida: %s\n\nHorário: %s\n\nPainel: %s\n",
		source, data.When, t.cfg.BaseURL)
	htmlBody, err = render(data)
	return subject, htmlBody, textBody, err
}

func (t *Templates) data(source string, at time.Time, failed bool) alertData {
	return alertData{
		Subject: source,
		When:    format.Timestamp(at),
		BaseURL: t.cfg.BaseURL,
		Site:    t.cfg.SiteTitle,
		Failed:  failed,
	}
}

func render(data alertData) (string, error) {
	var buf bytes.Buffer
	if err := alertHTML.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render alert: %w", err)
	}
	return buf.String(), nil
}
