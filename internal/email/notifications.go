package email

import (
	"time"

	"go.uber.org/zap"

	"painel/internal/config"
	"painel/internal/logger"
)

// Sender delivers a rendered e-mail.
type Sender interface {
	IsEnabled() bool
	SendAsync(to []string, subject, htmlBody, textBody string)
}

// Notifier e-mails the operator allowlist when a background refresh fails
// and again when it recovers.
type Notifier struct {
	sender     Sender
	templates  *Templates
	recipients []string
	now        func() time.Time
	log        *zap.Logger
}

// NewNotifier creates a notifier that writes to the operators listed in yamlCfg.
func NewNotifier(cfg *config.Config, yamlCfg *config.YAMLConfig) *Notifier {
	var recipients []string
	if yamlCfg != nil {
		recipients = yamlCfg.Operators
	}
	return newNotifier(NewService(cfg), NewTemplates(cfg), recipients)
}

func newNotifier(sender Sender, templates *Templates, recipients []string) *Notifier {
	return &Notifier{
		sender:     sender,
		templates:  templates,
		recipients: recipients,
		now:        time.Now,
		log:        logger.Named("alerts"),
	}
}

// RefreshFailed alerts operators that source could not be refreshed.
func (n *Notifier) RefreshFailed(source string, cause error) {
	if !n.ready() {
		return
	}
	subject, htmlBody, textBody, err := n.templates.RefreshFailed(source, cause, n.now())
	if err != nil {
		n.log.Error("failed to build alert", zap.Error(err))
		return
	}
	n.sender.SendAsync(n.recipients, subject, htmlBody, textBody)
}

// RefreshRecovered tells operators that source refreshes again.
func (n *Notifier) RefreshRecovered(source string) {
	if !n.ready() {
		return
	}
	subject, htmlBody, textBody, err := n.templates.RefreshRecovered(source, n.now())
	if err != nil {
		n.log.Error("failed to build alert", zap.Error(err))
		return
	}
	n.sender.SendAsync(n.recipients, subject, htmlBody, textBody)
}

func (n *Notifier) ready() bool {
	if !n.sender.IsEnabled() {
		return false
	}
	if len(n.recipients) == 0 {
		n.log.Debug("no operator e-mails configured for alerts")
		return false
	}
	return true
}
