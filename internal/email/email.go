// Package email sends operator alerts over SMTP.
package email

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"painel/internal/config"
	"painel/internal/logger"
)

const boundary = "PainelAlertBoundary7f3a9c"

// Service handles sending e-mail.
type Service struct {
	cfg     *config.Config
	enabled bool
	log     *zap.Logger
}

// NewService creates a new e-mail service.
func NewService(cfg *config.Config) *Service {
	s := &Service{
		cfg:     cfg,
		enabled: cfg.IsEmailEnabled(),
		log:     logger.Named("email"),
	}

	if s.enabled {
		s.log.Info("operator alerts enabled", zap.String("host", cfg.SMTPHost), zap.Int("port", cfg.SMTPPort))
	} else {
		s.log.Info("operator alerts disabled (SMTP not configured)")
	}

	return s
}

// IsEnabled returns true if e-mail is enabled.
func (s *Service) IsEnabled() bool {
	return s.enabled
}

// buildMessage assembles a multipart/alternative message.
func (s *Service) buildMessage(to []string, subject, htmlBody, textBody string) string {
	from := s.cfg.SMTPFrom
	if s.cfg.SMTPFromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.SMTPFromName, s.cfg.SMTPFrom)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary)

	for _, part := range []struct{ mime, body string }{
		{"text/plain", textBody},
		{"text/html", htmlBody},
	} {
		if part.body == "" {
			continue
		}
		fmt.Fprintf(&msg, "--%s\r\n", boundary)
		fmt.Fprintf(&msg, "Content-Type: %s; charset=\"UTF-8\"\r\n\r\n", part.mime)
		msg.WriteString(part.body)
		msg.WriteString("\r\n")
	}

	fmt.Fprintf(&msg, "--%s--\r\n", boundary)
	return msg.String()
}

// SendEmail sends an e-mail to the given recipients.
func (s *Service) SendEmail(to []string, subject, htmlBody, textBody string) error {
	if !s.enabled || len(to) == 0 {
		return nil
	}

	msg := []byte(s.buildMessage(to, subject, htmlBody, textBody))
	addr := net.JoinHostPort(s.cfg.SMTPHost, strconv.Itoa(s.cfg.SMTPPort))

	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" && s.cfg.SMTPPassword != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}

	if s.cfg.SMTPTLS != "tls" && s.cfg.SMTPTLS != "starttls" {
		return smtp.SendMail(addr, auth, s.cfg.SMTPFrom, to, msg)
	}

	client, err := s.dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()
	return s.deliver(client, auth, to, msg)
}

// dial opens a client over implicit TLS (port 465) or upgrades a plain
// connection with STARTTLS (port 587).
func (s *Service) dial(addr string) (*smtp.Client, error) {
	tlsConfig := &tls.Config{ServerName: s.cfg.SMTPHost, MinVersion: tls.VersionTLS12}

	if s.cfg.SMTPTLS == "tls" {
		conn, err := tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			return nil, smtpErr("dial", err)
		}
		client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			conn.Close()
			return nil, smtpErr("handshake", err)
		}
		return client, nil
	}

	client, err := smtp.Dial(addr)
	if err != nil {
		return nil, smtpErr("dial", err)
	}
	if err := client.StartTLS(tlsConfig); err != nil {
		client.Close()
		return nil, smtpErr("starttls", err)
	}
	return client, nil
}

// deliver runs one mail transaction on an open client.
func (s *Service) deliver(client *smtp.Client, auth smtp.Auth, to []string, msg []byte) error {
	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return smtpErr("auth", err)
		}
	}
	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return smtpErr("MAIL FROM", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return smtpErr("RCPT TO "+rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return smtpErr("DATA", err)
	}
	if _, err := w.Write(msg); err != nil {
		return smtpErr("write", err)
	}
	if err := w.Close(); err != nil {
		return smtpErr("end of data", err)
	}
	return client.Quit()
}

func smtpErr(step string, err error) error {
	return fmt.Errorf("smtp %s: %w", step, err)
}

// SendAsync sends an e-mail in the background, logging the outcome.
func (s *Service) SendAsync(to []string, subject, htmlBody, textBody string) {
	if !s.enabled || len(to) == 0 {
		return
	}

	go func() {
		if err := s.SendEmail(to, subject, htmlBody, textBody); err != nil {
			s.log.Error("failed to send e-mail", zap.Strings("to", to), zap.Error(err))
			return
		}
		s.log.Info("e-mail sent", zap.Strings("to", to), zap.String("subject", subject))
	}()
}
