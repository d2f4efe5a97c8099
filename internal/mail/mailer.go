// Package mail dispatches verification codes. With SMTP configured it
// sends a real message; without it the code is emitted to the server log
// so the verification flow stays fully testable offline.
package mail

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"mock-auth-server/internal/observability"
)

// Sender delivers a verification code to an address.
type Sender interface {
	Send(to, code string) error
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	CodeTTL  time.Duration
}

// NewSender picks the SMTP sender when host and user are configured and
// falls back to console emission otherwise, mirroring how the server is
// run in local test loops.
func NewSender(cfg Config, logger *observability.Logger) Sender {
	if cfg.Host == "" || cfg.User == "" {
		return &consoleSender{logger: logger}
	}
	if cfg.From == "" {
		cfg.From = cfg.User
	}

	return &smtpSender{cfg: cfg, logger: logger}
}

type consoleSender struct {
	logger *observability.Logger
}

// Send never fails: the code lands in the log where the operator (or a
// test harness scraping output) can read it.
func (s *consoleSender) Send(to, code string) error {
	s.logger.Info("verification_code_console", map[string]any{
		"email": to,
		"code":  code,
	})

	return nil
}

type smtpSender struct {
	cfg    Config
	logger *observability.Logger
}

func (s *smtpSender) Send(to, code string) error {
	message := s.buildMessage(to, code)
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)

	var err error
	if s.cfg.Port == 465 {
		err = s.sendImplicitTLS(addr, auth, to, message)
	} else {
		err = smtp.SendMail(addr, auth, s.cfg.From, []string{to}, message)
	}
	if err != nil {
		return fmt.Errorf("send verification mail: %w", err)
	}

	s.logger.Info("verification_code_sent", map[string]any{"email": to})
	return nil
}

// sendImplicitTLS handles SMTPS (port 465), where the TLS handshake
// precedes the SMTP dialogue instead of STARTTLS.
func (s *smtpSender) sendImplicitTLS(addr string, auth smtp.Auth, to string, message []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.cfg.Host})
	if err != nil {
		return err
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(s.cfg.From); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	writer, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := writer.Write(message); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	return client.Quit()
}

func (s *smtpSender) buildMessage(to, code string) []byte {
	validMinutes := int(s.cfg.CodeTTL.Minutes())
	plural := "s"
	if validMinutes == 1 {
		plural = ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	b.WriteString("Subject: [MockAuth] Email Verification Code\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b,
		`<div style="font-family:sans-serif;max-width:480px;margin:0 auto;padding:32px">`+
			`<h2>Email Verification</h2>`+
			`<p>Please use the verification code below to complete your request.</p>`+
			`<div style="margin:24px 0;padding:20px;background:#f4f6fb;border-radius:8px;text-align:center">`+
			`<span style="font-size:32px;font-weight:700;letter-spacing:8px">%s</span>`+
			`</div>`+
			`<p>This code is valid for %d minute%s. If you did not request this, you can safely ignore this email.</p>`+
			`</div>`, code, validMinutes, plural)

	return []byte(b.String())
}
