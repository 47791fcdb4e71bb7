// Package mail is the delivery collaborator for password-reset codes. The
// transport itself is out of scope for the persistence layer; the service
// only depends on the Mailer interface.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"
)

// Mailer delivers a password-reset code to an account's email address.
type Mailer interface {
	SendResetCode(ctx context.Context, to, code string, validFor time.Duration) error
}

// SMTPMailer sends reset codes over plain SMTP with optional AUTH.
type SMTPMailer struct {
	Addr     string // host:port
	From     string
	Username string // optional, enables PLAIN auth together with Password
	Password string
}

func (m *SMTPMailer) SendResetCode(
	ctx context.Context,
	to, code string,
	validFor time.Duration,
) error {
	var auth smtp.Auth
	if m.Username != "" {
		host := m.Addr
		if i := strings.LastIndex(host, ":"); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", m.Username, m.Password, host)
	}

	body := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Your password reset code\r\n\r\n"+
			"Your password reset code is %s. It expires in %d minutes.\r\n",
		m.From, to, code, int(validFor.Minutes()),
	)

	// net/smtp has no context support; the deadline is the connection's own.
	if err := smtp.SendMail(m.Addr, auth, m.From, []string{to}, []byte(body)); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

// LogMailer is used when no SMTP endpoint is configured. It logs that a code
// was issued without printing the code itself.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) SendResetCode(
	ctx context.Context,
	to, code string,
	validFor time.Duration,
) error {
	m.Logger.Info("password reset code issued (no mailer configured)",
		"to", to,
		"valid_for", validFor,
	)
	return nil
}
