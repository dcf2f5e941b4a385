// Package mail delivers notification email.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/mcnijman/go-emailaddress"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/jw6ventures/punchclock/internal/timeclock"
)

// Config holds SMTP relay settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	// From may include a display name, e.g. `"CLUCK" <cluck@example.com>`.
	From    string
	ReplyTo string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTP sends each message through an SMTP relay.
type SMTP struct {
	cfg    Config
	from   *mail.Address
	send   sendFunc
	now    func() time.Time
	logger *zap.Logger
}

var _ timeclock.Mailer = (*SMTP)(nil)

func NewSMTP(cfg Config, logger *zap.Logger) (*SMTP, error) {
	from, err := mail.ParseAddress(cfg.From)
	if err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", cfg.From, err)
	}
	if cfg.ReplyTo != "" {
		if _, err := emailaddress.Parse(cfg.ReplyTo); err != nil {
			return nil, fmt.Errorf("invalid reply-to address %q: %w", cfg.ReplyTo, err)
		}
	}
	return &SMTP{cfg: cfg, from: from, send: smtp.SendMail, now: time.Now, logger: logger}, nil
}

// Send delivers every message, continuing past failures. The failures are
// returned together.
func (s *SMTP) Send(ctx context.Context, messages []timeclock.Email) error {
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	var errs error
	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		to, err := emailaddress.Parse(strings.TrimSpace(msg.To))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("invalid recipient %q: %w", msg.To, err))
			continue
		}
		body := s.render(to.String(), msg)
		if err := s.send(addr, auth, s.from.Address, []string{to.String()}, body); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("send to %s: %w", to, err))
			continue
		}
		s.logger.Debug("email sent", zap.String("to", to.String()), zap.String("subject", msg.Subject))
	}
	return errs
}

func (s *SMTP) render(to string, msg timeclock.Email) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", s.from.String())
	fmt.Fprintf(&b, "To: %s\r\n", to)
	if s.cfg.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", s.cfg.ReplyTo)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", s.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return b.Bytes()
}

// Offline logs messages instead of sending them.
type Offline struct {
	logger *zap.Logger
}

var _ timeclock.Mailer = (*Offline)(nil)

func NewOffline(logger *zap.Logger) *Offline {
	return &Offline{logger: logger}
}

func (o *Offline) Send(_ context.Context, messages []timeclock.Email) error {
	for _, msg := range messages {
		o.logger.Info("offline mode: email not sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	}
	return nil
}
