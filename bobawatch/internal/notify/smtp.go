package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net/textproto"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/hazyhaar/menuwatch/bobawatch/availability"
)

// SMTPConfig configures the mail collaborator.
type SMTPConfig struct {
	Host     string
	Port     int
	Sender   string
	Password string
	Receiver string

	// ImplicitTLS wraps the connection in TLS before the greeting (port 465).
	// Without it STARTTLS is used when the server offers it.
	ImplicitTLS bool

	// Timeout bounds the connection. Default: 30s.
	Timeout time.Duration
}

// SMTP sends plain-text single-recipient messages.
type SMTP struct {
	cfg    SMTPConfig
	logger *slog.Logger
	now    func() time.Time
}

// Option configures an SMTP notifier.
type Option func(*SMTP)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *SMTP) { s.logger = l }
}

// WithClock overrides the Date header source.
func WithClock(now func() time.Time) Option {
	return func(s *SMTP) { s.now = now }
}

// NewSMTP creates an SMTP notifier. Credentials are trimmed of whitespace.
func NewSMTP(cfg SMTPConfig, opts ...Option) *SMTP {
	cfg.Sender = strings.TrimSpace(cfg.Sender)
	cfg.Password = strings.TrimSpace(cfg.Password)
	cfg.Receiver = strings.TrimSpace(cfg.Receiver)
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	s := &SMTP{cfg: cfg, logger: slog.Default(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Enabled reports whether all three credentials are present.
func (s *SMTP) Enabled() bool {
	return s.cfg.Sender != "" && s.cfg.Password != "" && s.cfg.Receiver != ""
}

// Send delivers msg. Missing credentials short-circuit to ErrNoCredentials.
func (s *SMTP) Send(ctx context.Context, msg availability.Message) error {
	if !s.Enabled() {
		return ErrNoCredentials
	}

	m, err := s.compose(msg)
	if err != nil {
		return &SendError{Stage: "compose", Cause: err}
	}
	c, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return &SendError{Stage: "compose", Cause: err}
	}

	// DialWithContext covers connect, EHLO, STARTTLS and AUTH.
	if err := c.DialWithContext(ctx); err != nil {
		return &SendError{Stage: dialStage(err), Cause: err}
	}
	if err := c.Send(m); err != nil {
		c.Close()
		return &SendError{Stage: "send", Cause: err}
	}
	if err := c.Close(); err != nil {
		return &SendError{Stage: "quit", Cause: err}
	}

	s.logger.Info("notify: email sent",
		"receiver", s.cfg.Receiver, "subject", msg.Subject)
	return nil
}

func (s *SMTP) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(s.cfg.Timeout),
		mail.WithTLSConfig(&tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Sender),
		mail.WithPassword(s.cfg.Password),
	}
	if s.cfg.ImplicitTLS {
		return append(opts, mail.WithSSL())
	}
	return append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
}

// compose builds the 8bit plain-text message.
func (s *SMTP) compose(msg availability.Message) (*mail.Msg, error) {
	m := mail.NewMsg(mail.WithEncoding(mail.NoEncoding))
	if err := m.From(s.cfg.Sender); err != nil {
		return nil, err
	}
	if err := m.To(s.cfg.Receiver); err != nil {
		return nil, err
	}
	m.Subject(msg.Subject)
	m.SetDateWithValue(s.now())
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}

// dialStage tells a rejected login apart from a connection failure.
func dialStage(err error) string {
	var te *textproto.Error
	if errors.As(err, &te) && te.Code >= 530 && te.Code < 540 {
		return "auth"
	}
	if strings.Contains(strings.ToLower(err.Error()), "auth") {
		return "auth"
	}
	return "dial"
}
