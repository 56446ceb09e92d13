package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/wolfman30/consult-chat/pkg/logging"
)

const defaultFromName = "Consultation Chat"

// Message kinds, forwarded to providers as a category or tag so alerts can
// be filtered in their dashboards.
const (
	KindNewConversation = "new-conversation"
	KindTest            = "test"
)

// EmailSender delivers one alert email.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is an alert addressed to the site owner.
type EmailMessage struct {
	To      string
	Subject string
	Body    string // plain text
	HTML    string // optional; Body is used when empty
	Kind    string
}

func (m EmailMessage) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return errors.New("notify: email recipient is empty")
	}
	if strings.TrimSpace(m.Subject) == "" {
		return errors.New("notify: email subject is empty")
	}
	return nil
}

func (m EmailMessage) htmlOrBody() string {
	if m.HTML != "" {
		return m.HTML
	}
	return m.Body
}

// sendGridDeliver posts a prepared mail and reports the HTTP status.
type sendGridDeliver func(ctx context.Context, m *mail.SGMailV3) (status int, body string, err error)

// SendGridSender delivers alerts through the SendGrid v3 mail API.
type SendGridSender struct {
	deliver sendGridDeliver
	from    *mail.Email
	logger  *logging.Logger
}

// SendGridConfig holds SendGrid credentials and the sender identity.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridSender returns nil when no API key is configured.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	client := sendgrid.NewSendClient(cfg.APIKey)
	return newSendGridSender(func(ctx context.Context, m *mail.SGMailV3) (int, string, error) {
		resp, err := client.SendWithContext(ctx, m)
		if err != nil {
			return 0, "", err
		}
		return resp.StatusCode, resp.Body, nil
	}, cfg, logger)
}

func newSendGridSender(deliver sendGridDeliver, cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = defaultFromName
	}
	return &SendGridSender{
		deliver: deliver,
		from:    mail.NewEmail(cfg.FromName, cfg.FromEmail),
		logger:  logger.Component("sendgrid"),
	}
}

func (s *SendGridSender) build(msg EmailMessage) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(s.from)
	m.Subject = msg.Subject

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", msg.To))
	m.AddPersonalizations(p)

	m.AddContent(mail.NewContent("text/plain", msg.Body), mail.NewContent("text/html", msg.htmlOrBody()))
	if msg.Kind != "" {
		m.AddCategories(msg.Kind)
	}
	return m
}

// Send delivers msg. Any non-2xx status is an error.
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.deliver == nil {
		return errors.New("notify: sendgrid sender not configured")
	}
	if err := msg.validate(); err != nil {
		return err
	}

	status, body, err := s.deliver(ctx, s.build(msg))
	if err != nil {
		return fmt.Errorf("notify: sendgrid send: %w", err)
	}
	if status < 200 || status > 299 {
		s.logger.Error("sendgrid rejected alert", "status", status, "body", body, "kind", msg.Kind)
		return fmt.Errorf("notify: sendgrid status %d", status)
	}
	s.logger.Debug("alert delivered", "status", status, "kind", msg.Kind)
	return nil
}

// StubEmailSender logs alerts instead of sending them and keeps a copy of
// each one.
type StubEmailSender struct {
	logger *logging.Logger

	mu   sync.Mutex
	sent []EmailMessage
}

// NewStubEmailSender returns a sender for local runs with email disabled.
func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger.Component("stub-email")}
}

// Send records msg.
func (s *StubEmailSender) Send(_ context.Context, msg EmailMessage) error {
	if err := msg.validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
	s.logger.Info("alert not sent (stub sender)", "to", msg.To, "subject", msg.Subject, "kind", msg.Kind)
	return nil
}

// Sent returns the alerts recorded so far.
func (s *StubEmailSender) Sent() []EmailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]EmailMessage(nil), s.sent...)
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*StubEmailSender)(nil)
)
