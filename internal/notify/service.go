package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/wolfman30/consult-chat/internal/observability/metrics"
	"github.com/wolfman30/consult-chat/pkg/logging"
)

// ErrNotConfigured is returned when no sender or admin address is set.
var ErrNotConfigured = errors.New("notify: email sender or admin address not configured")

const (
	outcomeSent       = "sent"
	outcomeFailed     = "failed"
	outcomeSuppressed = "suppressed"
	outcomeDisabled   = "disabled"

	defaultSendTimeout = 10 * time.Second
	maxPreviewRunes    = 500
)

// ServiceConfig configures the notification service.
type ServiceConfig struct {
	AdminEmail string
	Website    string
	Timeout    time.Duration
	Metrics    *metrics.ChatMetrics
	Logger     *logging.Logger
	Now        func() time.Time
}

// Service sends the site owner an email when a visitor starts a conversation.
type Service struct {
	email      EmailSender
	gate       *Gate
	adminEmail string
	website    string
	timeout    time.Duration
	metrics    *metrics.ChatMetrics
	logger     *logging.Logger
	now        func() time.Time

	disabledOnce sync.Once
}

// NewService creates a notification service. email may be nil, in which case
// alerts are disabled and a single error is logged on first use.
func NewService(email EmailSender, gate *Gate, cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSendTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if gate == nil {
		gate = NewGate(nil, GateConfig{Logger: cfg.Logger})
	}
	return &Service{
		email:      email,
		gate:       gate,
		adminEmail: strings.TrimSpace(cfg.AdminEmail),
		website:    cfg.Website,
		timeout:    cfg.Timeout,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		now:        cfg.Now,
	}
}

func (s *Service) configured() bool {
	return s.email != nil && s.adminEmail != ""
}

// NotifyNewConversation emails the admin unless identity was already
// reported inside the suppression window. It never returns an error; the
// result only says whether an email went out.
func (s *Service) NotifyNewConversation(ctx context.Context, identity, firstMessage string) bool {
	if !s.configured() {
		s.disabledOnce.Do(func() {
			s.logger.Error("new-conversation alerts disabled", "error", ErrNotConfigured)
		})
		s.metrics.ObserveNotification(outcomeDisabled)
		return false
	}

	if !s.gate.TryClaim(ctx, identity) {
		s.metrics.ObserveNotification(outcomeSuppressed)
		return false
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msg := s.newConversationMessage(identity, firstMessage)
	if err := s.email.Send(sendCtx, msg); err != nil {
		s.logger.Error("failed to send new-conversation email", "identity", identity, "error", err)
		s.metrics.ObserveNotification(outcomeFailed)
		return false
	}

	s.logger.Info("new-conversation email sent", "identity", identity, "to", s.adminEmail)
	s.metrics.ObserveNotification(outcomeSent)
	return true
}

// SendTest sends a fixed diagnostic email to the admin address.
func (s *Service) SendTest(ctx context.Context) error {
	if !s.configured() {
		return ErrNotConfigured
	}
	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	at := s.now().UTC().Format(time.RFC1123)
	msg := EmailMessage{
		To:      s.adminEmail,
		Subject: "Test email from your chat assistant",
		Body:    "If you can read this, new-conversation alerts are working. Sent " + at + ".",
		HTML:    "<p>If you can read this, new-conversation alerts are working.</p><p>Sent " + html.EscapeString(at) + ".</p>",
		Kind:    KindTest,
	}
	if err := s.email.Send(sendCtx, msg); err != nil {
		return fmt.Errorf("notify: send test email: %w", err)
	}
	return nil
}

// Reset clears every notification record.
func (s *Service) Reset(ctx context.Context) error {
	return s.gate.Reset(ctx)
}

func (s *Service) newConversationMessage(identity, firstMessage string) EmailMessage {
	at := s.now().UTC().Format(time.RFC1123)
	preview := truncateRunes(strings.TrimSpace(firstMessage), maxPreviewRunes)
	subject := "New chat conversation started"
	if s.website != "" {
		subject += " on " + s.website
	}

	var text strings.Builder
	text.WriteString("A visitor just started a conversation with your chat assistant.\n\n")
	fmt.Fprintf(&text, "Visitor: %s\n", identity)
	fmt.Fprintf(&text, "Time: %s\n", at)
	if preview != "" {
		fmt.Fprintf(&text, "First message: %s\n", preview)
	}

	var body strings.Builder
	body.WriteString("<h2>New chat conversation</h2>")
	body.WriteString("<p>A visitor just started a conversation with your chat assistant.</p><ul>")
	fmt.Fprintf(&body, "<li><strong>Visitor:</strong> %s</li>", html.EscapeString(identity))
	fmt.Fprintf(&body, "<li><strong>Time:</strong> %s</li>", html.EscapeString(at))
	body.WriteString("</ul>")
	if preview != "" {
		fmt.Fprintf(&body, "<p><strong>First message:</strong></p><blockquote>%s</blockquote>", html.EscapeString(preview))
	}

	return EmailMessage{
		To:      s.adminEmail,
		Subject: subject,
		Body:    text.String(),
		HTML:    body.String(),
		Kind:    KindNewConversation,
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
