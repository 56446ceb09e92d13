// Package chat runs one visitor turn end to end and exposes it over HTTP.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/consult-chat/internal/intent"
	"github.com/wolfman30/consult-chat/internal/observability/metrics"
	"github.com/wolfman30/consult-chat/internal/responder"
	"github.com/wolfman30/consult-chat/internal/session"
	"github.com/wolfman30/consult-chat/pkg/logging"
)

// Reply sources reported in Result and metrics.
const (
	SourceRule  = "rule"
	SourceModel = "model"
	SourceEmpty = "empty"
)

// ReplyEmptyMessage answers a blank message without touching the session.
const ReplyEmptyMessage = "Please type a message. Would you like to book via Email or Phone?"

// Notifier fires the new-conversation alert.
type Notifier interface {
	NotifyNewConversation(ctx context.Context, identity, firstMessage string) bool
	SendTest(ctx context.Context) error
	Reset(ctx context.Context) error
}

// Fallback answers messages no rule matched.
type Fallback interface {
	Reply(ctx context.Context, message string, s *session.Session) string
}

// Result is the outcome of one turn.
type Result struct {
	Reply  string
	Source string
	Intent intent.Kind
}

// Config wires the service's collaborators. Notifier may be nil.
type Config struct {
	Sessions  session.Store
	Responder *responder.Responder
	Fallback  Fallback
	Notifier  Notifier
	Metrics   *metrics.ChatMetrics
	Logger    *logging.Logger
	Now       func() time.Time
}

// Service is safe for concurrent use. Turns for the same identity run one
// at a time, including the model call.
type Service struct {
	sessions session.Store
	locker   *session.Locker
	rules    *responder.Responder
	fallback Fallback
	notifier Notifier
	metrics  *metrics.ChatMetrics
	logger   *logging.Logger
	now      func() time.Time
}

// NewService validates cfg and builds a Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Sessions == nil {
		return nil, errors.New("chat: session store is required")
	}
	if cfg.Responder == nil {
		return nil, errors.New("chat: responder is required")
	}
	if cfg.Fallback == nil {
		return nil, errors.New("chat: fallback responder is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		sessions: cfg.Sessions,
		locker:   session.NewLocker(),
		rules:    cfg.Responder,
		fallback: cfg.Fallback,
		notifier: cfg.Notifier,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}, nil
}

// Handle answers message for identity. It never fails; store and model
// errors are logged and degrade to canned replies.
func (s *Service) Handle(ctx context.Context, identity, message string) Result {
	msg := strings.TrimSpace(message)
	if msg == "" {
		s.metrics.ObserveReply(SourceEmpty, intent.None.String())
		return Result{Reply: ReplyEmptyMessage, Source: SourceEmpty, Intent: intent.None}
	}

	if s.notifier != nil {
		s.notifier.NotifyNewConversation(ctx, identity, msg)
	}

	unlock := s.locker.Lock(identity)
	defer unlock()

	sess, err := s.sessions.Load(ctx, identity)
	if err != nil {
		s.logger.Error("chat: session load failed, starting fresh", "identity", identity, "error", err)
		sess = session.New()
	}

	var res Result
	if reply, ok := s.rules.Respond(msg, sess); ok {
		res = Result{Reply: reply.Text, Source: SourceRule, Intent: reply.Intent}
	} else {
		res = Result{Reply: s.fallback.Reply(ctx, msg, sess), Source: SourceModel, Intent: intent.None}
		sess.UpdatedAt = s.now().UTC()
	}

	if err := s.sessions.Save(ctx, identity, sess); err != nil {
		s.logger.Error("chat: session save failed", "identity", identity, "error", err)
	}

	s.metrics.ObserveReply(res.Source, res.Intent.String())
	s.logger.Debug("chat: turn handled", "identity", identity, "source", res.Source, "intent", res.Intent.String())
	return res
}

// Reset clears every session and notification record.
func (s *Service) Reset(ctx context.Context) error {
	var errs []error
	if err := s.sessions.Reset(ctx); err != nil {
		errs = append(errs, fmt.Errorf("chat: reset sessions: %w", err))
	}
	if s.notifier != nil {
		if err := s.notifier.Reset(ctx); err != nil {
			errs = append(errs, fmt.Errorf("chat: reset notifications: %w", err))
		}
	}
	return errors.Join(errs...)
}

// SendTestMail triggers a diagnostic email.
func (s *Service) SendTestMail(ctx context.Context) error {
	if s.notifier == nil {
		return errors.New("chat: notifications not configured")
	}
	return s.notifier.SendTest(ctx)
}
