package conversation

import (
	"context"
	"errors"
	"html"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/consult-chat/internal/observability/metrics"
	"github.com/wolfman30/consult-chat/internal/session"
	"github.com/wolfman30/consult-chat/internal/siteinfo"
	"github.com/wolfman30/consult-chat/pkg/logging"
)

// Canned replies used when the model cannot be relied on.
const (
	ReplyServiceUnavailable = "Sorry, our assistant is having trouble right now. Would you like to book via Email or Phone?"
	ReplyNoGoodResponse     = "Sorry, I couldn't get a good response. Would you like to book via Email or Phone?"
	ReplyAlreadyHaveDetails = "You already have the details! Feel free to reach out whenever you're ready."
	ReplyOffTopic           = "I can only help with booking a consultation. Would you like to book via Email or Phone?"
)

const defaultLLMTimeout = 20 * time.Second

// reaskPattern spots the model asking for a channel the visitor already got.
var reaskPattern = regexp.MustCompile(`(?i)would you like to book (via|by|through|with) (e-?mail|phone)(,)? or (e-?mail|phone)`)

// FallbackConfig configures a FallbackResponder.
type FallbackConfig struct {
	Site    siteinfo.SiteInfo
	Timeout time.Duration
	Metrics *metrics.ChatMetrics
	Logger  *logging.Logger
}

// FallbackResponder relays unmatched messages to the generative model.
type FallbackResponder struct {
	client  LLMClient
	prompt  string
	timeout time.Duration
	metrics *metrics.ChatMetrics
	logger  *logging.Logger
	tracer  trace.Tracer

	missingOnce sync.Once
}

// NewFallbackResponder wraps client. A nil client makes every reply the
// service-unavailable string.
func NewFallbackResponder(client LLMClient, cfg FallbackConfig) *FallbackResponder {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultLLMTimeout
	}
	return &FallbackResponder{
		client:  client,
		prompt:  BuildSystemPrompt(cfg.Site),
		timeout: cfg.Timeout,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		tracer:  otel.Tracer("consult-chat.internal.conversation.fallback"),
	}
}

// Reply asks the model for an answer to message. It never fails: every
// error path maps to a canned reply that still offers both channels.
func (f *FallbackResponder) Reply(ctx context.Context, message string, s *session.Session) string {
	if f.client == nil {
		f.missingOnce.Do(func() {
			f.logger.Error("fallback: no generative client configured, replying with canned text")
		})
		f.metrics.ObserveLLM("unconfigured", 0)
		return ReplyServiceUnavailable
	}

	ctx, span := f.tracer.Start(ctx, "fallback.reply")
	defer span.End()

	inbound := ScanForPromptInjection(message)
	if inbound.Blocked {
		span.SetAttributes(attribute.StringSlice("fallback.prompt_guard", inbound.Reasons))
		f.logger.Warn("fallback: blocked inbound message", "reasons", inbound.Reasons, "score", inbound.Score)
		f.metrics.ObserveLLM("blocked", 0)
		return ReplyOffTopic
	}

	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	resp, err := f.client.Complete(callCtx, LLMRequest{
		System:   []string{f.prompt},
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: inbound.Sanitized}},
	})
	elapsed := time.Since(start).Seconds()

	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrEmptyResponse) {
			f.metrics.ObserveLLM("empty", elapsed)
			f.logger.Warn("fallback: model returned no usable text", "error", err)
			return ReplyNoGoodResponse
		}
		f.metrics.ObserveLLM("error", elapsed)
		f.logger.Error("fallback: generative api call failed", "error", err, "duration_s", elapsed)
		return ReplyServiceUnavailable
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		f.metrics.ObserveLLM("empty", elapsed)
		return ReplyNoGoodResponse
	}
	f.metrics.ObserveLLM("ok", elapsed)

	if guard := ScanOutput(text); guard.Leaked {
		span.SetAttributes(attribute.StringSlice("fallback.guard_reasons", guard.Reasons))
		f.logger.Warn("fallback: blocked model reply", "reasons", guard.Reasons)
		return ReplyNoGoodResponse
	}

	if s != nil && s.HasProvided() && reaskPattern.MatchString(text) {
		span.SetAttributes(attribute.Bool("fallback.reask_suppressed", true))
		f.logger.Debug("fallback: suppressed channel re-prompt", "last_provided", string(s.LastProvided))
		return ReplyAlreadyHaveDetails
	}
	// The widget renders replies as HTML.
	return html.EscapeString(text)
}
