package bootstrap

import (
	"context"
	"fmt"
	"strings"

	appconfig "github.com/wolfman30/consult-chat/internal/config"
	"github.com/wolfman30/consult-chat/internal/conversation"
	"github.com/wolfman30/consult-chat/internal/observability/metrics"
	"github.com/wolfman30/consult-chat/internal/siteinfo"
	"github.com/wolfman30/consult-chat/pkg/logging"
)

// BuildFallbackResponder wires the Gemini client into a FallbackResponder.
// Without an API key the responder still works and answers every unmatched
// message with the service-unavailable reply. The returned close func is
// never nil.
func BuildFallbackResponder(ctx context.Context, cfg *appconfig.Config, site siteinfo.SiteInfo, m *metrics.ChatMetrics, logger *logging.Logger) (*conversation.FallbackResponder, func(), error) {
	if cfg == nil {
		return nil, func() {}, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	fbCfg := conversation.FallbackConfig{
		Site:    site,
		Timeout: cfg.LLMTimeout,
		Metrics: m,
		Logger:  logger.Component("fallback"),
	}

	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		logger.Error("GEMINI_API_KEY not set; unmatched messages get a canned reply")
		return conversation.NewFallbackResponder(nil, fbCfg), func() {}, nil
	}

	client, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
	if err != nil {
		return nil, func() {}, fmt.Errorf("bootstrap: gemini client: %w", err)
	}
	logger.Info("using gemini fallback", "model", cfg.GeminiModelID, "timeout", cfg.LLMTimeout.String())

	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close gemini client", "error", err)
		}
	}
	return conversation.NewFallbackResponder(client, fbCfg), closeFn, nil
}
