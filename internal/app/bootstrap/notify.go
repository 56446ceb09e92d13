package bootstrap

import (
	"strings"

	appconfig "github.com/wolfman30/consult-chat/internal/config"
	"github.com/wolfman30/consult-chat/internal/notify"
	"github.com/wolfman30/consult-chat/internal/observability/metrics"
	"github.com/wolfman30/consult-chat/pkg/logging"
)

const (
	providerSendGrid = "sendgrid"
	providerSES      = "ses"
	providerStub     = "stub"
)

// BuildEmailSender picks the configured provider. It returns nil when the
// provider lacks credentials, which disables alerts. ses may be nil unless
// the provider is "ses".
func BuildEmailSender(cfg *appconfig.Config, ses notify.SESAPI, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.EmailProvider {
	case providerSES:
		if ses == nil || strings.TrimSpace(cfg.SESFromEmail) == "" {
			logger.Error("SES email provider selected but client or SES_FROM_EMAIL missing")
			return nil
		}
		return notify.NewSESSender(ses, notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
	case providerStub:
		return notify.NewStubEmailSender(logger)
	case providerSendGrid, "":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender == nil {
			logger.Error("SENDGRID_API_KEY not set; new-conversation alerts disabled")
			return nil
		}
		return sender
	default:
		logger.Error("unknown EMAIL_PROVIDER; new-conversation alerts disabled", "provider", cfg.EmailProvider)
		return nil
	}
}

// BuildNotifier assembles the gate and notification service.
func BuildNotifier(cfg *appconfig.Config, sender notify.EmailSender, store notify.TimestampStore, website string, m *metrics.ChatMetrics, logger *logging.Logger) *notify.Service {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Component("notify")
	if strings.TrimSpace(cfg.AdminEmail) == "" {
		logger.Error("ADMIN_EMAIL not set; new-conversation alerts disabled")
	}
	gate := notify.NewGate(store, notify.GateConfig{Window: cfg.NotifyWindow, Logger: logger})
	return notify.NewService(sender, gate, notify.ServiceConfig{
		AdminEmail: cfg.AdminEmail,
		Website:    website,
		Timeout:    cfg.NotifyTimeout,
		Metrics:    m,
		Logger:     logger,
	})
}
