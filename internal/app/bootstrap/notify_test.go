package bootstrap

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"

	appconfig "github.com/wolfman30/consult-chat/internal/config"
	"github.com/wolfman30/consult-chat/internal/notify"
	"github.com/wolfman30/consult-chat/pkg/logging"
)

type nopSES struct{}

func (nopSES) SendEmail(context.Context, *sesv2.SendEmailInput, ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	return &sesv2.SendEmailOutput{}, nil
}

func TestBuildEmailSender(t *testing.T) {
	logger := logging.New("error")

	assert.Nil(t, BuildEmailSender(&appconfig.Config{EmailProvider: "sendgrid"}, nil, logger))
	assert.IsType(t, &notify.SendGridSender{}, BuildEmailSender(&appconfig.Config{EmailProvider: "sendgrid", SendGridAPIKey: "key"}, nil, logger))
	assert.IsType(t, &notify.StubEmailSender{}, BuildEmailSender(&appconfig.Config{EmailProvider: "stub"}, nil, logger))
	assert.Nil(t, BuildEmailSender(&appconfig.Config{EmailProvider: "ses"}, nil, logger))
	assert.IsType(t, &notify.SESSender{}, BuildEmailSender(&appconfig.Config{EmailProvider: "ses", SESFromEmail: "bot@example.com"}, nopSES{}, logger))
	assert.Nil(t, BuildEmailSender(&appconfig.Config{EmailProvider: "fax"}, nil, logger))
}

func TestBuildNotifierDisabledWithoutAdmin(t *testing.T) {
	svc := BuildNotifier(&appconfig.Config{}, notify.NewStubEmailSender(nil), notify.NewMemoryStore(), "", nil, logging.New("error"))
	assert.False(t, svc.NotifyNewConversation(context.Background(), "id", "hi"))
	assert.ErrorIs(t, svc.SendTest(context.Background()), notify.ErrNotConfigured)
}

func TestBuildNotifierSends(t *testing.T) {
	cfg := &appconfig.Config{AdminEmail: "owner@example.com"}
	svc := BuildNotifier(cfg, notify.NewStubEmailSender(nil), notify.NewMemoryStore(), "https://example.com", nil, logging.New("error"))
	assert.True(t, svc.NotifyNewConversation(context.Background(), "id", "hi"))
	assert.False(t, svc.NotifyNewConversation(context.Background(), "id", "again"))
}
