package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/consult-chat/pkg/logging"
)

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "",
		FromEmail: "test@example.com",
	}, nil)

	if sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestNewSendGridSender_FromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{APIKey: "test-key", FromEmail: "test@example.com"}, nil)
	require.NotNil(t, sender)
	assert.Equal(t, defaultFromName, sender.from.Name)

	sender = NewSendGridSender(SendGridConfig{APIKey: "test-key", FromEmail: "test@example.com", FromName: "Custom Name"}, nil)
	require.NotNil(t, sender)
	assert.Equal(t, "Custom Name", sender.from.Name)
	assert.Equal(t, "test@example.com", sender.from.Address)
}

func TestSendGridSender_SendBuildsMail(t *testing.T) {
	var got *mail.SGMailV3
	sender := newSendGridSender(func(_ context.Context, m *mail.SGMailV3) (int, string, error) {
		got = m
		return 202, "", nil
	}, SendGridConfig{FromEmail: "bot@example.com"}, logging.New("error"))

	err := sender.Send(context.Background(), EmailMessage{
		To:      "owner@example.com",
		Subject: "New chat",
		Body:    "plain",
		Kind:    KindNewConversation,
	})
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "bot@example.com", got.From.Address)
	assert.Equal(t, "New chat", got.Subject)
	require.Len(t, got.Personalizations, 1)
	require.Len(t, got.Personalizations[0].To, 1)
	assert.Equal(t, "owner@example.com", got.Personalizations[0].To[0].Address)
	require.Len(t, got.Content, 2)
	assert.Equal(t, "text/plain", got.Content[0].Type)
	assert.Equal(t, "text/html", got.Content[1].Type)
	assert.Equal(t, "plain", got.Content[1].Value, "HTML part falls back to the text body")
	assert.Equal(t, []string{KindNewConversation}, got.Categories)
}

func TestSendGridSender_SendFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		err    error
	}{
		{"transport error", 0, errors.New("dial tcp: timeout")},
		{"rejected", 401, nil},
		{"server error", 503, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := newSendGridSender(func(context.Context, *mail.SGMailV3) (int, string, error) {
				return tt.status, `{"errors":[]}`, tt.err
			}, SendGridConfig{FromEmail: "bot@example.com"}, logging.New("error"))

			err := sender.Send(context.Background(), EmailMessage{To: "owner@example.com", Subject: "x", Body: "y"})
			assert.Error(t, err)
		})
	}
}

func TestSendGridSender_Send_NotConfigured(t *testing.T) {
	var sender *SendGridSender
	err := sender.Send(context.Background(), EmailMessage{To: "owner@example.com", Subject: "Test", Body: "Test body"})
	assert.Error(t, err)
}

func TestEmailMessage_Validate(t *testing.T) {
	assert.Error(t, EmailMessage{Subject: "x"}.validate())
	assert.Error(t, EmailMessage{To: "owner@example.com", Subject: "  "}.validate())
	assert.NoError(t, EmailMessage{To: "owner@example.com", Subject: "x"}.validate())
}

func TestStubEmailSender_RecordsMessages(t *testing.T) {
	sender := NewStubEmailSender(logging.New("error"))

	err := sender.Send(context.Background(), EmailMessage{To: "owner@example.com", Subject: "Test Subject", Body: "Test body"})
	require.NoError(t, err)
	assert.Error(t, sender.Send(context.Background(), EmailMessage{Subject: "no recipient"}))

	sent := sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Test Subject", sent[0].Subject)
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestNewSESSender_NilClient(t *testing.T) {
	assert.Nil(t, NewSESSender(nil, SESConfig{FromEmail: "bot@example.com"}, nil))
}

func TestSESSender_SendBuildsMessage(t *testing.T) {
	api := &fakeSES{}
	sender := NewSESSender(api, SESConfig{FromEmail: "bot@example.com"}, nil)
	require.NotNil(t, sender)

	err := sender.Send(context.Background(), EmailMessage{
		To:      "owner@example.com",
		Subject: "New chat",
		Body:    "plain",
		HTML:    "<p>html</p>",
		Kind:    KindTest,
	})
	require.NoError(t, err)
	require.NotNil(t, api.input)

	assert.Equal(t, "Consultation Chat <bot@example.com>", aws.ToString(api.input.FromEmailAddress))
	assert.Equal(t, []string{"owner@example.com"}, api.input.Destination.ToAddresses)
	simple := api.input.Content.Simple
	assert.Equal(t, "New chat", aws.ToString(simple.Subject.Data))
	assert.Equal(t, "plain", aws.ToString(simple.Body.Text.Data))
	assert.Equal(t, "<p>html</p>", aws.ToString(simple.Body.Html.Data))
	require.Len(t, api.input.EmailTags, 1)
	assert.Equal(t, KindTest, aws.ToString(api.input.EmailTags[0].Value))
}

func TestSESSender_SendError(t *testing.T) {
	api := &fakeSES{err: errors.New("throttled")}
	sender := NewSESSender(api, SESConfig{FromEmail: "bot@example.com"}, nil)

	err := sender.Send(context.Background(), EmailMessage{To: "owner@example.com", Subject: "x", Body: "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}
