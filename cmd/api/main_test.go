package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	appconfig "github.com/wolfman30/consult-chat/internal/config"
	"github.com/wolfman30/consult-chat/internal/conversation"
	"github.com/wolfman30/consult-chat/pkg/logging"
)

func testConfig(t *testing.T) *appconfig.Config {
	t.Helper()
	return &appconfig.Config{
		Port:               "0",
		LLMTimeout:         time.Second,
		IdentityStrategy:   "ip",
		SessionStore:       "memory",
		NotifyStore:        "file",
		NotifyStorePath:    filepath.Join(t.TempDir(), "notified.json"),
		NotifyWindow:       24 * time.Hour,
		NotifyTimeout:      time.Second,
		EmailProvider:      "stub",
		AdminEmail:         "owner@example.com",
		EnableTestMail:     true,
		CORSAllowedOrigins: []string{"*"},
		ChatRateLimit:      100,
		ChatRateBurst:      100,
	}
}

func post(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestBuildAppServesChat(t *testing.T) {
	app, err := buildApp(context.Background(), testConfig(t), prometheus.NewRegistry(), logging.New("error"))
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	defer app.Close()

	rr := post(app.Handler, "/api/chat", `{"message":"hi"}`)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "How may I help you?") {
		t.Fatalf("unexpected greeting response %d %s", rr.Code, rr.Body.String())
	}

	rr = post(app.Handler, "/api/chat", `{"message":"what services do you offer?"}`)
	if !strings.Contains(rr.Body.String(), conversation.ReplyServiceUnavailable) {
		t.Fatalf("expected degraded reply without a Gemini key, got %s", rr.Body.String())
	}

	rr = post(app.Handler, "/api/reset", `{}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("reset status %d", rr.Code)
	}
}

func TestBuildAppExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	app, err := buildApp(context.Background(), testConfig(t), reg, logging.New("error"))
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	defer app.Close()

	post(app.Handler, "/api/chat", `{"message":"hi"}`)

	rr := httptest.NewRecorder()
	app.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), "consult_chat_notify_new_conversation_total") {
		t.Fatalf("expected notification counter to be exported")
	}
}

func TestBuildAppTestMail(t *testing.T) {
	app, err := buildApp(context.Background(), testConfig(t), prometheus.NewRegistry(), logging.New("error"))
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	defer app.Close()

	rr := httptest.NewRecorder()
	app.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/testmail", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected stub sender to succeed, got %d %s", rr.Code, rr.Body.String())
	}
}
