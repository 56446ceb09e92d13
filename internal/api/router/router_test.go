package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/consult-chat/internal/chat"
	httpmiddleware "github.com/wolfman30/consult-chat/internal/http/middleware"
	"github.com/wolfman30/consult-chat/internal/identity"
	"github.com/wolfman30/consult-chat/internal/observability/metrics"
	"github.com/wolfman30/consult-chat/internal/responder"
	"github.com/wolfman30/consult-chat/internal/session"
	"github.com/wolfman30/consult-chat/internal/siteinfo"
	"github.com/wolfman30/consult-chat/pkg/logging"
)

type cannedFallback struct{}

func (cannedFallback) Reply(context.Context, string, *session.Session) string {
	return "model reply"
}

func newTestRouter(t *testing.T, mutate func(*Config)) http.Handler {
	t.Helper()

	logger := logging.New("error")
	reg := prometheus.NewRegistry()
	svc, err := chat.NewService(chat.Config{
		Sessions:  session.NewMemoryStore(),
		Responder: responder.New(siteinfo.Default(), responder.Options{}),
		Fallback:  cannedFallback{},
		Metrics:   metrics.NewChatMetrics(reg),
		Logger:    logger,
	})
	require.NoError(t, err)

	cfg := &Config{
		Logger: logger,
		ChatHandler: chat.NewHandler(svc, chat.HandlerConfig{
			Identities: identity.NewResolver(identity.StrategyIPUserAgent),
			Site:       siteinfo.Default(),
			WidgetHTML: []byte("<div>chat</div>"),
			WidgetJS:   []byte("// loader"),
			Logger:     logger,
		}),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: []string{"*"},
		EnableTestMail:     true,
	}
	if mutate != nil {
		mutate(cfg)
	}
	return New(cfg)
}

func postJSON(router http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "10.0.0.1:1234"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "ok", resp["status"])
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestRouterChatFlow(t *testing.T) {
	router := newTestRouter(t, nil)

	rr := postJSON(router, "/api/chat", `{"message":"hi"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"reply":"How may I help you?"}`, rr.Body.String())

	rr = postJSON(router, "/api/chat", `{"message":"what services do you offer?"}`)
	assert.JSONEq(t, `{"reply":"model reply"}`, rr.Body.String())

	rr = postJSON(router, "/chat", `{"message":"hello"}`)
	assert.JSONEq(t, `{"reply":"How may I help you?"}`, rr.Body.String())
}

func TestRouterResetAndSiteInfo(t *testing.T) {
	router := newTestRouter(t, nil)

	rr := postJSON(router, "/api/reset", `{}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"reset":true}`, rr.Body.String())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/siteinfo", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"website"`)
}

func TestRouterAdminTokenGuardsReset(t *testing.T) {
	router := newTestRouter(t, func(cfg *Config) { cfg.AdminToken = "s3cret" })

	rr := postJSON(router, "/api/reset", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/reset", nil)
	req.Header.Set("X-Admin-Token", "s3cret")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouterTestMailToggle(t *testing.T) {
	router := newTestRouter(t, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/testmail", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code, "no notifier wired")

	router = newTestRouter(t, func(cfg *Config) { cfg.EnableTestMail = false })
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/testmail", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouterWidgetAndMetrics(t *testing.T) {
	router := newTestRouter(t, nil)
	postJSON(router, "/api/chat", `{"message":"hi"}`)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "<div>chat</div>", rr.Body.String())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/widget.js", nil))
	assert.Equal(t, "// loader", rr.Body.String())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rr.Body.String(), "consult_chat_chat_replies_total")
}

func TestRouterCORSPreflight(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "https://client-site.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://client-site.example", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouterChatRateLimitStillReplies(t *testing.T) {
	limiter := httpmiddleware.NewRateLimiter(0.001, 1)
	t.Cleanup(limiter.Stop)
	router := newTestRouter(t, func(cfg *Config) { cfg.ChatLimiter = limiter })

	postJSON(router, "/api/chat", `{"message":"hi"}`)
	rr := postJSON(router, "/api/chat", `{"message":"hi"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"reply":"`+ReplyRateLimited+`"}`, rr.Body.String())
}
