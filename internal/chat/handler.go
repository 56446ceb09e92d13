package chat

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/wolfman30/consult-chat/internal/siteinfo"
	"github.com/wolfman30/consult-chat/pkg/logging"
)

const (
	maxBodyBytes = 16 << 10

	// ReplyBadRequest answers bodies that are not a JSON object with a
	// message field.
	ReplyBadRequest = "Sorry, I didn't catch that. Would you like to book via Email or Phone?"
)

// IdentityResolver maps a request to the key sessions and alerts use.
type IdentityResolver interface {
	Identity(r *http.Request) string
}

// ChatRequest is what the widget posts.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is returned for every chat post.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// HandlerConfig wires the HTTP surface.
type HandlerConfig struct {
	Identities IdentityResolver
	Site       siteinfo.SiteInfo
	WidgetHTML []byte
	WidgetJS   []byte
	Logger     *logging.Logger
}

// Handler serves the chat API and the widget assets.
type Handler struct {
	service    *Service
	identities IdentityResolver
	site       siteinfo.SiteInfo
	widgetHTML []byte
	widgetJS   []byte
	logger     *logging.Logger
}

// NewHandler creates the HTTP handler for svc.
func NewHandler(svc *Service, cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Handler{
		service:    svc,
		identities: cfg.Identities,
		site:       cfg.Site,
		widgetHTML: cfg.WidgetHTML,
		widgetJS:   cfg.WidgetJS,
		logger:     cfg.Logger,
	}
}

// HandleChat answers POST /api/chat. The status is always 200; failures
// surface only as canned reply text.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("chat: invalid request body", "error", err)
		writeJSON(w, http.StatusOK, ChatResponse{Reply: ReplyBadRequest})
		return
	}

	identity := "global"
	if h.identities != nil {
		identity = h.identities.Identity(r)
	}

	res := h.service.Handle(r.Context(), identity, req.Message)
	writeJSON(w, http.StatusOK, ChatResponse{Reply: res.Reply})
}

// HandleReset answers POST /api/reset.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reset(r.Context()); err != nil {
		h.logger.Error("chat: reset failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"reset": false, "error": "reset failed"})
		return
	}
	h.logger.Info("chat: all sessions and notification records cleared")
	writeJSON(w, http.StatusOK, map[string]bool{"reset": true})
}

// HandleSiteInfo answers GET /api/siteinfo.
func (h *Handler) HandleSiteInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.site)
}

// HandleWidgetPage serves the chat widget markup.
func (h *Handler) HandleWidgetPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(h.widgetHTML)
}

// HandleWidgetJS serves the embeddable widget loader.
func (h *Handler) HandleWidgetJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(h.widgetJS)
}

// HandleTestMail sends a diagnostic email to the admin address.
func (h *Handler) HandleTestMail(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SendTestMail(r.Context()); err != nil {
		h.logger.Error("chat: test email failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"sent": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"sent": true})
}

// HandleHealth is a liveness probe.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
