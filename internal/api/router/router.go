package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wolfman30/consult-chat/internal/chat"
	httpmiddleware "github.com/wolfman30/consult-chat/internal/http/middleware"
	"github.com/wolfman30/consult-chat/internal/identity"
	"github.com/wolfman30/consult-chat/pkg/logging"
)

// ReplyRateLimited is sent, with status 200, to visitors posting too fast.
const ReplyRateLimited = "You're sending messages a little too quickly. Please wait a moment and try again."

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	ChatHandler        *chat.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	AdminToken         string
	EnableTestMail     bool

	// ChatLimiter throttles POST /api/chat per client address. Optional.
	ChatLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	h := cfg.ChatHandler

	r.Group(func(public chi.Router) {
		public.Get("/health", h.HandleHealth)
		public.Get("/", h.HandleWidgetPage)
		public.Get("/widget.js", h.HandleWidgetJS)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	r.Route("/api", func(api chi.Router) {
		api.Get("/siteinfo", h.HandleSiteInfo)
		api.Group(func(chatRoutes chi.Router) {
			if cfg.ChatLimiter != nil {
				chatRoutes.Use(httpmiddleware.RateLimit(cfg.ChatLimiter, identity.ClientIP, http.HandlerFunc(rateLimitedReply)))
			}
			chatRoutes.Post("/chat", h.HandleChat)
		})
		api.With(httpmiddleware.RequireAdminToken(cfg.AdminToken)).Post("/reset", h.HandleReset)
	})

	// Legacy path used by older widget embeds.
	r.Post("/chat", h.HandleChat)

	if cfg.EnableTestMail {
		r.With(httpmiddleware.RequireAdminToken(cfg.AdminToken)).Get("/testmail", h.HandleTestMail)
	}

	return r
}

// rateLimitedReply keeps the chat contract of always answering 200 with a
// reply the widget can render.
func rateLimitedReply(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(chat.ChatResponse{Reply: ReplyRateLimited})
}
