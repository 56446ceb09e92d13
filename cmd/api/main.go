package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/consult-chat/cmd/mainconfig"
	"github.com/wolfman30/consult-chat/internal/api/router"
	"github.com/wolfman30/consult-chat/internal/app/bootstrap"
	"github.com/wolfman30/consult-chat/internal/chat"
	appconfig "github.com/wolfman30/consult-chat/internal/config"
	httpmiddleware "github.com/wolfman30/consult-chat/internal/http/middleware"
	"github.com/wolfman30/consult-chat/internal/notify"
	"github.com/wolfman30/consult-chat/internal/observability/metrics"
	"github.com/wolfman30/consult-chat/internal/responder"
	"github.com/wolfman30/consult-chat/pkg/logging"
	"github.com/wolfman30/consult-chat/web"
)

func main() {
	// A missing .env is normal in production.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting consult-chat API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()
	app, err := buildApp(ctx, cfg, prometheus.DefaultRegisterer, logger)
	if err != nil {
		logger.Error("failed to initialise server", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Leave room for the model call on top of request handling.
		WriteTimeout: cfg.LLMTimeout + cfg.NotifyTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

type application struct {
	Handler http.Handler
	closers []func()
}

// Close releases clients in reverse order of creation.
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg *appconfig.Config, reg prometheus.Registerer, logger *logging.Logger) (*application, error) {
	app := &application{}

	chatMetrics := metrics.NewChatMetrics(reg)
	site := bootstrap.BuildSiteInfo(cfg, logger)

	var redisClient *redis.Client
	if bootstrap.NeedsRedis(cfg) {
		redisClient = bootstrap.BuildRedisClient(ctx, cfg, logger, true)
		if redisClient != nil {
			app.closers = append(app.closers, func() { _ = redisClient.Close() })
		}
	}

	sessions := bootstrap.BuildSessionStore(cfg, redisClient, logger)
	notifyStore, err := bootstrap.BuildNotifyStore(cfg, redisClient, logger)
	if err != nil {
		logger.Error("notification store unusable, falling back to memory", "error", err)
		notifyStore = notify.NewMemoryStore()
	}

	var ses notify.SESAPI
	if cfg.EmailProvider == "ses" {
		client, err := mainconfig.NewSESClient(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config for SES", "error", err)
		} else {
			ses = client
		}
	}
	sender := bootstrap.BuildEmailSender(cfg, ses, logger)
	notifier := bootstrap.BuildNotifier(cfg, sender, notifyStore, site.Website, chatMetrics, logger)

	fallback, closeLLM, err := bootstrap.BuildFallbackResponder(ctx, cfg, site, chatMetrics, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.closers = append(app.closers, closeLLM)

	svc, err := chat.NewService(chat.Config{
		Sessions:  sessions,
		Responder: responder.New(site, responder.Options{SessionClosing: cfg.SessionClosing}),
		Fallback:  fallback,
		Notifier:  notifier,
		Metrics:   chatMetrics,
		Logger:    logger.Component("chat"),
	})
	if err != nil {
		app.Close()
		return nil, err
	}

	handler := chat.NewHandler(svc, chat.HandlerConfig{
		Identities: bootstrap.BuildIdentityResolver(cfg, logger),
		Site:       site,
		WidgetHTML: web.WidgetHTML(),
		WidgetJS:   web.WidgetJS(),
		Logger:     logger.Component("chat"),
	})

	var limiter *httpmiddleware.RateLimiter
	if cfg.ChatRateLimit > 0 {
		limiter = httpmiddleware.NewRateLimiter(cfg.ChatRateLimit, cfg.ChatRateBurst)
		app.closers = append(app.closers, limiter.Stop)
	}

	var metricsHandler http.Handler = promhttp.Handler()
	if g, ok := reg.(prometheus.Gatherer); ok && reg != prometheus.DefaultRegisterer {
		metricsHandler = promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}

	app.Handler = router.New(&router.Config{
		Logger:             logger,
		ChatHandler:        handler,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AdminToken:         cfg.AdminToken,
		EnableTestMail:     cfg.EnableTestMail,
		ChatLimiter:        limiter,
	})
	return app, nil
}
