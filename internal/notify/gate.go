package notify

import (
	"context"
	"time"

	"github.com/wolfman30/consult-chat/pkg/logging"
)

// Gate decides whether a new-conversation alert may fire for an identity.
type Gate struct {
	store  TimestampStore
	window time.Duration
	now    func() time.Time
	logger *logging.Logger
}

// GateConfig configures a Gate. Window <= 0 allows one alert per identity
// for the lifetime of the store.
type GateConfig struct {
	Window time.Duration
	Now    func() time.Time
	Logger *logging.Logger
}

// NewGate wraps store with the suppression window.
func NewGate(store TimestampStore, cfg GateConfig) *Gate {
	if store == nil {
		store = NewMemoryStore()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Gate{store: store, window: cfg.Window, now: cfg.Now, logger: cfg.Logger}
}

// Window returns the configured suppression window.
func (g *Gate) Window() time.Duration {
	return g.window
}

// ShouldNotify reports whether identity is outside its suppression window.
// A store read failure counts as "notified" so a broken store cannot
// produce a flood of alerts.
func (g *Gate) ShouldNotify(ctx context.Context, identity string) bool {
	last, ok, err := g.store.Last(ctx, identity)
	if err != nil {
		g.logger.Error("notification store read failed", "identity", identity, "error", err)
		return false
	}
	return due(last, ok, g.now(), g.window)
}

// MarkNotified records an alert for identity at the current time.
func (g *Gate) MarkNotified(ctx context.Context, identity string) {
	if err := g.store.Mark(ctx, identity, g.now()); err != nil {
		g.logger.Error("notification store write failed", "identity", identity, "error", err)
	}
}

// TryClaim is ShouldNotify followed by MarkNotified as a single atomic step.
func (g *Gate) TryClaim(ctx context.Context, identity string) bool {
	claimed, err := g.store.Claim(ctx, identity, g.now(), g.window)
	if err != nil {
		g.logger.Error("notification claim failed", "identity", identity, "claimed", claimed, "error", err)
	}
	return claimed
}

// Reset forgets every identity.
func (g *Gate) Reset(ctx context.Context) error {
	return g.store.Reset(ctx)
}
