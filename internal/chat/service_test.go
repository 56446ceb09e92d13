package chat

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/consult-chat/internal/intent"
	"github.com/wolfman30/consult-chat/internal/notify"
	"github.com/wolfman30/consult-chat/internal/observability/metrics"
	"github.com/wolfman30/consult-chat/internal/responder"
	"github.com/wolfman30/consult-chat/internal/session"
	"github.com/wolfman30/consult-chat/internal/siteinfo"
	"github.com/wolfman30/consult-chat/pkg/logging"
)

const unmatched = "what services do you offer?"

type stubFallback struct {
	reply    string
	delay    time.Duration
	mu       sync.Mutex
	calls    []string
	seen     []session.Session
	inflight int32
	maxSeen  int32
}

func (f *stubFallback) Reply(ctx context.Context, message string, s *session.Session) string {
	n := atomic.AddInt32(&f.inflight, 1)
	defer atomic.AddInt32(&f.inflight, -1)
	for {
		cur := atomic.LoadInt32(&f.maxSeen)
		if n <= cur || atomic.CompareAndSwapInt32(&f.maxSeen, cur, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	f.calls = append(f.calls, message)
	f.seen = append(f.seen, *s.Clone())
	f.mu.Unlock()
	return f.reply
}

type recordingSender struct {
	mu   sync.Mutex
	sent []notify.EmailMessage
}

func (r *recordingSender) Send(_ context.Context, msg notify.EmailMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

type brokenStore struct{}

func (brokenStore) Load(context.Context, string) (*session.Session, error) {
	return nil, errors.New("redis down")
}
func (brokenStore) Save(context.Context, string, *session.Session) error {
	return errors.New("redis down")
}
func (brokenStore) Reset(context.Context) error { return errors.New("redis down") }

type testEnv struct {
	svc      *Service
	store    *session.MemoryStore
	fallback *stubFallback
	sender   *recordingSender
	notifier *notify.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := logging.New("error")
	store := session.NewMemoryStore()
	fb := &stubFallback{reply: "We offer consultations."}
	sender := &recordingSender{}
	notifier := notify.NewService(sender, notify.NewGate(notify.NewMemoryStore(), notify.GateConfig{Window: 24 * time.Hour, Logger: logger}), notify.ServiceConfig{
		AdminEmail: "owner@example.com",
		Logger:     logger,
	})
	svc, err := NewService(Config{
		Sessions:  store,
		Responder: responder.New(siteinfo.Default(), responder.Options{}),
		Fallback:  fb,
		Notifier:  notifier,
		Metrics:   metrics.NewChatMetrics(prometheus.NewRegistry()),
		Logger:    logger,
	})
	require.NoError(t, err)
	return &testEnv{svc: svc, store: store, fallback: fb, sender: sender, notifier: notifier}
}

func TestNewService_RequiresCollaborators(t *testing.T) {
	_, err := NewService(Config{})
	assert.Error(t, err)

	_, err = NewService(Config{Sessions: session.NewMemoryStore()})
	assert.Error(t, err)

	_, err = NewService(Config{Sessions: session.NewMemoryStore(), Responder: responder.New(siteinfo.Default(), responder.Options{})})
	assert.Error(t, err)
}

func TestHandle_GreetingUsesRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.svc.Handle(ctx, "1.2.3.4", "hi")
	assert.Equal(t, "How may I help you?", res.Reply)
	assert.Equal(t, SourceRule, res.Source)
	assert.Equal(t, intent.Greeting, res.Intent)
	assert.Empty(t, env.fallback.calls)

	s, err := env.store.Load(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, s.Greeted)
}

func TestHandle_UnmatchedGoesToFallback(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.svc.Handle(ctx, "id", "email")
	res := env.svc.Handle(ctx, "id", unmatched)

	assert.Equal(t, "We offer consultations.", res.Reply)
	assert.Equal(t, SourceModel, res.Source)
	assert.Equal(t, intent.None, res.Intent)
	require.Len(t, env.fallback.seen, 1)
	assert.Equal(t, session.ChannelEmail, env.fallback.seen[0].LastProvided, "fallback sees the current session")

	s, _ := env.store.Load(ctx, "id")
	assert.False(t, s.UpdatedAt.IsZero())
}

func TestHandle_EmptyMessage(t *testing.T) {
	env := newTestEnv(t)

	res := env.svc.Handle(context.Background(), "id", "   ")
	assert.Equal(t, ReplyEmptyMessage, res.Reply)
	assert.Equal(t, SourceEmpty, res.Source)
	assert.Zero(t, env.store.Len())
	assert.Zero(t, env.sender.count(), "a blank message does not open a conversation")
}

func TestHandle_NotifiesOncePerIdentity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.svc.Handle(ctx, "1.2.3.4", "hi")
	env.svc.Handle(ctx, "1.2.3.4", unmatched)
	env.svc.Handle(ctx, "5.6.7.8", "hello")

	assert.Equal(t, 2, env.sender.count())
}

func TestHandle_StoreFailureStillReplies(t *testing.T) {
	fb := &stubFallback{reply: "model"}
	svc, err := NewService(Config{
		Sessions:  brokenStore{},
		Responder: responder.New(siteinfo.Default(), responder.Options{}),
		Fallback:  fb,
		Logger:    logging.New("error"),
	})
	require.NoError(t, err)

	res := svc.Handle(context.Background(), "id", "email please")
	assert.Contains(t, res.Reply, "mailto:owner@example.com")
	assert.Error(t, svc.Reset(context.Background()))
}

func TestHandle_SameIdentityTurnsAreSerialized(t *testing.T) {
	env := newTestEnv(t)
	env.fallback.delay = 20 * time.Millisecond
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env.svc.Handle(ctx, "same", unmatched)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&env.fallback.maxSeen))
	assert.Len(t, env.fallback.calls, 5)
}

func TestHandle_ProvidedThenAcknowledge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.svc.Handle(ctx, "id", "phone")
	assert.Contains(t, first.Reply, "tel:+15551234567")

	for i := 0; i < 3; i++ {
		res := env.svc.Handle(ctx, "id", "ok")
		assert.Equal(t, responder.DefaultTemplates[responder.KeyAllSet], res.Reply)
	}
}

func TestReset_NoLeakedState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.svc.Handle(ctx, "id", "email")
	require.Equal(t, responder.DefaultTemplates[responder.KeyAllSet], env.svc.Handle(ctx, "id", "ok").Reply)
	require.Equal(t, 1, env.sender.count())

	require.NoError(t, env.svc.Reset(ctx))

	res := env.svc.Handle(ctx, "id", "ok")
	assert.Equal(t, responder.DefaultTemplates[responder.KeyBookingPrompt], res.Reply, "a reset identity behaves like a new one")
	assert.Equal(t, 2, env.sender.count(), "reset also clears notification records")
}

func TestSendTestMail(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.svc.SendTestMail(context.Background()))
	assert.Equal(t, 1, env.sender.count())

	bare, err := NewService(Config{
		Sessions:  session.NewMemoryStore(),
		Responder: responder.New(siteinfo.Default(), responder.Options{}),
		Fallback:  &stubFallback{},
	})
	require.NoError(t, err)
	assert.Error(t, bare.SendTestMail(context.Background()))
}
