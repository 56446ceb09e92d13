package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const notifiedKeyPrefix = "chat:notified:"

// RedisStore keeps one key per identity whose TTL is the suppression
// window, so key existence is the "recently notified" test.
type RedisStore struct {
	redis     *redis.Client
	retention time.Duration
	tracer    trace.Tracer
}

// NewRedisStore creates a Redis-backed store. retention <= 0 keeps marks
// forever.
func NewRedisStore(client *redis.Client, retention time.Duration) *RedisStore {
	if client == nil {
		panic("notify: redis client cannot be nil")
	}
	return &RedisStore{
		redis:     client,
		retention: retention,
		tracer:    otel.Tracer("consult-chat.internal.notify"),
	}
}

func notifiedKey(identity string) string {
	return notifiedKeyPrefix + identity
}

func (s *RedisStore) Last(ctx context.Context, identity string) (time.Time, bool, error) {
	raw, err := s.redis.Get(ctx, notifiedKey(identity)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("notify: load %s: %w", identity, err)
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("notify: decode %s: %w", identity, err)
	}
	return time.UnixMilli(ms), true, nil
}

func (s *RedisStore) Mark(ctx context.Context, identity string, at time.Time) error {
	if err := s.redis.Set(ctx, notifiedKey(identity), at.UnixMilli(), s.retention).Err(); err != nil {
		return fmt.Errorf("notify: mark %s: %w", identity, err)
	}
	return nil
}

// Claim relies on SET NX: the key only exists while the window is open.
func (s *RedisStore) Claim(ctx context.Context, identity string, now time.Time, window time.Duration) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "notify.claim")
	defer span.End()
	span.SetAttributes(attribute.String("chat.identity", identity))

	ttl := window
	if ttl < 0 {
		ttl = 0
	}
	ok, err := s.redis.SetNX(ctx, notifiedKey(identity), now.UnixMilli(), ttl).Result()
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("notify: claim %s: %w", identity, err)
	}
	span.SetAttributes(attribute.Bool("notify.claimed", ok))
	return ok, nil
}

func (s *RedisStore) Reset(ctx context.Context) error {
	iter := s.redis.Scan(ctx, 0, notifiedKeyPrefix+"*", 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("notify: reset scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("notify: reset delete: %w", err)
	}
	return nil
}

var _ TimestampStore = (*RedisStore)(nil)
