package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	keyPrefix      = "chat:session:"
	defaultTTL     = 24 * time.Hour
	resetScanBatch = 200
)

// RedisStore keeps sessions as JSON values with a sliding TTL.
type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewRedisStore creates a Redis-backed store. ttl <= 0 uses 24h.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("consult-chat.internal.session"),
	}
}

func sessionKey(identity string) string {
	return keyPrefix + identity
}

func (s *RedisStore) Load(ctx context.Context, identity string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.load")
	defer span.End()
	span.SetAttributes(attribute.String("chat.identity", identity))

	data, err := s.redis.Get(ctx, sessionKey(identity)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return New(), nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to load %s: %w", identity, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to decode %s: %w", identity, err)
	}
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, identity string, sess *Session) error {
	ctx, span := s.tracer.Start(ctx, "session.save")
	defer span.End()

	data, err := json.Marshal(sess)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to marshal %s: %w", identity, err)
	}
	if err := s.redis.Set(ctx, sessionKey(identity), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to persist %s: %w", identity, err)
	}
	return nil
}

func (s *RedisStore) Reset(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "session.reset")
	defer span.End()

	if err := deleteByPrefix(ctx, s.redis, keyPrefix); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: reset failed: %w", err)
	}
	return nil
}

func deleteByPrefix(ctx context.Context, client *redis.Client, prefix string) error {
	iter := client.Scan(ctx, 0, prefix+"*", resetScanBatch).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= resetScanBatch {
			if err := client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return client.Del(ctx, batch...).Err()
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
