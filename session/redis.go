package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore shares sessions between hosts; expiry is left to redis.
type RedisStore struct {
	options
	rdb redis.UniversalClient
}

func NewRedisStore(rdb redis.UniversalClient, opts ...Option) *RedisStore {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	return &RedisStore{options: options, rdb: rdb}
}

func (r *RedisStore) key(id string) string {
	return r.prefix + id
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	if !ValidID(s.ID) {
		return ErrInvalidID
	}

	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, r.key(s.ID), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	r.logger.Info("session saved", zap.String("session_id", s.ID), zap.String("store", "redis"))
	return nil
}

func (r *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	if !ValidID(id) {
		return nil, ErrNotFound
	}

	b, err := r.rdb.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
