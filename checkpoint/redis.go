package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "hitl:"

// RedisStore keeps each thread as a JSON string under <prefix>thread:<id>,
// with a set of thread IDs under <prefix>threads. A positive TTL expires
// idle threads; every Save refreshes it.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: defaultKeyPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DialRedis connects using cfg.URL when set, otherwise cfg.Addr, and checks
// the connection with PING.
func DialRedis(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	ttl, err := cfg.ttl()
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStore(client, WithKeyPrefix(cfg.KeyPrefix), WithTTL(ttl)), nil
}

func (s *RedisStore) threadKey(id string) string {
	return s.prefix + "thread:" + id
}

func (s *RedisStore) indexKey() string {
	return s.prefix + "threads"
}

func (s *RedisStore) Save(ctx context.Context, thread Thread) error {
	if thread.ID == "" {
		return ErrEmptyID
	}

	data, err := json.Marshal(thread)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, thread.ID, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.threadKey(thread.ID), data, s.ttl)
	pipe.SAdd(ctx, s.indexKey(), thread.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, thread.ID, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (Thread, error) {
	data, err := s.client.Get(ctx, s.threadKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Thread{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Thread{}, fmt.Errorf("%w: %s: %v", ErrLoadFailed, id, err)
	}

	var thread Thread
	if err := json.Unmarshal(data, &thread); err != nil {
		return Thread{}, fmt.Errorf("%w: %s: %v", ErrLoadFailed, id, err)
	}
	return thread, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.threadKey(id))
	pipe.SRem(ctx, s.indexKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete failed: %s: %w", id, err)
	}
	return nil
}

// List drops index entries whose thread key has expired.
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	members, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	pipe := s.client.Pipeline()
	exists := make([]*redis.IntCmd, len(members))
	for i, id := range members {
		exists[i] = pipe.Exists(ctx, s.threadKey(id))
	}
	if len(members) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
		}
	}

	ids := make([]string, 0, len(members))
	var stale []any
	for i, id := range members {
		if exists[i].Val() == 0 {
			stale = append(stale, id)
			continue
		}
		ids = append(ids, id)
	}
	if len(stale) > 0 {
		if err := s.client.SRem(ctx, s.indexKey(), stale...).Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
		}
	}

	sort.Strings(ids)
	return ids, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
