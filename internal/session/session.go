// Package session wires the fiber session store that holds wizard state.
// Sessions live in Redis when REDIS_ADDR is set, otherwise in process memory.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jem-backend/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "jem:session:"

// RedisStorage implements fiber.Storage on top of go-redis.
type RedisStorage struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

var _ fiber.Storage = (*RedisStorage)(nil)

func NewRedisStorage(cfg config.Redis) *RedisStorage {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisStorage{client: client, prefix: keyPrefix, timeout: 3 * time.Second}
}

func (s *RedisStorage) key(k string) string { return s.prefix + k }

func (s *RedisStorage) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// Ping checks the connection at startup.
func (s *RedisStorage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Get returns nil, nil for a missing key, as fiber expects.
func (s *RedisStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	ctx, cancel := s.ctx()
	defer cancel()
	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}
	return val, nil
}

// Set stores val; exp of 0 means no expiry.
func (s *RedisStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.client.Set(ctx, s.key(key), val, exp).Err(); err != nil {
		return fmt.Errorf("session set: %w", err)
	}
	return nil
}

func (s *RedisStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

// Reset removes every session under the prefix. Other keys are left alone.
func (s *RedisStorage) Reset() error {
	ctx, cancel := s.ctx()
	defer cancel()
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("session reset: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}

// NewStore builds the session store. The returned storage is nil when sessions
// are kept in memory.
func NewStore(sc config.Session, rc config.Redis) (*session.Store, *RedisStorage) {
	scfg := session.Config{
		Expiration:     sc.TTL,
		KeyLookup:      "cookie:" + sc.CookieName,
		CookieHTTPOnly: true,
		CookieSecure:   sc.Secure,
		CookieSameSite: "Lax",
	}
	if rc.Addr == "" {
		return session.New(scfg), nil
	}
	storage := NewRedisStorage(rc)
	scfg.Storage = storage
	return session.New(scfg), storage
}
