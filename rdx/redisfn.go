package rdx

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker hands out short-lived named locks.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Connect opens a Redis client and checks it answers. addr is either
// host:port or a redis:// URL; a non-empty password overrides the URL's.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	opts := &redis.Options{Addr: addr, DB: 0}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}
	if password != "" {
		opts.Password = password
	}
	conn := redis.NewClient(opts)
	if err := conn.Ping(ctx).Err(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return conn, nil
}

// RedisLocker implements Locker with SETNX and a TTL so a crashed holder
// cannot keep the lock forever.
type RedisLocker struct {
	Conn redis.Cmdable
}

func NewLocker(conn redis.Cmdable) *RedisLocker {
	return &RedisLocker{Conn: conn}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.Conn.SetNX(ctx, key, "1", ttl).Result()
}

func (l *RedisLocker) Release(ctx context.Context, key string) error {
	return l.Conn.Del(ctx, key).Err()
}
