package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-meeting-sync/core/utils"

	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired is returned when a key stays locked past the wait budget.
var ErrLockNotAcquired = errors.New("lock not acquired")

const lockPollInterval = 50 * time.Millisecond

// Locker hands out per-key advisory locks. The returned release func is
// safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string, ttl, wait time.Duration) (release func(), err error)
}

type Cache interface {
	Locker
	Ping(ctx context.Context) error
	Close() error
}

// RedisCache implements Cache on a single redis node.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr, password string, db int) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// compare-and-delete so a holder never releases a lock it lost to TTL expiry
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (c *RedisCache) Lock(ctx context.Context, key string, ttl, wait time.Duration) (func(), error) {
	token := utils.GenerateRandomString(16)
	deadline := time.Now().Add(wait)

	for {
		ok, err := c.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis setnx %s: %w", key, err)
		}
		if ok {
			var once sync.Once
			return func() {
				once.Do(func() {
					// release on a fresh context; the caller's may already be done
					releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
					defer cancel()
					_ = releaseScript.Run(releaseCtx, c.client, []string{key}, token).Err()
				})
			}, nil
		}

		if !time.Now().Before(deadline) {
			return nil, ErrLockNotAcquired
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

// MemoryCache is an in-process Cache used when redis is disabled and in tests.
type MemoryCache struct {
	mu    sync.Mutex
	locks map[string]memoryLock
}

type memoryLock struct {
	token     string
	expiresAt time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{locks: make(map[string]memoryLock)}
}

func (c *MemoryCache) Ping(context.Context) error { return nil }

func (c *MemoryCache) Close() error { return nil }

func (c *MemoryCache) tryLock(key, token string, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if held, ok := c.locks[key]; ok && now.Before(held.expiresAt) {
		return false
	}
	c.locks[key] = memoryLock{token: token, expiresAt: now.Add(ttl)}
	return true
}

func (c *MemoryCache) unlock(key, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if held, ok := c.locks[key]; ok && held.token == token {
		delete(c.locks, key)
	}
}

func (c *MemoryCache) Lock(ctx context.Context, key string, ttl, wait time.Duration) (func(), error) {
	token := utils.GenerateRandomString(16)
	deadline := time.Now().Add(wait)

	for {
		if c.tryLock(key, token, ttl) {
			var once sync.Once
			return func() {
				once.Do(func() { c.unlock(key, token) })
			}, nil
		}

		if !time.Now().Before(deadline) {
			return nil, ErrLockNotAcquired
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}
