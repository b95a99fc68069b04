package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"duet-api/core/logger"
)

// Cache wraps the redis client used for ephemeral state: background job
// leases and small lookaside values.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	AcquireLock(ctx context.Context, key string, owner string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string, owner string) error
	Ping(ctx context.Context) error
	Client() *redis.Client
}

type redisCache struct {
	client *redis.Client
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisCache(cfg RedisConfig) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Cache:NewRedisCache - Ping", err)
		return nil, err
	}

	logger.Info("Redis cache initialized", "addr", cfg.Addr, "db", cfg.DB)
	return &redisCache{client: client}, nil
}

func (c *redisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (c *redisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// AcquireLock takes a lease on key for ttl. The lease is a plain SET NX so a
// crashed holder releases it by expiry. Returns false when another owner
// currently holds the lease.
func (c *redisCache) AcquireLock(ctx context.Context, key string, owner string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		logger.Error("Cache:AcquireLock", err, "key", key)
		return false, err
	}
	return ok, nil
}

// releaseScript deletes the lock only when the caller still owns it, so a
// slow holder cannot drop a lease that has already expired and been re-taken.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func (c *redisCache) ReleaseLock(ctx context.Context, key string, owner string) error {
	err := releaseScript.Run(ctx, c.client, []string{key}, owner).Err()
	if err != nil && err != redis.Nil {
		logger.Error("Cache:ReleaseLock", err, "key", key)
		return err
	}
	return nil
}

func (c *redisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *redisCache) Client() *redis.Client {
	return c.client
}
