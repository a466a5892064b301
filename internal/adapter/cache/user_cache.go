package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domain "users-service/internal/domain/user"
)

const (
	// UsersKey is the Redis key holding the cached user list.
	UsersKey = "users:all"
	// GenerationKey counts invalidations of UsersKey.
	GenerationKey = "users:gen"
)

// ErrStaleGeneration is returned by SetAll when the list was invalidated
// after the caller read the generation.
var ErrStaleGeneration = errors.New("cache generation changed")

// setIfGeneration writes KEYS[1] only while KEYS[2] still holds ARGV[1].
var setIfGeneration = redis.NewScript(`
local gen = redis.call("GET", KEYS[2]) or "0"
if gen ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
else
	redis.call("SET", KEYS[1], ARGV[2])
end
return 1
`)

// UserCache defines the interface for caching the full user list.
type UserCache interface {
	// GetAll returns the cached list ordered by ID.
	// Returns nil on a cache miss; a cached empty list is a non-nil empty slice.
	GetAll(ctx context.Context) ([]domain.User, error)

	// Generation returns the invalidation counter. Read it before loading
	// the list from the database and pass it to SetAll.
	Generation(ctx context.Context) (int64, error)

	// SetAll stores the list with the configured TTL unless the list has been
	// invalidated since gen was read, in which case it returns ErrStaleGeneration.
	SetAll(ctx context.Context, gen int64, users []domain.User) error

	// Invalidate drops the cached list and advances the generation.
	Invalidate(ctx context.Context) error
}

// RedisUserCache implements UserCache using Redis as the backing store.
type RedisUserCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisUserCache creates a new Redis-backed user cache.
func NewRedisUserCache(client redis.UniversalClient, ttl time.Duration, log *zap.Logger) *RedisUserCache {
	return &RedisUserCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

var _ UserCache = (*RedisUserCache)(nil)

// cachedUser is the JSON shape stored in Redis.
type cachedUser struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
}

// GetAll retrieves the user list from Redis.
func (c *RedisUserCache) GetAll(ctx context.Context) ([]domain.User, error) {
	data, err := c.client.Get(ctx, UsersKey).Bytes()
	if errors.Is(err, redis.Nil) {
		// Cache miss - not an error
		c.log.Debug("cache miss", zap.String("key", UsersKey))
		return nil, nil
	}
	if err != nil {
		c.log.Error("failed to get from cache", zap.String("key", UsersKey), zap.Error(err))
		return nil, err
	}

	var entries []cachedUser
	if err := json.Unmarshal(data, &entries); err != nil {
		c.log.Error("failed to unmarshal cached users", zap.String("key", UsersKey), zap.Error(err))
		return nil, err
	}

	users := make([]domain.User, len(entries))
	for i, e := range entries {
		users[i] = domain.User{ID: e.ID, Name: e.Name, Surname: e.Surname, Email: e.Email}
	}

	c.log.Debug("cache hit", zap.String("key", UsersKey), zap.Int("count", len(users)))
	return users, nil
}

// Generation reads the invalidation counter; an absent key is generation 0.
func (c *RedisUserCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, GenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		c.log.Error("failed to read cache generation", zap.String("key", GenerationKey), zap.Error(err))
		return 0, err
	}
	return gen, nil
}

// SetAll stores the user list in Redis with TTL if gen is still current.
func (c *RedisUserCache) SetAll(ctx context.Context, gen int64, users []domain.User) error {
	entries := make([]cachedUser, len(users))
	for i, u := range users {
		entries[i] = cachedUser{ID: u.ID, Name: u.Name, Surname: u.Surname, Email: u.Email}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		c.log.Error("failed to marshal users for cache", zap.Error(err))
		return err
	}

	stored, err := setIfGeneration.Run(ctx, c.client,
		[]string{UsersKey, GenerationKey},
		gen, data, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		c.log.Error("failed to set cache", zap.String("key", UsersKey), zap.Error(err))
		return err
	}
	if stored == 0 {
		c.log.Debug("skipped caching stale users", zap.Int64("generation", gen))
		return ErrStaleGeneration
	}

	c.log.Debug("cached users", zap.Int("count", len(users)), zap.Duration("ttl", c.ttl))
	return nil
}

// Invalidate removes the cached list from Redis and bumps the generation so
// loads that started earlier cannot write their snapshot back.
func (c *RedisUserCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, GenerationKey)
		pipe.Del(ctx, UsersKey)
		return nil
	})
	if err != nil {
		c.log.Error("failed to invalidate cache", zap.String("key", UsersKey), zap.Error(err))
		return err
	}

	c.log.Debug("invalidated cache", zap.String("key", UsersKey))
	return nil
}
