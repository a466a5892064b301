package cached

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"users-service/internal/adapter/cache"
	domain "users-service/internal/domain/user"
	"users-service/internal/usecase/user"
)

// Store implements user.Store with a cached user list.
// Reads other than List and everything inside a transaction go straight to
// the wrapped store; a committed transaction invalidates the cache.
type Store struct {
	user.Store
	cache cache.UserCache
	log   *zap.Logger
	group singleflight.Group
}

// NewStore wraps db with cache. A nil cache makes the wrapper a pass-through.
func NewStore(db user.Store, c cache.UserCache, log *zap.Logger) *Store {
	return &Store{
		Store: db,
		cache: c,
		log:   log,
	}
}

var _ user.Store = (*Store)(nil)

// List retrieves all users using the Cache-Aside pattern.
func (s *Store) List(ctx context.Context) ([]domain.User, error) {
	if s.cache == nil {
		return s.Store.List(ctx)
	}

	users, err := s.cache.GetAll(ctx)
	if err != nil {
		s.log.Warn("cache get error, falling back to database", zap.Error(err))
	} else if users != nil {
		s.log.Debug("users retrieved from cache", zap.Int("count", len(users)))
		return users, nil
	}

	// The generation read here guards the write below: a commit that lands
	// between the database read and SetAll makes the write a no-op.
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.log.Warn("cache generation unavailable, reading database", zap.Error(err))
		return s.Store.List(ctx)
	}

	// Cache miss - use single-flight per generation to prevent stampede
	key := cache.UsersKey + ":" + strconv.FormatInt(gen, 10)
	result, err, _ := s.group.Do(key, func() (any, error) {
		// Another caller may have filled the cache while we waited.
		if cachedUsers, err := s.cache.GetAll(ctx); err == nil && cachedUsers != nil {
			return cachedUsers, nil
		}

		dbUsers, err := s.Store.List(ctx)
		if err != nil {
			return nil, err
		}

		switch err := s.cache.SetAll(ctx, gen, dbUsers); {
		case err == nil, errors.Is(err, cache.ErrStaleGeneration):
		default:
			s.log.Warn("failed to cache users", zap.Error(err))
		}
		return dbUsers, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]domain.User), nil
}

// WithinTx runs fn in a transaction of the wrapped store and drops the
// cached list once the transaction has committed.
func (s *Store) WithinTx(ctx context.Context, fn func(tx user.Repository) error) error {
	if err := s.Store.WithinTx(ctx, fn); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.log.Warn("failed to invalidate cache after commit", zap.Error(err))
		}
	}
	return nil
}
