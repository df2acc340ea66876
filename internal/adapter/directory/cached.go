package directory

import (
	"context"
	"time"

	domain "intranet-approval/internal/domain/directory"
	"intranet-approval/internal/infrastructure/cache"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Cached is a read-through Redis cache in front of another directory. Only
// successful lookups are cached; cache failures fall back to the source.
// Concurrent misses for one id share a single source lookup.
type Cached struct {
	src    domain.Directory
	store  *cache.JSON[domain.Actor]
	log    zerolog.Logger
	flight singleflight.Group
}

func NewCached(src domain.Directory, rdb redis.Cmdable, ttl time.Duration, log zerolog.Logger) *Cached {
	return &Cached{
		src:   src,
		store: cache.NewJSON[domain.Actor](rdb, "directory:actor:", ttl),
		log:   log,
	}
}

func (c *Cached) Resolve(ctx context.Context, id string) (domain.Actor, error) {
	a, ok, err := c.store.Get(ctx, id)
	if err != nil {
		c.log.Warn().Err(err).Str("actor_id", id).Msg("directory cache read failed")
	}
	if ok {
		return a, nil
	}

	v, err, _ := c.flight.Do(id, func() (any, error) {
		a, err := c.src.Resolve(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := c.store.Set(ctx, id, a); err != nil {
			c.log.Warn().Err(err).Str("actor_id", id).Msg("directory cache write failed")
		}
		return a, nil
	})
	if err != nil {
		return domain.Actor{}, err
	}
	return v.(domain.Actor), nil
}

// Invalidate drops a cached identity, e.g. after a role change.
func (c *Cached) Invalidate(ctx context.Context, id string) error {
	return c.store.Delete(ctx, id)
}
