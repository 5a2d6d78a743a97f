package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/hookcord/internal/cache"
	"github.com/gosuda/hookcord/internal/discord"
	"github.com/gosuda/hookcord/internal/rest"
)

// Caches is the cache-backed entity source behind option hydration. Users
// and channels fall back to the REST API on a miss; roles only ever come
// from resolved snapshots, since fetching a role requires its guild id
// which an option value does not carry.
type Caches struct {
	Users    *cache.Cache[discord.User]
	Roles    *cache.Cache[discord.Role]
	Channels *cache.Cache[discord.Channel]
}

// NewCaches builds the entity caches over the given REST client.
func NewCaches(rc *rest.Client, ttl time.Duration, maxSize int) *Caches {
	return &Caches{
		Users: cache.New(ttl,
			cache.WithMaxSize[discord.User](maxSize),
			cache.WithFetcher(func(ctx context.Context, id string) (discord.User, bool, error) {
				u, err := rc.GetUser(ctx, id)
				if err != nil {
					return discord.User{}, false, err
				}
				return *u, true, nil
			}),
		),
		Roles: cache.New(ttl, cache.WithMaxSize[discord.Role](maxSize)),
		Channels: cache.New(ttl,
			cache.WithMaxSize[discord.Channel](maxSize),
			cache.WithFetcher(func(ctx context.Context, id string) (discord.Channel, bool, error) {
				ch, err := rc.GetChannel(ctx, id)
				if err != nil {
					return discord.Channel{}, false, err
				}
				return *ch, true, nil
			}),
		),
	}
}

// StartSweeping launches the expiry sweepers for all caches.
func (c *Caches) StartSweeping(ctx context.Context, interval time.Duration) {
	c.Users.StartSweeping(ctx, interval)
	c.Roles.StartSweeping(ctx, interval)
	c.Channels.StartSweeping(ctx, interval)
}

// User implements option.EntitySource. Fetch failures degrade to a miss;
// an unhydrated option is not worth failing the dispatch over.
func (c *Caches) User(ctx context.Context, id string) (*discord.User, bool) {
	u, ok, err := c.Users.Fetch(ctx, id)
	if err != nil {
		log.Debug().Err(err).Str("user_id", id).Msg("user hydration failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &u, true
}

// Role implements option.EntitySource.
func (c *Caches) Role(ctx context.Context, id string) (*discord.Role, bool) {
	r, ok := c.Roles.Get(id)
	if !ok {
		return nil, false
	}
	return &r, true
}

// Channel implements option.EntitySource.
func (c *Caches) Channel(ctx context.Context, id string) (*discord.Channel, bool) {
	ch, ok, err := c.Channels.Fetch(ctx, id)
	if err != nil {
		log.Debug().Err(err).Str("channel_id", id).Msg("channel hydration failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &ch, true
}
