// Package sessioncache keeps login sessions in redis, keyed by session
// id and expiring with the session itself. It sits in front of the
// sessions table so token checks skip the database.
package sessioncache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/edukit/registrar"
	"github.com/edukit/registrar/schema"
)

// Cache is a redis-backed session lookaside
type Cache struct {
	client *redis.Client
	prefix string
}

// Option customizes a Cache
type Option func(*Cache)

// WithPrefix overrides the default key prefix
func WithPrefix(prefix string) Option {
	return func(c *Cache) { c.prefix = prefix }
}

// New builds a Cache over an existing redis client
func New(client *redis.Client, opts ...Option) *Cache {
	c := &Cache{client: client, prefix: "session"}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ping verifies the redis connection
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return registrar.NewErrorWithCause(registrar.KindConnection, "redis ping failed", err)
	}
	return nil
}

func (c *Cache) key(id string) string {
	return fmt.Sprintf("%s:%s", c.prefix, id)
}

func (c *Cache) userKey(userID string) string {
	return fmt.Sprintf("%s:user:%s", c.prefix, userID)
}

// Put stores a session with a TTL matching its expiry. An already
// expired session is dropped instead.
func (c *Cache) Put(ctx context.Context, session *schema.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return c.Drop(ctx, session.ID)
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return registrar.NewErrorWithCause(registrar.KindValidation, "failed to encode session", err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.key(session.ID), payload, ttl)
	pipe.SAdd(ctx, c.userKey(session.UserID), session.ID)
	pipe.Expire(ctx, c.userKey(session.UserID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return registrar.NewErrorWithCause(registrar.KindConnection, "failed to store session", err)
	}
	return nil
}

// Get retrieves a session by id. A missing or expired key reports
// KindNotFound.
func (c *Cache) Get(ctx context.Context, id string) (*schema.Session, error) {
	payload, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err == redis.Nil {
		return nil, registrar.NewError(registrar.KindNotFound, "session not found")
	}
	if err != nil {
		return nil, registrar.NewErrorWithCause(registrar.KindConnection, "failed to load session", err)
	}

	var session schema.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, registrar.NewErrorWithCause(registrar.KindInternal, "failed to decode session", err)
	}
	return &session, nil
}

// Drop removes a session. Dropping an absent session is not an error.
func (c *Cache) Drop(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		return registrar.NewErrorWithCause(registrar.KindConnection, "failed to drop session", err)
	}
	return nil
}

// DropForUser removes every cached session of one user, e.g. on
// password reset. Returns how many sessions were dropped.
func (c *Cache) DropForUser(ctx context.Context, userID string) (int64, error) {
	ids, err := c.client.SMembers(ctx, c.userKey(userID)).Result()
	if err != nil {
		return 0, registrar.NewErrorWithCause(registrar.KindConnection, "failed to list user sessions", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, c.key(id))
	}

	// Del the index separately so the count reflects sessions only.
	dropped, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, registrar.NewErrorWithCause(registrar.KindConnection, "failed to drop user sessions", err)
	}
	if err := c.client.Del(ctx, c.userKey(userID)).Err(); err != nil {
		return dropped, registrar.NewErrorWithCause(registrar.KindConnection, "failed to drop session index", err)
	}
	return dropped, nil
}
