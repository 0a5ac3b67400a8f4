package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/playtube/user-service/internal/domain/user/model"
)

// ProfileCache keeps secrets-stripped profile views under a short TTL so
// current-user lookups skip the store on the hot path. Session state never
// lives here; misses and outages fall through to the store.
type ProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProfileCache(client *redis.Client, ttl time.Duration) *ProfileCache {
	return &ProfileCache{client: client, ttl: ttl}
}

func key(id uuid.UUID) string {
	return "profile:" + id.String()
}

func (c *ProfileCache) GetProfile(ctx context.Context, id uuid.UUID) (model.PublicUser, bool, error) {
	raw, err := c.client.Get(ctx, key(id)).Bytes()
	switch {
	case err == redis.Nil:
		return model.PublicUser{}, false, nil
	case err != nil:
		return model.PublicUser{}, false, err
	}

	var p model.PublicUser
	if err := json.Unmarshal(raw, &p); err != nil {
		// Treat a corrupt entry as a miss.
		return model.PublicUser{}, false, nil
	}
	return p, true, nil
}

func (c *ProfileCache) SetProfile(ctx context.Context, p model.PublicUser) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(p.ID), raw, c.ttl).Err()
}

func (c *ProfileCache) InvalidateProfile(ctx context.Context, id uuid.UUID) error {
	return c.client.Del(ctx, key(id)).Err()
}
