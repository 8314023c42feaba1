package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"famefeed/internal/observability"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

const (
	localCapacity = 1024
	localTTL      = 30 * time.Second
)

// local serves cache-aside reads while Redis is not configured. Entries are
// short-lived because invalidation cannot reach other instances.
var local = expirable.NewLRU[string, []byte](localCapacity, nil, localTTL)

// GetJSON looks key up and unmarshals it into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	var raw []byte
	if client != nil {
		b, err := client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		raw = b
	} else {
		b, ok := local.Get(key)
		if !ok {
			return false, nil
		}
		raw = b
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and stores it under key with ttl.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if client == nil {
		local.Add(key, b)
		return nil
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// Aside tries the cache first; on a miss it calls fetch, which must populate
// dest, and stores the result with ttl. Cache failures degrade to fetch.
func Aside(ctx context.Context, name, key string, dest any, ttl time.Duration, fetch func() error) error {
	found, err := GetJSON(ctx, key, dest)
	if err == nil && found {
		observability.CacheLookups.WithLabelValues(name, "hit").Inc()
		return nil
	}
	observability.CacheLookups.WithLabelValues(name, "miss").Inc()

	if err := fetch(); err != nil {
		return err
	}

	_ = SetJSON(ctx, key, dest, ttl)
	return nil
}

// Purge empties the in-process fallback. Redis is left untouched.
func Purge() {
	local.Purge()
}
