// Package descache puts a Redis read-through cache in front of the item
// descriptor and set reference lookups of a collection.Source.
package descache

import (
	"context"
	"encoding/json"
	"time"

	"cardtracker/internal/collection"
	"cardtracker/internal/logger"
	"cardtracker/internal/metrics"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	DefaultTTL = 10 * time.Minute

	descriptorPrefix = "cardtracker:descriptor:"
	setPrefix        = "cardtracker:set:"
)

// Cache satisfies collection.Source. Owned items always come from the backing
// source; descriptors and set references are served from Redis when present.
// Redis failures fall back to the backing source.
type Cache struct {
	next    collection.Source
	rdb     redis.UniversalClient
	ttl     time.Duration
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func New(next collection.Source, rdb redis.UniversalClient, ttl time.Duration, m *metrics.Metrics) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{next: next, rdb: rdb, ttl: ttl, metrics: m, log: logger.Component("descache")}
}

// Dial connects to Redis and checks it answers.
func Dial(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "ping redis at %s", addr)
	}
	return rdb, nil
}

func (c *Cache) OwnedItems(ctx context.Context, collectorID string) ([]collection.OwnedItem, error) {
	return c.next.OwnedItems(ctx, collectorID)
}

func (c *Cache) ItemDescriptors(ctx context.Context, itemIDs []string) (map[string]collection.ItemDescriptor, error) {
	out := make(map[string]collection.ItemDescriptor, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}

	keys := make([]string, len(itemIDs))
	for i, id := range itemIDs {
		keys[i] = descriptorPrefix + id
	}
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		c.log.Warn().Err(err).Msg("redis mget failed, reading through")
		vals = make([]any, len(itemIDs))
	}

	var missing []string
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			missing = append(missing, itemIDs[i])
			continue
		}
		var d collection.ItemDescriptor
		if err := json.Unmarshal([]byte(s), &d); err != nil {
			missing = append(missing, itemIDs[i])
			continue
		}
		out[itemIDs[i]] = d
	}
	c.metrics.ObserveDescriptorCache(len(itemIDs)-len(missing), len(missing))
	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := c.next.ItemDescriptors(ctx, missing)
	if err != nil {
		return nil, err
	}
	pipe := c.rdb.Pipeline()
	for id, d := range fetched {
		out[id] = d
		raw, err := json.Marshal(d)
		if err != nil {
			continue
		}
		pipe.Set(ctx, descriptorPrefix+id, raw, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn().Err(err).Int("count", len(fetched)).Msg("redis descriptor fill failed")
	}
	return out, nil
}

func (c *Cache) SetReference(ctx context.Context, setID string) (collection.SetReference, bool, error) {
	raw, err := c.rdb.Get(ctx, setPrefix+setID).Bytes()
	if err == nil {
		var ref collection.SetReference
		if json.Unmarshal(raw, &ref) == nil {
			return ref, true, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.log.Warn().Err(err).Str("set", setID).Msg("redis get failed, reading through")
	}

	ref, ok, err := c.next.SetReference(ctx, setID)
	if err != nil || !ok {
		return ref, ok, err
	}
	if data, err := json.Marshal(ref); err == nil {
		if err := c.rdb.Set(ctx, setPrefix+setID, data, c.ttl).Err(); err != nil {
			c.log.Warn().Err(err).Str("set", setID).Msg("redis set fill failed")
		}
	}
	return ref, true, nil
}

// Invalidate drops cached entries after a descriptor or set changes.
func (c *Cache) Invalidate(ctx context.Context, itemIDs []string, setIDs []string) error {
	keys := make([]string, 0, len(itemIDs)+len(setIDs))
	for _, id := range itemIDs {
		keys = append(keys, descriptorPrefix+id)
	}
	for _, id := range setIDs {
		keys = append(keys, setPrefix+id)
	}
	if len(keys) == 0 {
		return nil
	}
	return errors.Wrap(c.rdb.Del(ctx, keys...).Err(), "invalidating cache")
}
