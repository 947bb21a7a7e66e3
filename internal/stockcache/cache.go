// Package stockcache caches stock overview reads in Redis behind a global
// version. Every posted movement bumps the version, so stale overviews are
// never served; readers that miss fall through to the database.
package stockcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	versionKey  = "stock:version"
	bumpChannel = "stock.bump"
)

// LoaderFunc produces the value to cache on a miss.
type LoaderFunc func(context.Context) (any, error)

// Cache versions overview snapshots in Redis. A nil Cache (or nil client)
// degrades to a pass-through that always calls the loader.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) disabled() bool {
	return c == nil || c.client == nil
}

// Version returns the current cache version, initialising it to 1 on first
// use. Old versions leave orphaned keys behind; their TTL reclaims them.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c.disabled() {
		return 0, nil
	}
	if err := c.client.SetNX(ctx, versionKey, 1, 0).Err(); err != nil {
		return 0, err
	}
	ver, err := c.client.Get(ctx, versionKey).Int64()
	if err != nil {
		return 0, err
	}
	if ver < 1 {
		ver = 1
	}
	return ver, nil
}

// OverviewKey builds the versioned key for a warehouse-scoped overview
// (warehouseID 0 means all warehouses).
func (c *Cache) OverviewKey(ctx context.Context, warehouseID int64) (string, error) {
	base := fmt.Sprintf("stock:overview:%d", warehouseID)
	if c.disabled() {
		return base, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", base, ver), nil
}

// FetchJSON returns the cached value for key, or runs the loader and stores
// its result. The loaded value round-trips through JSON either way, so cache
// hits and misses hand the caller identical shapes.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, loader LoaderFunc) error {
	if loader == nil {
		return errors.New("stockcache: loader required")
	}
	if !c.disabled() {
		payload, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			return json.Unmarshal(payload, dest)
		}
		if !errors.Is(err, redis.Nil) {
			return err
		}
	}

	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if !c.disabled() {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return err
		}
	}
	return json.Unmarshal(raw, dest)
}

// Bump advances the version, orphaning every cached overview at once, and
// notifies other instances.
func (c *Cache) Bump(ctx context.Context) error {
	if c.disabled() {
		return nil
	}
	ver, err := c.client.Incr(ctx, versionKey).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, bumpChannel, strconv.FormatInt(ver, 10)).Err()
}

// ListenForInvalidation follows bump notifications from other instances and
// fast-forwards the shared version when a peer published a newer one. The
// subscription ends with the context.
func (c *Cache) ListenForInvalidation(ctx context.Context, channel string) error {
	if c.disabled() {
		return nil
	}
	if channel == "" {
		channel = bumpChannel
	}
	pubsub := c.client.Subscribe(ctx, channel)
	go c.follow(ctx, pubsub)
	return nil
}

func (c *Cache) follow(ctx context.Context, pubsub *redis.PubSub) {
	defer func() { _ = pubsub.Close() }()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			ver, err := strconv.ParseInt(msg.Payload, 10, 64)
			if err != nil {
				_ = c.client.Incr(ctx, versionKey).Err()
				continue
			}
			c.fastForward(ctx, ver)
		}
	}
}

// fastForward raises the stored version to at least ver without ever moving
// it backwards, so a late notification cannot resurrect stale keys.
func (c *Cache) fastForward(ctx context.Context, ver int64) {
	current, err := c.client.Get(ctx, versionKey).Int64()
	if err == nil && current >= ver {
		return
	}
	_ = c.client.Set(ctx, versionKey, ver, 0).Err()
}
