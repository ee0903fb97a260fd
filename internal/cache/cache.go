// Package cache wraps the Redis store the pipeline shares state through.
// Every operation tolerates an unreachable server: reads report a miss,
// writes report failure, and the caller decides how to degrade.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"w3watch/internal/logger"
)

type Cache struct {
	mu        sync.RWMutex
	client    *redis.Client
	connected bool
}

// Connect opens a Redis connection. A failed connect is logged, not fatal:
// the returned Cache reports unavailable and the pipeline degrades.
func Connect(ctx context.Context, url string) *Cache {
	c := &Cache{}
	if url == "" {
		return c
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Error("invalid redis URL", "error", err)
		return c
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, push-state checks will fail open", "error", err)
		_ = client.Close()
		return c
	}

	c.client = client
	c.connected = true
	logger.Info("redis connected")
	return c
}

// Available reports whether the store is usable.
func (c *Cache) Available() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.client != nil
}

func (c *Cache) markDown(err error) {
	logger.Error("redis operation failed", "error", err)
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
}

// Get returns the value for key and whether it was found.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if !c.Available() {
		return "", false
	}
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		c.markDown(err)
		return "", false
	}
	return val, true
}

// SetWithExpiry stores a value under key with a TTL.
func (c *Cache) SetWithExpiry(ctx context.Context, key, value string, ttl time.Duration) bool {
	if !c.Available() {
		return false
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.markDown(err)
		return false
	}
	return true
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) bool {
	if !c.Available() {
		return false
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.markDown(err)
		return false
	}
	return true
}

// IsMember reports set membership.
func (c *Cache) IsMember(ctx context.Context, setKey, member string) (bool, error) {
	if !c.Available() {
		return false, ErrUnavailable
	}
	ok, err := c.client.SIsMember(ctx, setKey, member).Result()
	if err != nil {
		c.markDown(err)
		return false, err
	}
	return ok, nil
}

// AreMembers pipelines membership checks for many members at once and
// returns one flag per input member.
func (c *Cache) AreMembers(ctx context.Context, setKey string, members []string) ([]bool, error) {
	if !c.Available() {
		return nil, ErrUnavailable
	}

	cmds := make([]*redis.BoolCmd, len(members))
	pipe := c.client.Pipeline()
	for i, m := range members {
		cmds[i] = pipe.SIsMember(ctx, setKey, m)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.markDown(err)
		return nil, err
	}

	flags := make([]bool, len(members))
	for i, cmd := range cmds {
		flags[i] = cmd.Val()
	}
	return flags, nil
}

// AddMembers adds members to a set.
func (c *Cache) AddMembers(ctx context.Context, setKey string, members []string) error {
	if !c.Available() {
		return ErrUnavailable
	}
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	if err := c.client.SAdd(ctx, setKey, args...).Err(); err != nil {
		c.markDown(err)
		return err
	}
	return nil
}

// Expire resets a key's TTL.
func (c *Cache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if !c.Available() {
		return ErrUnavailable
	}
	if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
		c.markDown(err)
		return err
	}
	return nil
}

// SetSize returns the cardinality of a set.
func (c *Cache) SetSize(ctx context.Context, setKey string) int64 {
	if !c.Available() {
		return 0
	}
	n, err := c.client.SCard(ctx, setKey).Result()
	if err != nil {
		c.markDown(err)
		return 0
	}
	return n
}

// Flush clears the whole database. Intended for tests and manual resets.
func (c *Cache) Flush(ctx context.Context) bool {
	if !c.Available() {
		return false
	}
	if err := c.client.FlushDB(ctx).Err(); err != nil {
		c.markDown(err)
		return false
	}
	return true
}

// Size returns the number of keys in the database.
func (c *Cache) Size(ctx context.Context) int64 {
	if !c.Available() {
		return 0
	}
	n, err := c.client.DBSize(ctx).Result()
	if err != nil {
		c.markDown(err)
		return 0
	}
	return n
}

// Stats reports connection state and database size for the monitoring
// endpoints.
func (c *Cache) Stats(ctx context.Context) map[string]interface{} {
	return map[string]interface{}{
		"connected": c.Available(),
		"db_size":   c.Size(ctx),
	}
}

// Close releases the connection.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		_ = c.client.Close()
		c.client = nil
	}
	c.connected = false
}
