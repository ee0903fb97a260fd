// Package pushstate tracks which items have already been delivered, backed
// by a Redis set with a rolling expiry. The whole set ages out together: the
// TTL is reset on every batch insert, trading slight over-retention for an
// at-least-48h dedup window with no per-member bookkeeping.
package pushstate

import (
	"context"
	"strings"
	"time"

	"w3watch/internal/cache"
	"w3watch/internal/dedup"
	"w3watch/internal/feed"
	"w3watch/internal/logger"
)

// SetKey is the Redis key holding the pushed-message identity set.
const SetKey = "telegram:pushed_messages"

// DefaultTTLHours is the rolling retention window for the pushed set.
const DefaultTTLHours = 48

type Tracker struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewTracker(c *cache.Cache, ttlHours int) *Tracker {
	if ttlHours <= 0 {
		ttlHours = DefaultTTLHours
	}
	return &Tracker{cache: c, ttl: time.Duration(ttlHours) * time.Hour}
}

// MessageID computes the canonical identity of an item: the normalized link
// when one exists, otherwise normalizedTitle:normalizedFeedUrl.
func MessageID(it feed.Item) string {
	if it.Link != "" {
		return dedup.NormalizeLink(it.Link)
	}
	title := strings.TrimSpace(strings.ToLower(it.Title))
	feedURL := strings.TrimSpace(strings.ToLower(it.FeedURL))
	return title + ":" + feedURL
}

// FilterUnpushed returns the items not yet recorded as pushed. When the
// store is unreachable it fails open and returns every item: an occasional
// duplicate notification beats silently dropping one.
func (t *Tracker) FilterUnpushed(ctx context.Context, items []feed.Item) []feed.Item {
	if len(items) == 0 {
		return items
	}

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = MessageID(it)
	}

	flags, err := t.cache.AreMembers(ctx, SetKey, ids)
	if err != nil {
		logger.Warn("push-state check failed, returning all items unfiltered", "error", err)
		return items
	}

	unpushed := make([]feed.Item, 0, len(items))
	for i, it := range items {
		if !flags[i] {
			unpushed = append(unpushed, it)
		}
	}
	logger.Info("filtered pushed items", "total", len(items), "new", len(unpushed), "already_pushed", len(items)-len(unpushed))
	return unpushed
}

// MarkPushed records all item identities and resets the set's expiry. The
// error is reported, never fatal; the caller may retry the batch later.
func (t *Tracker) MarkPushed(ctx context.Context, items []feed.Item) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = MessageID(it)
	}

	if err := t.cache.AddMembers(ctx, SetKey, ids); err != nil {
		return err
	}
	if err := t.cache.Expire(ctx, SetKey, t.ttl); err != nil {
		return err
	}
	logger.Info("marked items as pushed", "count", len(ids), "ttl", t.ttl)
	return nil
}

// Count returns how many identities are currently tracked.
func (t *Tracker) Count(ctx context.Context) int64 {
	return t.cache.SetSize(ctx, SetKey)
}

// Clear drops the tracked set. Used by tests and manual resets.
func (t *Tracker) Clear(ctx context.Context) bool {
	return t.cache.Delete(ctx, SetKey)
}
