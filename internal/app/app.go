// Package app wires the pipeline together: fetch the configured feeds,
// cache the aggregated snapshot, work out what is new since the last push,
// and deliver it.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"w3watch/internal/cache"
	"w3watch/internal/config"
	"w3watch/internal/dedup"
	"w3watch/internal/feed"
	"w3watch/internal/gemini"
	"w3watch/internal/logger"
	"w3watch/internal/metrics"
	"w3watch/internal/notify"
	"w3watch/internal/pushstate"
	"w3watch/internal/ratelimit"
	"w3watch/internal/scraper"
	"w3watch/internal/storage"
)

// SnapshotKey is the Redis key holding the latest aggregated item list.
const SnapshotKey = "security_feeds:all"

// manualPushLimit caps how many items a manual push sends.
const manualPushLimit = 10

type App struct {
	cfg        *config.Config
	sources    []feed.Source
	aggregator *feed.Aggregator
	cache      *cache.Cache
	store      PushStore
	notifier   *notify.Notifier
	gemini     *gemini.Client
	fileStore  *storage.FileStore
	pgStore    *storage.PostgresStore

	// refreshMu is the single-permit guard: an overlapping refresh is
	// skipped, never queued.
	refreshMu sync.Mutex

	stateMu  sync.Mutex
	lastPush time.Time
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	sources, err := feed.LoadSources(cfg.SourcesPath)
	if err != nil {
		return nil, fmt.Errorf("load feed sources: %w", err)
	}
	logger.Info("loaded feed sources", "count", len(sources))

	a := &App{
		cfg:     cfg,
		sources: sources,
		cache:   cache.Connect(ctx, cfg.RedisURL),
	}

	fetcher := feed.NewFetcher(cfg.FetchTimeout, cfg.MaxRedirects)
	a.aggregator = feed.NewAggregator(fetcher, cfg.BatchSize, dedup.Dedupe)

	if a.store, err = a.buildPushStore(); err != nil {
		return nil, err
	}

	var summarizer notify.Summarizer
	if cfg.GeminiAPIKey != "" {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.MaxDigestItems)
		if err != nil {
			logger.Warn("gemini client unavailable, using plain digests", "error", err)
		} else {
			a.gemini = client
			summarizer = &budgetedSummarizer{
				inner:   client,
				limiter: ratelimit.NewLimiter(cfg.MaxAIRequests),
			}
		}
	}

	a.notifier = notify.New(cfg.TelegramToken, cfg.TelegramChatIDs, summarizer)
	return a, nil
}

// buildPushStore picks the delivery-state backend: Redis when configured,
// then Postgres, then the JSON file.
func (a *App) buildPushStore() (PushStore, error) {
	if a.cfg.RedisURL != "" {
		logger.Info("using redis push-state store")
		return pushstate.NewTracker(a.cache, a.cfg.PushTTLHours), nil
	}

	if a.cfg.PostgresURL != "" {
		pg, err := storage.NewPostgresStore(a.cfg.PostgresURL, a.cfg.PushTTLHours)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		a.pgStore = pg
		logger.Info("using postgres push-state store")
		return &postgresPushStore{store: pg}, nil
	}

	fs := storage.NewFileStore(a.cfg.SentCachePath, a.cfg.PushTTLHours)
	if err := fs.Load(); err != nil {
		logger.Warn("sent-items file unreadable, starting empty", "error", err)
	}
	a.fileStore = fs
	logger.Info("using file push-state store", "path", a.cfg.SentCachePath)
	return &filePushStore{store: fs}, nil
}

// Refresh runs one pipeline cycle. A cycle already in progress makes this
// call a no-op; feed fetching is slow enough that overlapping cycles would
// double-push.
func (a *App) Refresh(ctx context.Context) {
	if !a.refreshMu.TryLock() {
		logger.Warn("refresh already in progress, skipping")
		return
	}
	defer a.refreshMu.Unlock()

	start := time.Now()
	logger.Info("starting refresh cycle", "sources", len(a.sources))

	items := a.aggregator.FetchAll(ctx, a.sources, "")
	a.snapshotItems(ctx, items)

	newItems := a.itemsSinceLastPush(items)
	logger.Info("refresh fetched items", "total", len(items), "new", len(newItems))

	if len(newItems) > 0 {
		a.push(ctx, newItems, a.timeRange())
	} else {
		logger.Info("no new items since last push")
	}

	metrics.Global.RecordRefresh(time.Since(start))
}

// PushLatest is the manual trigger: push items from the last push window,
// or the newest few when the window is empty, relying on the delivery-state
// filter to suppress anything already sent.
func (a *App) PushLatest(ctx context.Context) error {
	items := a.aggregator.FetchAll(ctx, a.sources, "")
	if len(items) == 0 {
		return fmt.Errorf("no items fetched")
	}
	a.snapshotItems(ctx, items)

	cutoff := time.Now().Add(-a.cfg.PushWindow)
	var recent []feed.Item
	for _, it := range items {
		if !it.Published.IsZero() && it.Published.After(cutoff) {
			recent = append(recent, it)
			if len(recent) == manualPushLimit {
				break
			}
		}
	}

	toPush := recent
	timeRange := gemini.FormatTimeRange(a.cfg.PushWindow)
	if len(toPush) == 0 {
		if len(items) > manualPushLimit {
			toPush = items[:manualPushLimit]
		} else {
			toPush = items
		}
		timeRange = "最新数据"
	}

	if !a.push(ctx, toPush, timeRange) {
		return fmt.Errorf("push failed for at least one destination")
	}
	return nil
}

// push filters out already-delivered items, sends the digest, and records
// delivery state only when every destination succeeded.
func (a *App) push(ctx context.Context, items []feed.Item, timeRange string) bool {
	unpushed := a.store.FilterUnpushed(ctx, items)
	if len(unpushed) == 0 {
		logger.Info("all items already pushed, skipping")
		metrics.Global.IncrementPushesSkipped()
		return true
	}

	a.enrichContent(unpushed)

	if !a.notifier.Notify(ctx, unpushed, timeRange) {
		logger.Error("push incomplete, items stay unmarked for retry")
		return false
	}

	if err := a.store.MarkPushed(ctx, unpushed); err != nil {
		logger.Error("failed to record pushed items", "error", err)
	}

	a.stateMu.Lock()
	a.lastPush = time.Now()
	a.stateMu.Unlock()

	metrics.Global.AddItemsPushed(int64(len(unpushed)))
	metrics.Global.SetLastPush()
	return true
}

// enrichContent scrapes full text for items that arrived with nothing but a
// title, so the summarizer has something to reason about.
func (a *App) enrichContent(items []feed.Item) {
	if a.gemini == nil {
		return
	}

	var bare []string
	byURL := make(map[string]int)
	for i, it := range items {
		if it.Content == "" && it.ContentSnippet == "" && it.Link != "" {
			bare = append(bare, it.Link)
			byURL[it.Link] = i
		}
	}
	if len(bare) == 0 {
		return
	}

	scraper.EnrichSnippets(bare, 5, func(url, content string) {
		if i, ok := byURL[url]; ok {
			items[i].Content = content
		}
	})
}

// snapshotItems caches the aggregated list so API reads and manual pushes
// do not refetch every feed.
func (a *App) snapshotItems(ctx context.Context, items []feed.Item) {
	if !a.cache.Available() {
		return
	}
	data, err := json.Marshal(items)
	if err != nil {
		logger.Warn("snapshot marshal failed", "error", err)
		return
	}
	if a.cache.SetWithExpiry(ctx, SnapshotKey, string(data), a.cfg.SnapshotTTL) {
		logger.Info("cached feed snapshot", "items", len(items), "ttl", a.cfg.SnapshotTTL)
	}
}

// CachedSnapshot returns the last aggregated item list, if one is cached.
func (a *App) CachedSnapshot(ctx context.Context) ([]feed.Item, bool) {
	raw, ok := a.cache.Get(ctx, SnapshotKey)
	if !ok {
		return nil, false
	}
	var items []feed.Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		logger.Warn("snapshot unmarshal failed", "error", err)
		return nil, false
	}
	return items, true
}

func (a *App) itemsSinceLastPush(items []feed.Item) []feed.Item {
	a.stateMu.Lock()
	last := a.lastPush
	a.stateMu.Unlock()

	cutoff := last
	if cutoff.IsZero() {
		cutoff = time.Now().Add(-a.cfg.PushWindow)
	}

	var fresh []feed.Item
	for _, it := range items {
		if !it.Published.IsZero() && it.Published.After(cutoff) {
			fresh = append(fresh, it)
		}
	}
	return fresh
}

func (a *App) timeRange() string {
	a.stateMu.Lock()
	last := a.lastPush
	a.stateMu.Unlock()

	if !last.IsZero() {
		return fmt.Sprintf("过去 %d 分钟", int(time.Since(last).Minutes()))
	}
	return gemini.FormatTimeRange(a.cfg.PushWindow)
}

// Close flushes and releases backend resources.
func (a *App) Close() {
	if a.fileStore != nil {
		if err := a.fileStore.Save(); err != nil {
			logger.Error("failed to save sent-items file", "error", err)
		}
	}
	if a.pgStore != nil {
		if err := a.pgStore.Close(); err != nil {
			logger.Error("failed to close postgres store", "error", err)
		}
	}
	if a.gemini != nil {
		a.gemini.Close()
	}
	a.cache.Close()
}

// budgetedSummarizer gates AI digests behind the daily request budget.
type budgetedSummarizer struct {
	inner   notify.Summarizer
	limiter *ratelimit.Limiter
}

func (b *budgetedSummarizer) SummarizeDigest(ctx context.Context, items []feed.Item, timeRange string) (string, error) {
	if !b.limiter.CanUse() {
		return "", fmt.Errorf("daily AI request budget exhausted")
	}
	b.limiter.Use()
	return b.inner.SummarizeDigest(ctx, items, timeRange)
}
