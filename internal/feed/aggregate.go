package feed

import (
	"context"
	"sort"
	"sync"

	"w3watch/internal/logger"
	"w3watch/internal/taxonomy"
)

// DefaultBatchSize bounds how many feeds are fetched concurrently.
const DefaultBatchSize = 20

// Aggregator fans fetches out across many sources in fixed-size batches and
// merges the results. The dedupe hook collapses items that refer to the same
// underlying article; it is injected so the aggregator stays decoupled from
// the dedup implementation.
type Aggregator struct {
	fetcher   *Fetcher
	batchSize int
	dedupe    func([]Item) []Item
}

func NewAggregator(fetcher *Fetcher, batchSize int, dedupe func([]Item) []Item) *Aggregator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Aggregator{fetcher: fetcher, batchSize: batchSize, dedupe: dedupe}
}

// FetchAll fetches every source, deduplicates the merged list, optionally
// filters by category, and sorts descending by publish date. Within a batch
// all fetches run concurrently and each failure is isolated to its feed.
func (a *Aggregator) FetchAll(ctx context.Context, sources []Source, categoryFilter taxonomy.Category) []Item {
	var all []Item

	for start := 0; start < len(sources); start += a.batchSize {
		end := start + a.batchSize
		if end > len(sources) {
			end = len(sources)
		}
		batch := sources[start:end]

		results := make([][]Item, len(batch))
		var wg sync.WaitGroup
		for i, src := range batch {
			wg.Add(1)
			go func(i int, src Source) {
				defer wg.Done()
				results[i] = a.fetcher.Fetch(ctx, src)
			}(i, src)
		}
		wg.Wait()

		for _, items := range results {
			all = append(all, items...)
		}
	}

	if a.dedupe != nil {
		before := len(all)
		all = a.dedupe(all)
		logger.Info("deduplicated items", "before", before, "after", len(all), "removed", before-len(all))
	}

	if categoryFilter != "" {
		filtered := all[:0]
		for _, it := range all {
			if it.Category == categoryFilter {
				filtered = append(filtered, it)
			}
		}
		all = filtered
	}

	SortByDateDesc(all)
	return all
}

// SortByDateDesc orders items newest first. Items without a parseable date
// carry an epoch-0 sort key and end up last.
func SortByDateDesc(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedUnix() > items[j].PublishedUnix()
	})
}
