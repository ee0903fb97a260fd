package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"w3watch/internal/classify"
	"w3watch/internal/logger"
	"w3watch/internal/metrics"
)

const (
	// DefaultFetchTimeout bounds a single feed fetch so one slow endpoint
	// cannot stall a whole batch.
	DefaultFetchTimeout = 5 * time.Second
	// DefaultMaxRedirects caps redirect chains per fetch.
	DefaultMaxRedirects = 3
)

// Fetcher retrieves and parses one feed at a time and keeps only entries the
// classifier assigns a category to.
type Fetcher struct {
	parser *gofeed.Parser
}

// NewFetcher builds a fetcher with the given timeout and redirect cap. Zero
// values select the defaults.
func NewFetcher(timeout time.Duration, maxRedirects int) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}

	parser := gofeed.NewParser()
	parser.Client = &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
	return &Fetcher{parser: parser}
}

// Fetch downloads and parses one source. Any fetch or parse failure is
// logged and yields an empty list; a broken feed never aborts its siblings.
func (f *Fetcher) Fetch(ctx context.Context, source Source) []Item {
	parsed, err := f.parser.ParseURLWithContext(source.FeedURL, ctx)
	if err != nil {
		logger.Warn("feed fetch failed", "feed", source.Title, "url", source.FeedURL, "error", err)
		metrics.Global.IncrementFeedErrors()
		return nil
	}
	metrics.Global.IncrementFeedsFetched()

	var items []Item
	for _, raw := range parsed.Items {
		metrics.Global.IncrementItemsProcessed()
		it, ok := buildItem(raw, source)
		if !ok {
			continue
		}
		metrics.Global.IncrementItemsMatched()
		items = append(items, it)
	}

	logger.Debug("feed fetched", "feed", source.Title, "total", len(parsed.Items), "matched", len(items))
	return items
}

// buildItem classifies a raw entry and maps it to an Item. Entries with no
// category are not security related and are dropped here.
func buildItem(raw *gofeed.Item, source Source) (Item, bool) {
	text := classify.CombinedText(raw.Title, raw.Content, raw.Description)
	category, ok := classify.Categorize(text)
	if !ok {
		return Item{}, false
	}
	subcategory, _ := classify.Subcategorize(text)

	title := raw.Title
	if title == "" {
		title = "Untitled"
	}

	var published time.Time
	if raw.PublishedParsed != nil {
		published = *raw.PublishedParsed
	}

	return Item{
		Title:          title,
		Link:           bestLink(raw, source),
		Content:        raw.Content,
		ContentSnippet: raw.Description,
		PubDate:        raw.Published,
		Published:      published,
		FeedTitle:      source.Title,
		FeedURL:        source.FeedURL,
		FeedHTML:       source.SiteURL,
		Category:       category,
		Subcategory:    subcategory,
	}, true
}

// bestLink picks the most useful article link:
// link > guid > enclosure URL > source site > source feed URL > "".
func bestLink(raw *gofeed.Item, source Source) string {
	if raw.Link != "" {
		return raw.Link
	}
	if raw.GUID != "" {
		return raw.GUID
	}
	for _, enc := range raw.Enclosures {
		if enc != nil && enc.URL != "" {
			return enc.URL
		}
	}
	if source.SiteURL != "" {
		return source.SiteURL
	}
	return source.FeedURL
}
