// Package feed loads the configured source list, fetches and parses the
// feeds, and keeps only items classified as Web3-security relevant.
package feed

import (
	"time"

	"w3watch/internal/taxonomy"
)

// Source is a configured RSS/Atom endpoint.
type Source struct {
	Title   string
	FeedURL string
	SiteURL string
}

// Item is a feed entry that survived classification. An Item only exists if
// a category was assigned; entries matching no keyword set are discarded at
// the fetch boundary.
type Item struct {
	Title          string
	Link           string
	Content        string
	ContentSnippet string
	PubDate        string    // raw date string from the feed, may be anything
	Published      time.Time // parsed publish time; zero when unparseable

	FeedTitle string
	FeedURL   string
	FeedHTML  string

	Category    taxonomy.Category
	Subcategory taxonomy.Subcategory
}

// PublishedUnix returns the sort key for date ordering. Items without a
// parseable date sort as epoch 0 and sink to the end of a descending sort.
func (it Item) PublishedUnix() int64 {
	if it.Published.IsZero() {
		return 0
	}
	return it.Published.Unix()
}
