package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"

	"w3watch/internal/taxonomy"
)

func rssBody(items string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://test.example</link>
    %s
  </channel>
</rss>`, items)
}

func rssItem(title, link, pubDate, description string) string {
	return fmt.Sprintf(`<item>
  <title>%s</title>
  <link>%s</link>
  <pubDate>%s</pubDate>
  <description>%s</description>
</item>`, title, link, pubDate, description)
}

func TestFetchKeepsOnlyClassifiedItems(t *testing.T) {
	body := rssBody(
		rssItem("Bridge hack drains $5M", "https://test.example/1", "Mon, 02 Mar 2026 10:00:00 GMT", "cross chain incident") +
			rssItem("Quarterly earnings report", "https://test.example/2", "Mon, 02 Mar 2026 11:00:00 GMT", "financials"),
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	f := NewFetcher(0, 0)
	items := f.Fetch(context.Background(), Source{Title: "Test", FeedURL: srv.URL})

	if len(items) != 1 {
		t.Fatalf("got %d items, want 1 security item", len(items))
	}
	if items[0].Category != taxonomy.CategoryBlockchainAttack {
		t.Errorf("got category %q, want blockchain_attack", items[0].Category)
	}
	if items[0].FeedTitle != "Test" {
		t.Errorf("feed title not carried through: %q", items[0].FeedTitle)
	}
	if items[0].Published.IsZero() {
		t.Errorf("publish date was not parsed")
	}
}

func TestFetchFailureReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher(0, 0)
	if items := f.Fetch(context.Background(), Source{Title: "Broken", FeedURL: srv.URL}); items != nil {
		t.Errorf("got %d items from a broken feed, want nil", len(items))
	}
}

func TestFetchAllIsolatesFailures(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssBody(rssItem("Exchange hacked overnight", "https://g.example/1", "Mon, 02 Mar 2026 10:00:00 GMT", "")))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	agg := NewAggregator(NewFetcher(0, 0), 2, nil)
	items := agg.FetchAll(context.Background(), []Source{
		{Title: "Good", FeedURL: good.URL},
		{Title: "Bad", FeedURL: bad.URL},
	}, "")

	if len(items) != 1 {
		t.Fatalf("got %d items, want 1 from the healthy feed", len(items))
	}
}

func TestFetchAllCategoryFilter(t *testing.T) {
	body := rssBody(
		rssItem("Exchange hacked overnight", "https://f.example/1", "Mon, 02 Mar 2026 10:00:00 GMT", "") +
			rssItem("New security advisory published", "https://f.example/2", "Mon, 02 Mar 2026 11:00:00 GMT", ""),
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	agg := NewAggregator(NewFetcher(0, 0), 0, nil)
	items := agg.FetchAll(context.Background(), []Source{{Title: "F", FeedURL: srv.URL}}, taxonomy.CategoryVulnerabilityDisclosure)

	if len(items) != 1 {
		t.Fatalf("got %d items, want 1 after category filter", len(items))
	}
	if items[0].Category != taxonomy.CategoryVulnerabilityDisclosure {
		t.Errorf("got category %q", items[0].Category)
	}
}

func TestSortByDateDescSinksMissingDates(t *testing.T) {
	now := time.Now()
	items := []Item{
		{Title: "dateless"},
		{Title: "old", Published: now.Add(-2 * time.Hour)},
		{Title: "new", Published: now},
	}
	SortByDateDesc(items)

	want := []string{"new", "old", "dateless"}
	for i, w := range want {
		if items[i].Title != w {
			t.Errorf("position %d: got %q, want %q", i, items[i].Title, w)
		}
	}
}

func TestBestLinkFallbackChain(t *testing.T) {
	source := Source{SiteURL: "https://site.example", FeedURL: "https://site.example/feed"}

	cases := []struct {
		name string
		raw  *gofeed.Item
		want string
	}{
		{"link wins", &gofeed.Item{Link: "https://a/1", GUID: "https://a/guid"}, "https://a/1"},
		{"guid next", &gofeed.Item{GUID: "https://a/guid"}, "https://a/guid"},
		{"enclosure next", &gofeed.Item{Enclosures: []*gofeed.Enclosure{{URL: "https://a/enc"}}}, "https://a/enc"},
		{"site fallback", &gofeed.Item{}, "https://site.example"},
	}
	for _, c := range cases {
		if got := bestLink(c.raw, source); got != c.want {
			t.Errorf("%s: got %q, want %q", c.name, got, c.want)
		}
	}
}

func TestLoadSourcesOPML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.opml")
	opml := `<?xml version="1.0"?>
<opml version="2.0">
  <body>
    <outline text="Group">
      <outline type="rss" text="SlowMist" xmlUrl="https://slowmist.example/feed" htmlUrl="https://slowmist.example"/>
      <outline type="link" text="not a feed" xmlUrl="https://skip.example"/>
    </outline>
    <outline type="rss" title="Rekt" xmlUrl="https://rekt.example/feed"/>
  </body>
</opml>`
	if err := os.WriteFile(path, []byte(opml), 0644); err != nil {
		t.Fatal(err)
	}

	sources, err := LoadSources(path)
	if err != nil {
		t.Fatalf("LoadSources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(sources))
	}
	if sources[0].Title != "SlowMist" || sources[0].FeedURL != "https://slowmist.example/feed" {
		t.Errorf("first source wrong: %+v", sources[0])
	}
	if sources[1].Title != "Rekt" {
		t.Errorf("title attribute fallback failed: %+v", sources[1])
	}
}

func TestLoadSourcesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	yaml := `feeds:
  - title: SlowMist
    url: https://slowmist.example/feed
    site: https://slowmist.example
  - url: https://untitled.example/feed
  - title: No URL
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	sources, err := LoadSources(path)
	if err != nil {
		t.Fatalf("LoadSources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("got %d sources, want 2 (entry without url dropped)", len(sources))
	}
	if sources[1].Title != "Untitled" {
		t.Errorf("missing title should default to Untitled, got %q", sources[1].Title)
	}
}

func TestLoadSourcesMissingFile(t *testing.T) {
	if _, err := LoadSources(filepath.Join(t.TempDir(), "nope.opml")); err == nil {
		t.Errorf("expected error for missing file")
	}
}
