package scraper

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const articleHTML = `<!doctype html>
<html>
<head><title>Page Title</title></head>
<body>
  <h1>Exploit Writeup</h1>
  <article>
    <p>The attacker used a flaw in the withdrawal logic to drain the pool over several transactions.</p>
    <p>Funds were routed through a mixer shortly after the incident was detected by monitors.</p>
    <p>Subscribe to our newsletter for more updates like this one.</p>
    <p>The team has since paused the contract and is negotiating a bounty with the attacker.</p>
  </article>
</body>
</html>`

func TestExtractArticle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, articleHTML)
	}))
	defer srv.Close()

	article, err := ExtractArticle(srv.URL)
	if err != nil {
		t.Fatalf("ExtractArticle: %v", err)
	}
	if article.Title != "Exploit Writeup" {
		t.Errorf("title %q, want h1 text", article.Title)
	}
	if !strings.Contains(article.Content, "withdrawal logic") {
		t.Errorf("article body missing: %q", article.Content)
	}
	if strings.Contains(strings.ToLower(article.Content), "subscribe to") {
		t.Errorf("junk line survived cleaning: %q", article.Content)
	}
}

func TestExtractArticleHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := ExtractArticle(srv.URL); err == nil {
		t.Errorf("expected error for 404 page")
	}
}

func TestEnrichSnippetsRespectsCap(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, articleHTML)
	}))
	defer srv.Close()

	urls := []string{srv.URL + "/1", srv.URL + "/2", srv.URL + "/3"}
	applied := 0
	EnrichSnippets(urls, 2, func(url, content string) { applied++ })

	if hits != 2 || applied != 2 {
		t.Errorf("hits=%d applied=%d, want 2 each", hits, applied)
	}
}

func TestCleanContentCapsLength(t *testing.T) {
	long := strings.Repeat("sentence about the incident. ", 400)
	got := cleanContent(long)
	if len(got) > maxContentLength {
		t.Errorf("content length %d exceeds cap %d", len(got), maxContentLength)
	}
}
