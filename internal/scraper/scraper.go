// Package scraper pulls full article text for items whose feeds only carry
// a short snippet, giving the summarizer more to work with.
package scraper

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"w3watch/internal/logger"
)

// maxContentLength caps extracted text so prompts stay bounded.
const maxContentLength = 4000

// minParagraphLength filters out nav crumbs and share buttons.
const minParagraphLength = 20

// ArticleContent is the scraped body of one article.
type ArticleContent struct {
	Title   string
	Content string
	URL     string
}

var httpClient = &http.Client{Timeout: 15 * time.Second}

// ExtractArticle fetches a page and pulls out the readable article text.
func ExtractArticle(url string) (*ArticleContent, error) {
	resp, err := httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("load page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	content := cleanContent(extractContent(doc))
	if content == "" {
		return nil, fmt.Errorf("no extractable content")
	}

	return &ArticleContent{
		Title:   extractTitle(doc),
		Content: content,
		URL:     url,
	}, nil
}

// EnrichSnippets scrapes full text for up to maxArticles items that carry
// no content beyond a snippet, calling apply for each successful fetch.
// Scrape failures are logged and skipped; enrichment is best effort.
func EnrichSnippets(urls []string, maxArticles int, apply func(url, content string)) {
	if maxArticles <= 0 {
		maxArticles = 5
	}

	scraped := 0
	for _, url := range urls {
		if scraped >= maxArticles {
			break
		}
		article, err := ExtractArticle(url)
		if err != nil {
			logger.Debug("article scrape failed", "url", url, "error", err)
			continue
		}
		apply(url, article.Content)
		scraped++
	}
}

func extractContent(doc *goquery.Document) string {
	var paragraphs []string

	selectors := []string{
		"article p",
		".article p",
		".content p",
		".post-content p",
		".entry-content p",
		"main p",
		"#content p",
		"p",
	}

	for _, selector := range selectors {
		doc.Find(selector).Each(func(i int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) > minParagraphLength {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) >= 3 {
			break
		}
	}

	return strings.Join(paragraphs, "\n\n")
}

func extractTitle(doc *goquery.Document) string {
	selectors := []string{
		"h1",
		"title",
		".article-title",
		".headline",
		".entry-title",
	}

	for _, selector := range selectors {
		title := strings.TrimSpace(doc.Find(selector).First().Text())
		if title != "" {
			return title
		}
	}
	return ""
}

var junkIndicators = []string{
	"subscribe to",
	"sign up for",
	"follow us",
	"read more:",
	"advertisement",
	"cookie policy",
	"disclaimer:",
}

func cleanContent(content string) string {
	var kept []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		junk := false
		for _, indicator := range junkIndicators {
			if strings.Contains(lower, indicator) {
				junk = true
				break
			}
		}
		if !junk {
			kept = append(kept, line)
		}
	}

	result := strings.Join(kept, "\n\n")
	if len(result) > maxContentLength {
		cut := result[:maxContentLength]
		if idx := strings.LastIndex(cut, ". "); idx > maxContentLength/2 {
			cut = cut[:idx+1]
		}
		result = cut
	}
	return result
}
