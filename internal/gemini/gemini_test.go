package gemini

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"w3watch/internal/feed"
)

func TestResolveLinkTokensSubstitutesAnchors(t *testing.T) {
	batch := []feed.Item{
		{Title: "a", Link: "https://x.com/a"},
		{Title: "b", Link: "https://y.com/b?q=1"},
	}
	text := "First: [[LINK_0]]\nSecond: [[LINK_1]]"

	got := resolveLinkTokens(text, batch)
	if !strings.Contains(got, `<a href="https://x.com/a">https://x.com/a</a>`) {
		t.Errorf("first token not resolved: %q", got)
	}
	if !strings.Contains(got, `<a href="https://y.com/b?q=1">`) {
		t.Errorf("second token not resolved: %q", got)
	}
	if strings.Contains(got, "[[LINK_") {
		t.Errorf("unresolved token remains: %q", got)
	}
}

func TestResolveLinkTokensEscapesQuotes(t *testing.T) {
	batch := []feed.Item{{Link: `https://x.com/a"onclick="x`}}
	got := resolveLinkTokens("[[LINK_0]]", batch)
	if strings.Contains(got, `"onclick=`) {
		t.Errorf("quote not escaped: %q", got)
	}
	if !strings.Contains(got, "%22") {
		t.Errorf("expected %%22 escape in %q", got)
	}
}

func TestResolveLinkTokensNonHTTPLinkBecomesUnavailable(t *testing.T) {
	batch := []feed.Item{{Link: "ftp://x.com/a"}}
	got := resolveLinkTokens("see [[LINK_0]]", batch)
	if !strings.Contains(got, "链接不可用") {
		t.Errorf("non-http link should become unavailable marker: %q", got)
	}
}

func TestResolveLinkTokensInventedTokenNeutralized(t *testing.T) {
	batch := []feed.Item{{Link: "https://x.com/a"}}
	got := resolveLinkTokens("[[LINK_0]] and invented [[LINK_7]]", batch)
	if strings.Contains(got, "[[LINK_7]]") {
		t.Errorf("invented token survived: %q", got)
	}
	if !strings.Contains(got, "链接不可用") {
		t.Errorf("invented token should be marked unavailable: %q", got)
	}
}

func TestResolveLinkTokensStripsExampleDomain(t *testing.T) {
	got := resolveLinkTokens("details at https://www.example.com/post here", nil)
	if strings.Contains(got, "example.com") {
		t.Errorf("placeholder domain survived: %q", got)
	}
}

func TestSanitizeTelegramHTML(t *testing.T) {
	in := `<div>intro</div>line one<br/>line two<hr><p>para</p><ul><li>x</li></ul><b>kept</b>`
	got := sanitizeTelegramHTML(in)

	for _, banned := range []string{"<div>", "<br", "<hr", "<p>", "<ul>", "<li>"} {
		if strings.Contains(got, banned) {
			t.Errorf("banned tag %q survived: %q", banned, got)
		}
	}
	if !strings.Contains(got, "<b>kept</b>") {
		t.Errorf("allowed tag was stripped: %q", got)
	}
	if !strings.Contains(got, "\nline two") {
		t.Errorf("<br> should become a newline: %q", got)
	}
}

func TestBuildPromptCarriesTokensAndMetadata(t *testing.T) {
	batch := []feed.Item{
		{Title: "Bridge drained", Link: "https://x.com/a", Category: "blockchain_attack", Published: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC), ContentSnippet: "short summary"},
		{Title: "No date item"},
	}
	prompt := buildPrompt(batch, 5, "最近 30 分钟")

	for _, want := range []string{"[[LINK_0]]", "[[LINK_1]]", "Bridge drained", "[blockchain_attack]", "最近 30 分钟", "未知时间", "资讯数量：5 条"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPromptTruncatesLongContent(t *testing.T) {
	long := strings.Repeat("字", 400)
	prompt := buildPrompt([]feed.Item{{Title: "t", Content: long}}, 1, "x")
	if strings.Contains(prompt, long) {
		t.Errorf("content was not truncated")
	}
	if !strings.Contains(prompt, "...") {
		t.Errorf("truncation marker missing")
	}
}

func TestCapBatchBoundsPromptItems(t *testing.T) {
	items := make([]feed.Item, 30)
	for i := range items {
		items[i] = feed.Item{Title: fmt.Sprintf("item %d", i)}
	}

	got := capBatch(items, 10)
	if len(got) != 10 {
		t.Fatalf("got %d items, want the configured cap of 10", len(got))
	}
	if got[0].Title != "item 0" {
		t.Errorf("cap must keep the head of the sorted list, got %q first", got[0].Title)
	}

	if got := capBatch(items, 0); len(got) != 30 {
		t.Errorf("non-positive cap should pass items through, got %d", len(got))
	}
	if got := capBatch(items[:5], 10); len(got) != 5 {
		t.Errorf("cap above the batch size should not grow it, got %d", len(got))
	}
}

func TestFormatTimeRange(t *testing.T) {
	if got := FormatTimeRange(30 * time.Minute); got != "最近 30 分钟" {
		t.Errorf("got %q", got)
	}
	if got := FormatTimeRange(2 * time.Hour); got != "最近 2 小时" {
		t.Errorf("got %q", got)
	}
}
