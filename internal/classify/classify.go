// Package classify applies the security taxonomy to feed item text.
package classify

import (
	"strings"

	"w3watch/internal/taxonomy"
)

// CombinedText builds the lowercased text a classification decision runs on:
// title plus content, with the short snippet standing in when the feed
// carries no full content.
func CombinedText(title, content, snippet string) string {
	body := content
	if body == "" {
		body = snippet
	}
	return strings.ToLower(title) + " " + strings.ToLower(body)
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// Categorize returns the highest-priority category whose keyword set matches
// the text. Items with no category are not security related and are dropped
// by the fetcher.
func Categorize(text string) (taxonomy.Category, bool) {
	for _, rule := range taxonomy.Categories {
		if containsAny(text, rule.Keywords) {
			return rule.Category, true
		}
	}
	return "", false
}

// Subcategorize returns the highest-priority subcategory matching the text.
// Rules with a confirmation set require both a keyword and a confirmation
// word to be present.
func Subcategorize(text string) (taxonomy.Subcategory, bool) {
	for _, rule := range taxonomy.Subcategories {
		if !containsAny(text, rule.Keywords) {
			continue
		}
		if len(rule.Confirm) > 0 && !containsAny(text, rule.Confirm) {
			continue
		}
		return rule.Subcategory, true
	}
	return "", false
}
