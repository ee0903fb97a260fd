// Package dedup collapses aggregated items that refer to the same underlying
// article. Matching is three-tiered: exact normalized link, exact normalized
// title, then fuzzy title similarity. When two items match, the one with the
// earlier publish date survives (the earlier copy is usually the original
// source); on equal or missing dates the first-seen item wins.
package dedup

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"w3watch/internal/feed"
)

// SimilarityThreshold is the fuzzy-title score above which two items are
// treated as the same article.
const SimilarityThreshold = 0.85

// NormalizeLink reduces a URL to lowercased scheme://host/path, dropping
// query string and fragment. Unparseable links fall back to the lowercased
// raw string.
func NormalizeLink(link string) string {
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.ToLower(link)
	}
	return strings.ToLower(u.Scheme + "://" + u.Host + u.Path)
}

// NormalizeTitle lowercases and trims a title for exact-title matching.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// Similarity scores two strings in [0,1]: exact match is 1.0, empty input is
// 0.0, a substring relation scores the shorter/longer character-count ratio,
// anything
// else the Jaccard index of the whitespace-tokenized word sets.
func Similarity(a, b string) float64 {
	s1 := strings.ToLower(strings.TrimSpace(a))
	s2 := strings.ToLower(strings.TrimSpace(b))
	if s1 == s2 {
		return 1.0
	}
	if s1 == "" || s2 == "" {
		return 0.0
	}

	if strings.Contains(s1, s2) || strings.Contains(s2, s1) {
		// Character counts, not byte lengths, so CJK titles score the same
		// ratio as ASCII ones.
		shorter, longer := utf8.RuneCountInString(s1), utf8.RuneCountInString(s2)
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		return float64(shorter) / float64(longer)
	}

	words1 := toSet(strings.Fields(s1))
	words2 := toSet(strings.Fields(s2))
	intersection := 0
	for w := range words1 {
		if _, ok := words2[w]; ok {
			intersection++
		}
	}
	union := len(words1) + len(words2) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// index holds the two dedup views over the items seen so far. titleOrder
// keeps the fuzzy scan deterministic; map iteration order is not.
type index struct {
	byLink     map[string]feed.Item
	byTitle    map[string]feed.Item
	titleOrder []string
}

// earlierWins reports whether candidate should replace existing: only when
// the candidate has a real date and the existing item is dateless or later.
func earlierWins(candidate, existing feed.Item) bool {
	candDate := candidate.PublishedUnix()
	existingDate := existing.PublishedUnix()
	return candDate > 0 && (existingDate == 0 || candDate < existingDate)
}

// Dedupe collapses duplicates. Output order is unspecified; callers re-sort
// by date afterward. The result is the set of values in the link index, so
// items with neither a link nor a title do not survive.
func Dedupe(items []feed.Item) []feed.Item {
	if len(items) == 0 {
		return items
	}

	idx := &index{
		byLink:  make(map[string]feed.Item),
		byTitle: make(map[string]feed.Item),
	}

	for _, item := range items {
		normLink := NormalizeLink(item.Link)

		// Tier 1: exact link match fully resolves the item.
		if normLink != "" {
			if existing, ok := idx.byLink[normLink]; ok {
				if earlierWins(item, existing) {
					idx.byLink[normLink] = item
					idx.setTitle(NormalizeTitle(item.Title), item)
				}
				continue
			}
		}

		normTitle := NormalizeTitle(item.Title)
		duplicate := false

		if normTitle != "" {
			// Tier 2: exact title match against a different link.
			if existing, ok := idx.byTitle[normTitle]; ok {
				existingLink := NormalizeLink(existing.Link)
				if normLink != "" && normLink == existingLink {
					continue
				}
				if earlierWins(item, existing) {
					idx.replaceLink(existingLink, normLink, item)
					idx.setTitle(normTitle, item)
				}
				duplicate = true
			} else {
				// Tier 3: fuzzy title scan.
				for _, existingTitle := range idx.titleOrder {
					existing, ok := idx.byTitle[existingTitle]
					if !ok {
						continue
					}
					if Similarity(normTitle, existingTitle) <= SimilarityThreshold {
						continue
					}
					existingLink := NormalizeLink(existing.Link)
					if normLink != "" && normLink == existingLink {
						duplicate = true
						break
					}
					if earlierWins(item, existing) {
						idx.replaceLink(existingLink, normLink, item)
						idx.deleteTitle(existingTitle)
						idx.setTitle(normTitle, item)
					}
					duplicate = true
					break
				}
			}
		}

		if !duplicate {
			if normLink != "" {
				idx.byLink[normLink] = item
			}
			idx.setTitle(normTitle, item)
		}
	}

	result := make([]feed.Item, 0, len(idx.byLink))
	for _, item := range idx.byLink {
		result = append(result, item)
	}
	return result
}

func (idx *index) setTitle(normTitle string, item feed.Item) {
	if normTitle == "" {
		return
	}
	if _, exists := idx.byTitle[normTitle]; !exists {
		idx.titleOrder = append(idx.titleOrder, normTitle)
	}
	idx.byTitle[normTitle] = item
}

func (idx *index) deleteTitle(normTitle string) {
	delete(idx.byTitle, normTitle)
}

// replaceLink swaps the surviving item under the winning link key. When the
// replacement has no usable link of its own, it inherits the old key so the
// article stays represented in the output.
func (idx *index) replaceLink(oldLink, newLink string, item feed.Item) {
	delete(idx.byLink, oldLink)
	key := newLink
	if key == "" {
		key = oldLink
	}
	if key != "" {
		idx.byLink[key] = item
	}
}
