// Package storage provides alternate sent-item stores for deployments
// without Redis: a JSON file for single-node setups and Postgres for shared
// ones. Both key items by a stable hash of normalized title plus domain.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// SentItem is one delivered security item on record.
type SentItem struct {
	Hash     string    `json:"hash"`
	Title    string    `json:"title"`
	Link     string    `json:"link"`
	Category string    `json:"category"`
	Feed     string    `json:"feed"`
	SentAt   time.Time `json:"sent_at"`
}

// FileStore keeps sent items in a JSON file.
type FileStore struct {
	filePath string
	ttlHours int
	items    map[string]SentItem
	mu       sync.RWMutex
}

func NewFileStore(filePath string, ttlHours int) *FileStore {
	return &FileStore{
		filePath: filePath,
		ttlHours: ttlHours,
		items:    make(map[string]SentItem),
	}
}

// Load reads the existing file, dropping entries already past the TTL.
func (fs *FileStore) Load() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, err := os.Stat(fs.filePath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(fs.filePath)
	if err != nil {
		return fmt.Errorf("read sent-items file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var items []SentItem
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("unmarshal sent-items file: %w", err)
	}

	cutoff := time.Now().Add(-time.Duration(fs.ttlHours) * time.Hour)
	for _, item := range items {
		if item.SentAt.After(cutoff) {
			fs.items[item.Hash] = item
		}
	}
	return nil
}

// Save writes the current state back to the file.
func (fs *FileStore) Save() error {
	fs.mu.RLock()
	items := make([]SentItem, 0, len(fs.items))
	for _, item := range fs.items {
		items = append(items, item)
	}
	fs.mu.RUnlock()

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sent items: %w", err)
	}
	if err := os.WriteFile(fs.filePath, data, 0644); err != nil {
		return fmt.Errorf("write sent-items file: %w", err)
	}
	return nil
}

// ItemHash builds the stable identity used by both stores: normalized title
// plus the link's domain, hashed and truncated.
func ItemHash(title, link string) string {
	normalizedTitle := strings.ToLower(strings.TrimSpace(title))
	normalizedTitle = strings.Join(strings.Fields(normalizedTitle), " ")

	h := sha256.New()
	h.Write([]byte(normalizedTitle + "|" + extractDomain(link)))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// IsSent reports whether the item is on record and within the TTL window.
func (fs *FileStore) IsSent(hash string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	item, exists := fs.items[hash]
	if !exists {
		return false
	}
	cutoff := time.Now().Add(-time.Duration(fs.ttlHours) * time.Hour)
	return item.SentAt.After(cutoff)
}

// MarkSent puts the item on record.
func (fs *FileStore) MarkSent(hash, title, link, category, feedTitle string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.items[hash] = SentItem{
		Hash:     hash,
		Title:    title,
		Link:     link,
		Category: category,
		Feed:     feedTitle,
		SentAt:   time.Now(),
	}
}

// Cleanup drops expired entries from memory.
func (fs *FileStore) Cleanup() {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	cutoff := time.Now().Add(-time.Duration(fs.ttlHours) * time.Hour)
	for hash, item := range fs.items {
		if item.SentAt.Before(cutoff) {
			delete(fs.items, hash)
		}
	}
}

// Stats reports store size.
func (fs *FileStore) Stats() map[string]int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	return map[string]int{
		"total_items": len(fs.items),
	}
}

func extractDomain(url string) string {
	if url == "" {
		return "unknown"
	}

	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimPrefix(url, "https://")

	parts := strings.Split(url, "/")
	if len(parts) == 0 {
		return "unknown"
	}

	domain := strings.TrimPrefix(parts[0], "www.")
	return strings.ToLower(domain)
}
