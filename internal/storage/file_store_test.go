package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func TestItemHashStability(t *testing.T) {
	a := ItemHash("  Bridge  Drained ", "https://www.X.com/post?ref=1")
	b := ItemHash("bridge drained", "https://x.com/other-path")
	if a != b {
		t.Errorf("hash should normalize whitespace, case, and reduce the link to its domain: %q vs %q", a, b)
	}

	c := ItemHash("bridge drained", "https://other.com/post")
	if a == c {
		t.Errorf("different domains must hash differently")
	}
	if len(a) != 16 {
		t.Errorf("hash length %d, want 16", len(a))
	}
}

func TestItemHashEmptyLink(t *testing.T) {
	if ItemHash("t", "") == ItemHash("t", "https://x.com/a") {
		t.Errorf("empty link should use the unknown-domain bucket")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent.json")

	fs := NewFileStore(path, 48)
	if err := fs.Load(); err != nil {
		t.Fatalf("load of missing file should succeed: %v", err)
	}

	hash := ItemHash("Exchange breached", "https://x.com/a")
	if fs.IsSent(hash) {
		t.Fatalf("fresh store should not report sent")
	}

	fs.MarkSent(hash, "Exchange breached", "https://x.com/a", "blockchain_attack", "Test Feed")
	if !fs.IsSent(hash) {
		t.Fatalf("item not recorded")
	}
	if err := fs.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded := NewFileStore(path, 48)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.IsSent(hash) {
		t.Errorf("item lost across save/load")
	}
	if got := reloaded.Stats()["total_items"]; got != 1 {
		t.Errorf("stats total %d, want 1", got)
	}
}

func TestFileStoreTTLExpiry(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "sent.json"), 1)

	hash := "expiredhash"
	fs.mu.Lock()
	fs.items[hash] = SentItem{Hash: hash, SentAt: time.Now().Add(-2 * time.Hour)}
	fs.mu.Unlock()

	if fs.IsSent(hash) {
		t.Errorf("entry past the TTL must read as not sent")
	}

	fs.Cleanup()
	if got := fs.Stats()["total_items"]; got != 0 {
		t.Errorf("cleanup left %d items", got)
	}
}
