package app

import (
	"context"
	"path/filepath"
	"testing"

	"w3watch/internal/feed"
	"w3watch/internal/storage"
)

func TestFilePushStoreFilterAndMark(t *testing.T) {
	fs := storage.NewFileStore(filepath.Join(t.TempDir(), "sent.json"), 48)
	if err := fs.Load(); err != nil {
		t.Fatal(err)
	}
	store := &filePushStore{store: fs}

	items := []feed.Item{
		{Title: "Bridge drained", Link: "https://x.com/1", Category: "blockchain_attack", FeedTitle: "Feed A"},
		{Title: "Advisory posted", Link: "https://y.com/2", Category: "vulnerability_disclosure", FeedTitle: "Feed B"},
	}

	ctx := context.Background()
	if got := store.FilterUnpushed(ctx, items); len(got) != 2 {
		t.Fatalf("fresh store filtered %d of 2 items", 2-len(got))
	}

	if err := store.MarkPushed(ctx, items[:1]); err != nil {
		t.Fatalf("MarkPushed: %v", err)
	}

	got := store.FilterUnpushed(ctx, items)
	if len(got) != 1 {
		t.Fatalf("got %d unpushed, want 1", len(got))
	}
	if got[0].Title != "Advisory posted" {
		t.Errorf("wrong item filtered: %q", got[0].Title)
	}
}

func TestFilePushStoreIgnoresTrackingParams(t *testing.T) {
	fs := storage.NewFileStore(filepath.Join(t.TempDir(), "sent.json"), 48)
	store := &filePushStore{store: fs}
	ctx := context.Background()

	if err := store.MarkPushed(ctx, []feed.Item{{Title: "Same story", Link: "https://x.com/a?ref=1"}}); err != nil {
		t.Fatal(err)
	}

	// The hash keys on title + domain, so a repost with a different query
	// string is still recognized.
	got := store.FilterUnpushed(ctx, []feed.Item{{Title: "Same story", Link: "https://x.com/a?ref=2"}})
	if len(got) != 0 {
		t.Errorf("repost with different tracking params was not filtered")
	}
}
