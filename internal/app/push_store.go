package app

import (
	"context"

	"w3watch/internal/feed"
	"w3watch/internal/logger"
	"w3watch/internal/storage"
)

// PushStore is the delivery-state backend behind the push pipeline. The
// Redis tracker implements it directly; the file and Postgres stores are
// adapted below.
type PushStore interface {
	FilterUnpushed(ctx context.Context, items []feed.Item) []feed.Item
	MarkPushed(ctx context.Context, items []feed.Item) error
}

type filePushStore struct {
	store *storage.FileStore
}

func (f *filePushStore) FilterUnpushed(_ context.Context, items []feed.Item) []feed.Item {
	unpushed := make([]feed.Item, 0, len(items))
	for _, it := range items {
		if !f.store.IsSent(storage.ItemHash(it.Title, it.Link)) {
			unpushed = append(unpushed, it)
		}
	}
	return unpushed
}

func (f *filePushStore) MarkPushed(_ context.Context, items []feed.Item) error {
	for _, it := range items {
		f.store.MarkSent(storage.ItemHash(it.Title, it.Link), it.Title, it.Link, string(it.Category), it.FeedTitle)
	}
	f.store.Cleanup()
	if err := f.store.Save(); err != nil {
		logger.Error("failed to persist sent-items file", "error", err)
		return err
	}
	return nil
}

type postgresPushStore struct {
	store *storage.PostgresStore
}

func (p *postgresPushStore) FilterUnpushed(_ context.Context, items []feed.Item) []feed.Item {
	unpushed := make([]feed.Item, 0, len(items))
	for _, it := range items {
		if p.store.IsSent(storage.ItemHash(it.Title, it.Link)) {
			continue
		}
		if it.Link != "" && p.store.IsLinkSent(it.Link) {
			continue
		}
		unpushed = append(unpushed, it)
	}
	return unpushed
}

func (p *postgresPushStore) MarkPushed(_ context.Context, items []feed.Item) error {
	var firstErr error
	for _, it := range items {
		err := p.store.MarkSent(storage.ItemHash(it.Title, it.Link), it.Title, it.Link, string(it.Category), it.FeedTitle)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := p.store.Cleanup(); err != nil {
		logger.Warn("sent-items cleanup failed", "error", err)
	}
	return firstErr
}
