// Package metrics keeps in-process counters for the monitoring endpoints.
package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	FeedsFetched       int64
	FeedErrors         int64
	ItemsProcessed     int64
	ItemsMatched       int64
	DuplicatesFiltered int64
	ItemsPushed        int64
	MessagesSent       int64
	PushesSkipped      int64

	// Timings
	LastRefreshDuration time.Duration
	TotalRefreshTime    time.Duration
	RefreshCount        int64

	// Status
	LastRunTime   time.Time
	LastPushTime  time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) IncrementFeedsFetched() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FeedsFetched++
}

func (m *Metrics) IncrementFeedErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FeedErrors++
}

func (m *Metrics) IncrementItemsProcessed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsProcessed++
}

func (m *Metrics) IncrementItemsMatched() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsMatched++
}

func (m *Metrics) AddDuplicatesFiltered(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesFiltered += n
}

func (m *Metrics) AddItemsPushed(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsPushed += n
}

func (m *Metrics) AddMessagesSent(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MessagesSent += int64(n)
}

func (m *Metrics) IncrementPushesSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PushesSkipped++
}

func (m *Metrics) RecordRefresh(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastRefreshDuration = duration
	m.TotalRefreshTime += duration
	m.RefreshCount++
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetLastPush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastPushTime = time.Now()
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var avg time.Duration
	if m.RefreshCount > 0 {
		avg = m.TotalRefreshTime / time.Duration(m.RefreshCount)
	}

	return map[string]interface{}{
		"feeds_fetched":       m.FeedsFetched,
		"feed_errors":         m.FeedErrors,
		"items_processed":     m.ItemsProcessed,
		"items_matched":       m.ItemsMatched,
		"duplicates_filtered": m.DuplicatesFiltered,
		"items_pushed":        m.ItemsPushed,
		"messages_sent":       m.MessagesSent,
		"pushes_skipped":      m.PushesSkipped,
		"last_refresh_ms":     m.LastRefreshDuration.Milliseconds(),
		"average_refresh_ms":  avg.Milliseconds(),
		"last_run_time":       m.LastRunTime.Format(time.RFC3339),
		"last_push_time":      m.LastPushTime.Format(time.RFC3339),
		"last_error_time":     m.LastErrorTime.Format(time.RFC3339),
		"last_error":          m.LastError,
		"is_healthy":          m.IsHealthy,
	}
}
