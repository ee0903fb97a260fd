package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"w3watch/internal/logger"
)

// PostgresStore keeps sent items in PostgreSQL for multi-instance setups
// where a shared file is not an option and Redis is not configured.
type PostgresStore struct {
	db       *sql.DB
	ttlHours int
}

func NewPostgresStore(connectionString string, ttlHours int) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &PostgresStore{
		db:       db,
		ttlHours: ttlHours,
	}

	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	logger.Info("postgres sent-item store connected")
	return store, nil
}

func (ps *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sent_items (
		id SERIAL PRIMARY KEY,
		hash VARCHAR(64) UNIQUE NOT NULL,
		title TEXT NOT NULL,
		link TEXT NOT NULL,
		category VARCHAR(50),
		feed VARCHAR(200),
		sent_at TIMESTAMP NOT NULL DEFAULT NOW(),
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_sent_items_hash ON sent_items(hash);
	CREATE INDEX IF NOT EXISTS idx_sent_items_sent_at ON sent_items(sent_at);
	CREATE INDEX IF NOT EXISTS idx_sent_items_link ON sent_items(link);
	`

	if _, err := ps.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// IsSent checks whether the hash was recorded within the TTL window.
// Lookup errors count as not-sent so a flaky database never suppresses
// a notification.
func (ps *PostgresStore) IsSent(hash string) bool {
	cutoff := time.Now().Add(-time.Duration(ps.ttlHours) * time.Hour)

	var count int
	err := ps.db.QueryRow(`SELECT COUNT(*) FROM sent_items WHERE hash = $1 AND sent_at > $2`, hash, cutoff).Scan(&count)
	if err != nil {
		logger.Warn("sent-item lookup failed", "error", err)
		return false
	}
	return count > 0
}

// IsLinkSent checks whether the exact link was recorded within the TTL
// window, as a second guard when titles were rewritten upstream.
func (ps *PostgresStore) IsLinkSent(link string) bool {
	cutoff := time.Now().Add(-time.Duration(ps.ttlHours) * time.Hour)

	var count int
	err := ps.db.QueryRow(`SELECT COUNT(*) FROM sent_items WHERE link = $1 AND sent_at > $2`, link, cutoff).Scan(&count)
	if err != nil {
		logger.Warn("sent-link lookup failed", "error", err)
		return false
	}
	return count > 0
}

// MarkSent records the item. ON CONFLICT refreshes sent_at so a re-push
// extends the dedup window instead of failing.
func (ps *PostgresStore) MarkSent(hash, title, link, category, feedTitle string) error {
	query := `
		INSERT INTO sent_items (hash, title, link, category, feed, sent_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (hash) DO UPDATE SET sent_at = NOW()
	`

	if _, err := ps.db.Exec(query, hash, title, link, category, feedTitle); err != nil {
		return fmt.Errorf("mark item sent: %w", err)
	}
	return nil
}

// Cleanup removes entries past the TTL.
func (ps *PostgresStore) Cleanup() error {
	cutoff := time.Now().Add(-time.Duration(ps.ttlHours) * time.Hour)

	result, err := ps.db.Exec(`DELETE FROM sent_items WHERE sent_at < $1`, cutoff)
	if err != nil {
		return fmt.Errorf("cleanup sent items: %w", err)
	}

	if rows, _ := result.RowsAffected(); rows > 0 {
		logger.Info("cleaned up expired sent items", "rows", rows)
	}
	return nil
}

// Stats reports totals for the monitoring endpoints.
func (ps *PostgresStore) Stats() (map[string]int, error) {
	stats := make(map[string]int)

	var total int
	if err := ps.db.QueryRow(`SELECT COUNT(*) FROM sent_items`).Scan(&total); err != nil {
		return nil, err
	}
	stats["total_items"] = total

	cutoff := time.Now().Add(-time.Duration(ps.ttlHours) * time.Hour)
	var active int
	if err := ps.db.QueryRow(`SELECT COUNT(*) FROM sent_items WHERE sent_at > $1`, cutoff).Scan(&active); err != nil {
		return nil, err
	}
	stats["active_items"] = active

	rows, err := ps.db.Query(`
		SELECT category, COUNT(*)
		FROM sent_items
		WHERE sent_at > $1
		GROUP BY category
	`, cutoff)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var category string
			var count int
			if err := rows.Scan(&category, &count); err == nil {
				stats["category_"+category] = count
			}
		}
	}

	return stats, nil
}

// RecentItems returns the most recently sent items for debugging.
func (ps *PostgresStore) RecentItems(limit int) ([]SentItem, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := ps.db.Query(`
		SELECT hash, title, link, category, feed, sent_at
		FROM sent_items
		ORDER BY sent_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SentItem
	for rows.Next() {
		var item SentItem
		if err := rows.Scan(&item.Hash, &item.Title, &item.Link, &item.Category, &item.Feed, &item.SentAt); err != nil {
			logger.Warn("scan sent item", "error", err)
			continue
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (ps *PostgresStore) Close() error {
	if ps.db != nil {
		return ps.db.Close()
	}
	return nil
}
