// Package notify composes security digests and delivers them to every
// configured Telegram destination.
package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"w3watch/internal/feed"
	"w3watch/internal/logger"
	"w3watch/internal/metrics"
	"w3watch/internal/taxonomy"
	"w3watch/internal/telegram"
)

// chunkDelay paces multi-chunk sends so Telegram's rate limiter stays calm.
const chunkDelay = 500 * time.Millisecond

// maxItemsPerCategory caps how many items the plain digest shows per group.
const maxItemsPerCategory = 5

// Summarizer produces an AI-written digest. Implementations may fail; the
// notifier then falls back to the built-in formatter.
type Summarizer interface {
	SummarizeDigest(ctx context.Context, items []feed.Item, timeRange string) (string, error)
}

type Notifier struct {
	Token      string
	ChatIDs    []string
	Summarizer Summarizer

	// send and delay are replaceable in tests.
	send  func(ctx context.Context, token, chatID, text string) error
	delay time.Duration
}

func New(token string, chatIDs []string, summarizer Summarizer) *Notifier {
	return &Notifier{
		Token:      token,
		ChatIDs:    chatIDs,
		Summarizer: summarizer,
		send:       telegram.SendMessage,
		delay:      chunkDelay,
	}
}

// Notify builds the digest once and sends it to every destination. It
// reports true only when every chunk reached every chat; the caller must
// not mark items pushed otherwise, so a partial failure gets retried on
// the next cycle.
func (n *Notifier) Notify(ctx context.Context, items []feed.Item, timeRange string) bool {
	if len(items) == 0 {
		return true
	}

	message := n.composeDigest(ctx, items, timeRange)
	chunks := telegram.SplitMessage(message, telegram.MaxMessageLength)

	allOK := true
	for _, chatID := range n.ChatIDs {
		if err := n.sendChunks(ctx, chatID, chunks); err != nil {
			logger.Error("digest delivery failed", "chat_id", chatID, "error", err)
			allOK = false
			continue
		}
		logger.Info("digest delivered", "chat_id", chatID, "chunks", len(chunks))
	}

	if allOK {
		metrics.Global.AddMessagesSent(len(chunks) * len(n.ChatIDs))
	}
	return allOK
}

func (n *Notifier) sendChunks(ctx context.Context, chatID string, chunks []string) error {
	for i, chunk := range chunks {
		if err := n.send(ctx, n.Token, chatID, chunk); err != nil {
			return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		if i < len(chunks)-1 && n.delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.delay):
			}
		}
	}
	return nil
}

func (n *Notifier) composeDigest(ctx context.Context, items []feed.Item, timeRange string) string {
	if n.Summarizer != nil {
		if msg, err := n.Summarizer.SummarizeDigest(ctx, items, timeRange); err == nil && msg != "" {
			return msg
		} else if err != nil {
			logger.Warn("AI digest failed, using plain format", "error", err)
		}
	}
	return FormatDigest(items, timeRange)
}

// FormatDigest renders the plain digest: a header, items grouped by
// category in priority order, and at most five shown per group.
func FormatDigest(items []feed.Item, timeRange string) string {
	var lines []string

	lines = append(lines, "🔒 <b>Web3 安全动态更新</b>")
	lines = append(lines, fmt.Sprintf("📅 <b>时间范围</b>: %s", timeRange))
	lines = append(lines, fmt.Sprintf("📊 <b>发现 %d 条新的安全相关资讯</b>", len(items)))
	lines = append(lines, "")

	byCategory := make(map[taxonomy.Category][]feed.Item)
	for _, it := range items {
		if taxonomy.ValidCategory(string(it.Category)) {
			byCategory[it.Category] = append(byCategory[it.Category], it)
		}
	}

	for _, rule := range taxonomy.Categories {
		group := byCategory[rule.Category]
		if len(group) == 0 {
			continue
		}

		lines = append(lines, fmt.Sprintf("\n<b>%s (%d条)</b>", rule.Category.Label(), len(group)))
		lines = append(lines, "")

		shown := group
		if len(shown) > maxItemsPerCategory {
			shown = shown[:maxItemsPerCategory]
		}
		for i, it := range shown {
			date := "未知时间"
			if !it.Published.IsZero() {
				date = it.Published.Format("2006/01/02 15:04")
			}
			lines = append(lines, fmt.Sprintf("%d. <b>%s</b>", i+1, html.EscapeString(it.Title)))
			lines = append(lines, fmt.Sprintf("   📅 %s", date))
			lines = append(lines, fmt.Sprintf("   🔗 <a href=\"%s\">查看详情</a>", it.Link))
			lines = append(lines, "")
		}

		if len(group) > maxItemsPerCategory {
			lines = append(lines, fmt.Sprintf("<i>还有 %d 条未显示...</i>", len(group)-maxItemsPerCategory))
			lines = append(lines, "")
		}
	}

	lines = append(lines, strings.Repeat("─", 20))
	lines = append(lines, "")
	lines = append(lines, "💡 查看完整列表和更多信息")

	return strings.Join(lines, "\n")
}
