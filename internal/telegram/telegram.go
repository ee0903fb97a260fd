// Package telegram is a thin client for the Bot API sendMessage and
// forwardMessage endpoints.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"w3watch/internal/logger"
	"w3watch/internal/retry"
)

// MaxMessageLength is the chunking threshold for outgoing messages, kept
// under Telegram's 4096 hard limit to leave headroom for HTML entities.
const MaxMessageLength = 4000

var httpClient = &http.Client{Timeout: 30 * time.Second}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// SendMessage delivers one HTML-formatted message to a chat, retrying with
// exponential backoff. Link previews are disabled to keep digests compact.
func SendMessage(ctx context.Context, token, chatID, text string) error {
	cfg := retry.Config{MaxAttempts: 3, Delay: 2 * time.Second, Backoff: true}
	return retry.Do(ctx, cfg, func() error {
		return callAPI(token, "sendMessage", map[string]interface{}{
			"chat_id":                  chatID,
			"text":                     text,
			"parse_mode":               "HTML",
			"disable_web_page_preview": true,
		})
	})
}

// ForwardMessage copies an existing message from one chat to another.
func ForwardMessage(ctx context.Context, token, fromChatID string, messageID int64, toChatID string) error {
	cfg := retry.Config{MaxAttempts: 3, Delay: 2 * time.Second, Backoff: true}
	return retry.Do(ctx, cfg, func() error {
		return callAPI(token, "forwardMessage", map[string]interface{}{
			"chat_id":      toChatID,
			"from_chat_id": fromChatID,
			"message_id":   messageID,
		})
	})
}

func callAPI(token, method string, payload map[string]interface{}) error {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/%s", token, method)

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := httpClient.Post(url, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn("failed to close response body", "error", err)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(data, &apiResp); err != nil {
		return fmt.Errorf("telegram API status %d: unparseable response", resp.StatusCode)
	}
	if !apiResp.OK {
		return fmt.Errorf("telegram API error %d: %s", apiResp.ErrorCode, apiResp.Description)
	}
	return nil
}

// SplitMessage breaks text into chunks no longer than limit, cutting only
// at line boundaries so HTML tags and links stay intact. A single line
// longer than the limit becomes its own oversized chunk rather than being
// cut mid-tag.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLength
	}
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder

	for _, line := range strings.Split(text, "\n") {
		addition := len(line)
		if current.Len() > 0 {
			addition++ // the newline separator
		}

		if current.Len()+addition > limit && current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}

		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
