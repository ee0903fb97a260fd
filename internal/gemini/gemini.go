// Package gemini turns a batch of security items into a polished Chinese
// digest via the Gemini API. Links are never handed to the model directly:
// each item carries a [[LINK_n]] placeholder that gets substituted with the
// real URL after generation, so the model cannot mangle or invent links.
package gemini

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"w3watch/internal/feed"
	"w3watch/internal/logger"
)

// defaultMaxItems caps how many items are described in one prompt when the
// configuration does not say otherwise.
const defaultMaxItems = 20

type Client struct {
	client   *genai.Client
	model    string
	maxItems int
}

// NewClient opens a Gemini client. maxItems bounds how many items one digest
// prompt describes; zero or negative selects the default.
func NewClient(ctx context.Context, apiKey string, maxItems int) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if maxItems <= 0 {
		maxItems = defaultMaxItems
	}
	return &Client{client: client, model: "gemini-1.5-flash", maxItems: maxItems}, nil
}

func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// SummarizeDigest asks the model to filter the batch down to genuine
// blockchain attack events and format them as a Telegram HTML message.
// The caller falls back to plain formatting when an error is returned.
func (c *Client) SummarizeDigest(ctx context.Context, items []feed.Item, timeRange string) (string, error) {
	if len(items) == 0 {
		return "", fmt.Errorf("no items to summarize")
	}

	batch := capBatch(items, c.maxItems)

	model := c.client.GenerativeModel(c.model)
	resp, err := model.GenerateContent(ctx, genai.Text(buildPrompt(batch, len(items), timeRange)))
	if err != nil {
		return "", fmt.Errorf("generate digest: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}

	text := strings.TrimSpace(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]))
	text = resolveLinkTokens(text, batch)
	text = sanitizeTelegramHTML(text)

	logger.Info("AI digest generated", "items", len(batch), "length", len(text))
	return text, nil
}

// capBatch bounds the items described in one prompt. Items arrive sorted
// newest first, so the cap keeps the most recent ones.
func capBatch(items []feed.Item, max int) []feed.Item {
	if max > 0 && len(items) > max {
		return items[:max]
	}
	return items
}

func buildPrompt(batch []feed.Item, total int, timeRange string) string {
	var sb strings.Builder
	for i, it := range batch {
		category := string(it.Category)
		if category == "" {
			category = "unknown"
		}

		date := "未知时间"
		if !it.Published.IsZero() {
			date = it.Published.Format("01-02 15:04")
		}

		content := it.ContentSnippet
		if content == "" {
			content = it.Content
		}
		if len([]rune(content)) > 150 {
			content = string([]rune(content)[:150]) + "..."
		}
		if content == "" {
			content = "无内容"
		}

		fmt.Fprintf(&sb, "%d. [%s] %s [[LINK_%d]] (%s)\n   内容: %s\n\n", i+1, category, it.Title, i, date, content)
	}

	return fmt.Sprintf(`你是一个专业的 Web3 安全分析师。请对以下安全资讯进行过滤、总结和优化，生成一份清晰、专业的 Telegram 消息。

**重要：过滤要求**
请只处理和返回真正的区块链攻击相关事件，忽略以下内容：
- 普通的漏洞披露（没有实际攻击或资金损失）
- 代码审计报告（没有实际攻击）
- 理论研究、学术论文
- 项目更新、产品发布等非安全事件
- 一般性的安全建议或教育内容

**区块链攻击包括**：
- 钱包被黑、私钥泄露、资金被盗
- 公链/主网攻击（如以太坊、比特币、BSC、Polygon、Solana等）
- 跨链桥接被黑
- DeFi 协议被攻击、流动性池被利用
- 交易所被黑
- 智能合约漏洞导致的资金损失
- 51%% 攻击、双花攻击等共识层攻击
- 闪电贷攻击、重入攻击等

**优化要求**：
1. 使用中文回复
2. 按照重要性和紧急程度排序
3. 突出关键信息（攻击类型、受影响项目、损失金额等）
4. 使用 emoji 增强可读性
5. 格式化为 Telegram HTML 格式（**只支持以下标签**：<b>、<strong>、<i>、<em>、<u>、<ins>、<s>、<strike>、<del>、<a>、<code>、<pre>）
6. **禁止使用**：<hr>、<br>、<div>、<span>、<p>、<h1>-<h6>、<ul>、<ol>、<li> 等 Telegram 不支持的标签。如需分隔，使用换行符或分隔线字符（如 ─）
7. 每条资讯包含：标题、时间、分类、链接。**重要**：在你生成的消息中，请在对应条目位置保留传入的占位符 token [[LINK_n]]（例如 [[LINK_0]]、[[LINK_1]]），并**不要**改变这些 token 的文本。程序会在发送前把这些 token 替换为对应条目的原始链接；不要在内容末尾附加原始链接清单或重复原始信息。
8. 如果资讯数量较多，进行分组展示
9. 总长度控制在 3500 字符以内
10. **只包含区块链攻击相关的事件，忽略其他内容**

时间范围：%s
资讯数量：%d 条（请过滤后只处理区块链攻击相关事件）

原始数据：
%s

请生成优化后的 Telegram 消息内容（直接返回消息内容，不要包含其他说明，只包含区块链攻击相关事件）：`, timeRange, total, sb.String())
}

var (
	leftoverTokenRe = regexp.MustCompile(`\[\[LINK_\d+\]\]`)
	exampleURLRe    = regexp.MustCompile(`(?i)https?://(?:www\.)?example\.com/?\S*`)
	exampleHostRe   = regexp.MustCompile(`(?i)example\.com`)
)

// resolveLinkTokens swaps each [[LINK_n]] placeholder for an anchor with the
// item's real URL. Tokens without a usable URL, and any the model invented,
// become a "link unavailable" marker instead of broken HTML.
func resolveLinkTokens(text string, batch []feed.Item) string {
	for i, it := range batch {
		token := fmt.Sprintf("[[LINK_%d]]", i)
		link := it.Link
		if link != "" && (strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://")) {
			safe := strings.ReplaceAll(link, `"`, "%22")
			text = strings.ReplaceAll(text, token, fmt.Sprintf(`<a href="%s">%s</a>`, safe, safe))
		} else {
			text = strings.ReplaceAll(text, token, "链接不可用")
		}
	}

	text = leftoverTokenRe.ReplaceAllString(text, "链接不可用")
	text = exampleURLRe.ReplaceAllString(text, "链接不可用")
	text = exampleHostRe.ReplaceAllString(text, "链接不可用")
	return text
}

var (
	hrTagRe    = regexp.MustCompile(`(?i)<hr\s*/?>`)
	brTagRe    = regexp.MustCompile(`(?i)<br\s*/?>`)
	blockTagRe = regexp.MustCompile(`(?i)</?(div|span|p|section|article|header|footer|nav|main)\b[^>]*>`)
	otherTagRe = regexp.MustCompile(`(?i)</?(h[1-6]|ul|ol|li|table|tr|td|th|thead|tbody)\b[^>]*>`)
)

// sanitizeTelegramHTML strips tags Telegram's HTML parse mode rejects,
// keeping the message deliverable even when the model ignores the rules.
func sanitizeTelegramHTML(text string) string {
	text = hrTagRe.ReplaceAllString(text, "\n"+strings.Repeat("─", 20)+"\n")
	text = brTagRe.ReplaceAllString(text, "\n")
	text = blockTagRe.ReplaceAllString(text, "")
	text = otherTagRe.ReplaceAllString(text, "")
	return text
}

// FormatTimeRange renders a window like "最近 30 分钟" for prompts and
// digest headers.
func FormatTimeRange(window time.Duration) string {
	if window >= time.Hour && window%time.Hour == 0 {
		return fmt.Sprintf("最近 %d 小时", int(window.Hours()))
	}
	return fmt.Sprintf("最近 %d 分钟", int(window.Minutes()))
}
