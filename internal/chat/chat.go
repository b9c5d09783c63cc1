// Package chat delivers digest text to a Telegram channel. Formatting
// concerns that the transport imposes (MarkdownV2 escaping and the 4096
// character message limit) live here, next to the client that needs them.
package chat

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dalbo/briefingbot/internal/logging"
)

// MaxMessageLen is Telegram's hard per-message limit.
const MaxMessageLen = 4096

// Sender sends one already-chunked message. Satisfied by the Telegram
// client; tests supply their own.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Client delivers text to a fixed chat id through the Telegram Bot API.
type Client struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewClient authenticates against the Bot API.
func NewClient(token string, chatID int64) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Client{bot: bot, chatID: chatID}, nil
}

// Send pushes a single message, retrying once after the wait Telegram
// asks for when rate limited.
func (c *Client) Send(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	_, err := c.bot.Send(msg)
	if err == nil {
		return nil
	}

	if apiErr, ok := err.(*tgbotapi.Error); ok && apiErr.RetryAfter > 0 {
		logging.Warn("chat: rate limited, retrying", "retry_after_s", apiErr.RetryAfter)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(apiErr.RetryAfter) * time.Second):
		}
		_, err = c.bot.Send(msg)
	}
	return err
}

// Deliver splits text into limit-sized chunks and sends them in order.
// Delivery stops at the first failed chunk.
func Deliver(ctx context.Context, s Sender, text string) error {
	for _, chunk := range Chunk(text, MaxMessageLen) {
		if err := s.Send(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

// Chunk splits text into pieces of at most limit characters, preferring
// line boundaries so a digest section is never cut mid-line. A single
// line longer than the limit is hard-split.
func Chunk(text string, limit int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var b strings.Builder

	flush := func() {
		if b.Len() > 0 {
			chunks = append(chunks, strings.TrimRight(b.String(), "\n"))
			b.Reset()
		}
	}

	for _, line := range strings.Split(text, "\n") {
		// Oversized single line: hard-split.
		for len(line) > limit {
			flush()
			chunks = append(chunks, line[:limit])
			line = line[limit:]
		}
		if b.Len()+len(line)+1 > limit {
			flush()
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	flush()

	return chunks
}

// markdownV2Escaper covers every character MarkdownV2 treats as syntax.
var markdownV2Escaper = strings.NewReplacer(
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(", ")", "\\)",
	"~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#", "+", "\\+", "-", "\\-",
	"=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}", ".", "\\.", "!", "\\!",
)

// Escape makes arbitrary text safe to embed in a MarkdownV2 message.
func Escape(s string) string {
	return markdownV2Escaper.Replace(s)
}
