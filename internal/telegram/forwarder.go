package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
)

// Forwarder copies messages between chats via the Telegram API. The
// copy keeps the original caption, which already names the author, so
// no re-captioning happens here.
type Forwarder struct {
	bot    *bot.Bot
	logger *slog.Logger
}

// NewForwarder creates a Forwarder over a connected bot instance.
func NewForwarder(b *bot.Bot, logger *slog.Logger) *Forwarder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Forwarder{
		bot:    b,
		logger: logger.With("component", "forwarder"),
	}
}

// CopyMessage copies one message into toChatID. A non-zero threadID
// targets a forum topic.
func (f *Forwarder) CopyMessage(ctx context.Context, fromChatID int64, messageID int, toChatID int64, threadID int) error {
	params := &bot.CopyMessageParams{
		ChatID:     toChatID,
		FromChatID: fromChatID,
		MessageID:  messageID,
	}
	if threadID != 0 {
		params.MessageThreadID = threadID
	}

	copied, err := f.bot.CopyMessage(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to copy message %d from chat %d to chat %d: %w",
			messageID, fromChatID, toChatID, err)
	}

	f.logger.InfoContext(ctx, "Copied message",
		"from_chat_id", fromChatID, "message_id", messageID,
		"to_chat_id", toChatID, "copied_message_id", copied.ID)
	return nil
}
