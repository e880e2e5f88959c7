package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const startMessage = `Hi! I collect messages from this chat and post a digest at the end of the day.

Commands:
/summary - today's digest
/stats - today's activity stats
/reactions - top by reactions`

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps *HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

type startHandler struct {
	deps *HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	if update.Message == nil {
		log.WarnContext(ctx, "Start handler received update without message", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /start command", "chat_id", chatID)

	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: startMessage}); err != nil {
		log.ErrorContext(ctx, "Failed to send start message", "error", err, "chat_id", chatID)
	}

	if isGroupChat(update.Message.Chat) {
		h.deps.Registry.Add(chatID)
	}
}

func isGroupChat(chat models.Chat) bool {
	return chat.Type == models.ChatTypeGroup || chat.Type == models.ChatTypeSupergroup
}
