package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/askhat/neighborbot/internal/digest"
)

// NewSummaryHandler returns a handler for the /summary command: today's
// digest on demand.
func NewSummaryHandler(deps *HandlerDeps) bot.HandlerFunc {
	return summaryHandler{deps}.Handle
}

type summaryHandler struct {
	deps *HandlerDeps
}

func (h summaryHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "summary")

	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	text, err := h.deps.Digest.BuildDigest(ctx, chatID)
	if err != nil {
		if errors.Is(err, digest.ErrNoMessages) {
			sendText(ctx, b, log, chatID, "No messages today yet")
			return
		}
		log.ErrorContext(ctx, "Failed to build digest", "chat_id", chatID, "error", err)
		sendText(ctx, b, log, chatID, "An error occurred. Please try again later.")
		return
	}

	sendText(ctx, b, log, chatID, text)
}

// sendText sends a plain text message, logging delivery failures.
func sendText(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send message", "chat_id", chatID, "error", err)
	}
}
