package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/askhat/neighborbot/internal/digest"
)

// NewStatsHandler returns a handler for the /stats command: today's
// message count, participants, and the top five talkers.
func NewStatsHandler(deps *HandlerDeps) bot.HandlerFunc {
	return statsHandler{deps}.Handle
}

type statsHandler struct {
	deps *HandlerDeps
}

func (h statsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "stats")

	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	messages, err := h.deps.Store.MessagesSince(ctx, chatID, digest.StartOfDay(time.Now()))
	if err != nil {
		log.ErrorContext(ctx, "Failed to load today's messages", "chat_id", chatID, "error", err)
		sendText(ctx, b, log, chatID, "An error occurred. Please try again later.")
		return
	}

	if len(messages) == 0 {
		sendText(ctx, b, log, chatID, "No messages today yet")
		return
	}

	stats := digest.ComputeStats(messages)

	var sb strings.Builder
	sb.WriteString("📊 Today's stats:\n\n")
	fmt.Fprintf(&sb, "Messages: %d\n", stats.Messages)
	fmt.Fprintf(&sb, "Participants: %d\n\n", stats.Participants)
	sb.WriteString("Most active:\n")
	for i, user := range stats.TopUsers {
		if i == 5 {
			break
		}
		fmt.Fprintf(&sb, "• %s: %d messages\n", user.Name, user.Count)
	}

	sendText(ctx, b, log, chatID, sb.String())
}
