package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/askhat/neighborbot/internal/database"
	"github.com/askhat/neighborbot/internal/news"
)

// NewDefaultHandler returns the catch-all handler: it dispatches
// reaction-change updates into the news processor and records group
// traffic (text, photos, new members) into the message ledger.
func NewDefaultHandler(deps *HandlerDeps) bot.HandlerFunc {
	return defaultHandler{deps}.Handle
}

type defaultHandler struct {
	deps *HandlerDeps
}

func (h defaultHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	switch {
	case update.MessageReaction != nil:
		h.handleReaction(ctx, update.MessageReaction)
	case update.Message != nil:
		h.handleMessage(ctx, b, update.Message)
	}
}

func (h defaultHandler) handleReaction(ctx context.Context, reaction *models.MessageReactionUpdated) {
	if h.deps.Processor == nil {
		h.deps.Logger.Warn("Reaction received before processor was bound, dropping")
		return
	}

	event := news.ReactionEvent{
		ChatID:    reaction.Chat.ID,
		MessageID: reaction.MessageID,
		Old:       reactionKeys(reaction.OldReaction),
		New:       reactionKeys(reaction.NewReaction),
	}
	if reaction.User != nil {
		event.ReactorUserID = reaction.User.ID
	}

	h.deps.Processor.HandleReactionChange(ctx, event)
}

func (h defaultHandler) handleMessage(ctx context.Context, b *bot.Bot, message *models.Message) {
	if !isGroupChat(message.Chat) {
		return
	}

	switch {
	case len(message.NewChatMembers) > 0:
		h.greetNewMembers(ctx, b, message)
	case len(message.Photo) > 0:
		h.recordPhoto(ctx, message)
	case message.Text != "":
		h.recordText(ctx, message)
	}
}

func (h defaultHandler) recordText(ctx context.Context, message *models.Message) {
	log := h.deps.Logger.With("handler", "group_text")

	if message.From == nil {
		return
	}

	h.record(ctx, log, message, message.Text, false)
}

// recordPhoto stores a photo message with its caption. Photos posted by
// bots or forwarded from elsewhere are skipped so that news-chat copies
// never feed back into the forwarding pipeline.
func (h defaultHandler) recordPhoto(ctx context.Context, message *models.Message) {
	log := h.deps.Logger.With("handler", "group_photo")

	if message.From == nil || message.From.IsBot {
		log.DebugContext(ctx, "Ignoring photo from bot", "chat_id", message.Chat.ID)
		return
	}
	if message.ForwardOrigin != nil {
		log.DebugContext(ctx, "Ignoring forwarded photo", "chat_id", message.Chat.ID)
		return
	}

	log.InfoContext(ctx, "Recording photo message",
		"chat_id", message.Chat.ID, "message_id", message.ID, "user_id", message.From.ID)
	h.record(ctx, log, message, message.Caption, true)
}

func (h defaultHandler) record(ctx context.Context, log *slog.Logger, message *models.Message, text string, hasPhoto bool) {
	record := &database.Message{
		ChatID:    message.Chat.ID,
		MessageID: message.ID,
		UserID:    message.From.ID,
		Username:  message.From.Username,
		FirstName: message.From.FirstName,
		Text:      text,
		Timestamp: time.Unix(int64(message.Date), 0),
		HasPhoto:  hasPhoto,
	}

	if err := h.deps.Store.RecordMessage(ctx, record); err != nil {
		if errors.Is(err, database.ErrDuplicateMessage) {
			log.WarnContext(ctx, "Message already recorded",
				"chat_id", message.Chat.ID, "message_id", message.ID)
		} else {
			log.ErrorContext(ctx, "Failed to record message",
				"chat_id", message.Chat.ID, "message_id", message.ID, "error", err)
		}
		return
	}

	h.deps.Registry.Add(message.Chat.ID)
}

// greetNewMembers welcomes each non-bot member added to the chat.
func (h defaultHandler) greetNewMembers(ctx context.Context, b *bot.Bot, message *models.Message) {
	log := h.deps.Logger.With("handler", "new_member")

	for _, member := range message.NewChatMembers {
		if member.IsBot {
			continue
		}

		nameParts := make([]string, 0, 2)
		if member.FirstName != "" {
			nameParts = append(nameParts, member.FirstName)
		}
		if member.LastName != "" {
			nameParts = append(nameParts, member.LastName)
		}

		displayName := strings.Join(nameParts, " ")
		if displayName == "" {
			displayName = "new neighbor"
		}

		greeting := fmt.Sprintf("👋 Welcome, %s!", displayName)
		if member.Username != "" {
			greeting = fmt.Sprintf("👋 Welcome, %s (@%s)!", displayName, member.Username)
		}

		sendText(ctx, b, log, message.Chat.ID, greeting)
	}
}

// reactionKeys converts transport reaction items into ledger keys: the
// emoji glyph for standard reactions, "custom:<id>" for custom emoji.
func reactionKeys(reactions []models.ReactionType) []string {
	keys := make([]string, 0, len(reactions))
	for _, r := range reactions {
		switch {
		case r.ReactionTypeEmoji != nil && r.ReactionTypeEmoji.Emoji != "":
			keys = append(keys, r.ReactionTypeEmoji.Emoji)
		case r.ReactionTypeCustomEmoji != nil && r.ReactionTypeCustomEmoji.CustomEmojiID != "":
			keys = append(keys, "custom:"+r.ReactionTypeCustomEmoji.CustomEmojiID)
		}
	}
	return keys
}
