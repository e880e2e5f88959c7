package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/askhat/neighborbot/internal/database"
	"github.com/askhat/neighborbot/internal/digest"
)

// reactionsPeriodDays is the trailing window of the /reactions command.
const reactionsPeriodDays = 1

// NewReactionsHandler returns a handler for the /reactions command: the
// overall top reactors plus a ranking per emoji.
func NewReactionsHandler(deps *HandlerDeps) bot.HandlerFunc {
	return reactionsHandler{deps}.Handle
}

type reactionsHandler struct {
	deps *HandlerDeps
}

func (h reactionsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "reactions")

	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	totalTop, err := h.deps.Store.TopReactors(ctx, chatID, reactionsPeriodDays)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load top reactors", "chat_id", chatID, "error", err)
		sendText(ctx, b, log, chatID, "An error occurred. Please try again later.")
		return
	}

	if len(totalTop) == 0 {
		sendText(ctx, b, log, chatID, "📊 No reactions yet")
		return
	}

	emojiTops, err := h.deps.Store.TopReactorsByEmoji(ctx, chatID, reactionsPeriodDays)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load per-emoji top reactors", "chat_id", chatID, "error", err)
		emojiTops = nil
	}

	sendText(ctx, b, log, chatID, formatReactionStats(totalTop, emojiTops))
}

// formatReactionStats renders the overall ranking followed by one block
// per emoji, emoji ordered by total reaction volume.
func formatReactionStats(totalTop []database.ReactorStat, emojiTops map[string][]database.ReactorStat) string {
	var sb strings.Builder

	sb.WriteString("🏆 TOP BY REACTIONS (total):\n")
	for i, stat := range totalTop {
		fmt.Fprintf(&sb, "%d. %s - %d\n", i+1, digest.ReactorName(stat), stat.Count)
	}

	emojis := make([]string, 0, len(emojiTops))
	for emoji := range emojiTops {
		emojis = append(emojis, emoji)
	}
	sort.Slice(emojis, func(i, j int) bool {
		ti, tj := emojiTotal(emojiTops[emojis[i]]), emojiTotal(emojiTops[emojis[j]])
		if ti != tj {
			return ti > tj
		}
		return emojis[i] < emojis[j]
	})

	for _, emoji := range emojis {
		fmt.Fprintf(&sb, "\nTop %s:\n", emoji)
		for i, stat := range emojiTops[emoji] {
			fmt.Fprintf(&sb, "%d. %s - %d\n", i+1, digest.ReactorName(stat), stat.Count)
		}
	}

	return sb.String()
}

func emojiTotal(stats []database.ReactorStat) int {
	total := 0
	for _, stat := range stats {
		total += stat.Count
	}
	return total
}
