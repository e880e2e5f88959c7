package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/askhat/neighborbot/internal/database"
	"github.com/askhat/neighborbot/internal/gemini"
)

// ErrNoMessages indicates the chat had no recorded messages today.
var ErrNoMessages = errors.New("no messages recorded today")

// reactionStatsPeriodDays is the trailing window for digest reaction
// rankings.
const reactionStatsPeriodDays = 1

// Generator composes the daily digest for one chat. The narrative
// section comes from the Gemini client; any failure there degrades to a
// deterministic fallback, never to an error shown in the chat.
type Generator struct {
	logger *slog.Logger
	store  database.Store
	client gemini.Client
}

// NewGenerator creates a digest generator.
func NewGenerator(logger *slog.Logger, store database.Store, client gemini.Client) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		logger: logger.With("component", "digest"),
		store:  store,
		client: client,
	}
}

// BuildDigest assembles today's digest for chatID. Returns ErrNoMessages
// when nothing was recorded since local midnight.
func (g *Generator) BuildDigest(ctx context.Context, chatID int64) (string, error) {
	messages, err := g.store.MessagesSince(ctx, chatID, StartOfDay(time.Now()))
	if err != nil {
		return "", fmt.Errorf("failed to load today's messages: %w", err)
	}
	if len(messages) == 0 {
		return "", ErrNoMessages
	}

	stats := ComputeStats(messages)

	var sb strings.Builder
	fmt.Fprintf(&sb, "📝 Digest for %s\n\n", time.Now().Format("02.01.2006"))
	fmt.Fprintf(&sb, "💬 Messages: %d\n", stats.Messages)
	fmt.Fprintf(&sb, "👥 Participants: %d\n\n", stats.Participants)

	sb.WriteString("🤖 What was discussed:\n")
	sb.WriteString(g.narrative(ctx, messages))
	sb.WriteString("\n\n")

	sb.WriteString("🔥 Most active:\n")
	for _, user := range topN(stats.TopUsers, 3) {
		fmt.Fprintf(&sb, "• %s (%d)\n", user.Name, user.Count)
	}

	g.appendReactionStats(ctx, &sb, chatID)

	return sb.String(), nil
}

// narrative asks the Gemini client for the summary section, falling
// back to FallbackSummary on any failure.
func (g *Generator) narrative(ctx context.Context, messages []database.Message) string {
	text, err := g.client.GenerateDigest(ctx, messages)
	if err != nil {
		if errors.Is(err, gemini.ErrDisabled) {
			g.logger.DebugContext(ctx, "Gemini disabled, using fallback summary")
		} else {
			g.logger.WarnContext(ctx, "Digest generation failed, using fallback summary", "error", err)
		}
		return FallbackSummary(messages)
	}
	return text
}

func (g *Generator) appendReactionStats(ctx context.Context, sb *strings.Builder, chatID int64) {
	topReactors, err := g.store.TopReactors(ctx, chatID, reactionStatsPeriodDays)
	if err != nil {
		g.logger.WarnContext(ctx, "Cannot append reaction stats to digest", "chat_id", chatID, "error", err)
		return
	}
	if len(topReactors) == 0 {
		return
	}

	sb.WriteString("\n🏆 Top by reactions:\n")
	for i, stat := range topReactors {
		if i == 3 {
			break
		}
		fmt.Fprintf(sb, "• %s (%d)\n", ReactorName(stat), stat.Count)
	}
}

// FallbackSummary is the deterministic replacement for the narrative
// section when the summarizer is unavailable.
func FallbackSummary(messages []database.Message) string {
	stats := ComputeStats(messages)

	var sb strings.Builder
	sb.WriteString("📌 Main discussions:\n\n")
	for _, user := range topN(stats.TopUsers, 3) {
		fmt.Fprintf(&sb, "💬 %s: %d messages\n", user.Name, user.Count)
	}
	sb.WriteString("\n⚠️ The summarizer is temporarily unavailable.")
	return sb.String()
}

// ReactorName returns the display name for a top-reactors row.
func ReactorName(stat database.ReactorStat) string {
	if stat.Username == "" {
		return "Anonymous"
	}
	return stat.Username
}

// StartOfDay returns local midnight of t's day.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
