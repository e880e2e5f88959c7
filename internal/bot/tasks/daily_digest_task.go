package tasks

import (
	"context"
	"errors"
	"time"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"

	"github.com/askhat/neighborbot/internal/digest"
)

// digestConcurrency bounds how many chats are summarized at once; each
// digest may hold a slow Gemini call.
const digestConcurrency = 2

// newDailyDigestTask creates the scheduled task that builds and sends
// today's digest to every registered chat. A failure in one chat never
// blocks the others.
func newDailyDigestTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "daily_digest")

	return func(ctx context.Context) error {
		chatIDs := deps.Registry.Snapshot()
		if len(chatIDs) == 0 {
			log.InfoContext(ctx, "No registered chats, skipping daily digest")
			return nil
		}

		log.InfoContext(ctx, "Starting daily digest broadcast", "chats", len(chatIDs))
		startTime := time.Now()

		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(digestConcurrency)

		for _, chatID := range chatIDs {
			g.Go(func() error {
				sendDigestToChat(gCtx, deps, chatID)
				return nil
			})
		}

		// Goroutines report per-chat failures through logs only.
		_ = g.Wait()

		log.InfoContext(ctx, "Daily digest broadcast finished",
			"chats", len(chatIDs), "duration", time.Since(startTime))
		return nil
	}
}

func sendDigestToChat(ctx context.Context, deps TaskDeps, chatID int64) {
	log := deps.Logger.With("task", "daily_digest", "chat_id", chatID)

	text, err := deps.Digest.BuildDigest(ctx, chatID)
	if err != nil {
		if errors.Is(err, digest.ErrNoMessages) {
			log.DebugContext(ctx, "No messages today, skipping digest for chat")
		} else {
			log.ErrorContext(ctx, "Failed to build digest for chat", "error", err)
		}
		return
	}

	if _, err := deps.Bot.SendMessage(ctx, &tgbot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send digest to chat", "error", err)
		return
	}

	log.InfoContext(ctx, "Daily digest sent")
}
