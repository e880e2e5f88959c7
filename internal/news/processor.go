package news

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/askhat/neighborbot/internal/config"
	"github.com/askhat/neighborbot/internal/database"
)

// Forwarder copies a message into another chat, optionally into a forum
// topic. Implemented by the Telegram transport.
type Forwarder interface {
	CopyMessage(ctx context.Context, fromChatID int64, messageID int, toChatID int64, threadID int) error
}

// ReactionEvent is one reaction-change notification: a reactor's set of
// reactions on one message transitioned from Old to New. Each element is
// a reaction key: the emoji glyph, or "custom:<id>" for custom emoji.
type ReactionEvent struct {
	ChatID        int64
	MessageID     int
	ReactorUserID int64
	Old           []string
	New           []string
}

// Processor consumes reaction-change events and drives the forwarding
// pipeline: gate, author lookup, ledger diff, popularity recount,
// threshold decision, copy, mark. Stages after the lookup run under a
// per-message lock, so concurrent events on one message serialize and a
// message is forwarded at most once.
type Processor struct {
	logger    *slog.Logger
	store     database.Store
	forwarder Forwarder
	cfg       config.NewsConfig
	locks     *keyedLock
}

// NewProcessor creates a reaction event processor.
func NewProcessor(logger *slog.Logger, store database.Store, forwarder Forwarder, cfg config.NewsConfig) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:    logger.With("component", "news_processor"),
		store:     store,
		forwarder: forwarder,
		cfg:       cfg,
		locks:     newKeyedLock(),
	}
}

// HandleReactionChange processes one reaction-change event. It never
// returns an error: a malformed or partially failed event degrades to
// "this reaction had no effect" and is logged, so the update loop keeps
// running.
func (p *Processor) HandleReactionChange(ctx context.Context, event ReactionEvent) {
	log := p.logger.With("chat_id", event.ChatID, "message_id", event.MessageID)

	// Stage 1: gate.
	if !p.cfg.Enabled {
		log.DebugContext(ctx, "Photo news disabled, dropping reaction event")
		return
	}
	if p.cfg.TargetChatID == 0 {
		log.DebugContext(ctx, "No target chat configured, dropping reaction event")
		return
	}
	if event.ReactorUserID == 0 {
		log.DebugContext(ctx, "Reaction event without a reactor (anonymous), dropping")
		return
	}
	if !p.cfg.SourceAllowed(event.ChatID) {
		log.DebugContext(ctx, "Chat not in source allowlist, dropping reaction event")
		return
	}

	// Stage 2: resolve the message's stored author. Messages that predate
	// tracking are not in the ledger and their reactions are ignored.
	message, err := p.store.GetMessage(ctx, event.ChatID, event.MessageID)
	if err != nil {
		if errors.Is(err, database.ErrMessageNotFound) {
			log.DebugContext(ctx, "Message not in ledger, dropping reaction event")
		} else {
			log.ErrorContext(ctx, "Failed to look up message for reaction event", "error", err)
		}
		return
	}

	// Stages 3-6 serialize per message: the recount stays consistent under
	// concurrent events and the decide/act pair is check-then-act safe.
	unlock := p.locks.Lock(messageKey{chatID: event.ChatID, messageID: event.MessageID})
	defer unlock()

	p.applyDiff(ctx, log, message, event)

	total, ok := p.recount(ctx, log, event)
	if !ok {
		return
	}

	// Stage 5: decide on fresh state.
	message, err = p.store.GetMessage(ctx, event.ChatID, event.MessageID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to re-read message after recount", "error", err)
		return
	}

	if !ShouldForward(message, p.cfg.MinReactions) {
		log.DebugContext(ctx, "Message does not qualify for forwarding",
			"total_reactions", total, "has_photo", message.HasPhoto, "is_forwarded", message.IsForwarded)
		return
	}

	p.forward(ctx, log, event)
}

// applyDiff updates the reaction ledger with the symmetric difference of
// the event's old and new reaction sets.
func (p *Processor) applyDiff(ctx context.Context, log *slog.Logger, message *database.Message, event ReactionEvent) {
	oldSet := keySet(event.Old)
	newSet := keySet(event.New)

	for key := range newSet {
		if oldSet[key] {
			continue
		}
		reaction := &database.Reaction{
			ChatID:         event.ChatID,
			MessageID:      event.MessageID,
			AuthorUserID:   message.UserID,
			AuthorUsername: message.Username,
			Emoji:          key,
			ReactorUserID:  event.ReactorUserID,
		}
		if err := p.store.UpsertReaction(ctx, reaction); err != nil {
			log.ErrorContext(ctx, "Failed to upsert reaction", "emoji", key, "error", err)
		}
	}

	for key := range oldSet {
		if newSet[key] {
			continue
		}
		if err := p.store.RemoveReaction(ctx, event.ChatID, event.MessageID, event.ReactorUserID, key); err != nil {
			log.ErrorContext(ctx, "Failed to remove reaction", "emoji", key, "error", err)
		}
	}
}

// recount refreshes the message's cached reaction count from the ledger
// and returns the live total.
func (p *Processor) recount(ctx context.Context, log *slog.Logger, event ReactionEvent) (int, bool) {
	total, err := p.store.CountReactions(ctx, event.ChatID, event.MessageID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to count reactions", "error", err)
		return 0, false
	}

	if err := p.store.SetReactionCount(ctx, event.ChatID, event.MessageID, total); err != nil {
		log.ErrorContext(ctx, "Failed to store reaction count", "error", err)
		return 0, false
	}

	return total, true
}

// forward copies the message as-is into the target chat and marks it
// forwarded. A copy failure leaves the mark unset, so the message stays
// eligible on the next reaction event.
func (p *Processor) forward(ctx context.Context, log *slog.Logger, event ReactionEvent) {
	err := p.forwarder.CopyMessage(ctx, event.ChatID, event.MessageID, p.cfg.TargetChatID, p.cfg.TargetThreadID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to copy message to news chat",
			"target_chat_id", p.cfg.TargetChatID, "error", err)
		return
	}

	if err := p.store.MarkForwarded(ctx, event.ChatID, event.MessageID, time.Now()); err != nil {
		log.ErrorContext(ctx, "Failed to mark message as forwarded", "error", err)
		return
	}

	log.InfoContext(ctx, "Message forwarded to news chat",
		"target_chat_id", p.cfg.TargetChatID, "target_thread_id", p.cfg.TargetThreadID)
}

func keySet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		set[key] = true
	}
	return set
}
