package news_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/askhat/neighborbot/internal/config"
	"github.com/askhat/neighborbot/internal/database"
	"github.com/askhat/neighborbot/internal/news"
)

// fakeForwarder records copy attempts and can be told to fail. Safe
// for concurrent use.
type fakeForwarder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeForwarder) CopyMessage(_ context.Context, _ int64, _ int, _ int64, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeForwarder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestProcessor(t *testing.T, cfg config.NewsConfig) (*news.Processor, database.Store, *fakeForwarder) {
	t.Helper()

	db, err := database.NewDB(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := database.NewStore(db, logger)
	forwarder := &fakeForwarder{}

	return news.NewProcessor(logger, store, forwarder, cfg), store, forwarder
}

func enabledNewsConfig() config.NewsConfig {
	return config.NewsConfig{
		Enabled:      true,
		TargetChatID: -100999,
		MinReactions: 5,
	}
}

func seedPhotoMessage(t *testing.T, store database.Store, chatID int64, messageID int) {
	t.Helper()

	err := store.RecordMessage(context.Background(), &database.Message{
		ChatID:    chatID,
		MessageID: messageID,
		UserID:    100,
		Username:  "author",
		HasPhoto:  true,
	})
	if err != nil {
		t.Fatalf("failed to seed message: %v", err)
	}
}

func addReaction(processor *news.Processor, chatID int64, messageID int, reactorID int64) {
	processor.HandleReactionChange(context.Background(), news.ReactionEvent{
		ChatID:        chatID,
		MessageID:     messageID,
		ReactorUserID: reactorID,
		New:           []string{"👍"},
	})
}

func TestProcessorForwardsAtThreshold(t *testing.T) {
	t.Parallel()

	processor, store, forwarder := newTestProcessor(t, enabledNewsConfig())
	ctx := context.Background()
	seedPhotoMessage(t, store, 1, 10)

	// Four reactions stay below the threshold of five.
	for reactor := int64(201); reactor <= 204; reactor++ {
		addReaction(processor, 1, 10, reactor)
	}
	if forwarder.callCount() != 0 {
		t.Fatalf("forwarded below threshold: %d calls", forwarder.callCount())
	}

	msg, err := store.GetMessage(ctx, 1, 10)
	if err != nil {
		t.Fatalf("failed to fetch message: %v", err)
	}
	if msg.TotalReactions != 4 {
		t.Fatalf("cached total = %d, want 4", msg.TotalReactions)
	}

	// The fifth reaction crosses the threshold.
	addReaction(processor, 1, 10, 205)
	if forwarder.callCount() != 1 {
		t.Fatalf("copy calls = %d, want 1", forwarder.callCount())
	}

	msg, err = store.GetMessage(ctx, 1, 10)
	if err != nil {
		t.Fatalf("failed to fetch message: %v", err)
	}
	if !msg.IsForwarded {
		t.Fatal("message not marked as forwarded")
	}
	if !msg.ForwardedAt.Valid {
		t.Fatal("forwarded_at not stamped")
	}

	// Further reactions never forward a second time.
	addReaction(processor, 1, 10, 206)
	if forwarder.callCount() != 1 {
		t.Fatalf("copy calls after extra reaction = %d, want 1", forwarder.callCount())
	}
}

func TestProcessorConcurrentEventsForwardOnce(t *testing.T) {
	t.Parallel()

	processor, store, forwarder := newTestProcessor(t, enabledNewsConfig())
	ctx := context.Background()
	seedPhotoMessage(t, store, 1, 10)

	// Twenty distinct reactors fire at once against a threshold of five.
	// Serialization per message must yield exactly one copy and a final
	// cached count reflecting every reaction.
	const reactors = 20

	var wg sync.WaitGroup
	for reactor := int64(201); reactor < 201+reactors; reactor++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			addReaction(processor, 1, 10, reactor)
		}()
	}
	wg.Wait()

	if forwarder.callCount() != 1 {
		t.Fatalf("copy calls = %d, want exactly 1", forwarder.callCount())
	}

	msg, err := store.GetMessage(ctx, 1, 10)
	if err != nil {
		t.Fatalf("failed to fetch message: %v", err)
	}
	if !msg.IsForwarded {
		t.Fatal("message not marked as forwarded")
	}
	if msg.TotalReactions != reactors {
		t.Fatalf("cached total = %d, want %d", msg.TotalReactions, reactors)
	}
}

func TestProcessorAddThenRemoveStaysBelowThreshold(t *testing.T) {
	t.Parallel()

	cfg := enabledNewsConfig()
	cfg.MinReactions = 2
	processor, store, forwarder := newTestProcessor(t, cfg)
	ctx := context.Background()
	seedPhotoMessage(t, store, 1, 10)

	addReaction(processor, 1, 10, 201)

	// The same reactor withdraws before anyone else reacts.
	processor.HandleReactionChange(ctx, news.ReactionEvent{
		ChatID:        1,
		MessageID:     10,
		ReactorUserID: 201,
		Old:           []string{"👍"},
	})

	msg, err := store.GetMessage(ctx, 1, 10)
	if err != nil {
		t.Fatalf("failed to fetch message: %v", err)
	}
	if msg.TotalReactions != 0 {
		t.Fatalf("cached total after withdrawal = %d, want 0", msg.TotalReactions)
	}
	if forwarder.callCount() != 0 {
		t.Fatalf("forwarded with zero live reactions: %d calls", forwarder.callCount())
	}
}

func TestProcessorSwapIsNetZero(t *testing.T) {
	t.Parallel()

	processor, store, forwarder := newTestProcessor(t, enabledNewsConfig())
	ctx := context.Background()
	seedPhotoMessage(t, store, 1, 10)

	addReaction(processor, 1, 10, 201)

	// Swapping 👍 for 🔥 removes one row and adds another.
	processor.HandleReactionChange(ctx, news.ReactionEvent{
		ChatID:        1,
		MessageID:     10,
		ReactorUserID: 201,
		Old:           []string{"👍"},
		New:           []string{"🔥"},
	})

	msg, err := store.GetMessage(ctx, 1, 10)
	if err != nil {
		t.Fatalf("failed to fetch message: %v", err)
	}
	if msg.TotalReactions != 1 {
		t.Fatalf("cached total after swap = %d, want 1", msg.TotalReactions)
	}
	if forwarder.callCount() != 0 {
		t.Fatalf("unexpected forward: %d calls", forwarder.callCount())
	}
}

func TestProcessorUnknownMessageDropped(t *testing.T) {
	t.Parallel()

	processor, store, forwarder := newTestProcessor(t, enabledNewsConfig())
	ctx := context.Background()

	addReaction(processor, 1, 999, 201)

	if forwarder.callCount() != 0 {
		t.Fatalf("forwarded unknown message: %d calls", forwarder.callCount())
	}
	count, err := store.CountReactions(ctx, 1, 999)
	if err != nil {
		t.Fatalf("failed to count reactions: %v", err)
	}
	if count != 0 {
		t.Fatalf("ledger mutated for unknown message: %d rows", count)
	}
}

func TestProcessorGateDropsBeforeLedger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  func() config.NewsConfig
	}{
		{
			name: "feature disabled",
			cfg: func() config.NewsConfig {
				cfg := enabledNewsConfig()
				cfg.Enabled = false
				return cfg
			},
		},
		{
			name: "no target chat",
			cfg: func() config.NewsConfig {
				cfg := enabledNewsConfig()
				cfg.TargetChatID = 0
				return cfg
			},
		},
		{
			name: "chat not in allowlist",
			cfg: func() config.NewsConfig {
				cfg := enabledNewsConfig()
				cfg.SourceChats = []int64{-100555}
				return cfg
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			processor, store, forwarder := newTestProcessor(t, tt.cfg())
			ctx := context.Background()
			seedPhotoMessage(t, store, 1, 10)

			addReaction(processor, 1, 10, 201)

			if forwarder.callCount() != 0 {
				t.Fatalf("forwarded through closed gate: %d calls", forwarder.callCount())
			}
			count, err := store.CountReactions(ctx, 1, 10)
			if err != nil {
				t.Fatalf("failed to count reactions: %v", err)
			}
			if count != 0 {
				t.Fatalf("ledger mutated through closed gate: %d rows", count)
			}
		})
	}
}

func TestProcessorAnonymousReactorDropped(t *testing.T) {
	t.Parallel()

	processor, store, _ := newTestProcessor(t, enabledNewsConfig())
	ctx := context.Background()
	seedPhotoMessage(t, store, 1, 10)

	addReaction(processor, 1, 10, 0)

	count, err := store.CountReactions(ctx, 1, 10)
	if err != nil {
		t.Fatalf("failed to count reactions: %v", err)
	}
	if count != 0 {
		t.Fatalf("ledger mutated for anonymous reactor: %d rows", count)
	}
}

func TestProcessorAllowlistAdmitsListedChat(t *testing.T) {
	t.Parallel()

	cfg := enabledNewsConfig()
	cfg.MinReactions = 1
	cfg.SourceChats = []int64{1}
	processor, store, forwarder := newTestProcessor(t, cfg)
	seedPhotoMessage(t, store, 1, 10)

	addReaction(processor, 1, 10, 201)

	if forwarder.callCount() != 1 {
		t.Fatalf("copy calls = %d, want 1", forwarder.callCount())
	}
}

func TestProcessorRetriesAfterCopyFailure(t *testing.T) {
	t.Parallel()

	cfg := enabledNewsConfig()
	cfg.MinReactions = 1
	processor, store, forwarder := newTestProcessor(t, cfg)
	ctx := context.Background()
	seedPhotoMessage(t, store, 1, 10)

	forwarder.err = fmt.Errorf("telegram: %w", errors.New("bad gateway"))
	addReaction(processor, 1, 10, 201)

	if forwarder.callCount() != 1 {
		t.Fatalf("copy calls = %d, want 1", forwarder.callCount())
	}
	msg, err := store.GetMessage(ctx, 1, 10)
	if err != nil {
		t.Fatalf("failed to fetch message: %v", err)
	}
	if msg.IsForwarded {
		t.Fatal("message marked forwarded despite copy failure")
	}

	// The message stays eligible, so the next reaction event forwards it.
	forwarder.err = nil
	addReaction(processor, 1, 10, 202)

	if forwarder.callCount() != 2 {
		t.Fatalf("copy calls after recovery = %d, want 2", forwarder.callCount())
	}
	msg, err = store.GetMessage(ctx, 1, 10)
	if err != nil {
		t.Fatalf("failed to fetch message: %v", err)
	}
	if !msg.IsForwarded {
		t.Fatal("message not marked forwarded after successful retry")
	}
}

func TestProcessorNeverForwardsTextMessage(t *testing.T) {
	t.Parallel()

	cfg := enabledNewsConfig()
	cfg.MinReactions = 1
	processor, store, forwarder := newTestProcessor(t, cfg)
	ctx := context.Background()

	err := store.RecordMessage(ctx, &database.Message{
		ChatID:    1,
		MessageID: 10,
		UserID:    100,
		Username:  "author",
		Text:      "no photo here",
	})
	if err != nil {
		t.Fatalf("failed to seed message: %v", err)
	}

	for reactor := int64(201); reactor <= 210; reactor++ {
		addReaction(processor, 1, 10, reactor)
	}

	if forwarder.callCount() != 0 {
		t.Fatalf("forwarded text message: %d calls", forwarder.callCount())
	}

	msg, err := store.GetMessage(ctx, 1, 10)
	if err != nil {
		t.Fatalf("failed to fetch message: %v", err)
	}
	if msg.TotalReactions != 10 {
		t.Fatalf("cached total = %d, want 10", msg.TotalReactions)
	}
}
