package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Sentinel errors returned by Store operations.
var (
	// ErrMessageNotFound indicates the (chat_id, message_id) pair is not
	// in the message ledger.
	ErrMessageNotFound = errors.New("message not found")

	// ErrDuplicateMessage indicates RecordMessage was called twice for
	// the same (chat_id, message_id) pair.
	ErrDuplicateMessage = errors.New("message already recorded")
)

// topReactorsLimit caps every top-reactors ranking.
const topReactorsLimit = 10

// Store defines the data access layer over the message and reaction
// ledgers. Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// RecordMessage inserts a new message row with zero reactions and
	// forwarding state cleared. Returns ErrDuplicateMessage if the
	// (chat_id, message_id) pair is already recorded.
	RecordMessage(ctx context.Context, message *Message) error

	// GetMessage retrieves one message by its composite key.
	// Returns ErrMessageNotFound when absent.
	GetMessage(ctx context.Context, chatID int64, messageID int) (*Message, error)

	// SetReactionCount overwrites the cached total_reactions of a message.
	// Returns ErrMessageNotFound when the message is absent; never creates.
	SetReactionCount(ctx context.Context, chatID int64, messageID, count int) error

	// MarkForwarded sets is_forwarded and stamps forwarded_at. Calling it
	// again re-stamps and succeeds; double-forward protection is the
	// caller's policy check.
	MarkForwarded(ctx context.Context, chatID int64, messageID int, when time.Time) error

	// UpsertReaction inserts or replaces the row keyed by
	// (chat_id, message_id, reactor_user_id, reaction_emoji),
	// refreshing its timestamp.
	UpsertReaction(ctx context.Context, reaction *Reaction) error

	// RemoveReaction deletes the matching reaction row if present.
	// Removing an absent reaction is not an error.
	RemoveReaction(ctx context.Context, chatID int64, messageID int, reactorUserID int64, emoji string) error

	// CountReactions returns the live reaction count for one message.
	CountReactions(ctx context.Context, chatID int64, messageID int) (int, error)

	// TopReactors returns up to ten message authors of a chat ranked by
	// reactions collected within the trailing periodDays window.
	TopReactors(ctx context.Context, chatID int64, periodDays int) ([]ReactorStat, error)

	// TopReactorsByEmoji returns the same ranking per distinct emoji
	// observed in the window.
	TopReactorsByEmoji(ctx context.Context, chatID int64, periodDays int) (map[string][]ReactorStat, error)

	// ActiveChats returns the distinct chat ids present in the message
	// ledger. Used to seed the digest registry on startup.
	ActiveChats(ctx context.Context) ([]int64, error)

	// MessagesSince retrieves a chat's messages with timestamp >= since,
	// oldest first.
	MessagesSince(ctx context.Context, chatID int64, since time.Time) ([]Message, error)

	// RunSQLMaintenance performs database maintenance (VACUUM, optimize).
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore implements Store using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by a connected sqlx.DB.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) RecordMessage(ctx context.Context, message *Message) error {
	if message == nil {
		return fmt.Errorf("cannot record nil message")
	}
	if message.ChatID == 0 {
		return fmt.Errorf("message must have a non-zero chat_id")
	}
	if message.MessageID == 0 {
		return fmt.Errorf("message must have a non-zero message_id")
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now()
	}
	// Stored timestamps are always UTC so window comparisons stay consistent.
	message.Timestamp = message.Timestamp.UTC()

	query := `
        INSERT INTO messages (chat_id, user_id, username, first_name, text, timestamp, message_id, has_photo)
        VALUES (:chat_id, :user_id, :username, :first_name, :text, :timestamp, :message_id, :has_photo)
        ON CONFLICT (chat_id, message_id) DO NOTHING;
    `

	result, err := s.db.NamedExecContext(ctx, query, message)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error recording message",
			"chat_id", message.ChatID, "message_id", message.MessageID, "error", err)
		return fmt.Errorf("failed to record message (chat %d, message %d): %w",
			message.ChatID, message.MessageID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("chat %d message %d: %w", message.ChatID, message.MessageID, ErrDuplicateMessage)
	}

	if id, err := result.LastInsertId(); err == nil {
		message.ID = uint(id)
	}

	s.logger.DebugContext(ctx, "Message recorded",
		"chat_id", message.ChatID, "message_id", message.MessageID, "has_photo", message.HasPhoto)
	return nil
}

func (s *sqlxStore) GetMessage(ctx context.Context, chatID int64, messageID int) (*Message, error) {
	var message Message
	query := `
        SELECT id, chat_id, user_id, username, first_name, text, timestamp, message_id,
               has_photo, total_reactions, is_forwarded, forwarded_at
        FROM messages
        WHERE chat_id = ? AND message_id = ?;
    `

	if err := s.db.GetContext(ctx, &message, query, chatID, messageID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("chat %d message %d: %w", chatID, messageID, ErrMessageNotFound)
		}
		s.logger.ErrorContext(ctx, "Error fetching message",
			"chat_id", chatID, "message_id", messageID, "error", err)
		return nil, fmt.Errorf("failed to fetch message (chat %d, message %d): %w", chatID, messageID, err)
	}

	return &message, nil
}

func (s *sqlxStore) SetReactionCount(ctx context.Context, chatID int64, messageID, count int) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE messages SET total_reactions = ? WHERE chat_id = ? AND message_id = ?;`,
		count, chatID, messageID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating reaction count",
			"chat_id", chatID, "message_id", messageID, "error", err)
		return fmt.Errorf("failed to update reaction count (chat %d, message %d): %w", chatID, messageID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("chat %d message %d: %w", chatID, messageID, ErrMessageNotFound)
	}

	return nil
}

func (s *sqlxStore) MarkForwarded(ctx context.Context, chatID int64, messageID int, when time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE messages SET is_forwarded = 1, forwarded_at = ? WHERE chat_id = ? AND message_id = ?;`,
		when.UTC(), chatID, messageID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error marking message forwarded",
			"chat_id", chatID, "message_id", messageID, "error", err)
		return fmt.Errorf("failed to mark message forwarded (chat %d, message %d): %w", chatID, messageID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("chat %d message %d: %w", chatID, messageID, ErrMessageNotFound)
	}

	s.logger.InfoContext(ctx, "Message marked as forwarded",
		"chat_id", chatID, "message_id", messageID, "forwarded_at", when)
	return nil
}

func (s *sqlxStore) UpsertReaction(ctx context.Context, reaction *Reaction) error {
	if reaction == nil {
		return fmt.Errorf("cannot upsert nil reaction")
	}
	if reaction.Emoji == "" {
		return fmt.Errorf("reaction must have a non-empty emoji key")
	}
	if reaction.Timestamp.IsZero() {
		reaction.Timestamp = time.Now()
	}
	reaction.Timestamp = reaction.Timestamp.UTC()

	query := `
        INSERT INTO reactions (chat_id, message_id, author_user_id, author_username, reaction_emoji, reactor_user_id, timestamp)
        VALUES (:chat_id, :message_id, :author_user_id, :author_username, :reaction_emoji, :reactor_user_id, :timestamp)
        ON CONFLICT (chat_id, message_id, reactor_user_id, reaction_emoji) DO UPDATE SET
            author_user_id = excluded.author_user_id,
            author_username = excluded.author_username,
            timestamp = excluded.timestamp;
    `

	if _, err := s.db.NamedExecContext(ctx, query, reaction); err != nil {
		s.logger.ErrorContext(ctx, "Error upserting reaction",
			"chat_id", reaction.ChatID, "message_id", reaction.MessageID,
			"reactor_user_id", reaction.ReactorUserID, "error", err)
		return fmt.Errorf("failed to upsert reaction (chat %d, message %d): %w",
			reaction.ChatID, reaction.MessageID, err)
	}

	s.logger.DebugContext(ctx, "Reaction upserted",
		"chat_id", reaction.ChatID, "message_id", reaction.MessageID,
		"reactor_user_id", reaction.ReactorUserID, "emoji", reaction.Emoji)
	return nil
}

func (s *sqlxStore) RemoveReaction(ctx context.Context, chatID int64, messageID int, reactorUserID int64, emoji string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM reactions
         WHERE chat_id = ? AND message_id = ? AND reactor_user_id = ? AND reaction_emoji = ?;`,
		chatID, messageID, reactorUserID, emoji)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error removing reaction",
			"chat_id", chatID, "message_id", messageID,
			"reactor_user_id", reactorUserID, "error", err)
		return fmt.Errorf("failed to remove reaction (chat %d, message %d): %w", chatID, messageID, err)
	}

	return nil
}

func (s *sqlxStore) CountReactions(ctx context.Context, chatID int64, messageID int) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM reactions WHERE chat_id = ? AND message_id = ?;`,
		chatID, messageID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error counting reactions",
			"chat_id", chatID, "message_id", messageID, "error", err)
		return 0, fmt.Errorf("failed to count reactions (chat %d, message %d): %w", chatID, messageID, err)
	}

	return count, nil
}

func (s *sqlxStore) TopReactors(ctx context.Context, chatID int64, periodDays int) ([]ReactorStat, error) {
	since := windowStart(periodDays)

	var stats []ReactorStat
	query := `
        SELECT author_username, COUNT(*) AS reaction_count
        FROM reactions
        WHERE chat_id = ? AND timestamp >= ?
        GROUP BY author_user_id, author_username
        ORDER BY reaction_count DESC
        LIMIT ?;
    `

	if err := s.db.SelectContext(ctx, &stats, query, chatID, since, topReactorsLimit); err != nil {
		s.logger.ErrorContext(ctx, "Error fetching top reactors", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to fetch top reactors for chat %d: %w", chatID, err)
	}

	return stats, nil
}

func (s *sqlxStore) TopReactorsByEmoji(ctx context.Context, chatID int64, periodDays int) (map[string][]ReactorStat, error) {
	since := windowStart(periodDays)

	var emojis []string
	err := s.db.SelectContext(ctx, &emojis,
		`SELECT DISTINCT reaction_emoji FROM reactions WHERE chat_id = ? AND timestamp >= ?;`,
		chatID, since)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error fetching distinct emojis", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to fetch distinct emojis for chat %d: %w", chatID, err)
	}

	query := `
        SELECT author_username, COUNT(*) AS reaction_count
        FROM reactions
        WHERE chat_id = ? AND timestamp >= ? AND reaction_emoji = ?
        GROUP BY author_user_id, author_username
        ORDER BY reaction_count DESC
        LIMIT ?;
    `

	result := make(map[string][]ReactorStat, len(emojis))
	for _, emoji := range emojis {
		var stats []ReactorStat
		if err := s.db.SelectContext(ctx, &stats, query, chatID, since, emoji, topReactorsLimit); err != nil {
			s.logger.ErrorContext(ctx, "Error fetching top reactors for emoji",
				"chat_id", chatID, "emoji", emoji, "error", err)
			return nil, fmt.Errorf("failed to fetch top reactors for emoji %q in chat %d: %w", emoji, chatID, err)
		}
		result[emoji] = stats
	}

	return result, nil
}

func (s *sqlxStore) ActiveChats(ctx context.Context) ([]int64, error) {
	var chatIDs []int64
	if err := s.db.SelectContext(ctx, &chatIDs, `SELECT DISTINCT chat_id FROM messages;`); err != nil {
		s.logger.ErrorContext(ctx, "Error fetching active chats", "error", err)
		return nil, fmt.Errorf("failed to fetch active chats: %w", err)
	}

	return chatIDs, nil
}

func (s *sqlxStore) MessagesSince(ctx context.Context, chatID int64, since time.Time) ([]Message, error) {
	var messages []Message
	query := `
        SELECT id, chat_id, user_id, username, first_name, text, timestamp, message_id,
               has_photo, total_reactions, is_forwarded, forwarded_at
        FROM messages
        WHERE chat_id = ? AND timestamp >= ?
        ORDER BY timestamp ASC;
    `

	if err := s.db.SelectContext(ctx, &messages, query, chatID, since.UTC()); err != nil {
		s.logger.ErrorContext(ctx, "Error fetching messages", "chat_id", chatID, "since", since, "error", err)
		return nil, fmt.Errorf("failed to fetch messages for chat %d: %w", chatID, err)
	}

	return messages, nil
}

func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	start := time.Now()

	if _, err := s.db.ExecContext(ctx, `VACUUM;`); err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `PRAGMA optimize;`); err != nil {
		return fmt.Errorf("failed to optimize database: %w", err)
	}

	s.logger.InfoContext(ctx, "SQL maintenance completed", "duration", time.Since(start))
	return nil
}

// windowStart returns the start of the trailing stats window. A
// non-positive periodDays means one day.
func windowStart(periodDays int) time.Time {
	if periodDays <= 0 {
		periodDays = 1
	}
	return time.Now().UTC().Add(-time.Duration(periodDays) * 24 * time.Hour)
}
