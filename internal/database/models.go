package database

import (
	"database/sql"
	"time"
)

// Message is one recorded group-chat message. Photo messages store their
// caption in Text. TotalReactions is a cached projection of the reactions
// table, refreshed by the news processor after every reaction event.
type Message struct {
	ID uint `db:"id"`

	ChatID    int64     `db:"chat_id"`
	MessageID int       `db:"message_id"`
	UserID    int64     `db:"user_id"`
	Username  string    `db:"username"`
	FirstName string    `db:"first_name"`
	Text      string    `db:"text"`
	Timestamp time.Time `db:"timestamp"`

	HasPhoto       bool         `db:"has_photo"`
	TotalReactions int          `db:"total_reactions"`
	IsForwarded    bool         `db:"is_forwarded"`
	ForwardedAt    sql.NullTime `db:"forwarded_at"`
}

// DisplayName returns the name shown in statistics output.
func (m *Message) DisplayName() string {
	switch {
	case m.Username != "":
		return m.Username
	case m.FirstName != "":
		return m.FirstName
	default:
		return "Anonymous"
	}
}

// Reaction is one (message, reactor, emoji) fact. Emoji holds either a
// standard glyph or a "custom:<id>" key for custom emoji. The message
// author's identity is denormalized at reaction time.
type Reaction struct {
	ID uint `db:"id"`

	ChatID         int64     `db:"chat_id"`
	MessageID      int       `db:"message_id"`
	AuthorUserID   int64     `db:"author_user_id"`
	AuthorUsername string    `db:"author_username"`
	Emoji          string    `db:"reaction_emoji"`
	ReactorUserID  int64     `db:"reactor_user_id"`
	Timestamp      time.Time `db:"timestamp"`
}

// ReactorStat is one row of the top-reactors ranking: a message author
// and how many reactions their messages collected. Username may be empty
// for authors without one; presentation decides the fallback name.
type ReactorStat struct {
	Username string `db:"author_username"`
	Count    int    `db:"reaction_count"`
}
