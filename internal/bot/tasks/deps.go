// Package tasks implements the bot's scheduled tasks: the daily digest
// broadcast and SQL maintenance.
package tasks

import (
	"log/slog"

	tgbot "github.com/go-telegram/bot"

	"github.com/askhat/neighborbot/internal/config"
	"github.com/askhat/neighborbot/internal/database"
	"github.com/askhat/neighborbot/internal/digest"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Store    database.Store
	Digest   *digest.Generator
	Registry *digest.Registry
	Bot      *tgbot.Bot
}
