// Package handlers contains the Telegram command and message handlers,
// the update dispatcher, and their registration logic.
package handlers

import (
	"log/slog"

	"github.com/askhat/neighborbot/internal/config"
	"github.com/askhat/neighborbot/internal/database"
	"github.com/askhat/neighborbot/internal/digest"
	"github.com/askhat/neighborbot/internal/news"
)

// HandlerDeps provides dependencies for Telegram handlers. Handlers
// hold it by pointer: the Processor is bound after the bot instance
// exists, before polling starts.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Store     database.Store
	Digest    *digest.Generator
	Registry  *digest.Registry
	Processor *news.Processor
}
