// Package main contains the entrypoint for the group-chat companion bot.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/askhat/neighborbot/internal/bot"
	"github.com/askhat/neighborbot/internal/bot/handlers"
	"github.com/askhat/neighborbot/internal/bot/tasks"
	"github.com/askhat/neighborbot/internal/config"
	"github.com/askhat/neighborbot/internal/database"
	"github.com/askhat/neighborbot/internal/digest"
	"github.com/askhat/neighborbot/internal/gemini"
	"github.com/askhat/neighborbot/internal/logger"
	"github.com/askhat/neighborbot/internal/news"
	"github.com/askhat/neighborbot/internal/telegram"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes all components (config, logger, db, registry, AI
// client, bot, scheduler), runs until shutdown, and returns the exit
// code.
func run(ctx context.Context) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info("Logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	// The digest registry survives restarts: every chat with recorded
	// traffic is re-registered from the ledger.
	registry := digest.NewRegistry()
	chatIDs, err := store.ActiveChats(ctx)
	if err != nil {
		log.Error("Failed to load active chats", "error", err)
		return 1
	}
	registry.Seed(chatIDs)
	log.Info("Restored active chats", "count", registry.Len())

	gemClient, err := gemini.NewClient(ctx, cfg.Gemini, log)
	if err != nil {
		log.Error("Failed to initialize Gemini client", "error", err)
		return 1
	}

	digestGen := digest.NewGenerator(log, store, gemClient)

	hDeps := &handlers.HandlerDeps{
		Logger:   log,
		Config:   cfg,
		Store:    store,
		Digest:   digestGen,
		Registry: registry,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewDefaultHandler(hDeps)),
		tgbot.WithAllowedUpdates(tgbot.AllowedUpdates{"message", "message_reaction"}),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	// The forwarder needs the bot instance, so the reaction processor is
	// bound after construction and before polling starts.
	hDeps.Processor = news.NewProcessor(log, store, telegram.NewForwarder(tg, log), cfg.News)
	if cfg.News.Enabled {
		log.Info("Photo news forwarding enabled",
			"target_chat_id", cfg.News.TargetChatID, "min_reactions", cfg.News.MinReactions)
	}

	cmdHandlers := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(tg, log, cmdHandlers); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	tDeps := tasks.TaskDeps{
		Logger:   log,
		Config:   cfg,
		Store:    store,
		Digest:   digestGen,
		Registry: registry,
		Bot:      tg,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, cfg, db, store, tg, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
