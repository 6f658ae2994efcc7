package telegram

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	moderationDomain "github.com/reshetovitsme/modwatch/internal/modules/moderation/domain"
	pollService "github.com/reshetovitsme/modwatch/internal/modules/poll/service"
	subscriberService "github.com/reshetovitsme/modwatch/internal/modules/subscriber/service"
	"github.com/reshetovitsme/modwatch/internal/shared/config"
	"github.com/reshetovitsme/modwatch/internal/shared/errors"
)

const (
	defaultRecent = 5
	maxRecent     = 20
	statsHours    = 24
	textPreview   = 200
)

// Monitor is the part of the poll orchestrator the bot talks to
type Monitor interface {
	View() *pollService.View
	Watch(ref string) error
	QueryEvents(ctx context.Context, filter moderationDomain.Filter) ([]moderationDomain.Event, error)
}

// StatsSource aggregates recorded events
type StatsSource interface {
	Stats(ctx context.Context, since time.Time) (*moderationDomain.Stats, error)
}

// Handler handles Telegram bot interactions
type Handler struct {
	cfg         *config.Config
	monitor     Monitor
	stats       StatsSource
	subscribers *subscriberService.Service
}

// New creates a new Telegram handler
func New(cfg *config.Config, monitor Monitor, stats StatsSource, subscribers *subscriberService.Service) *Handler {
	return &Handler{
		cfg:         cfg,
		monitor:     monitor,
		stats:       stats,
		subscribers: subscribers,
	}
}

// RegisterCommands registers bot commands
func (h *Handler) RegisterCommands(b *bot.Bot) {
	for _, cmd := range []string{"/start", "/help", "/status", "/forums", "/recent", "/stats", "/watch", "/subscribe", "/unsubscribe"} {
		b.RegisterHandler(bot.HandlerTypeMessageText, cmd, bot.MatchTypePrefix, h.handleCommand)
	}
}

// HandleUpdate is the default handler for anything that is not a command
func (h *Handler) HandleUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Chat.Type != "private" {
		return
	}
	h.reply(ctx, b, update.Message.Chat.ID, "Unknown command. Send /help for the list of commands.")
}

func (h *Handler) handleCommand(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	text := h.Execute(ctx, msg.From.ID, msg.From.Username, msg.Chat.ID, msg.Text)
	h.reply(ctx, b, msg.Chat.ID, text)
}

func (h *Handler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	for _, chunk := range SplitMessage(text, MaxMessageLength) {
		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: chunk}); err != nil {
			slog.Error("Failed to send reply", "chat_id", chatID, "error", err)
			return
		}
	}
}

func (h *Handler) checkAuthorization(userID int64) bool {
	return h.subscribers.IsAuthorized(userID, h.cfg.AllowedUsers)
}

// Execute runs one command line for a user and returns the reply text
func (h *Handler) Execute(ctx context.Context, userID int64, username string, chatID int64, line string) string {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return helpText
	}
	// "/status@modwatch_bot" in group chats
	cmd, _, _ := strings.Cut(parts[0], "@")
	args := parts[1:]

	if cmd != "/start" && cmd != "/help" && !h.checkAuthorization(userID) {
		slog.Warn("Rejected command", "user_id", userID, "command", cmd, "error", errors.ErrUnauthorized)
		return "❌ Unauthorized"
	}

	switch cmd {
	case "/start", "/help":
		return helpText
	case "/status":
		return FormatStatus(h.monitor.View(), h.cfg)
	case "/forums":
		return FormatForums(h.monitor.View())
	case "/recent":
		return h.recent(ctx, args)
	case "/stats":
		return h.statsReply(ctx)
	case "/watch":
		return h.watch(args)
	case "/subscribe":
		if err := h.subscribers.Subscribe(ctx, chatID, username); err != nil {
			slog.Error("Failed to subscribe", "chat_id", chatID, "error", err)
			return fmt.Sprintf("❌ Failed to subscribe: %v", err)
		}
		return "✅ This chat will receive the daily digest."
	case "/unsubscribe":
		removed, err := h.subscribers.Unsubscribe(ctx, chatID)
		if err != nil {
			slog.Error("Failed to unsubscribe", "chat_id", chatID, "error", err)
			return fmt.Sprintf("❌ Failed to unsubscribe: %v", err)
		}
		if !removed {
			return "This chat is not subscribed."
		}
		return "✅ Unsubscribed."
	default:
		return "Unknown command. Send /help for the list of commands."
	}
}

func (h *Handler) recent(ctx context.Context, args []string) string {
	n := defaultRecent
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			return fmt.Sprintf("Usage: /recent [n]  (1-%d)", maxRecent)
		}
		n = min(v, maxRecent)
	}

	events, err := h.monitor.QueryEvents(ctx, moderationDomain.Filter{Limit: n})
	if err != nil {
		slog.Error("Failed to query events", "error", err)
		return fmt.Sprintf("❌ Failed to query events: %v", err)
	}
	return FormatRecent(events)
}

func (h *Handler) statsReply(ctx context.Context) string {
	stats, err := h.stats.Stats(ctx, time.Now().Add(-statsHours*time.Hour))
	if err != nil {
		slog.Error("Failed to compute stats", "error", err)
		return fmt.Sprintf("❌ Failed to compute stats: %v", err)
	}
	return FormatStats(stats, statsHours)
}

func (h *Handler) watch(args []string) string {
	if len(args) == 0 {
		return "Usage: /watch <article url or id>\nExample: /watch https://www.derstandard.at/story/3000000212345"
	}
	if err := h.monitor.Watch(args[0]); err != nil {
		if stderrors.Is(err, errors.ErrWatchQueueFull) {
			return "⏳ Too many pending articles, try again after the next poll."
		}
		return fmt.Sprintf("❌ Failed to queue article: %v", err)
	}
	return "✅ Queued. The article is onboarded at the start of the next poll cycle."
}

const helpText = `👋 Moderation Watch

I watch forum threads and report postings that were removed by moderators.

Available commands:
/help - Show this help message
/status - Poll loop status
/forums - Monitored forums
/recent [n] - Last n moderated postings
/stats - Summary of the last 24 hours
/watch <url> - Start monitoring an article
/subscribe - Receive the daily digest in this chat
/unsubscribe - Stop the daily digest`
