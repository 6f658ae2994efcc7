package telegram

import (
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/samber/oops"
)

// Sender is the subset of *bot.Bot used to deliver messages
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Recipients resolves the chats a digest goes to
type Recipients interface {
	ChatIDs(ctx context.Context, extra ...int64) ([]int64, error)
}

// Notifier publishes digests to the configured chat and all subscribers
type Notifier struct {
	sender     Sender
	recipients Recipients
	chatID     int64
}

// NewNotifier creates a notifier; chatID may be zero when only subscribers receive digests.
func NewNotifier(sender Sender, recipients Recipients, chatID int64) *Notifier {
	return &Notifier{sender: sender, recipients: recipients, chatID: chatID}
}

// Publish sends text to every recipient. It fails only if no recipient got the
// complete message, so a partial outage does not cause a duplicate digest later.
func (n *Notifier) Publish(ctx context.Context, text string) error {
	chatIDs, err := n.recipients.ChatIDs(ctx, n.chatID)
	if err != nil {
		return oops.With("context", "resolving digest recipients").Wrap(err)
	}
	if len(chatIDs) == 0 {
		slog.Warn("Digest has no recipients")
		return nil
	}

	chunks := SplitMessage(text, MaxMessageLength)
	var errs []error
	delivered := 0
	for _, chatID := range chatIDs {
		if err := n.send(ctx, chatID, chunks); err != nil {
			slog.Error("Failed to deliver digest", "chat_id", chatID, "error", err)
			errs = append(errs, err)
			continue
		}
		delivered++
	}

	if delivered == 0 {
		return oops.With("recipients", len(chatIDs)).Wrap(stderrors.Join(errs...))
	}
	slog.Info("Digest delivered", "recipients", delivered, "failed", len(errs))
	return nil
}

func (n *Notifier) send(ctx context.Context, chatID int64, chunks []string) error {
	for _, chunk := range chunks {
		if _, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: chunk}); err != nil {
			return oops.With("chat_id", chatID).Wrap(err)
		}
	}
	return nil
}
