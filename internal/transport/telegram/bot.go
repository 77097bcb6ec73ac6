// Package telegram adapts Telegram updates to the conversation engine:
// commands and text go in, prompts and quick-reply keyboards come out.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"movimenti/internal/conversation"
)

type Bot struct {
	api         *tgbotapi.BotAPI
	engine      *conversation.Engine
	pollTimeout time.Duration
}

func NewBot(token string, engine *conversation.Engine, pollTimeout time.Duration) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}
	return &Bot{
		api:         api,
		engine:      engine,
		pollTimeout: pollTimeout,
	}, nil
}

// Username returns the bot account name, for startup logging.
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// Run long-polls updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(b.pollTimeout.Seconds())
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	identity := msg.From.ID

	var replies []conversation.Reply
	switch {
	case msg.IsCommand() && msg.Command() == "start":
		replies = b.engine.Begin(ctx, identity)
	case msg.IsCommand() && msg.Command() == "cancel":
		replies = b.engine.RequestCancel(ctx, identity)
	case msg.IsCommand():
		return // unknown commands are ignored
	case msg.Text != "":
		replies = b.engine.HandleText(ctx, identity, msg.Text)
	default:
		return // stickers, photos and other non-text updates
	}

	for _, r := range replies {
		b.send(ctx, msg.Chat.ID, r)
	}
}

func (b *Bot) send(ctx context.Context, chatID int64, r conversation.Reply) {
	out := tgbotapi.NewMessage(chatID, r.Text)
	if len(r.Choices) > 0 {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(r.Choices))
		for _, c := range r.Choices {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(c))
		}
		keyboard := tgbotapi.NewOneTimeReplyKeyboard(tgbotapi.NewKeyboardButtonRow(buttons...))
		keyboard.ResizeKeyboard = true
		out.ReplyMarkup = keyboard
	} else {
		out.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	}

	if _, err := b.api.Send(out); err != nil {
		slog.ErrorContext(ctx, "failed to send message", "chat_id", chatID, "error", err)
	}
}
