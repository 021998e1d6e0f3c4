// Package notify tells operators about withdrawals through a Telegram bot.
package notify

import (
	"context"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Telegram posts plain-text notices to one chat. A zero value, or one built
// without a token, drops every notice.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// NewTelegram connects to the bot API. An empty token or chat id gives a
// notifier that does nothing.
func NewTelegram(token string, chatID int64, logger zerolog.Logger) (*Telegram, error) {
	return NewTelegramWithEndpoint(token, chatID, tgbotapi.APIEndpoint, http.DefaultClient, logger)
}

// NewTelegramWithEndpoint is NewTelegram against a custom bot API endpoint
func NewTelegramWithEndpoint(token string, chatID int64, endpoint string, client *http.Client, logger zerolog.Logger) (*Telegram, error) {
	t := &Telegram{chatID: chatID, logger: logger.With().Str("component", "notify").Logger()}
	if token == "" || chatID == 0 {
		t.logger.Info().Msg("telegram notifications disabled")
		return t, nil
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to connect telegram bot: %w", err)
	}
	t.bot = bot
	t.logger.Info().Str("bot", bot.Self.UserName).Msg("telegram notifications enabled")
	return t, nil
}

// Enabled reports whether notices are actually sent
func (t *Telegram) Enabled() bool {
	return t != nil && t.bot != nil
}

func (t *Telegram) Notify(ctx context.Context, text string) error {
	if !t.Enabled() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	return nil
}
