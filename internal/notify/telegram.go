// internal/notify/telegram.go
package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is satisfied by *tgbotapi.BotAPI.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts events to one chat.
type Telegram struct {
	bot    Sender
	chatID int64
}

func NewTelegram(bot Sender, chatID int64) *Telegram {
	return &Telegram{bot: bot, chatID: chatID}
}

// NewTelegramBot connects to the Bot API with token.
func NewTelegramBot(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	bot.Debug = false
	return NewTelegram(bot, chatID), nil
}

func (t *Telegram) Notify(_ context.Context, event Event) error {
	if t.chatID == 0 {
		return nil
	}
	text := event.Text()
	if event.Subject != "" {
		text = "*" + tgbotapi.EscapeText(tgbotapi.ModeMarkdown, event.Subject) + "*\n" + tgbotapi.EscapeText(tgbotapi.ModeMarkdown, text)
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := t.bot.Send(msg)
	return err
}
