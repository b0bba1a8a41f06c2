package notify

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender posts notifications to a fixed staff chat.
type TelegramSender struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramSender connects to the Telegram Bot API.
func NewTelegramSender(token string, chatID int64) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &TelegramSender{bot: bot, chatID: chatID}, nil
}

// Send posts one message to the staff chat.
func (s *TelegramSender) Send(_ context.Context, text string) error {
	_, err := s.bot.Send(tgbotapi.NewMessage(s.chatID, text))
	return err
}
