package services

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier pushes task notifications to linked telegram chats.
// With dry_run (or no token) sends are silently skipped, for dev and tests.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	dryRun bool
}

func NewTelegramNotifier(token string, dryRun bool) (*TelegramNotifier, error) {
	if dryRun || token == "" {
		return &TelegramNotifier{dryRun: true}, nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &TelegramNotifier{bot: bot}, nil
}

func (t *TelegramNotifier) Send(chatID int64, text string) error {
	if t.dryRun || t.bot == nil || chatID == 0 {
		return nil
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := t.bot.Send(msg)
	return err
}
