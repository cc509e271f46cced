package notify

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier pushes confirmations to the organizer's Telegram chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (n *TelegramNotifier) ReservationCreated(drawingName, claimantName string, elements []string) error {
	return n.send(fmt.Sprintf("🎟 %s reserved %s in %q", claimantName, strings.Join(elements, ", "), drawingName))
}

func (n *TelegramNotifier) SaleSettled(drawingName, claimantName string, elements []string) error {
	return n.send(fmt.Sprintf("✅ %s bought %s in %q", claimantName, strings.Join(elements, ", "), drawingName))
}

func (n *TelegramNotifier) send(text string) error {
	_, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, text))
	return err
}
