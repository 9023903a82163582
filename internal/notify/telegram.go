package notify

import (
	"fmt"
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramChannel delivers notifications as plain-text messages to one chat
type TelegramChannel struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramChannel creates a channel for the given bot token and chat id.
// Both credentials are required; the constructor authenticates against the
// Telegram API, so a bad token fails here rather than at first delivery.
func NewTelegramChannel(botToken, chatID string) (*TelegramChannel, error) {
	return newTelegramChannel(botToken, chatID, tgbotapi.APIEndpoint)
}

// newTelegramChannel allows tests to point the bot at a mock API endpoint
func newTelegramChannel(botToken, chatID, apiEndpoint string) (*TelegramChannel, error) {
	if botToken == "" || chatID == "" {
		return nil, fmt.Errorf("telegram credentials missing: both bot token and chat id are required")
	}
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat id %q: %v", chatID, err)
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(botToken, apiEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %v", err)
	}
	return &TelegramChannel{bot: bot, chatID: id}, nil
}

// Deliver renders the message as multi-line text and sends it to the chat
func (c *TelegramChannel) Deliver(msg Message) error {
	text := msg.Title + "\n\n" + msg.Body
	if _, err := c.bot.Send(tgbotapi.NewMessage(c.chatID, text)); err != nil {
		return fmt.Errorf("failed to send telegram message: %v", err)
	}
	log.Printf("Delivered telegram notification %q to chat %d", msg.Title, c.chatID)
	return nil
}

// Test sends a test message to verify token and chat id
func (c *TelegramChannel) Test() error {
	return c.Deliver(TestMessage())
}
