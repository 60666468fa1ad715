package notify

import (
	"context"
	"fmt"

	"options-tracker/internal/telegram"
	"options-tracker/internal/types"
	"options-tracker/lib/helpers"
)

const ChannelTelegram = "telegram"

// MessageSender takes no context; the Bot API client bounds each request with its own HTTP timeout
type MessageSender interface {
	SendMessage(m telegram.Message) error
}

// Telegram posts alerts to the chat a user linked through the bot
type Telegram struct {
	sender MessageSender
}

func NewTelegram(sender MessageSender) *Telegram {
	return &Telegram{sender: sender}
}

func (t *Telegram) Name() string { return ChannelTelegram }

func (t *Telegram) Registered(user *types.User) bool {
	return user.TelegramChatID != 0
}

func (t *Telegram) Send(_ context.Context, user *types.User, a types.Alert, p Payload) error {
	return t.sender.SendMessage(telegram.Message{
		ChatID: user.TelegramChatID,
		Text:   FormatTelegram(a, p),
	})
}

// FormatTelegram renders an alert as a MarkdownV2 message
func FormatTelegram(a types.Alert, p Payload) string {
	return fmt.Sprintf("🔔 *%s*\n\n%s\n\n▫️ Strike `%s` *USD*\n▫️ Current `%s` *USD*",
		helpers.EscapeMarkdownV2(p.Title),
		helpers.EscapeMarkdownV2(p.Body),
		helpers.FormatPriceUS(a.StrikePrice, true),
		helpers.FormatPriceUS(a.CurrentPrice, true),
	)
}
