package telegram

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"options-tracker/internal/commands"
	"options-tracker/lib/helpers"
	"options-tracker/lib/translation"
)

const commandTimeout = 10 * time.Second

// NewBot creates new telegram bot
func NewBot(c BotConfig, prices PriceSource) (*Bot, error) {
	endpoint := c.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	bot, err := tgbotapi.NewBotAPIWithClient(c.Token, endpoint, &http.Client{Timeout: time.Duration(c.UpdatesTimeout+10) * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug

	return &Bot{
		Bot:    bot,
		Config: c,
		prices: prices,
	}, nil
}

// GetUpdatesChannel gets new updates updates
func (b *Bot) GetUpdatesChannel() tgbotapi.UpdatesChannel {
	updatesConfig := tgbotapi.NewUpdate(0)
	if b.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.Config.UpdatesTimeout
	}
	return b.Bot.GetUpdatesChan(updatesConfig)
}

// Run answers commands until ctx is cancelled
func (b *Bot) Run(ctx context.Context) {
	updates := b.GetUpdatesChannel()
	log.WithField("bot", b.Bot.Self.UserName).Info("🤖 Telegram bot listening for commands")

	for {
		select {
		case <-ctx.Done():
			b.Bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handle(ctx, update)
		}
	}
}

func (b *Bot) handle(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Recovered from panic: %v\nStack trace: %s", r, debug.Stack())
		}
	}()

	if update.Message == nil || !update.Message.IsCommand() {
		log.Debug("Received non-message or non-command")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	err := b.SendMessage(Message{
		ChatID:    update.Message.Chat.ID,
		Text:      b.HandleUpdate(ctx, update),
		MessageID: update.Message.MessageID,
	})
	if err != nil {
		log.Errorf("Failed to send message: %v", err)
	}
}

// SendMessage sends a telegram message
func (b *Bot) SendMessage(m Message) error {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := b.Bot.Send(msg); err != nil {
		return errors.Wrapf(err, "could not send message to chat %d", m.ChatID)
	}
	return nil
}

// HandleUpdate returns the MarkdownV2 reply for a command
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) string {
	log.Debugf("received command: %s", u.Message.Command())

	switch u.Message.Command() {
	case "start":
		return commands.CommandStart(u.Message.Chat.ID)
	case "p":
		text, err := commands.CommandPrice(ctx, b.prices, u.Message.CommandArguments())
		if err != nil {
			log.Error(err)
			return helpers.EscapeMarkdownV2(translation.Translate("Price not available"))
		}
		return text
	}
	return commands.CommandHelp()
}
