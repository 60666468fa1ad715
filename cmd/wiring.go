package main

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"options-tracker/config"
	"options-tracker/internal/database"
	"options-tracker/internal/notify"
	"options-tracker/internal/price"
	"options-tracker/internal/telegram"
)

func openStore(ctx context.Context) (database.Store, error) {
	store, err := database.Open(ctx, database.Config{
		Driver:     config.GetString("store_driver"),
		MongoURL:   config.GetString("mongo_url"),
		DBName:     config.GetString("db_name"),
		SQLitePath: config.GetString("sqlite_path"),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize database")
	}
	return store, nil
}

func newPriceAdapter(recorder price.Recorder) *price.Adapter {
	var opts []price.Option
	if recorder != nil {
		opts = append(opts, price.WithRecorder(recorder))
	}

	key := config.GetString("alpha_vantage_key")
	if key == "" {
		log.Warn("ALPHA_VANTAGE_KEY not set, serving synthetic prices")
		return price.NewAdapter(nil, opts...)
	}
	quoter := price.NewAlphaVantage(config.GetString("alpha_vantage_url"), key, config.GetDuration("quote_timeout"))
	return price.NewAdapter(quoter, opts...)
}

// newBot returns nil when no token is configured or the Bot API rejects it
func newBot(prices telegram.PriceSource) *telegram.Bot {
	token := config.GetString("telegram_bot_token")
	if token == "" {
		return nil
	}

	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:          token,
		Debug:          config.GetBool("debug"),
		UpdatesTimeout: 60,
	}, prices)
	if err != nil {
		log.WithError(err).Error("Telegram bot disabled")
		return nil
	}
	return bot
}

func newDispatcher(recorder notify.Recorder, bot *telegram.Bot) *notify.Dispatcher {
	opts := []notify.Option{notify.WithRecorder(recorder)}

	wp := notify.NewWebPush(notify.VAPIDConfig{
		PublicKey:  config.GetString("vapid_public_key"),
		PrivateKey: config.GetString("vapid_private_key"),
		Subject:    config.GetString("vapid_subject"),
	}, nil)
	if wp != nil {
		opts = append(opts, notify.WithChannel(wp))
	} else {
		log.Warn("VAPID keys not set, web push disabled")
	}

	if bot != nil {
		opts = append(opts, notify.WithChannel(notify.NewTelegram(bot)))
	}
	return notify.NewDispatcher(opts...)
}
