package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"options-tracker/lib/helpers"
	"options-tracker/lib/translation"
)

type PriceSource interface {
	GetPrice(ctx context.Context, ticker string) (float64, error)
}

// CommandPrice answers /p TICKER with the current price as MarkdownV2
func CommandPrice(ctx context.Context, prices PriceSource, argument string) (string, error) {
	log.Debugf("processing command /p with argument :%s", argument)

	fields := strings.Fields(argument)
	if len(fields) == 0 {
		return helpers.EscapeMarkdownV2(translation.Translate("Usage: /p TICKER")), nil
	}
	ticker := strings.ToUpper(fields[0])

	p, err := prices.GetPrice(ctx, ticker)
	if err != nil {
		return "", errors.Wrap(err, "command /p")
	}

	return fmt.Sprintf("*%s %s*\n\n▫️`%s` *USD*",
		helpers.EscapeMarkdownV2(ticker),
		helpers.EscapeMarkdownV2(translation.Translate("price:")),
		helpers.FormatPriceUS(p, true),
	), nil
}
