package commands

import (
	"fmt"

	"options-tracker/lib/helpers"
	"options-tracker/lib/translation"
)

// CommandStart tells the user which chat id to link from the web app
func CommandStart(chatID int64) string {
	return fmt.Sprintf(
		helpers.EscapeMarkdownV2(translation.Translate("Link this chat in the options tracker to receive alerts here. Your chat id:"))+" `%d`",
		chatID,
	)
}

func CommandHelp() string {
	return helpers.EscapeMarkdownV2(translation.Translate("Command help message"))
}
