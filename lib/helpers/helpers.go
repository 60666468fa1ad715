package helpers

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var markdownV2Reserved = []string{"\\", ".", "-", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "=", "|", "{", "}", "!"}

func EscapeMarkdownV2(text string) string {
	for _, char := range markdownV2Reserved {
		text = strings.ReplaceAll(text, char, "\\"+char)
	}
	return text
}

// FormatPriceUS prints a dollar amount with thousands separators and two decimals,
// more for sub-dollar prices
func FormatPriceUS(price float64, escapeMarkdown bool) string {
	decimals := 2
	if price > 0 && price < 1 {
		decimals = 4
	}

	p := message.NewPrinter(language.English)
	formatted := p.Sprintf("%.*f", decimals, price)

	if escapeMarkdown {
		return EscapeMarkdownV2(formatted)
	}
	return formatted
}
