package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"options-tracker/lib/helpers"
)

var priceCmd = &cobra.Command{
	Use:   "price TICKER",
	Short: "Print the current price of a ticker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPriceAdapter(nil).GetPrice(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s $%s\n", strings.ToUpper(args[0]), helpers.FormatPriceUS(p, false))
		return nil
	},
}
