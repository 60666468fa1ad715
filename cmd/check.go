package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"options-tracker/internal/alert"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a single monitoring cycle and print its report",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close(ctx)

		prices := newPriceAdapter(nil)
		monitor := alert.NewMonitor(store, store, prices, newDispatcher(nil, newBot(prices)))

		report, err := monitor.RunCycle(ctx)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}
