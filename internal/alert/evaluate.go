package alert

import (
	"fmt"

	"options-tracker/internal/types"
)

type tier struct {
	threshold float64
	severity  types.Severity
}

// putTiers is ordered from the deepest drop down, the first tier met wins
var putTiers = []tier{
	{20, types.SeverityCritical},
	{15, types.SeverityHigh},
	{10, types.SeverityWarning},
	{5, types.SeverityNotice},
}

// callBands is ordered from the tightest band out
var callBands = []tier{
	{1, types.SeverityCritical},
	{2, types.SeverityHigh},
}

// PctBelow is the percentage by which price sits below strike, negative when above
func PctBelow(strike, price float64) float64 {
	return (strike - price) * 100 / strike
}

// Evaluate decides whether trade warrants an alert at price. It returns nil when no tier is met.
func Evaluate(trade types.Trade, price float64) *types.Alert {
	if trade.StrikePrice <= 0 || price <= 0 {
		return nil
	}
	pct := PctBelow(trade.StrikePrice, price)

	switch trade.TradeType {
	case types.Put:
		for _, t := range putTiers {
			if pct >= t.threshold {
				return newAlert(trade, price, t, fmt.Sprintf(
					"%s is %g%%+ below PUT strike $%.2f. Current: $%.2f",
					trade.Ticker, t.threshold, trade.StrikePrice, price,
				))
			}
		}
	case types.Call:
		if pct < 0 {
			return nil
		}
		for _, t := range callBands {
			if pct <= t.threshold {
				return newAlert(trade, price, t, fmt.Sprintf(
					"%s is within %g%% of CALL strike $%.2f. Current: $%.2f",
					trade.Ticker, t.threshold, trade.StrikePrice, price,
				))
			}
		}
	}
	return nil
}

func newAlert(trade types.Trade, price float64, t tier, message string) *types.Alert {
	return &types.Alert{
		Ticker:       trade.Ticker,
		TradeID:      trade.ID,
		UserID:       trade.UserID,
		TradeType:    trade.TradeType,
		Severity:     t.severity,
		Threshold:    t.threshold,
		StrikePrice:  trade.StrikePrice,
		CurrentPrice: price,
		Message:      message,
	}
}
