package dto

import (
	"time"

	"options-tracker/internal/types"
)

type CreateTradeReq struct {
	Ticker      string   `json:"ticker" binding:"required,max=10"`
	StrikePrice float64  `json:"strike_price" binding:"required,gt=0"`
	TradeType   string   `json:"trade_type" binding:"required"`
	ExpiryDate  string   `json:"expiry_date" binding:"required,datetime=2006-01-02"`
	Premium     *float64 `json:"premium" binding:"omitempty,gte=0"`
}

type TradeSingle struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Ticker      string    `json:"ticker"`
	StrikePrice float64   `json:"strike_price"`
	TradeType   string    `json:"trade_type"`
	ExpiryDate  string    `json:"expiry_date"`
	Premium     *float64  `json:"premium"`
	CreatedAt   time.Time `json:"created_at"`
}

type GetTradesRes struct {
	Trades []TradeSingle `json:"trades"`
}

func NewTradeSingle(t types.Trade, _ int) TradeSingle {
	return TradeSingle{
		ID:          t.ID,
		UserID:      t.UserID,
		Ticker:      t.Ticker,
		StrikePrice: t.StrikePrice,
		TradeType:   string(t.TradeType),
		ExpiryDate:  t.ExpiryDate,
		Premium:     t.Premium,
		CreatedAt:   t.CreatedAt,
	}
}

type StockPriceRes struct {
	Ticker    string    `json:"ticker"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}
