package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"options-tracker/internal/api/constant"
	"options-tracker/internal/api/dto"
	"options-tracker/internal/api/middleware"
	"options-tracker/internal/database"
	"options-tracker/internal/price"
	"options-tracker/internal/types"
)

func (hd *Handler) CreateTrade(ctx *gin.Context) {
	var req dto.CreateTradeReq
	if !bind(ctx, &req) {
		return
	}

	tradeType, ok := types.ParseTradeType(req.TradeType)
	if !ok {
		_ = ctx.Error(constant.ErrInvalidTradeType)
		return
	}

	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" {
		_ = ctx.Error(constant.ErrInvalidTicker)
		return
	}

	trade := &types.Trade{
		ID:          uuid.NewString(),
		UserID:      middleware.UserID(ctx),
		Ticker:      ticker,
		StrikePrice: req.StrikePrice,
		TradeType:   tradeType,
		ExpiryDate:  req.ExpiryDate,
		Premium:     req.Premium,
		CreatedAt:   hd.now().UTC(),
	}
	if err := hd.store.InsertTrade(ctx, trade); err != nil {
		_ = ctx.Error(err)
		return
	}

	log.WithFields(log.Fields{"user_id": trade.UserID, "trade_id": trade.ID, "ticker": trade.Ticker}).Info("Trade created")
	ctx.JSON(http.StatusOK, dto.MessageRes{Message: "Trade created", ID: trade.ID})
}

func (hd *Handler) GetTrades(ctx *gin.Context) {
	trades, err := hd.store.ListTradesByUser(ctx, middleware.UserID(ctx))
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, dto.GetTradesRes{
		Trades: lo.Map(trades, dto.NewTradeSingle),
	})
}

func (hd *Handler) DeleteTrade(ctx *gin.Context) {
	err := hd.store.DeleteTrade(ctx, middleware.UserID(ctx), ctx.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		_ = ctx.Error(constant.ErrTradeNotFound)
		return
	}
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageRes{Message: "Trade deleted"})
}

func (hd *Handler) GetStockPrice(ctx *gin.Context) {
	ticker := strings.ToUpper(strings.TrimSpace(ctx.Param("ticker")))

	p, err := hd.prices.GetPrice(ctx, ticker)
	if errors.Is(err, price.ErrEmptyTicker) {
		_ = ctx.Error(constant.ErrPriceUnavailable)
		return
	}
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, dto.StockPriceRes{
		Ticker:    ticker,
		Price:     p,
		Timestamp: hd.now().UTC(),
	})
}
