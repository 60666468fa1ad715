package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"options-tracker/internal/api/constant"
	"options-tracker/internal/auth"
	"options-tracker/internal/types"
)

type Store interface {
	InsertTrade(ctx context.Context, trade *types.Trade) error
	ListTradesByUser(ctx context.Context, userID string) ([]types.Trade, error)
	DeleteTrade(ctx context.Context, userID, tradeID string) error
	InsertUser(ctx context.Context, user *types.User) error
	GetUser(ctx context.Context, id string) (*types.User, error)
	SetPushRegistration(ctx context.Context, userID string, reg types.PushRegistration) error
	ClearPushRegistration(ctx context.Context, userID string) error
	SetTelegramChat(ctx context.Context, userID string, chatID int64) error
}

type PriceSource interface {
	GetPrice(ctx context.Context, ticker string) (float64, error)
}

type Handler struct {
	store          Store
	prices         PriceSource
	issuer         *auth.Issuer
	vapidPublicKey string
	now            func() time.Time
}

func NewHandler(store Store, prices PriceSource, issuer *auth.Issuer, vapidPublicKey string) *Handler {
	return &Handler{
		store:          store,
		prices:         prices,
		issuer:         issuer,
		vapidPublicKey: vapidPublicKey,
		now:            time.Now,
	}
}

// bind decodes the JSON body, reporting malformed input as a 400
func bind(ctx *gin.Context, obj any) bool {
	err := ctx.ShouldBindJSON(obj)
	if err == nil {
		return true
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		_ = ctx.Error(err)
	} else {
		_ = ctx.Error(constant.ErrInvalidBody)
	}
	return false
}
