package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"options-tracker/internal/api/constant"
	"options-tracker/internal/api/dto"
	"options-tracker/internal/api/middleware"
	"options-tracker/internal/types"
)

func (hd *Handler) Subscribe(ctx *gin.Context) {
	var req dto.PushSubscribeReq
	if !bind(ctx, &req) {
		return
	}

	userID := middleware.UserID(ctx)
	err := hd.store.SetPushRegistration(ctx, userID, types.PushRegistration{
		Endpoint: req.Endpoint,
		Keys:     types.PushKeys{P256dh: req.Keys.P256dh, Auth: req.Keys.Auth},
	})
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	log.WithField("user_id", userID).Info("Push subscription saved")
	ctx.JSON(http.StatusOK, dto.MessageRes{Message: "Subscription saved"})
}

func (hd *Handler) Unsubscribe(ctx *gin.Context) {
	if err := hd.store.ClearPushRegistration(ctx, middleware.UserID(ctx)); err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageRes{Message: "Unsubscribed"})
}

func (hd *Handler) VAPIDPublicKey(ctx *gin.Context) {
	if hd.vapidPublicKey == "" {
		_ = ctx.Error(constant.ErrPushNotConfigured)
		return
	}
	ctx.JSON(http.StatusOK, dto.VAPIDKeyRes{PublicKey: hd.vapidPublicKey})
}

func (hd *Handler) LinkTelegram(ctx *gin.Context) {
	var req dto.TelegramLinkReq
	if !bind(ctx, &req) {
		return
	}

	userID := middleware.UserID(ctx)
	if err := hd.store.SetTelegramChat(ctx, userID, req.ChatID); err != nil {
		_ = ctx.Error(err)
		return
	}

	log.WithFields(log.Fields{"user_id": userID, "chat_id": req.ChatID}).Info("Telegram chat linked")
	ctx.JSON(http.StatusOK, dto.MessageRes{Message: "Telegram chat linked"})
}
