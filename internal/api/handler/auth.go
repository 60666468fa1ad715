package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"options-tracker/internal/api/constant"
	"options-tracker/internal/api/dto"
	"options-tracker/internal/auth"
	"options-tracker/internal/database"
	"options-tracker/internal/types"
)

func (hd *Handler) Register(ctx *gin.Context) {
	var req dto.CredentialsReq
	if !bind(ctx, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	err = hd.store.InsertUser(ctx, &types.User{
		ID:           email,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    hd.now().UTC(),
	})
	if errors.Is(err, database.ErrDuplicate) {
		_ = ctx.Error(constant.ErrEmailRegistered)
		return
	}
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	log.WithField("user_id", email).Info("User registered")
	hd.respondToken(ctx, email, false)
}

func (hd *Handler) Login(ctx *gin.Context) {
	var req dto.CredentialsReq
	if !bind(ctx, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := hd.store.GetUser(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		_ = ctx.Error(constant.ErrInvalidCredentials)
		return
	}
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	if user.IsGuest() || !auth.CheckPassword(user.PasswordHash, req.Password) {
		_ = ctx.Error(constant.ErrInvalidCredentials)
		return
	}

	hd.respondToken(ctx, email, false)
}

func (hd *Handler) GuestToken(ctx *gin.Context) {
	_, token, err := hd.issuer.IssueGuest()
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, dto.TokenRes{AccessToken: token, TokenType: auth.TokenType})
}

func (hd *Handler) respondToken(ctx *gin.Context, subject string, guest bool) {
	token, err := hd.issuer.Issue(subject, guest)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, dto.TokenRes{AccessToken: token, TokenType: auth.TokenType})
}
