package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"options-tracker/internal/api/handler"
	"options-tracker/internal/api/middleware"
	"options-tracker/internal/auth"
)

const requestTimeout = 15 * time.Second

type Config struct {
	CORSOrigins    []string
	VAPIDPublicKey string
	Debug          bool
}

// NewRouter builds the /api engine
func NewRouter(cfg Config, store handler.Store, prices handler.PriceSource, issuer *auth.Issuer) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.ContextWithFallback = true
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(corsMiddleware(cfg.CORSOrigins))
	r.Use(middleware.Error())
	r.Use(middleware.Timeout(requestTimeout))

	hd := handler.NewHandler(store, prices, issuer, cfg.VAPIDPublicKey)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/auth/register", hd.Register)
		api.POST("/auth/login", hd.Login)
		api.GET("/auth/guest-token", hd.GuestToken)
		api.GET("/stock-price/:ticker", hd.GetStockPrice)
		api.GET("/push/vapid-public-key", hd.VAPIDPublicKey)
	}

	protected := api.Group("", middleware.Auth(issuer))
	{
		protected.POST("/trades", hd.CreateTrade)
		protected.GET("/trades", hd.GetTrades)
		protected.DELETE("/trades/:id", hd.DeleteTrade)
		protected.POST("/push/subscribe", hd.Subscribe)
		protected.POST("/push/unsubscribe", hd.Unsubscribe)
		protected.POST("/telegram/link", hd.LinkTelegram)
	}

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}

	if len(origins) == 0 || lo.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
