package middleware

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"options-tracker/internal/api/constant"
	"options-tracker/internal/auth"
)

const (
	userIDKey = "user_id"
	guestKey  = "guest"
)

// Auth rejects requests without a valid bearer token and stores the caller id in the context
func Auth(issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Header("WWW-Authenticate", "Bearer")
			_ = c.Error(constant.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := issuer.Parse(token)
		if err != nil {
			log.WithError(err).Debug("rejected access token")
			c.Header("WWW-Authenticate", "Bearer")
			_ = c.Error(constant.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(userIDKey, claims.Subject)
		c.Set(guestKey, claims.Guest)
		c.Next()
	}
}

// UserID returns the caller set by Auth
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func IsGuest(c *gin.Context) bool {
	return c.GetBool(guestKey)
}
