package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"options-tracker/internal/api/constant"
	"options-tracker/internal/api/dto"
	"options-tracker/lib/translation"
)

func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if errors.Is(c.Request.Context().Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, dto.Res{
				Detail: "request timed out",
			})
			return
		}

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors[0].Err

		// - Validation error from request binding
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			validationErrors := make([]dto.ErrorType, 0, len(ve))
			for _, fe := range ve {
				validationErrors = append(validationErrors, dto.ErrorType{
					Field:   fe.Field(),
					Message: fe.Error(),
				})
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.Res{
				Detail: validationErrors,
			})
			return
		}

		// - Custom error from `constant`
		var ce constant.CustomError
		if errors.As(err, &ce) {
			c.AbortWithStatusJSON(ce.StatusCode, dto.Res{
				Detail: translation.Translate(ce.Message),
			})
			return
		}

		// - Unknown error, internal server error
		log.WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).WithError(err).Error("❌ Request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.Res{
			Detail: translation.Translate("Internal server error"),
		})
	}
}
