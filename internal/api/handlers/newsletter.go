package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kleinod-atelier/storefront/internal/newsletter"
	apperrors "github.com/kleinod-atelier/storefront/pkg/errors"
)

// newsletterForm is the footer signup form
type newsletterForm struct {
	Email string `form:"email" json:"email" binding:"required,email"`
}

// HandleNewsletterSubscribe handles POST {prefix}/newsletter/subscribe
func HandleNewsletterSubscribe(env *Env, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := requestLocale(c, env)

		var form newsletterForm
		if err := c.ShouldBind(&form); err != nil {
			logger.Debug("Newsletter form rejected", zap.Any("fields", bindingError(newsletter.MsgInvalidEmail, err).Fields))
			c.JSON(http.StatusBadRequest, gin.H{"formError": newsletter.MsgInvalidEmail})
			return
		}

		err := env.Newsletter.Subscribe(c.Request.Context(), form.Email, l.Label)
		if err != nil {
			var v *apperrors.ErrValidation
			msg := newsletter.MsgFailed
			if errors.As(err, &v) {
				msg = v.Message
			} else {
				logger.Error("Newsletter subscription failed", zap.Error(err))
			}
			c.JSON(http.StatusBadRequest, gin.H{"formError": msg})
			return
		}
		c.JSON(http.StatusOK, gin.H{"successMessage": newsletter.MsgSubscribed})
	}
}
