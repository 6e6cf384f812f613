package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandleProductFeed handles GET /feeds/products.xml
func HandleProductFeed(env *Env, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := env.Feed.Feed(c.Request.Context())
		if err != nil {
			logger.Error("Failed to build product feed", zap.Error(err))
			c.String(http.StatusInternalServerError, "feed unavailable")
			return
		}
		c.Header("Cache-Control", "public, max-age=900")
		c.Data(http.StatusOK, "application/xml; charset=utf-8", body)
	}
}
