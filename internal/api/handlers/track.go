package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandleTrack handles POST {prefix}/api/track
func HandleTrack(env *Env, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload map[string]interface{}
		if err := c.ShouldBindJSON(&payload); err != nil || payload == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event payload"})
			return
		}
		if _, ok := payload["locale"]; !ok {
			payload["locale"] = requestLocale(c, env).Label
		}
		id := env.Relay.Track(c.Request.Context(), payload)
		c.Header("X-Event-Id", id)
		c.Status(http.StatusNoContent)
	}
}
