package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const robotsRules = `User-agent: *
Disallow: /admin
Disallow: /cart
Disallow: /checkout
Disallow: /account
Allow: /

Sitemap: %s/sitemap.xml

# Google adsbot ignores robots.txt unless specifically named!
User-agent: adsbot-google
Disallow: /checkouts/
Disallow: /checkout
Disallow: /carts
Disallow: /orders
Disallow: /*?*oseid=*
Disallow: /*preview_theme_id*
Disallow: /*preview_script_id*

User-agent: Nutch
Disallow: /

User-agent: AhrefsBot
Crawl-delay: 10

User-agent: AhrefsSiteAudit
Crawl-delay: 10

User-agent: MJ12bot
Crawl-Delay: 10

User-agent: Pinterest
Crawl-delay: 1`

// RobotsTxt renders the crawler rules for origin
func RobotsTxt(origin string) string {
	return fmt.Sprintf(robotsRules, strings.TrimSuffix(origin, "/"))
}

// requestOrigin is the scheme and host the request was made to
func requestOrigin(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

// HandleRobots handles GET /robots.txt
func HandleRobots(env *Env, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "max-age=86400")
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(RobotsTxt(requestOrigin(c))))
	}
}
