package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kleinod-atelier/storefront/internal/locale"
)

const LocaleContextKey = "locale"

// LocaleMiddleware resolves the request's locale from its path prefix
func LocaleMiddleware(resolver *locale.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(LocaleContextKey, resolver.Resolve(c.Request.URL.Path))
		c.Next()
	}
}

// GetLocaleFromContext retrieves the locale from the Gin context
func GetLocaleFromContext(c *gin.Context) (locale.Locale, bool) {
	l, exists := c.Get(LocaleContextKey)
	if !exists {
		return locale.Locale{}, false
	}

	loc, ok := l.(locale.Locale)
	return loc, ok
}
