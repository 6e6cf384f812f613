package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kleinod-atelier/storefront/internal/api/handlers"
	"github.com/kleinod-atelier/storefront/internal/api/middleware"
	"github.com/kleinod-atelier/storefront/internal/view"
)

// NewRouter creates and configures the Gin router
func NewRouter(env *handlers.Env, logger *zap.Logger) *gin.Engine {
	if env.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.HTMLRender = env.Renderer

	// Middleware
	router.Use(customRecovery(env, logger))
	router.Use(loggingMiddleware(logger))
	router.Use(middleware.SecurityMiddleware(env.Config))
	router.Use(middleware.LocaleMiddleware(env.Locales))

	// Root-only resources
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/robots.txt", handlers.HandleRobots(env, logger))
	router.GET("/feeds/products.xml", handlers.HandleProductFeed(env, logger))
	router.StaticFS("/static", view.Static())

	// Storefront pages, once for the default locale and once per prefixed locale
	registerStorefront(router.Group(""), env, logger)
	for _, l := range env.Locales.Prefixed() {
		registerStorefront(router.Group(l.PathPrefix), env, logger)
	}

	router.NoRoute(handlers.HandleNotFound(env, logger))

	return router
}

func registerStorefront(g *gin.RouterGroup, env *handlers.Env, logger *zap.Logger) {
	home := ""
	if g.BasePath() == "/" {
		home = "/"
	}
	g.GET(home, handlers.HandleHome(env, logger))
	g.GET("/collections/all", handlers.HandleCatalog(env, logger))
	g.GET("/collections/:handle", handlers.HandleCollection(env, logger))
	g.GET("/products/:handle", handlers.HandleProduct(env, logger))

	g.GET("/cart", handlers.HandleGetCart(env, logger))
	g.POST("/cart", handlers.HandleCartUpdate(env, logger))
	g.GET("/cart/checkout", handlers.HandleCheckout(env, logger))

	for _, slug := range view.StaticPages {
		g.GET("/"+slug, handlers.HandleStaticPage(env, slug, logger))
	}

	g.POST("/newsletter/subscribe", handlers.HandleNewsletterSubscribe(env, logger))
	g.POST("/api/track", handlers.HandleTrack(env, logger))
}

// customRecovery logs panics and renders the error page
func customRecovery(env *handlers.Env, logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.Any("error", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
		if c.Writer.Written() {
			c.Abort()
			return
		}
		c.HTML(http.StatusInternalServerError, view.PageError, &view.Page{
			Title:  "Error",
			Locale: env.Locales.Resolve(c.Request.URL.Path),
			Nonce:  middleware.GetNonce(c),
		})
		c.Abort()
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if l, ok := middleware.GetLocaleFromContext(c); ok {
			fields = append(fields, zap.String("locale", l.Label))
		}
		logger.Info("HTTP request", fields...)
	}
}
