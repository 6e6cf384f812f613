package handlers

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kleinod-atelier/storefront/internal/analytics"
	"github.com/kleinod-atelier/storefront/internal/api/middleware"
	"github.com/kleinod-atelier/storefront/internal/config"
	"github.com/kleinod-atelier/storefront/internal/feed"
	"github.com/kleinod-atelier/storefront/internal/locale"
	"github.com/kleinod-atelier/storefront/internal/newsletter"
	"github.com/kleinod-atelier/storefront/internal/storefront"
	"github.com/kleinod-atelier/storefront/internal/view"
	apperrors "github.com/kleinod-atelier/storefront/pkg/errors"
)

// CartCookie holds the platform cart id between requests
const CartCookie = "cart"

// Env is what the handlers need to serve a request
type Env struct {
	Config     *config.Config
	Storefront *storefront.Service
	Renderer   *view.Renderer
	Locales    *locale.Resolver
	Newsletter *newsletter.Service
	Relay      *analytics.Relay
	Feed       *feed.Generator
	Pages      map[string]*view.StaticPage
}

var botPattern = regexp.MustCompile(`(?i)bot|crawler|spider|crawling|slurp|facebookexternalhit|embedly|quora link preview|outbrain|pinterest|vkshare|w3c_validator|whatsapp|lighthouse|headless`)

// IsBot reports whether the user agent is a crawler; crawlers get the whole
// document at once instead of a flushed stream
func IsBot(userAgent string) bool {
	return userAgent != "" && botPattern.MatchString(userAgent)
}

func requestLocale(c *gin.Context, env *Env) locale.Locale {
	if l, ok := middleware.GetLocaleFromContext(c); ok {
		return l
	}
	return env.Locales.Resolve(c.Request.URL.Path)
}

func cartID(c *gin.Context) string {
	id, err := c.Cookie(CartCookie)
	if err != nil {
		return ""
	}
	return id
}

// loadWithLayout runs the page's critical load alongside the layout query
func loadWithLayout(c *gin.Context, env *Env, l locale.Locale, load func() error) (*storefront.Layout, error) {
	var layout *storefront.Layout
	var g errgroup.Group
	g.Go(func() error {
		layout = env.Storefront.Layout(c.Request.Context(), l, cartID(c))
		return nil
	})
	g.Go(load)
	err := g.Wait()
	return layout, err
}

// newPage fills the data every template needs. It waits for the cart badge.
func newPage(c *gin.Context, env *Env, l locale.Locale, layout *storefront.Layout, title, description string) *view.Page {
	p := &view.Page{
		Title:       title,
		Description: description,
		Locale:      l,
		Alternates:  env.Locales.Alternates(c.Request.URL.Path, c.Request.URL.RawQuery, l),
		Path:        c.Request.URL.Path,
		Layout:      layout,
		SizeChart:   env.Storefront.Content().SizeChart,
		GTM:         env.Config.Analytics.GTMContainerID,
		Nonce:       middleware.GetNonce(c),
	}
	if layout != nil && layout.CartCount != nil {
		p.CartCount = layout.CartCount.Await(env.Storefront.DeferredTimeout())
	}
	return p
}

// renderPage renders a complete, non-streamed page
func renderPage(c *gin.Context, status int, name string, page *view.Page) {
	c.HTML(status, name, page)
}

// streamPage writes the critical markup first, then resolve's deferred data
func streamPage(c *gin.Context, env *Env, name string, page *view.Page, resolve func() interface{}, logger *zap.Logger) {
	flush := !IsBot(c.Request.UserAgent())
	if err := env.Renderer.Stream(c.Writer, http.StatusOK, name, page, resolve, flush); err != nil {
		// headers are gone; the client sees a truncated document
		logger.Error("Failed to stream page",
			zap.String("page", name),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
}

// renderError maps a load error to the 404, 400 or 500 page
func renderError(c *gin.Context, env *Env, l locale.Locale, layout *storefront.Layout, err error, logger *zap.Logger) {
	switch {
	case apperrors.IsNotFound(err):
		renderPage(c, http.StatusNotFound, view.PageNotFound, newPage(c, env, l, layout, "Not found", ""))
	case apperrors.IsValidation(err):
		logger.Warn("Rejected request", zap.String("path", c.Request.URL.Path), zap.Error(err))
		renderPage(c, http.StatusBadRequest, view.PageNotFound, newPage(c, env, l, layout, "Bad request", ""))
	default:
		logger.Error("Failed to load page", zap.String("path", c.Request.URL.Path), zap.Error(err))
		renderPage(c, http.StatusInternalServerError, view.PageError, newPage(c, env, l, layout, "Error", ""))
	}
}

// HandleNotFound renders the 404 page for unmatched routes
func HandleNotFound(env *Env, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := requestLocale(c, env)
		layout := env.Storefront.Layout(c.Request.Context(), l, cartID(c))
		renderPage(c, http.StatusNotFound, view.PageNotFound, newPage(c, env, l, layout, "Not found", ""))
	}
}
