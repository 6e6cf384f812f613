package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kleinod-atelier/storefront/internal/storefront"
	"github.com/kleinod-atelier/storefront/internal/view"
)

// HandleHome handles GET {prefix}/ and streams the recommended products
func HandleHome(env *Env, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := requestLocale(c, env)
		var home *storefront.HomePage
		layout, err := loadWithLayout(c, env, l, func() error {
			var err error
			home, err = env.Storefront.Home(c.Request.Context(), l)
			return err
		})
		if err != nil {
			renderError(c, env, l, layout, err, logger)
			return
		}

		page := newPage(c, env, l, layout, "", "Handcrafted jewelry made to order in Paris.")
		page.Data = home
		streamPage(c, env, view.PageHome, page, func() interface{} {
			return home.Recommended.Await(env.Storefront.DeferredTimeout())
		}, logger)
	}
}

// HandleCatalog handles GET {prefix}/collections/all with filters, sort and cursor
func HandleCatalog(env *Env, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := requestLocale(c, env)
		var catalog *storefront.CatalogPage
		layout, err := loadWithLayout(c, env, l, func() error {
			var err error
			catalog, err = env.Storefront.Catalog(c.Request.Context(), l, c.Request.URL.Query())
			return err
		})
		if err != nil {
			renderError(c, env, l, layout, err, logger)
			return
		}

		page := newPage(c, env, l, layout, "All products", "")
		page.Data = catalog
		renderPage(c, http.StatusOK, view.PageCatalog, page)
	}
}

// HandleCollection handles GET {prefix}/collections/:handle
func HandleCollection(env *Env, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := requestLocale(c, env)
		handle := c.Param("handle")
		var col *storefront.CollectionPage
		layout, err := loadWithLayout(c, env, l, func() error {
			var err error
			col, err = env.Storefront.Collection(c.Request.Context(), l, handle, c.Request.URL.Query())
			return err
		})
		if err != nil {
			renderError(c, env, l, layout, err, logger)
			return
		}

		page := newPage(c, env, l, layout, col.Collection.Title, col.Collection.Description)
		page.Data = col
		renderPage(c, http.StatusOK, view.PageCollection, page)
	}
}
