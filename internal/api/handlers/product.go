package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kleinod-atelier/storefront/internal/storefront"
	"github.com/kleinod-atelier/storefront/internal/view"
)

// HandleProduct handles GET {prefix}/products/:handle. A request without a
// resolvable variant is redirected to the first variant's URL.
func HandleProduct(env *Env, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := requestLocale(c, env)
		handle := c.Param("handle")
		var product *storefront.ProductPage
		layout, err := loadWithLayout(c, env, l, func() error {
			var err error
			product, err = env.Storefront.Product(c.Request.Context(), l, handle, c.Request.URL.Query())
			return err
		})
		if err != nil {
			renderError(c, env, l, layout, err, logger)
			return
		}
		if product.RedirectURL != "" {
			if layout != nil {
				layout.CartCount.Cancel()
			}
			c.Redirect(http.StatusFound, product.RedirectURL)
			return
		}

		title := product.Product.SEO.Title
		if title == "" {
			title = product.Product.Title
		}
		description := product.Product.SEO.Description
		if description == "" {
			description = product.Product.Description
		}

		page := newPage(c, env, l, layout, title, description)
		page.Data = product
		streamPage(c, env, view.PageProduct, page, func() interface{} {
			return product.OptionGroups(product.Variants.Await(env.Storefront.DeferredTimeout()))
		}, logger)
	}
}
