package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kleinod-atelier/storefront/internal/view"
	apperrors "github.com/kleinod-atelier/storefront/pkg/errors"
)

// HandleStaticPage serves one of the Markdown story pages
func HandleStaticPage(env *Env, slug string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := requestLocale(c, env)
		layout := env.Storefront.Layout(c.Request.Context(), l, cartID(c))

		sp, ok := env.Pages[slug]
		if !ok {
			renderError(c, env, l, layout, &apperrors.ErrNotFound{Resource: "page", ID: slug}, logger)
			return
		}
		page := newPage(c, env, l, layout, sp.Title, sp.Description)
		page.Data = sp
		renderPage(c, http.StatusOK, view.PageStatic, page)
	}
}
