package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kleinod-atelier/storefront/internal/domain"
	"github.com/kleinod-atelier/storefront/internal/storefront"
	"github.com/kleinod-atelier/storefront/internal/view"
	apperrors "github.com/kleinod-atelier/storefront/pkg/errors"
)

const cartCookieMaxAge = int(14 * 24 * time.Hour / time.Second)

// Cart form fields
const (
	FieldCartAction    = "cartAction"
	FieldMerchandiseID = "merchandiseId"
	FieldQuantity      = "quantity"
	FieldLineID        = "lineId"
)

// cartForm is a cart form post. Line fields may repeat; merchandiseId or
// lineId pairs with quantity by position.
type cartForm struct {
	Action         string   `form:"cartAction" json:"cartAction" binding:"required,oneof=LinesAdd LinesUpdate LinesRemove"`
	MerchandiseIDs []string `form:"merchandiseId" json:"merchandiseId" binding:"dive,required"`
	LineIDs        []string `form:"lineId" json:"lineId" binding:"dive,required"`
	Quantities     []string `form:"quantity" json:"quantity" binding:"dive,omitempty,number"`
}

// quantity returns the i-th quantity, or fallback when the form has none
func (f *cartForm) quantity(i, fallback int) int {
	if i >= len(f.Quantities) || f.Quantities[i] == "" {
		return fallback
	}
	n, err := strconv.Atoi(f.Quantities[i])
	if err != nil {
		return fallback
	}
	return n
}

// ParseCartForm binds and validates a cart form post
func ParseCartForm(c *gin.Context) (storefront.CartRequest, error) {
	var form cartForm
	if err := c.ShouldBind(&form); err != nil {
		return storefront.CartRequest{Action: storefront.CartAction(c.PostForm(FieldCartAction))}, bindingError("Invalid cart form", err)
	}

	req := storefront.CartRequest{Action: storefront.CartAction(form.Action)}
	switch req.Action {
	case storefront.CartLinesAdd:
		for i, id := range form.MerchandiseIDs {
			req.Lines = append(req.Lines, domain.CartLineInput{MerchandiseID: id, Quantity: form.quantity(i, 1)})
		}
	case storefront.CartLinesUpdate:
		for i, id := range form.LineIDs {
			req.Updates = append(req.Updates, domain.CartLineUpdate{ID: id, Quantity: form.quantity(i, 1)})
		}
	case storefront.CartLinesRemove:
		req.LineIDs = form.LineIDs
	}
	return req, nil
}

// HandleGetCart handles GET {prefix}/cart
func HandleGetCart(env *Env, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := requestLocale(c, env)
		var cart *domain.Cart
		layout, err := loadWithLayout(c, env, l, func() error {
			var err error
			cart, err = env.Storefront.Cart(c.Request.Context(), l, cartID(c))
			return err
		})
		if err != nil {
			renderError(c, env, l, layout, err, logger)
			return
		}

		page := newPage(c, env, l, layout, "Cart", "")
		page.Data = cart
		renderPage(c, http.StatusOK, view.PageCart, page)
	}
}

// HandleCartUpdate handles POST {prefix}/cart. Browsers are redirected back to
// the cart; JSON clients get the cart or the platform's user errors.
func HandleCartUpdate(env *Env, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := requestLocale(c, env)
		wantsJSON := c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON

		req, err := ParseCartForm(c)
		var cart *domain.Cart
		if err == nil {
			cart, err = env.Storefront.UpdateCart(c.Request.Context(), l, cartID(c), req)
		}
		if err != nil {
			if apperrors.IsNotFound(err) {
				// the platform no longer knows the cart in the cookie
				logger.Info("Cart expired", zap.String("action", string(req.Action)))
				clearCartCookie(c, env)
				if wantsJSON {
					c.JSON(http.StatusNotFound, gin.H{"errors": err.Error()})
					return
				}
				c.Redirect(http.StatusSeeOther, l.Link("/cart"))
				return
			}
			if apperrors.IsValidation(err) {
				logger.Info("Cart update rejected", zap.String("action", string(req.Action)), zap.Error(err))
				c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
				return
			}
			logger.Error("Failed to update cart", zap.String("action", string(req.Action)), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(CartCookie, cart.ID, cartCookieMaxAge, "/", "", env.Config.IsProduction(), true)

		if wantsJSON {
			c.JSON(http.StatusOK, gin.H{"cart": cart})
			return
		}
		c.Redirect(http.StatusSeeOther, l.Link("/cart"))
	}
}

func clearCartCookie(c *gin.Context, env *Env) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CartCookie, "", -1, "/", "", env.Config.IsProduction(), true)
}

// HandleCheckout handles GET {prefix}/cart/checkout by handing off to the
// platform's hosted checkout
func HandleCheckout(env *Env, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := requestLocale(c, env)
		cart, err := env.Storefront.Cart(c.Request.Context(), l, cartID(c))
		if err != nil {
			logger.Error("Failed to load cart for checkout", zap.Error(err))
			c.Redirect(http.StatusSeeOther, l.Link("/cart"))
			return
		}
		if cart == nil || cart.CheckoutURL == "" || cart.TotalQuantity == 0 {
			c.Redirect(http.StatusSeeOther, l.Link("/cart"))
			return
		}
		c.Redirect(http.StatusSeeOther, cart.CheckoutURL)
	}
}
