package storefront

import (
	"context"

	"go.uber.org/zap"

	"github.com/kleinod-atelier/storefront/internal/domain"
	"github.com/kleinod-atelier/storefront/internal/locale"
	apperrors "github.com/kleinod-atelier/storefront/pkg/errors"
)

// CartAction names a cart form submission
type CartAction string

const (
	CartLinesAdd    CartAction = "LinesAdd"
	CartLinesUpdate CartAction = "LinesUpdate"
	CartLinesRemove CartAction = "LinesRemove"
)

// CartRequest is a decoded cart form
type CartRequest struct {
	Action  CartAction
	Lines   []domain.CartLineInput
	Updates []domain.CartLineUpdate
	LineIDs []string
}

// Cart returns the cart for cartID, or nil when there is none
func (s *Service) Cart(ctx context.Context, l locale.Locale, cartID string) (*domain.Cart, error) {
	if cartID == "" {
		return nil, nil
	}
	return s.api.Cart(ctx, inContext(l), cartID)
}

// UpdateCart applies req to the cart. A missing or expired cart is created
// on LinesAdd; updating or removing lines of an expired cart is ErrNotFound.
// The returned cart's id must be stored for the next request.
func (s *Service) UpdateCart(ctx context.Context, l locale.Locale, cartID string, req CartRequest) (*domain.Cart, error) {
	ic := inContext(l)
	switch req.Action {
	case CartLinesAdd:
		if len(req.Lines) == 0 {
			return nil, &apperrors.ErrValidation{Message: "No merchandise to add"}
		}
		for _, line := range req.Lines {
			if line.MerchandiseID == "" || line.Quantity < 1 {
				return nil, &apperrors.ErrValidation{Message: "Invalid cart line"}
			}
		}
		if cartID == "" {
			return s.api.CartCreate(ctx, ic, req.Lines)
		}
		cart, err := s.api.CartLinesAdd(ctx, ic, cartID, req.Lines)
		if apperrors.IsNotFound(err) {
			s.logger.Info("Cart expired, starting a new one", zap.String("cart_id", cartID))
			return s.api.CartCreate(ctx, ic, req.Lines)
		}
		return cart, err
	case CartLinesUpdate:
		if cartID == "" {
			return nil, &apperrors.ErrValidation{Message: "No cart to update"}
		}
		if len(req.Updates) == 0 {
			return nil, &apperrors.ErrValidation{Message: "No cart lines to update"}
		}
		return s.api.CartLinesUpdate(ctx, ic, cartID, req.Updates)
	case CartLinesRemove:
		if cartID == "" {
			return nil, &apperrors.ErrValidation{Message: "No cart to update"}
		}
		if len(req.LineIDs) == 0 {
			return nil, &apperrors.ErrValidation{Message: "No cart lines to remove"}
		}
		return s.api.CartLinesRemove(ctx, ic, cartID, req.LineIDs)
	}
	return nil, &apperrors.ErrValidation{Message: "Unsupported cart action " + string(req.Action)}
}
