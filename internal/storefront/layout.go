package storefront

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/kleinod-atelier/storefront/internal/content"
	"github.com/kleinod-atelier/storefront/internal/deferred"
	"github.com/kleinod-atelier/storefront/internal/domain"
	"github.com/kleinod-atelier/storefront/internal/locale"
)

const headerMenuHandle = "main-menu"

var fallbackMenu = domain.Menu{
	ID: "fallback",
	Items: []domain.MenuItem{
		{ID: "fallback-shop", Title: "Shop", Type: "HTTP", URL: "/collections/all"},
		{ID: "fallback-about", Title: "About", Type: "HTTP", URL: "/about"},
		{ID: "fallback-commission", Title: "Commission", Type: "HTTP", URL: "/commission"},
	},
}

// NavItem is a header link with a locale-prefixed URL
type NavItem struct {
	Title string
	URL   string
	Items []NavItem
}

// Layout is the data shared by every page's header and footer
type Layout struct {
	ShopName   string
	Menu       []NavItem
	Categories []content.Category
	Materials  []content.Material
	CartCount  *deferred.Value[int]
}

// Layout loads the header menu and starts the cart badge count. Failures
// degrade to the fallback menu and a zero count.
func (s *Service) Layout(ctx context.Context, l locale.Locale, cartID string) *Layout {
	ic := inContext(l)
	count := deferred.Resolved(0)
	if cartID != "" {
		count = deferred.Go(ctx, s.logger, "cart count", func(ctx context.Context) (int, error) {
			cart, err := s.api.Cart(ctx, ic, cartID)
			if err != nil || cart == nil {
				return 0, err
			}
			return cart.TotalQuantity, nil
		})
	}

	out := &Layout{
		ShopName:   "Atelier Kleinod",
		Categories: s.catalog.Categories,
		Materials:  s.catalog.Materials,
		CartCount:  count,
	}

	shop, menu, err := s.api.Header(ctx, ic, headerMenuHandle)
	if err != nil {
		s.logger.Warn("Failed to fetch header menu", zap.Error(err))
	}
	primaryDomain := ""
	if shop != nil {
		if shop.Name != "" {
			out.ShopName = shop.Name
		}
		primaryDomain = shop.PrimaryDomainURL
	}
	if menu == nil || len(menu.Items) == 0 {
		menu = &fallbackMenu
	}
	out.Menu = s.navItems(l, menu.Items, primaryDomain)
	return out
}

func (s *Service) navItems(l locale.Locale, items []domain.MenuItem, primaryDomain string) []NavItem {
	out := make([]NavItem, 0, len(items))
	for _, item := range items {
		if item.URL == "" {
			continue
		}
		out = append(out, NavItem{
			Title: item.Title,
			URL:   s.MenuURL(l, item.URL, primaryDomain),
			Items: s.navItems(l, item.Items, primaryDomain),
		})
	}
	return out
}

// MenuURL reduces links to the shop's own domains to a locale-prefixed path;
// other absolute URLs are kept as they are
func (s *Service) MenuURL(l locale.Locale, raw, primaryDomain string) string {
	internal := strings.Contains(raw, "myshopify.com") ||
		(s.opts.StoreDomain != "" && strings.Contains(raw, s.opts.StoreDomain)) ||
		(primaryDomain != "" && strings.Contains(raw, primaryDomain))
	if internal {
		u, err := url.Parse(raw)
		if err != nil {
			return raw
		}
		return l.Link(u.Path)
	}
	if strings.HasPrefix(raw, "/") {
		return l.Link(raw)
	}
	return raw
}
