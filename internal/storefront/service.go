// Package storefront assembles page view models from Storefront API data.
// Critical data decides the response status; optional data degrades to
// empty values and is only logged.
package storefront

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kleinod-atelier/storefront/internal/content"
	"github.com/kleinod-atelier/storefront/internal/domain"
	"github.com/kleinod-atelier/storefront/internal/filter"
	"github.com/kleinod-atelier/storefront/internal/locale"
	"github.com/kleinod-atelier/storefront/internal/shopify"
)

// Storefront is the subset of the Storefront API the pages need; *shopify.Client implements it
type Storefront interface {
	Product(ctx context.Context, ic shopify.InContext, handle string, selected []domain.SelectedOption) (*domain.Product, error)
	ProductVariants(ctx context.Context, ic shopify.InContext, handle string) ([]domain.Variant, error)
	ProductRecommendations(ctx context.Context, ic shopify.InContext, productID string) ([]domain.Product, error)
	Metaobject(ctx context.Context, id string) (*domain.Metaobject, error)
	Collection(ctx context.Context, ic shopify.InContext, handle string, page shopify.Page) (*domain.Collection, error)
	Products(ctx context.Context, ic shopify.InContext, params shopify.ProductsParams) (*domain.ProductConnection, error)
	FeaturedCollection(ctx context.Context, ic shopify.InContext) (*domain.Collection, error)
	RecommendedProducts(ctx context.Context, ic shopify.InContext) ([]domain.Product, error)
	Header(ctx context.Context, ic shopify.InContext, menuHandle string) (*domain.Shop, *domain.Menu, error)
	Cart(ctx context.Context, ic shopify.InContext, cartID string) (*domain.Cart, error)
	CartCreate(ctx context.Context, ic shopify.InContext, lines []domain.CartLineInput) (*domain.Cart, error)
	CartLinesAdd(ctx context.Context, ic shopify.InContext, cartID string, lines []domain.CartLineInput) (*domain.Cart, error)
	CartLinesUpdate(ctx context.Context, ic shopify.InContext, cartID string, lines []domain.CartLineUpdate) (*domain.Cart, error)
	CartLinesRemove(ctx context.Context, ic shopify.InContext, cartID string, lineIDs []string) (*domain.Cart, error)
}

// Options configures the page assembly
type Options struct {
	StoreDomain     string
	DeferredTimeout time.Duration
}

type Service struct {
	api     Storefront
	catalog *content.Catalog
	filters *filter.Parser
	opts    Options
	logger  *zap.Logger
}

func NewService(api Storefront, catalog *content.Catalog, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		api:     api,
		catalog: catalog,
		filters: filter.NewParser(catalog),
		opts:    opts,
		logger:  logger,
	}
}

// Content returns the static content the service was built with
func (s *Service) Content() *content.Catalog {
	return s.catalog
}

// DeferredTimeout bounds how long a render waits for deferred data
func (s *Service) DeferredTimeout() time.Duration {
	return s.opts.DeferredTimeout
}

func inContext(l locale.Locale) shopify.InContext {
	return shopify.InContext{Country: l.Country, Language: l.Language}
}

// SelectedOptions turns every search parameter into an option/value pair,
// ordered by name so the query is stable
func SelectedOptions(values url.Values) []domain.SelectedOption {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]domain.SelectedOption, 0, len(names))
	for _, name := range names {
		if v := values.Get(name); v != "" {
			out = append(out, domain.SelectedOption{Name: name, Value: v})
		}
	}
	return out
}

// VariantURL links to a product with a variant's options as search
// parameters, keeping any other parameters in keep
func VariantURL(l locale.Locale, handle string, options []domain.SelectedOption, keep url.Values) string {
	q := url.Values{}
	for k, vs := range keep {
		q[k] = append([]string(nil), vs...)
	}
	for _, o := range options {
		q.Set(o.Name, o.Value)
	}
	path := l.Link("/products/" + handle)
	if enc := q.Encode(); enc != "" {
		return path + "?" + enc
	}
	return path
}

// ProductCard is a product tile in a grid
type ProductCard struct {
	Product       domain.Product
	URL           string
	Price         string
	Image         *domain.Image
	GalleryImages []string
}

func (s *Service) card(l locale.Locale, p domain.Product) ProductCard {
	c := ProductCard{
		Product:       p,
		Image:         p.FeaturedImage,
		GalleryImages: s.galleryImages(p),
	}
	if v := p.FirstVariant(); v != nil && !v.IsDefault() {
		c.URL = VariantURL(l, p.Handle, v.SelectedOptions, nil)
	} else {
		c.URL = l.Link("/products/" + p.Handle)
	}
	if c.Image == nil && len(p.Images) > 0 {
		c.Image = &p.Images[0]
	}
	if p.IsInquiry() {
		c.Price = "Inquiry"
	} else {
		c.Price = p.PriceRange.MinVariantPrice.String()
	}
	return c
}

func (s *Service) cards(l locale.Locale, products []domain.Product) []ProductCard {
	out := make([]ProductCard, 0, len(products))
	for _, p := range products {
		out = append(out, s.card(l, p))
	}
	return out
}

func isShowcase(img domain.Image) bool {
	return strings.Contains(img.URL, "lifestyle")
}
