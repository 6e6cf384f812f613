package storefront

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/kleinod-atelier/storefront/internal/content"
	"github.com/kleinod-atelier/storefront/internal/deferred"
	"github.com/kleinod-atelier/storefront/internal/domain"
	"github.com/kleinod-atelier/storefront/internal/filter"
	"github.com/kleinod-atelier/storefront/internal/locale"
	"github.com/kleinod-atelier/storefront/internal/shopify"
	apperrors "github.com/kleinod-atelier/storefront/pkg/errors"
)

const (
	collectionPageSize = 250
	catalogPageSize    = 8
)

// HomePage is the landing page view model
type HomePage struct {
	Featured    *domain.Collection
	Banners     []content.Banner
	Landing     content.Landing
	Recommended *deferred.Value[[]ProductCard]
}

// Home loads the featured collection and starts the recommended products
func (s *Service) Home(ctx context.Context, l locale.Locale) (*HomePage, error) {
	ic := inContext(l)
	recommended := deferred.Go(ctx, s.logger, "recommended products", func(ctx context.Context) ([]ProductCard, error) {
		products, err := s.api.RecommendedProducts(ctx, ic)
		if err != nil {
			return nil, err
		}
		return s.cards(l, products), nil
	})

	featured, err := s.api.FeaturedCollection(ctx, ic)
	if err != nil {
		recommended.Cancel()
		return nil, err
	}

	return &HomePage{
		Featured:    featured,
		Banners:     s.catalog.Banners,
		Landing:     s.catalog.Landing,
		Recommended: recommended,
	}, nil
}

// Pagination holds the links of a paginated grid
type Pagination struct {
	HasNext     bool
	HasPrevious bool
	NextURL     string
	PreviousURL string
}

func pagination(basePath string, keep url.Values, info domain.PageInfo) Pagination {
	p := Pagination{HasNext: info.HasNextPage, HasPrevious: info.HasPreviousPage}
	if p.HasNext {
		p.NextURL = shopify.NextURL(basePath, keep, info)
	}
	if p.HasPrevious {
		p.PreviousURL = shopify.PreviousURL(basePath, keep, info)
	}
	return p
}

// withoutCursor drops the pagination parameters so links don't stack them
func withoutCursor(values url.Values) url.Values {
	out := url.Values{}
	for k, vs := range values {
		if k == shopify.ParamCursor || k == shopify.ParamDirection {
			continue
		}
		out[k] = vs
	}
	return out
}

// CollectionPage is a single collection's grid
type CollectionPage struct {
	Collection domain.Collection
	Items      []ProductCard
	Pagination Pagination
}

// Collection loads a collection by handle, 250 products per page
func (s *Service) Collection(ctx context.Context, l locale.Locale, handle string, query url.Values) (*CollectionPage, error) {
	if handle == "" {
		return nil, &apperrors.ErrValidation{Message: "Expected collection handle to be defined"}
	}
	page := shopify.PaginationFromQuery(query, collectionPageSize)
	col, err := s.api.Collection(ctx, inContext(l), handle, page)
	if err != nil {
		return nil, err
	}
	if col == nil {
		return nil, &apperrors.ErrNotFound{Resource: "collection", ID: handle}
	}
	return &CollectionPage{
		Collection: *col,
		Items:      s.cards(l, col.Products.Nodes),
		Pagination: pagination(l.Link("/collections/"+handle), withoutCursor(query), col.Products.PageInfo),
	}, nil
}

// CatalogPage is the filterable all-products grid
type CatalogPage struct {
	State      filter.State
	Menus      []filter.Menu
	Items      []ProductCard
	Pagination Pagination
	BasePath   string
}

// Catalog loads /collections/all with the filter state read from query, 8 products per page
func (s *Service) Catalog(ctx context.Context, l locale.Locale, query url.Values) (*CatalogPage, error) {
	state := s.filters.Parse(query)
	key, reverse := state.SortKey()
	base := l.Link("/collections/all")

	conn, err := s.api.Products(ctx, inContext(l), shopify.ProductsParams{
		Query:   s.filters.Query(state),
		SortKey: key,
		Reverse: reverse,
		Page:    shopify.PaginationFromQuery(query, catalogPageSize),
	})
	if err != nil {
		return nil, err
	}

	return &CatalogPage{
		State:      state,
		Menus:      s.filters.Menus(state, base),
		Items:      s.cards(l, conn.Nodes),
		Pagination: pagination(base, state.Values(), conn.PageInfo),
		BasePath:   base,
	}, nil
}

// galleryImages decodes the product's gallery metafield, a JSON array of image URLs
func (s *Service) galleryImages(p domain.Product) []string {
	if p.GalleryMetafield == nil || p.GalleryMetafield.Value == "" {
		return nil
	}
	var urls []string
	if err := json.Unmarshal([]byte(p.GalleryMetafield.Value), &urls); err != nil {
		return nil
	}
	return urls
}
