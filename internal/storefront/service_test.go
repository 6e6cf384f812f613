package storefront

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/kleinod-atelier/storefront/internal/content"
	"github.com/kleinod-atelier/storefront/internal/domain"
	"github.com/kleinod-atelier/storefront/internal/locale"
	"github.com/kleinod-atelier/storefront/internal/shopify"
	apperrors "github.com/kleinod-atelier/storefront/pkg/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockStorefront implements Storefront; unset funcs answer with empty data
type mockStorefront struct {
	mu sync.Mutex

	product         func(handle string, selected []domain.SelectedOption) (*domain.Product, error)
	variants        func(handle string) ([]domain.Variant, error)
	recommendations func(productID string) ([]domain.Product, error)
	metaobject      func(id string) (*domain.Metaobject, error)
	collection      func(handle string, page shopify.Page) (*domain.Collection, error)
	products        func(params shopify.ProductsParams) (*domain.ProductConnection, error)
	header          func() (*domain.Shop, *domain.Menu, error)
	cart            func(cartID string) (*domain.Cart, error)
	linesAdd        func(cartID string, lines []domain.CartLineInput) (*domain.Cart, error)

	calls []string
}

func (m *mockStorefront) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockStorefront) Product(_ context.Context, _ shopify.InContext, handle string, selected []domain.SelectedOption) (*domain.Product, error) {
	m.record("Product")
	if m.product == nil {
		return nil, nil
	}
	return m.product(handle, selected)
}

func (m *mockStorefront) ProductVariants(_ context.Context, _ shopify.InContext, handle string) ([]domain.Variant, error) {
	m.record("ProductVariants")
	if m.variants == nil {
		return nil, nil
	}
	return m.variants(handle)
}

func (m *mockStorefront) ProductRecommendations(_ context.Context, _ shopify.InContext, productID string) ([]domain.Product, error) {
	m.record("ProductRecommendations")
	if m.recommendations == nil {
		return nil, nil
	}
	return m.recommendations(productID)
}

func (m *mockStorefront) Metaobject(_ context.Context, id string) (*domain.Metaobject, error) {
	m.record("Metaobject")
	if m.metaobject == nil {
		return nil, nil
	}
	return m.metaobject(id)
}

func (m *mockStorefront) Collection(_ context.Context, _ shopify.InContext, handle string, page shopify.Page) (*domain.Collection, error) {
	m.record("Collection")
	if m.collection == nil {
		return nil, nil
	}
	return m.collection(handle, page)
}

func (m *mockStorefront) Products(_ context.Context, _ shopify.InContext, params shopify.ProductsParams) (*domain.ProductConnection, error) {
	m.record("Products")
	if m.products == nil {
		return &domain.ProductConnection{}, nil
	}
	return m.products(params)
}

func (m *mockStorefront) FeaturedCollection(context.Context, shopify.InContext) (*domain.Collection, error) {
	m.record("FeaturedCollection")
	return &domain.Collection{Handle: "saturn", Title: "Saturn"}, nil
}

func (m *mockStorefront) RecommendedProducts(context.Context, shopify.InContext) ([]domain.Product, error) {
	m.record("RecommendedProducts")
	return []domain.Product{product("moon-ring", "45.0")}, nil
}

func (m *mockStorefront) Header(context.Context, shopify.InContext, string) (*domain.Shop, *domain.Menu, error) {
	m.record("Header")
	if m.header == nil {
		return nil, nil, errors.New("header unavailable")
	}
	return m.header()
}

func (m *mockStorefront) Cart(_ context.Context, _ shopify.InContext, cartID string) (*domain.Cart, error) {
	m.record("Cart")
	if m.cart == nil {
		return nil, nil
	}
	return m.cart(cartID)
}

func (m *mockStorefront) CartCreate(_ context.Context, _ shopify.InContext, lines []domain.CartLineInput) (*domain.Cart, error) {
	m.record("CartCreate")
	return &domain.Cart{ID: "new-cart", TotalQuantity: lines[0].Quantity}, nil
}

func (m *mockStorefront) CartLinesAdd(_ context.Context, _ shopify.InContext, cartID string, lines []domain.CartLineInput) (*domain.Cart, error) {
	m.record("CartLinesAdd")
	if m.linesAdd != nil {
		return m.linesAdd(cartID, lines)
	}
	return &domain.Cart{ID: cartID, TotalQuantity: lines[0].Quantity}, nil
}

func (m *mockStorefront) CartLinesUpdate(_ context.Context, _ shopify.InContext, cartID string, _ []domain.CartLineUpdate) (*domain.Cart, error) {
	m.record("CartLinesUpdate")
	return &domain.Cart{ID: cartID}, nil
}

func (m *mockStorefront) CartLinesRemove(_ context.Context, _ shopify.InContext, cartID string, _ []string) (*domain.Cart, error) {
	m.record("CartLinesRemove")
	return &domain.Cart{ID: cartID}, nil
}

func product(handle, price string) domain.Product {
	return domain.Product{
		ID:     "gid://shopify/Product/" + handle,
		Handle: handle,
		Title:  handle,
		PriceRange: domain.PriceRange{
			MinVariantPrice: domain.NewMoney(price, "EUR"),
		},
		Variants: []domain.Variant{{
			ID:              "gid://shopify/ProductVariant/" + handle,
			SelectedOptions: []domain.SelectedOption{{Name: "Size", Value: "50"}},
		}},
	}
}

func sizedRing() *domain.Product {
	p := product("saturn-signet", "1250.0")
	p.Options = []domain.ProductOption{{Name: "Size", Values: []string{"50", "52"}}}
	p.Images = []domain.Image{
		{URL: "https://cdn.shopify.com/saturn-1.jpg"},
		{URL: "https://cdn.shopify.com/saturn-lifestyle-1.jpg"},
		{URL: "https://cdn.shopify.com/saturn-2.jpg"},
	}
	p.SelectedVariant = &p.Variants[0]
	return &p
}

func newService(api Storefront) *Service {
	return NewService(api, content.Default(), Options{StoreDomain: "kleinod.myshopify.com", DeferredTimeout: time.Second}, nil)
}

func defaultLocale() locale.Locale {
	return locale.NewResolver(content.Default().Locales).Default()
}

func germanLocale() locale.Locale {
	return locale.NewResolver(content.Default().Locales).Resolve("/de")
}

func TestProduct_MissingHandle(t *testing.T) {
	svc := newService(&mockStorefront{})

	_, err := svc.Product(context.Background(), defaultLocale(), "", nil)
	assert.True(t, apperrors.IsValidation(err))
}

func TestProduct_NotFound(t *testing.T) {
	svc := newService(&mockStorefront{})

	_, err := svc.Product(context.Background(), defaultLocale(), "missing", nil)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestProduct_CriticalFailure(t *testing.T) {
	svc := newService(&mockStorefront{
		product: func(string, []domain.SelectedOption) (*domain.Product, error) {
			return nil, errors.New("storefront down")
		},
	})

	_, err := svc.Product(context.Background(), defaultLocale(), "saturn-signet", nil)
	require.Error(t, err)
	assert.False(t, apperrors.IsNotFound(err))
}

func TestProduct_Assembles(t *testing.T) {
	var gotSelected []domain.SelectedOption
	api := &mockStorefront{
		product: func(_ string, selected []domain.SelectedOption) (*domain.Product, error) {
			gotSelected = selected
			p := sizedRing()
			p.MaterialMetafield = &domain.Metafield{Value: `["gid://shopify/Metaobject/1","gid://shopify/Metaobject/2"]`}
			return p, nil
		},
		metaobject: func(id string) (*domain.Metaobject, error) {
			labels := map[string]string{
				"gid://shopify/Metaobject/1": "18k Gold",
				"gid://shopify/Metaobject/2": "Diamond",
			}
			return &domain.Metaobject{ID: id, Fields: []domain.MetaobjectField{{Key: "label", Value: labels[id]}}}, nil
		},
		recommendations: func(string) ([]domain.Product, error) {
			return []domain.Product{product("a", "1"), product("b", "0"), product("c", "3"), product("d", "4")}, nil
		},
		variants: func(string) ([]domain.Variant, error) {
			return []domain.Variant{
				{ID: "v50", AvailableForSale: true, SelectedOptions: []domain.SelectedOption{{Name: "Size", Value: "50"}}},
				{ID: "v52", AvailableForSale: false, SelectedOptions: []domain.SelectedOption{{Name: "Size", Value: "52"}}},
			}, nil
		},
	}
	svc := newService(api)

	page, err := svc.Product(context.Background(), germanLocale(), "saturn-signet", url.Values{"Size": {"50"}})
	require.NoError(t, err)
	require.Empty(t, page.RedirectURL)

	assert.Equal(t, []domain.SelectedOption{{Name: "Size", Value: "50"}}, gotSelected)
	assert.Equal(t, []string{"18k Gold", "Diamond"}, page.Materials)
	require.Len(t, page.Recommendations, 3)
	assert.Equal(t, "Inquiry", page.Recommendations[1].Price)
	assert.Equal(t, "/de/products/a?Size=50", page.Recommendations[0].URL)
	assert.Len(t, page.MainImages, 2)
	assert.Len(t, page.ShowcaseImages, 1)
	assert.True(t, page.ShowSizeGuide)

	variants := page.Variants.Await(time.Second)
	groups := page.OptionGroups(variants)
	want := []OptionGroup{{
		Name: "Size",
		Values: []OptionValue{
			{Value: "50", Selected: true, Available: true, URL: "/de/products/saturn-signet?Size=50"},
			{Value: "52", Selected: false, Available: false, URL: "/de/products/saturn-signet?Size=52"},
		},
	}}
	if diff := cmp.Diff(want, groups); diff != "" {
		t.Errorf("OptionGroups mismatch (-want +got):\n%s", diff)
	}
}

func TestProduct_OptionalDataDegrades(t *testing.T) {
	testCases := []struct {
		name       string
		metafield  string
		metaobject func(string) (*domain.Metaobject, error)
	}{
		{"unparsable metafield", "not-json", nil},
		{"metafield is an object", `{"id":"x"}`, nil},
		{"metaobject lookup fails", `["gid://shopify/Metaobject/1"]`, func(string) (*domain.Metaobject, error) {
			return nil, errors.New("throttled")
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api := &mockStorefront{
				product: func(string, []domain.SelectedOption) (*domain.Product, error) {
					p := sizedRing()
					p.MaterialMetafield = &domain.Metafield{Value: tc.metafield}
					return p, nil
				},
				metaobject: tc.metaobject,
				recommendations: func(string) ([]domain.Product, error) {
					return nil, errors.New("recommendations unavailable")
				},
				variants: func(string) ([]domain.Variant, error) {
					return nil, errors.New("variants unavailable")
				},
			}
			svc := newService(api)

			page, err := svc.Product(context.Background(), defaultLocale(), "saturn-signet", nil)
			require.NoError(t, err)
			assert.Empty(t, page.Materials)
			assert.Empty(t, page.Recommendations)

			variants := page.Variants.Await(time.Second)
			assert.Nil(t, variants)
			for _, g := range page.OptionGroups(variants) {
				for _, v := range g.Values {
					assert.True(t, v.Available)
				}
			}
		})
	}
}

func TestProduct_DefaultVariantIsSelected(t *testing.T) {
	api := &mockStorefront{
		product: func(string, []domain.SelectedOption) (*domain.Product, error) {
			p := product("bowl", "80.0")
			p.Variants[0].SelectedOptions = []domain.SelectedOption{{Name: "Title", Value: "Default Title"}}
			p.Options = []domain.ProductOption{{Name: "Title", Values: []string{"Default Title"}}}
			return &p, nil
		},
	}
	svc := newService(api)

	page, err := svc.Product(context.Background(), defaultLocale(), "bowl", nil)
	require.NoError(t, err)
	assert.Empty(t, page.RedirectURL)
	require.NotNil(t, page.SelectedVariant)
	assert.Equal(t, "gid://shopify/ProductVariant/bowl", page.SelectedVariant.ID)
	assert.Empty(t, page.OptionGroups(nil))
	page.Variants.Cancel()
}

func TestProduct_RedirectsToFirstVariant(t *testing.T) {
	api := &mockStorefront{
		product: func(string, []domain.SelectedOption) (*domain.Product, error) {
			p := sizedRing()
			p.SelectedVariant = nil
			return p, nil
		},
	}
	svc := newService(api)

	page, err := svc.Product(context.Background(), germanLocale(), "saturn-signet", url.Values{"utm_source": {"mail"}})
	require.NoError(t, err)
	assert.Equal(t, "/de/products/saturn-signet?Size=50&utm_source=mail", page.RedirectURL)
}

func TestCatalog(t *testing.T) {
	var got shopify.ProductsParams
	api := &mockStorefront{
		products: func(params shopify.ProductsParams) (*domain.ProductConnection, error) {
			got = params
			return &domain.ProductConnection{
				Nodes:    []domain.Product{product("moon-ring", "0")},
				PageInfo: domain.PageInfo{HasNextPage: true, EndCursor: "c1"},
			}, nil
		},
	}
	svc := newService(api)

	page, err := svc.Catalog(context.Background(), germanLocale(), url.Values{
		"category": {"rings"},
		"material": {"diamonds"},
		"sort_by":  {"TITLE"},
		"cursor":   {"c0"},
	})
	require.NoError(t, err)

	assert.Equal(t, `tag:"diamonds" AND product_type:"Rings"`, got.Query)
	assert.Equal(t, "TITLE", got.SortKey)
	assert.False(t, got.Reverse)
	assert.Equal(t, shopify.Page{First: 8, EndCursor: "c0"}, got.Page)

	assert.Equal(t, "/de/collections/all", page.BasePath)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Inquiry", page.Items[0].Price)
	assert.Equal(t, "/de/collections/all?category=rings&cursor=c1&direction=next&material=diamonds&sort_by=TITLE", page.Pagination.NextURL)
	assert.False(t, page.Pagination.HasPrevious)
}

func TestCollection(t *testing.T) {
	api := &mockStorefront{
		collection: func(handle string, page shopify.Page) (*domain.Collection, error) {
			if handle != "saturn" {
				return nil, nil
			}
			assert.Equal(t, 250, page.First)
			p := product("saturn-signet", "1250.0")
			p.GalleryMetafield = &domain.Metafield{Value: `["https://cdn.shopify.com/lifestyle-1.jpg"]`}
			broken := product("saturn-hoops", "300.0")
			broken.GalleryMetafield = &domain.Metafield{Value: `{`}
			return &domain.Collection{Handle: handle, Products: domain.ProductConnection{Nodes: []domain.Product{p, broken}}}, nil
		},
	}
	svc := newService(api)

	page, err := svc.Collection(context.Background(), defaultLocale(), "saturn", url.Values{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, []string{"https://cdn.shopify.com/lifestyle-1.jpg"}, page.Items[0].GalleryImages)
	assert.Nil(t, page.Items[1].GalleryImages)
	assert.Equal(t, "€1,250.00", page.Items[0].Price)

	_, err = svc.Collection(context.Background(), defaultLocale(), "unknown", url.Values{})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestHome(t *testing.T) {
	svc := newService(&mockStorefront{})

	page, err := svc.Home(context.Background(), defaultLocale())
	require.NoError(t, err)
	assert.Equal(t, "saturn", page.Featured.Handle)
	assert.NotEmpty(t, page.Banners)

	recommended := page.Recommended.Await(time.Second)
	require.Len(t, recommended, 1)
	assert.Equal(t, "moon-ring", recommended[0].Product.Handle)
}

func TestLayout_MenuURLs(t *testing.T) {
	api := &mockStorefront{
		header: func() (*domain.Shop, *domain.Menu, error) {
			return &domain.Shop{Name: "Atelier Kleinod", PrimaryDomainURL: "https://kleinod-atelier.com"},
				&domain.Menu{Items: []domain.MenuItem{
					{Title: "Shop", URL: "https://kleinod.myshopify.com/collections/all"},
					{Title: "About", URL: "https://kleinod-atelier.com/about", Items: []domain.MenuItem{
						{Title: "Care", URL: "https://shop.example.myshopify.com/jewelry-care"},
					}},
					{Title: "Instagram", URL: "https://instagram.com/atelierkleinod"},
				}}, nil
		},
		cart: func(string) (*domain.Cart, error) {
			return &domain.Cart{TotalQuantity: 3}, nil
		},
	}
	svc := newService(api)

	layout := svc.Layout(context.Background(), germanLocale(), "gid://shopify/Cart/1")
	want := []NavItem{
		{Title: "Shop", URL: "/de/collections/all", Items: []NavItem{}},
		{Title: "About", URL: "/de/about", Items: []NavItem{{Title: "Care", URL: "/de/jewelry-care", Items: []NavItem{}}}},
		{Title: "Instagram", URL: "https://instagram.com/atelierkleinod", Items: []NavItem{}},
	}
	if diff := cmp.Diff(want, layout.Menu); diff != "" {
		t.Errorf("menu mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, layout.CartCount.Await(time.Second))
}

func TestLayout_FallbackMenu(t *testing.T) {
	svc := newService(&mockStorefront{})

	layout := svc.Layout(context.Background(), defaultLocale(), "")
	require.NotEmpty(t, layout.Menu)
	assert.Equal(t, "/collections/all", layout.Menu[0].URL)
	assert.Equal(t, "Atelier Kleinod", layout.ShopName)
	assert.Equal(t, 0, layout.CartCount.Await(time.Second))
}

func TestUpdateCart(t *testing.T) {
	api := &mockStorefront{}
	svc := newService(api)
	ctx := context.Background()
	l := defaultLocale()

	cart, err := svc.UpdateCart(ctx, l, "", CartRequest{
		Action: CartLinesAdd,
		Lines:  []domain.CartLineInput{{MerchandiseID: "gid://shopify/ProductVariant/1", Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, "new-cart", cart.ID)

	cart, err = svc.UpdateCart(ctx, l, "existing", CartRequest{
		Action: CartLinesAdd,
		Lines:  []domain.CartLineInput{{MerchandiseID: "gid://shopify/ProductVariant/1", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "existing", cart.ID)
	assert.Equal(t, []string{"CartCreate", "CartLinesAdd"}, api.calls)

	invalid := []CartRequest{
		{Action: CartLinesAdd},
		{Action: CartLinesAdd, Lines: []domain.CartLineInput{{MerchandiseID: "x", Quantity: 0}}},
		{Action: CartLinesUpdate, Updates: []domain.CartLineUpdate{{ID: "l", Quantity: 1}}},
		{Action: CartLinesRemove, LineIDs: []string{"l"}},
		{Action: "Discount"},
	}
	for _, req := range invalid {
		_, err := svc.UpdateCart(ctx, l, "", req)
		assert.True(t, apperrors.IsValidation(err), "action %s", req.Action)
	}
}

func TestUpdateCart_ExpiredCartStartsNewOne(t *testing.T) {
	api := &mockStorefront{
		linesAdd: func(cartID string, _ []domain.CartLineInput) (*domain.Cart, error) {
			return nil, &apperrors.ErrNotFound{Resource: "cart", ID: cartID}
		},
	}
	svc := newService(api)

	cart, err := svc.UpdateCart(context.Background(), defaultLocale(), "gid://shopify/Cart/expired", CartRequest{
		Action: CartLinesAdd,
		Lines:  []domain.CartLineInput{{MerchandiseID: "gid://shopify/ProductVariant/1", Quantity: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, "new-cart", cart.ID)
	assert.Equal(t, 3, cart.TotalQuantity)
	assert.Equal(t, []string{"CartLinesAdd", "CartCreate"}, api.calls)
}

func TestUpdateCart_OtherAddErrorsAreReturned(t *testing.T) {
	api := &mockStorefront{
		linesAdd: func(string, []domain.CartLineInput) (*domain.Cart, error) {
			return nil, &apperrors.ErrValidation{Message: "Quantity exceeds stock"}
		},
	}
	svc := newService(api)

	_, err := svc.UpdateCart(context.Background(), defaultLocale(), "gid://shopify/Cart/1", CartRequest{
		Action: CartLinesAdd,
		Lines:  []domain.CartLineInput{{MerchandiseID: "gid://shopify/ProductVariant/1", Quantity: 99}},
	})
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, []string{"CartLinesAdd"}, api.calls)
}
