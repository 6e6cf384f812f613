package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kleinod-atelier/storefront/internal/analytics"
	"github.com/kleinod-atelier/storefront/internal/api/handlers"
	"github.com/kleinod-atelier/storefront/internal/config"
	"github.com/kleinod-atelier/storefront/internal/content"
	"github.com/kleinod-atelier/storefront/internal/feed"
	"github.com/kleinod-atelier/storefront/internal/locale"
	"github.com/kleinod-atelier/storefront/internal/newsletter"
	"github.com/kleinod-atelier/storefront/internal/shopify"
	"github.com/kleinod-atelier/storefront/internal/storefront"
	"github.com/kleinod-atelier/storefront/internal/view"
)

var operationName = regexp.MustCompile(`(?:query|mutation)\s+(\w+)`)

type gqlCall struct {
	Operation string
	Variables map[string]interface{}
}

// fakeStorefrontAPI answers GraphQL operations by name with canned data
// objects; unknown operations get an empty data object
type fakeStorefrontAPI struct {
	mu    sync.Mutex
	data  map[string]string
	calls []gqlCall
}

func (f *fakeStorefrontAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query     string                 `json:"query"`
		Variables map[string]interface{} `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	op := ""
	if m := operationName.FindStringSubmatch(req.Query); m != nil {
		op = m[1]
	}

	f.mu.Lock()
	f.calls = append(f.calls, gqlCall{Operation: op, Variables: req.Variables})
	body, ok := f.data[op]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case !ok:
		_, _ = w.Write([]byte(`{"data":{}}`))
	case strings.HasPrefix(body, `{"errors"`):
		_, _ = w.Write([]byte(body))
	default:
		_, _ = w.Write([]byte(`{"data":` + body + `}`))
	}
}

func (f *fakeStorefrontAPI) call(op string) (gqlCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c.Operation == op {
			return c, true
		}
	}
	return gqlCall{}, false
}

type stubSubscriber struct{ err error }

func (s stubSubscriber) Subscribe(context.Context, string, string) error { return s.err }

func newTestRouter(t *testing.T, data map[string]string) (*gin.Engine, *fakeStorefrontAPI) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fake := &fakeStorefrontAPI{data: data}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Environment: "test",
		BaseURL:     "https://kleinod-atelier.com",
		Storefront: config.StorefrontConfig{
			StoreDomain:    "kleinod.myshopify.com",
			CheckoutDomain: "checkout.kleinod-atelier.com",
		},
	}
	catalog := content.Default()
	client := shopify.NewClientWithEndpoint(srv.URL, "token", nil)

	renderer, err := view.New(nil)
	require.NoError(t, err)
	pages, err := view.LoadStaticPages()
	require.NoError(t, err)

	env := &handlers.Env{
		Config:     cfg,
		Storefront: storefront.NewService(client, catalog, storefront.Options{StoreDomain: cfg.Storefront.StoreDomain, DeferredTimeout: time.Second}, nil),
		Renderer:   renderer,
		Locales:    locale.NewResolver(catalog.Locales),
		Newsletter: newsletter.NewServiceWithSubscriber(stubSubscriber{}, "LIST1", nil, nil),
		Relay:      analytics.NewRelay("", nil, nil),
		Feed:       feed.NewGenerator(client, cfg.BaseURL, time.Minute, nil),
		Pages:      pages,
	}
	return NewRouter(env, zap.NewNop()), fake
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

const saturnSignet = `{"product":{
  "id":"gid://shopify/Product/1","handle":"saturn-signet","title":"Saturn Signet",
  "descriptionHtml":"<p>Cast in recycled silver</p>",
  "options":[{"name":"Size","values":["50","52"]}],
  "priceRange":{"minVariantPrice":{"amount":"320.0","currencyCode":"EUR"},"maxVariantPrice":{"amount":"320.0","currencyCode":"EUR"}},
  "images":{"nodes":[{"url":"https://cdn.shopify.com/saturn.jpg"}]},
  "variants":{"nodes":[{"id":"gid://shopify/ProductVariant/50","availableForSale":true,"price":{"amount":"320.0","currencyCode":"EUR"},"selectedOptions":[{"name":"Size","value":"50"}]}]},
  "selectedVariant":%s
}}`

func productJSON(selected string) string {
	return strings.Replace(saturnSignet, "%s", selected, 1)
}

const selectedVariant52 = `{"id":"gid://shopify/ProductVariant/52","availableForSale":true,"price":{"amount":"320.0","currencyCode":"EUR"},"selectedOptions":[{"name":"Size","value":"52"}]}`

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	rec := serve(router, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRobots(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodGet, "http://kleinod-atelier.com/robots.txt", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := serve(router, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "max-age=86400", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "User-agent: *\nDisallow: /admin"))
	assert.Contains(t, body, "Sitemap: https://kleinod-atelier.com/sitemap.xml")
	assert.True(t, strings.HasSuffix(body, "User-agent: Pinterest\nCrawl-delay: 1"))
}

func TestProductPage(t *testing.T) {
	router, fake := newTestRouter(t, map[string]string{"Product": productJSON(selectedVariant52)})

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/de/products/saturn-signet?Size=52", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `<html lang="de-DE">`)
	assert.Contains(t, body, "<h1>Saturn Signet</h1>")
	assert.Contains(t, body, "Cast in recycled silver")
	assert.Contains(t, body, `value="gid://shopify/ProductVariant/52"`)
	assert.Contains(t, body, `href="/de/products/saturn-signet?Size=50"`)
	assert.Contains(t, body, "<th>Finger (mm)</th>")

	csp := rec.Header().Get("Content-Security-Policy")
	m := regexp.MustCompile(`'nonce-([0-9a-f]+)'`).FindStringSubmatch(csp)
	require.NotNil(t, m, csp)
	assert.Contains(t, body, `nonce="`+m[1]+`"`)
	assert.Contains(t, csp, "https://checkout.kleinod-atelier.com")

	call, ok := fake.call("Product")
	require.True(t, ok)
	assert.Equal(t, "DE", call.Variables["country"])
	assert.Equal(t, "DE", call.Variables["language"])
	assert.Equal(t, "saturn-signet", call.Variables["handle"])
}

func TestProductPage_RedirectsToFirstVariant(t *testing.T) {
	router, _ := newTestRouter(t, map[string]string{"Product": productJSON("null")})

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/fr/products/saturn-signet?utm_source=mail", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/fr/products/saturn-signet?Size=50&utm_source=mail", rec.Header().Get("Location"))
}

func TestProductPage_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		data     map[string]string
		wantCode int
		wantBody string
	}{
		{"unknown product", map[string]string{"Product": `{"product":null}`}, http.StatusNotFound, "Page not found"},
		{"upstream failure", map[string]string{"Product": `{"errors":[{"message":"Throttled"}]}`}, http.StatusInternalServerError, "Something went wrong"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router, _ := newTestRouter(t, tc.data)
			rec := serve(router, httptest.NewRequest(http.MethodGet, "/products/saturn-signet", nil))
			assert.Equal(t, tc.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.wantBody)
		})
	}
}

func TestCatalog_PassesFilterQuery(t *testing.T) {
	router, fake := newTestRouter(t, map[string]string{
		"Catalog": `{"products":{"nodes":[],"pageInfo":{"hasNextPage":false,"hasPreviousPage":false}}}`,
	})

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/collections/all?category=rings&sort_by=PRICE", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No products match these filters")

	call, ok := fake.call("Catalog")
	require.True(t, ok)
	assert.Equal(t, `product_type:"Rings"`, call.Variables["query"])
	assert.Equal(t, "PRICE", call.Variables["sortKey"])
	assert.Equal(t, false, call.Variables["sortReverse"])
	assert.EqualValues(t, 8, call.Variables["first"])
}

func TestCollection_NotFound(t *testing.T) {
	router, _ := newTestRouter(t, map[string]string{"Collection": `{"collection":null}`})
	rec := serve(router, httptest.NewRequest(http.MethodGet, "/de/collections/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHome(t *testing.T) {
	router, _ := newTestRouter(t, map[string]string{
		"FeaturedCollection":  `{"collections":{"nodes":[{"id":"c1","handle":"signets","title":"Signets"}]}}`,
		"RecommendedProducts": `{"products":{"nodes":[{"id":"p2","handle":"moon-hoop","title":"Moon Hoop","priceRange":{"minVariantPrice":{"amount":"0.0","currencyCode":"EUR"}}}]}}`,
	})

	for _, path := range []string{"/", "/de"} {
		rec := serve(router, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
		body := rec.Body.String()
		assert.Contains(t, body, "Signets", path)
		assert.Contains(t, body, "Moon Hoop", path)
		assert.Contains(t, body, "Inquiry", path)
	}
}

func TestStaticPagesAndNotFound(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/fr/commission", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Bespoke Pieces")

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page not found")
	// fallback menu when the header query has no menu
	assert.Contains(t, rec.Body.String(), `href="/collections/all"`)
}

func TestNewsletterSubscribe(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	post := func(email string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/de/newsletter/subscribe", strings.NewReader(url.Values{"email": {email}}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return serve(router, req)
	}

	for _, email := range []string{"not-an-email", "", "Name <hello@kleinod-atelier.com>"} {
		rec := post(email)
		assert.Equal(t, http.StatusBadRequest, rec.Code, email)
		assert.JSONEq(t, `{"formError":"`+newsletter.MsgInvalidEmail+`"}`, rec.Body.String(), email)
	}

	rec := post("hello@kleinod-atelier.com")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"successMessage":"You are subscribed!"}`, rec.Body.String())
}

func TestTrack(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := serve(router, httptest.NewRequest(http.MethodPost, "/api/track", strings.NewReader("{not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/fr/api/track", strings.NewReader(`{"event":"page_view"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = serve(router, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Event-Id"))
}

const cartJSON = `{"id":"gid://shopify/Cart/abc","checkoutUrl":"https://checkout.kleinod-atelier.com/cart/c/abc","totalQuantity":1,
  "cost":{"subtotalAmount":{"amount":"320.0","currencyCode":"EUR"},"totalAmount":{"amount":"320.0","currencyCode":"EUR"}},
  "lines":{"nodes":[]}}`

func TestCartUpdate_CreatesCart(t *testing.T) {
	router, fake := newTestRouter(t, map[string]string{
		"CartCreate": `{"cartCreate":{"cart":` + cartJSON + `,"userErrors":[]}}`,
	})

	form := url.Values{"cartAction": {"LinesAdd"}, "merchandiseId": {"gid://shopify/ProductVariant/52"}, "quantity": {"1"}}
	req := httptest.NewRequest(http.MethodPost, "/fr/cart", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(router, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/fr/cart", rec.Header().Get("Location"))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "cart="+url.QueryEscape("gid://shopify/Cart/abc"))

	call, ok := fake.call("CartCreate")
	require.True(t, ok)
	input := call.Variables["input"].(map[string]interface{})
	lines := input["lines"].([]interface{})
	require.Len(t, lines, 1)
	assert.Equal(t, "gid://shopify/ProductVariant/52", lines[0].(map[string]interface{})["merchandiseId"])
}

func TestCartUpdate_UserErrors(t *testing.T) {
	router, _ := newTestRouter(t, map[string]string{
		"CartLinesAdd": `{"cartLinesAdd":{"cart":null,"userErrors":[{"field":["lines","0","quantity"],"message":"Not enough stock"}]}}`,
	})

	form := url.Values{"cartAction": {"LinesAdd"}, "merchandiseId": {"gid://shopify/ProductVariant/52"}}
	req := httptest.NewRequest(http.MethodPost, "/cart", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: handlers.CartCookie, Value: url.QueryEscape("gid://shopify/Cart/abc")})
	rec := serve(router, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not enough stock")
}

func TestCartUpdate_ExpiredCart(t *testing.T) {
	router, fake := newTestRouter(t, map[string]string{
		"CartLinesAdd": `{"cartLinesAdd":{"cart":null,"userErrors":[{"field":null,"message":"The specified cart does not exist."}]}}`,
		"CartCreate":   `{"cartCreate":{"cart":` + cartJSON + `,"userErrors":[]}}`,
	})

	form := url.Values{"cartAction": {"LinesAdd"}, "merchandiseId": {"gid://shopify/ProductVariant/52"}}
	req := httptest.NewRequest(http.MethodPost, "/de/cart", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: handlers.CartCookie, Value: url.QueryEscape("gid://shopify/Cart/expired")})
	rec := serve(router, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/de/cart", rec.Header().Get("Location"))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "cart="+url.QueryEscape("gid://shopify/Cart/abc"))
	_, created := fake.call("CartCreate")
	assert.True(t, created)
}

func TestCartUpdate_ExpiredCartClearsCookie(t *testing.T) {
	router, _ := newTestRouter(t, map[string]string{
		"CartLinesRemove": `{"cartLinesRemove":{"cart":null,"userErrors":[{"field":["cartId"],"message":"The specified cart does not exist."}]}}`,
	})

	form := url.Values{"cartAction": {"LinesRemove"}, "lineId": {"line-1"}}
	req := httptest.NewRequest(http.MethodPost, "/cart", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: handlers.CartCookie, Value: url.QueryEscape("gid://shopify/Cart/expired")})
	rec := serve(router, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/cart", rec.Header().Get("Location"))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "cart=;")
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")
}

func TestCartUpdate_InvalidForm(t *testing.T) {
	router, fake := newTestRouter(t, nil)

	testCases := []struct {
		name string
		form url.Values
	}{
		{"missing action", url.Values{"merchandiseId": {"gid://shopify/ProductVariant/52"}}},
		{"unknown action", url.Values{"cartAction": {"Discount"}}},
		{"negative quantity", url.Values{"cartAction": {"LinesAdd"}, "merchandiseId": {"v1"}, "quantity": {"-2"}}},
		{"empty line id", url.Values{"cartAction": {"LinesRemove"}, "lineId": {""}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/cart", strings.NewReader(tc.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := serve(router, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "Invalid cart form")
		})
	}
	assert.Empty(t, fake.calls)
}

func TestCheckout(t *testing.T) {
	router, _ := newTestRouter(t, map[string]string{"Cart": `{"cart":` + cartJSON + `}`})

	req := httptest.NewRequest(http.MethodGet, "/cart/checkout", nil)
	req.AddCookie(&http.Cookie{Name: handlers.CartCookie, Value: url.QueryEscape("gid://shopify/Cart/abc")})
	rec := serve(router, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "https://checkout.kleinod-atelier.com/cart/c/abc", rec.Header().Get("Location"))

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/de/cart/checkout", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/de/cart", rec.Header().Get("Location"))
}

func TestProductFeed(t *testing.T) {
	router, _ := newTestRouter(t, map[string]string{
		"ProductsForGoogleFeed": `{"products":{"nodes":[{"id":"p1","handle":"saturn-signet","title":"Saturn Signet","description":"Signet",
		  "images":{"nodes":[{"url":"https://cdn.shopify.com/saturn.jpg"}]},
		  "variants":{"nodes":[{"id":"v1","sku":"SAT-50","availableForSale":true,"price":{"amount":"320.0","currencyCode":"EUR"},"selectedOptions":[{"name":"Size","value":"50"}]}]}}],
		  "pageInfo":{"hasNextPage":false}}}`,
	})

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/feeds/products.xml", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/xml; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<g:id>SAT-50</g:id>")
	assert.Contains(t, rec.Body.String(), "<g:price>320.00 EUR</g:price>")
}

func TestStaticAssets(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	rec := serve(router, httptest.NewRequest(http.MethodGet, "/static/app.js", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "data-submenu")
}
