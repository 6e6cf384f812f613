package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kleinod-atelier/storefront/internal/config"
	"github.com/kleinod-atelier/storefront/internal/content"
	"github.com/kleinod-atelier/storefront/internal/locale"
)

func directive(csp, name string) string {
	for _, d := range strings.Split(csp, "; ") {
		if strings.HasPrefix(d, name+" ") {
			return d
		}
	}
	return ""
}

func TestContentSecurityPolicy(t *testing.T) {
	shop := config.StorefrontConfig{StoreDomain: "kleinod.myshopify.com", CheckoutDomain: "checkout.kleinod-atelier.com"}

	csp := ContentSecurityPolicy(DefaultCSPSources, shop, "abc", true)

	script := directive(csp, "script-src")
	assert.Contains(t, script, "'nonce-abc'")
	assert.Contains(t, script, "https://static.elfsight.com")

	connect := directive(csp, "connect-src")
	assert.Contains(t, connect, "https://monorail-edge.shopifysvc.com")
	assert.Contains(t, connect, "https://checkout.kleinod-atelier.com")
	assert.NotContains(t, connect, "localhost")

	img := directive(csp, "img-src")
	assert.Equal(t, 1, strings.Count(img, "https://cdn.shopify.com"), img)
	assert.Contains(t, img, "https://kleinod.myshopify.com")

	dev := ContentSecurityPolicy(DefaultCSPSources, shop, "abc", false)
	assert.Contains(t, directive(dev, "connect-src"), "ws://localhost:*")
}

func TestSecurityMiddleware_FreshNoncePerRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SecurityMiddleware(&config.Config{Environment: "production"}))
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetNonce(c)) })

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, first.Body.String())
	assert.NotEqual(t, first.Body.String(), second.Body.String())
	assert.Contains(t, first.Header().Get(CSPHeader), "'nonce-"+first.Body.String()+"'")
	assert.Equal(t, "nosniff", first.Header().Get("X-Content-Type-Options"))
}

func TestLocaleMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	resolver := locale.NewResolver(content.Default().Locales)
	router := gin.New()
	router.Use(LocaleMiddleware(resolver))
	handler := func(c *gin.Context) {
		l, ok := GetLocaleFromContext(c)
		require.True(t, ok)
		c.String(http.StatusOK, l.Label)
	}
	router.GET("/products/:handle", handler)
	router.GET("/de/products/:handle", handler)

	testCases := map[string]string{
		"/products/saturn-signet":    "EN",
		"/de/products/saturn-signet": "DE",
	}
	for path, want := range testCases {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rec.Body.String(), path)
	}
}

func TestGetLocaleFromContext_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := GetLocaleFromContext(c)
	assert.False(t, ok)
	assert.Empty(t, GetNonce(c))
}
