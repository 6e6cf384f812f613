package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kleinod-atelier/storefront/internal/config"
)

const (
	NonceContextKey = "csp_nonce"
	CSPHeader       = "Content-Security-Policy"
)

const self = "'self'"

// CSPSources lists the allowed origins per directive, excluding nonce and shop domains
type CSPSources struct {
	DefaultSrc    []string
	ScriptSrc     []string
	ScriptSrcElem []string
	StyleSrc      []string
	FontSrc       []string
	ConnectSrc    []string
	ImgSrc        []string
}

// DefaultCSPSources are the third-party origins the storefront embeds
var DefaultCSPSources = CSPSources{
	DefaultSrc:    []string{self, "https://static.elfsight.com"},
	ScriptSrc:     []string{self, "https://static.elfsight.com", "https://www.googletagmanager.com"},
	ScriptSrcElem: []string{self, "https://static.elfsight.com", "https://cdn.shopify.com", "https://www.googletagmanager.com", "'unsafe-inline'"},
	StyleSrc:      []string{self, "'unsafe-inline'", "https://fonts.gstatic.com", "https://fonts.googleapis.com"},
	FontSrc:       []string{self, "https://fonts.gstatic.com", "https://fonts.googleapis.com", "data:"},
	ConnectSrc: []string{
		self,
		"https://monorail-edge.shopifysvc.com",
		"https://core.service.elfsight.com",
		"https://widget-data.service.elfsight.com",
	},
	ImgSrc: []string{
		self,
		"data:",
		"https://cdn.shopify.com",
		"https://static.elfsight.com",
		"https://phosphor.utils.elfsightcdn.com",
	},
}

// devConnectSrc allows the local dev servers and their websockets outside production
var devConnectSrc = []string{"http://localhost:*", "ws://localhost:*", "ws://127.0.0.1:*"}

// ContentSecurityPolicy builds the header value for one response
func ContentSecurityPolicy(sources CSPSources, shop config.StorefrontConfig, nonce string, production bool) string {
	shopOrigins := []string{"https://cdn.shopify.com", "https://shopify.com"}
	if shop.CheckoutDomain != "" {
		shopOrigins = append(shopOrigins, "https://"+shop.CheckoutDomain)
	}
	if shop.StoreDomain != "" {
		shopOrigins = append(shopOrigins, "https://"+shop.StoreDomain)
	}
	nonceSrc := "'nonce-" + nonce + "'"

	connect := concat(sources.ConnectSrc, shopOrigins)
	if !production {
		connect = concat(connect, devConnectSrc)
	}

	directives := []struct {
		name   string
		values []string
	}{
		{"base-uri", []string{self}},
		{"default-src", concat(sources.DefaultSrc, shopOrigins, []string{nonceSrc})},
		{"frame-ancestors", []string{"'none'"}},
		{"script-src", concat(sources.ScriptSrc, []string{nonceSrc})},
		{"script-src-elem", concat(sources.ScriptSrcElem, []string{nonceSrc})},
		{"style-src", concat(sources.StyleSrc, shopOrigins)},
		{"font-src", sources.FontSrc},
		{"connect-src", connect},
		{"img-src", concat(sources.ImgSrc, shopOrigins)},
	}

	parts := make([]string, 0, len(directives))
	for _, d := range directives {
		parts = append(parts, d.name+" "+strings.Join(d.values, " "))
	}
	return strings.Join(parts, "; ")
}

// concat joins the lists into a new slice, dropping repeated values
func concat(lists ...[]string) []string {
	var out []string
	seen := map[string]bool{}
	for _, list := range lists {
		for _, v := range list {
			if seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// SecurityMiddleware issues a per-request nonce and sets the CSP header
func SecurityMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		nonce := strings.ReplaceAll(uuid.NewString(), "-", "")
		c.Set(NonceContextKey, nonce)
		c.Header(CSPHeader, ContentSecurityPolicy(DefaultCSPSources, cfg.Storefront, nonce, cfg.IsProduction()))
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// GetNonce retrieves the request's CSP nonce from context
func GetNonce(c *gin.Context) string {
	v, _ := c.Get(NonceContextKey)
	nonce, _ := v.(string)
	return nonce
}
