// Package view renders the storefront's HTML. Pages are html/template sets
// embedded in the binary; long pages stream their critical markup before
// deferred data resolves.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin/render"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/kleinod-atelier/storefront/internal/content"
	"github.com/kleinod-atelier/storefront/internal/domain"
	"github.com/kleinod-atelier/storefront/internal/locale"
	"github.com/kleinod-atelier/storefront/internal/storefront"
)

//go:embed templates/*.tmpl
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

// page names; each is layout.tmpl plus templates/<name>.tmpl
const (
	PageHome       = "home"
	PageCollection = "collection"
	PageCatalog    = "catalog"
	PageProduct    = "product"
	PageCart       = "cart"
	PageStatic     = "static"
	PageNotFound   = "404"
	PageError      = "500"
)

var pageNames = []string{PageHome, PageCollection, PageCatalog, PageProduct, PageCart, PageStatic, PageNotFound, PageError}

// Page is the data every template receives
type Page struct {
	Title       string
	Description string
	Locale      locale.Locale
	Alternates  []locale.Alternate
	Path        string
	Layout      *storefront.Layout
	CartCount   int
	SizeChart   content.SizeChart
	GTM         string
	Nonce       string

	Data     interface{}
	Deferred interface{}
}

// Renderer holds the parsed page templates
type Renderer struct {
	pages  map[string]*template.Template
	policy *bluemonday.Policy
	logger *zap.Logger
}

// New parses every page template; a parse error is a build defect
func New(logger *zap.Logger) (*Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Renderer{
		pages:  map[string]*template.Template{},
		policy: bluemonday.UGCPolicy(),
		logger: logger,
	}

	base, err := template.New("layout.tmpl").Funcs(r.funcs()).ParseFS(templateFiles, "templates/layout.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}
	for _, name := range pageNames {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFiles, "templates/"+name+".tmpl"); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *Renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"money":    func(m domain.Money) string { return m.String() },
		"link":     func(l locale.Locale, path string) string { return l.Link(path) },
		"safeHTML": r.SafeHTML,
		"imgSize":  ImageSize,
		"add":      func(a, b int) int { return a + b },
	}
}

// SafeHTML sanitises platform rich text for inline rendering
func (r *Renderer) SafeHTML(raw string) template.HTML {
	return template.HTML(r.policy.Sanitize(raw))
}

// ImageSize asks the CDN for a resized image
func ImageSize(raw string, width int) string {
	u, err := url.Parse(raw)
	if err != nil || !strings.Contains(u.Host, "cdn.shopify.com") {
		return raw
	}
	q := u.Query()
	q.Set("width", strconv.Itoa(width))
	u.RawQuery = q.Encode()
	return u.String()
}

// Instance implements gin's render.HTMLRender
func (r *Renderer) Instance(name string, data interface{}) render.Render {
	t, ok := r.pages[name]
	if !ok {
		r.logger.Error("Unknown page template", zap.String("page", name))
		t = r.pages[PageError]
	}
	return render.HTML{Template: t, Name: "page", Data: data}
}

// Stream writes the page in three parts: the layout head and critical
// content, then the deferred section once resolve returns, then the rest.
// When flush is false (crawlers) the response is written without flushing.
func (r *Renderer) Stream(w http.ResponseWriter, status int, name string, page *Page, resolve func() interface{}, flush bool) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if err := t.ExecuteTemplate(w, "stream_top", page); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok && flush {
		f.Flush()
	}

	page.Deferred = resolve()
	if err := t.ExecuteTemplate(w, "deferred", page); err != nil {
		return err
	}
	return t.ExecuteTemplate(w, "stream_bottom", page)
}

// Static returns the embedded assets for serving under /static
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
