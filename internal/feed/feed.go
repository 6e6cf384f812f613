// Package feed renders the Google Merchant Center product feed.
package feed

import (
	"bytes"
	"context"
	"encoding/xml"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kleinod-atelier/storefront/internal/domain"
)

const (
	googleNamespace  = "http://base.google.com/ns/1.0"
	currencyFallback = "EUR"
	defaultGroup     = "default"
	materialOption   = "material"
	maxDescription   = 5000
	pageSize         = 250
	maxPages         = 20
	buildTimeout     = 2 * time.Minute

	brand           = "Atelier Kleinod"
	productCategory = "Apparel & Accessories > Jewelry"
)

// Source pages through the catalog with variants
type Source interface {
	FeedProducts(ctx context.Context, first int, after string) (*domain.ProductConnection, error)
}

type rss struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	G       string   `xml:"xmlns:g,attr"`
	Channel channel  `xml:"channel"`
}

type channel struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Items       []Item `xml:"item"`
}

// Item is one merchant center offer: a product restricted to one material
type Item struct {
	ID                    string `xml:"g:id"`
	ItemGroupID           string `xml:"g:item_group_id"`
	Title                 string `xml:"g:title"`
	Description           string `xml:"g:description"`
	Link                  string `xml:"g:link"`
	ImageLink             string `xml:"g:image_link,omitempty"`
	Availability          string `xml:"g:availability"`
	Price                 string `xml:"g:price,omitempty"`
	Condition             string `xml:"g:condition"`
	Material              string `xml:"g:material,omitempty"`
	Brand                 string `xml:"g:brand"`
	GoogleProductCategory string `xml:"g:google_product_category"`
	IdentifierExists      string `xml:"g:identifier_exists"`
}

// Items turns a product into one item per material group, in the order the
// materials first appear. A product without variants yields no items.
func Items(baseURL string, p domain.Product) []Item {
	if len(p.Variants) == 0 {
		return nil
	}

	var order []string
	groups := map[string][]domain.Variant{}
	for _, v := range p.Variants {
		material, ok := v.Option(materialOption)
		if !ok || material == "" {
			material = defaultGroup
		}
		if _, seen := groups[material]; !seen {
			order = append(order, material)
		}
		groups[material] = append(groups[material], v)
	}

	productImage := ""
	if len(p.Images) > 0 {
		productImage = p.Images[0].URL
	}

	items := make([]Item, 0, len(order))
	for _, material := range order {
		group := groups[material]
		rep := group[0]

		id := rep.SKU
		if id == "" {
			id = rep.ID
		}
		image := productImage
		if rep.Image != nil && rep.Image.URL != "" {
			image = rep.Image.URL
		}
		availability := "out of stock"
		for _, v := range group {
			if v.AvailableForSale {
				availability = "in stock"
				break
			}
		}
		link := baseURL + "/products/" + p.Handle
		item := Item{
			ID:                    id,
			ItemGroupID:           p.Handle,
			Title:                 p.Title,
			Description:           truncate(p.Description, maxDescription),
			ImageLink:             image,
			Availability:          availability,
			Price:                 price(rep.Price),
			Condition:             "new",
			Brand:                 brand,
			GoogleProductCategory: productCategory,
			IdentifierExists:      "false",
		}
		if material != defaultGroup {
			link += "?Material=" + strings.ReplaceAll(url.QueryEscape(material), "+", "%20")
			item.Material = material
		}
		item.Link = link
		items = append(items, item)
	}
	return items
}

func price(m domain.Money) string {
	if m.CurrencyCode == "" && m.IsZero() {
		return ""
	}
	if m.CurrencyCode == "" {
		m.CurrencyCode = currencyFallback
	}
	return m.Fixed()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Render writes the RSS document for products
func Render(baseURL string, products []domain.Product) ([]byte, error) {
	doc := rss{
		Version: "2.0",
		G:       googleNamespace,
		Channel: channel{
			Title:       "Kleinod Products",
			Link:        baseURL,
			Description: "Google Merchant Center Feed",
		},
	}
	for _, p := range products {
		doc.Channel.Items = append(doc.Channel.Items, Items(baseURL, p)...)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Generator renders the feed from a Source and caches the document
type Generator struct {
	source  Source
	baseURL string
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time

	group   singleflight.Group
	mu      sync.RWMutex
	body    []byte
	expires time.Time
}

func NewGenerator(source Source, baseURL string, ttl time.Duration, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		source:  source,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// Feed returns the cached document, rebuilding it once the TTL has passed.
// Concurrent rebuilds share one set of upstream queries.
func (g *Generator) Feed(ctx context.Context) ([]byte, error) {
	g.mu.RLock()
	if g.body != nil && g.now().Before(g.expires) {
		body := g.body
		g.mu.RUnlock()
		return body, nil
	}
	g.mu.RUnlock()

	v, err, _ := g.group.Do("feed", func() (interface{}, error) {
		// the build is shared by every waiter, so one client leaving must not cancel it
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), buildTimeout)
		defer cancel()
		body, err := g.Build(buildCtx)
		if err != nil {
			return nil, err
		}
		g.mu.Lock()
		g.body = body
		g.expires = g.now().Add(g.ttl)
		g.mu.Unlock()
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Build fetches every product page and renders the document without caching
func (g *Generator) Build(ctx context.Context) ([]byte, error) {
	start := g.now()
	var products []domain.Product
	after := ""
	for page := 0; page < maxPages; page++ {
		conn, err := g.source.FeedProducts(ctx, pageSize, after)
		if err != nil {
			return nil, err
		}
		products = append(products, conn.Nodes...)
		if !conn.PageInfo.HasNextPage || conn.PageInfo.EndCursor == "" {
			break
		}
		after = conn.PageInfo.EndCursor
	}

	body, err := Render(g.baseURL, products)
	if err != nil {
		return nil, err
	}
	g.logger.Info("Product feed built",
		zap.Int("products", len(products)),
		zap.Duration("elapsed", g.now().Sub(start)),
	)
	return body, nil
}
