package domain

import (
	"strings"
)

// Image is a platform-hosted image
type Image struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	AltText string `json:"altText"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// SelectedOption is one option/value pair that identifies a variant (e.g. Size=52)
type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ProductOption lists the values an option can take on a product
type ProductOption struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Metafield is a key/value attachment on a product; Value is often JSON-encoded
type Metafield struct {
	ID        string `json:"id"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
}

// Variant represents a purchasable product variant
type Variant struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	SKU              string           `json:"sku"`
	AvailableForSale bool             `json:"availableForSale"`
	Price            Money            `json:"price"`
	CompareAtPrice   *Money           `json:"compareAtPrice"`
	Image            *Image           `json:"image"`
	SelectedOptions  []SelectedOption `json:"selectedOptions"`
}

// Option returns the value of the named option (case-insensitive name match)
func (v Variant) Option(name string) (string, bool) {
	for _, o := range v.SelectedOptions {
		if strings.EqualFold(o.Name, name) {
			return o.Value, true
		}
	}
	return "", false
}

// IsDefault reports whether this is the single implicit variant of an option-less product
func (v Variant) IsDefault() bool {
	for _, o := range v.SelectedOptions {
		if o.Name == "Title" && o.Value == "Default Title" {
			return true
		}
	}
	return false
}

type PriceRange struct {
	MinVariantPrice Money `json:"minVariantPrice"`
	MaxVariantPrice Money `json:"maxVariantPrice"`
}

type SEO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Product represents a catalog product as the storefront sees it
type Product struct {
	ID              string          `json:"id"`
	Handle          string          `json:"handle"`
	Title           string          `json:"title"`
	Vendor          string          `json:"vendor"`
	ProductType     string          `json:"productType"`
	Description     string          `json:"description"`
	DescriptionHTML string          `json:"descriptionHtml"`
	Tags            []string        `json:"tags"`
	FeaturedImage   *Image          `json:"featuredImage"`
	Images          []Image         `json:"images"`
	PriceRange      PriceRange      `json:"priceRange"`
	Options         []ProductOption `json:"options"`
	Variants        []Variant       `json:"variants"`
	SelectedVariant *Variant        `json:"selectedVariant"`
	// MaterialMetafield holds a JSON array of material metaobject ids
	MaterialMetafield *Metafield `json:"materialMetafield"`
	// GalleryMetafield holds a JSON array of lifestyle image URLs
	GalleryMetafield *Metafield `json:"galleryMetafield"`
	SEO              SEO        `json:"seo"`
}

// FirstVariant returns the first variant or nil for a product without variants
func (p *Product) FirstVariant() *Variant {
	if len(p.Variants) == 0 {
		return nil
	}
	return &p.Variants[0]
}

// IsInquiry reports whether the product is shown without a price ("Inquiry")
func (p *Product) IsInquiry() bool {
	return p.PriceRange.MinVariantPrice.IsZero()
}

type PageInfo struct {
	HasNextPage     bool   `json:"hasNextPage"`
	HasPreviousPage bool   `json:"hasPreviousPage"`
	StartCursor     string `json:"startCursor"`
	EndCursor       string `json:"endCursor"`
}

// ProductConnection is one page of products
type ProductConnection struct {
	Nodes    []Product `json:"nodes"`
	PageInfo PageInfo  `json:"pageInfo"`
}

// Collection groups products under a handle
type Collection struct {
	ID          string            `json:"id"`
	Handle      string            `json:"handle"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Image       *Image            `json:"image"`
	Products    ProductConnection `json:"products"`
}

// Metaobject is a platform-defined structured entry (used for jewelry materials)
type Metaobject struct {
	ID     string            `json:"id"`
	Type   string            `json:"type"`
	Fields []MetaobjectField `json:"fields"`
}

type MetaobjectField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Field returns the value stored under key
func (m *Metaobject) Field(key string) (string, bool) {
	for _, f := range m.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Shop is the subset of shop settings the layout needs
type Shop struct {
	ID               string
	Name             string
	PrimaryDomainURL string
}

// MenuItem is one entry in a navigation menu, optionally nested
type MenuItem struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Type  string     `json:"type"`
	URL   string     `json:"url"`
	Items []MenuItem `json:"items"`
}

type Menu struct {
	ID    string     `json:"id"`
	Items []MenuItem `json:"items"`
}
