// Package content holds the storefront's static configuration: filter tags,
// supported locales, marketing banners and the ring size table. It is decoded
// once from an embedded YAML document.
package content

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var defaultYAML []byte

type Locale struct {
	Label    string `yaml:"label"`
	Language string `yaml:"language"`
	Country  string `yaml:"country"`
	Path     string `yaml:"path"`
}

// Category is a browseable product category; ProductType is what the platform stores
type Category struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	ProductType string `yaml:"product_type"`
}

// Material is a curated material tag
type Material struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type Banner struct {
	ID    string `yaml:"id"`
	URL   string `yaml:"url"`
	Alt   string `yaml:"alt"`
	Title string `yaml:"title"`
	Link  string `yaml:"link"`
}

type Tile struct {
	Title string `yaml:"title"`
	Link  string `yaml:"link"`
	Image string `yaml:"image"`
}

type Landing struct {
	Image         string `yaml:"image"`
	HeroImage     string `yaml:"hero_image"`
	HeroText      string `yaml:"hero_text"`
	CustomObjects []Tile `yaml:"custom_objects"`
}

// RingSize is one row of the EU/US/UK conversion table
type RingSize struct {
	EU            int     `yaml:"eu"`
	US            float64 `yaml:"us"`
	UK            string  `yaml:"uk"`
	Circumference float64 `yaml:"circumference"`
}

type SizeChart struct {
	Headers []string   `yaml:"headers"`
	Rows    []RingSize `yaml:"rows"`
}

// Catalog is the whole static configuration
type Catalog struct {
	Locales    []Locale   `yaml:"locales"`
	Categories []Category `yaml:"categories"`
	Materials  []Material `yaml:"materials"`
	Banners    []Banner   `yaml:"banners"`
	Landing    Landing    `yaml:"landing"`
	SizeChart  SizeChart  `yaml:"size_chart"`
}

// Default returns the embedded catalog. The document is part of the binary, so
// a decode failure is a build defect and panics.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("content: embedded catalog: %v", err))
	}
	return c
}

// Parse decodes and validates a catalog document
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}
	if len(c.Locales) == 0 {
		return nil, fmt.Errorf("content: at least one locale is required")
	}
	if c.Locales[0].Path != "" {
		return nil, fmt.Errorf("content: first locale must be the default (empty path), got %q", c.Locales[0].Path)
	}
	for _, l := range c.Locales[1:] {
		if !strings.HasPrefix(l.Path, "/") || strings.Count(l.Path, "/") != 1 {
			return nil, fmt.Errorf("content: locale %s needs a single-segment path prefix, got %q", l.Label, l.Path)
		}
	}
	return &c, nil
}

// Category looks a category up by id
func (c *Catalog) Category(id string) (Category, bool) {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}

// Material looks a material up by id
func (c *Catalog) Material(id string) (Material, bool) {
	for _, m := range c.Materials {
		if m.ID == id {
			return m, true
		}
	}
	return Material{}, false
}
