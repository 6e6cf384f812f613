// Package filter keeps the catalog's category/material/sort selection in sync
// with URL search parameters and translates it into a Storefront API product
// query and sort key.
package filter

import (
	"net/url"
	"strings"

	"github.com/kleinod-atelier/storefront/internal/content"
)

const (
	// All is the sentinel for "no restriction" on a dimension
	All = "all"

	ParamCategory = "category"
	ParamMaterial = "material"
	ParamSort     = "sort_by"

	DefaultSort = "PRICE_DESCENDING"
)

// Dimension identifies one independently selectable part of the state
type Dimension string

const (
	DimensionCategory Dimension = ParamCategory
	DimensionMaterial Dimension = ParamMaterial
	DimensionSort     Dimension = ParamSort
)

// SortOption maps a URL sort value to the platform's ProductSortKeys
type SortOption struct {
	Value   string
	Label   string
	Key     string
	Reverse bool
}

var sortOptions = []SortOption{
	{Value: "PRICE_DESCENDING", Label: "Price, high to low", Key: "PRICE", Reverse: true},
	{Value: "PRICE", Label: "Price, low to high", Key: "PRICE"},
	{Value: "TITLE", Label: "Title", Key: "TITLE"},
	{Value: "NEWEST", Label: "Newest", Key: "CREATED_AT", Reverse: true},
	{Value: "BEST_SELLING", Label: "Best selling", Key: "BEST_SELLING"},
}

// SortOptions returns the supported sort options, default first
func SortOptions() []SortOption {
	out := make([]SortOption, len(sortOptions))
	copy(out, sortOptions)
	return out
}

func lookupSort(value string) (SortOption, bool) {
	for _, o := range sortOptions {
		if o.Value == value {
			return o, true
		}
	}
	return SortOption{}, false
}

// State is the current selection. Category and Material hold a catalog id or All.
type State struct {
	Category string
	Material string
	Sort     string
}

// Default is the unfiltered state
func Default() State {
	return State{Category: All, Material: All, Sort: DefaultSort}
}

// Event is a user interaction that changes one dimension
type Event struct {
	Dimension Dimension
	Value     string
}

// Parser validates selections against the static catalog
type Parser struct {
	catalog *content.Catalog
}

func NewParser(catalog *content.Catalog) *Parser {
	return &Parser{catalog: catalog}
}

// Parse reads a state from URL search parameters. Missing, "all" and unknown
// values collapse to All; an unknown sort collapses to DefaultSort.
func (p *Parser) Parse(values url.Values) State {
	return State{
		Category: p.normalize(DimensionCategory, values.Get(ParamCategory)),
		Material: p.normalize(DimensionMaterial, values.Get(ParamMaterial)),
		Sort:     p.normalize(DimensionSort, values.Get(ParamSort)),
	}
}

// Apply returns the state after e; only the event's dimension changes
func (p *Parser) Apply(s State, e Event) State {
	v := p.normalize(e.Dimension, e.Value)
	switch e.Dimension {
	case DimensionCategory:
		s.Category = v
	case DimensionMaterial:
		s.Material = v
	case DimensionSort:
		s.Sort = v
	}
	return s
}

func (p *Parser) normalize(d Dimension, v string) string {
	v = strings.TrimSpace(v)
	switch d {
	case DimensionCategory:
		if _, ok := p.catalog.Category(v); ok {
			return v
		}
		return All
	case DimensionMaterial:
		if _, ok := p.catalog.Material(v); ok {
			return v
		}
		return All
	case DimensionSort:
		if _, ok := lookupSort(strings.ToUpper(v)); ok {
			return strings.ToUpper(v)
		}
		return DefaultSort
	}
	return v
}

// Values encodes the state as search parameters, omitting All and the default sort
func (s State) Values() url.Values {
	v := url.Values{}
	if s.Category != "" && s.Category != All {
		v.Set(ParamCategory, s.Category)
	}
	if s.Material != "" && s.Material != All {
		v.Set(ParamMaterial, s.Material)
	}
	if s.Sort != "" && s.Sort != DefaultSort {
		v.Set(ParamSort, s.Sort)
	}
	return v
}

// URL returns basePath with the encoded state
func (s State) URL(basePath string) string {
	if q := s.Values().Encode(); q != "" {
		return basePath + "?" + q
	}
	return basePath
}

// IsFiltered reports whether any predicate applies
func (s State) IsFiltered() bool {
	return (s.Category != "" && s.Category != All) || (s.Material != "" && s.Material != All)
}

// SortKey returns the ProductSortKeys value and the reverse flag
func (s State) SortKey() (string, bool) {
	o, ok := lookupSort(s.Sort)
	if !ok {
		o, _ = lookupSort(DefaultSort)
	}
	return o.Key, o.Reverse
}

// Query builds the Storefront API product search string: a conjunction of a
// tag predicate (material) and a product_type predicate (category).
func (p *Parser) Query(s State) string {
	var preds []string
	if m, ok := p.catalog.Material(s.Material); ok {
		preds = append(preds, "tag:"+quote(m.ID))
	}
	if c, ok := p.catalog.Category(s.Category); ok {
		preds = append(preds, "product_type:"+quote(c.ProductType))
	}
	return strings.Join(preds, " AND ")
}

func quote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}

// Choice is one entry of a rendered filter menu
type Choice struct {
	Value  string
	Label  string
	Active bool
	URL    string
}

// Menu is a rendered filter dimension
type Menu struct {
	Dimension Dimension
	Choices   []Choice
}

// Menus returns the category, material and sort menus for basePath. Each
// choice links to the state with only that dimension changed; choosing the
// active category or material again links back to All.
func (p *Parser) Menus(s State, basePath string) []Menu {
	category := Menu{Dimension: DimensionCategory}
	category.Choices = append(category.Choices, p.choice(s, DimensionCategory, All, "All", basePath))
	for _, c := range p.catalog.Categories {
		category.Choices = append(category.Choices, p.choice(s, DimensionCategory, c.ID, c.Name, basePath))
	}

	material := Menu{Dimension: DimensionMaterial}
	material.Choices = append(material.Choices, p.choice(s, DimensionMaterial, All, "All", basePath))
	for _, m := range p.catalog.Materials {
		material.Choices = append(material.Choices, p.choice(s, DimensionMaterial, m.ID, m.Name, basePath))
	}

	sort := Menu{Dimension: DimensionSort}
	for _, o := range sortOptions {
		sort.Choices = append(sort.Choices, p.choice(s, DimensionSort, o.Value, o.Label, basePath))
	}

	return []Menu{category, material, sort}
}

func (p *Parser) choice(s State, d Dimension, value, label, basePath string) Choice {
	var current string
	switch d {
	case DimensionCategory:
		current = s.Category
	case DimensionMaterial:
		current = s.Material
	case DimensionSort:
		current = s.Sort
	}
	active := current == value
	target := value
	if active && d != DimensionSort {
		target = All
	}
	next := p.Apply(s, Event{Dimension: d, Value: target})
	return Choice{Value: value, Label: label, Active: active, URL: next.URL(basePath)}
}
