package storefront

import (
	"context"
	"encoding/json"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kleinod-atelier/storefront/internal/deferred"
	"github.com/kleinod-atelier/storefront/internal/domain"
	"github.com/kleinod-atelier/storefront/internal/locale"
	apperrors "github.com/kleinod-atelier/storefront/pkg/errors"
)

const (
	maxRecommendations = 3
	materialLabelField = "label"
	sizeOptionName     = "Size"
)

// ProductPage is the product detail view model. When RedirectURL is set the
// request has no resolvable variant and must be redirected (302) instead of
// rendered.
type ProductPage struct {
	Product         domain.Product
	SelectedVariant *domain.Variant
	MainImages      []domain.Image
	ShowcaseImages  []domain.Image
	Materials       []string
	Recommendations []ProductCard
	ShowSizeGuide   bool
	RedirectURL     string

	// Variants resolves to every variant of the product, or nil
	Variants *deferred.Value[[]domain.Variant]

	locale locale.Locale
	query  url.Values
}

// Product assembles the product page for handle. query carries the selected
// options. A missing handle is a validation error and an unknown product is
// ErrNotFound; recommendation, material and variant lookups never fail the page.
func (s *Service) Product(ctx context.Context, l locale.Locale, handle string, query url.Values) (*ProductPage, error) {
	if handle == "" {
		return nil, &apperrors.ErrValidation{Message: "Expected product handle to be defined"}
	}
	ic := inContext(l)

	variants := deferred.Go(ctx, s.logger, "product variants", func(ctx context.Context) ([]domain.Variant, error) {
		return s.api.ProductVariants(ctx, ic, handle)
	})

	product, err := s.api.Product(ctx, ic, handle, SelectedOptions(query))
	if err != nil {
		variants.Cancel()
		return nil, err
	}
	if product == nil || product.ID == "" {
		variants.Cancel()
		return nil, &apperrors.ErrNotFound{Resource: "product", ID: handle}
	}

	page := &ProductPage{
		Product:  *product,
		Variants: variants,
		locale:   l,
		query:    query,
	}

	first := product.FirstVariant()
	switch {
	case first != nil && first.IsDefault():
		page.SelectedVariant = first
	case product.SelectedVariant != nil:
		page.SelectedVariant = product.SelectedVariant
	case first != nil:
		variants.Cancel()
		page.RedirectURL = VariantURL(l, product.Handle, first.SelectedOptions, query)
		return page, nil
	}

	var g errgroup.Group
	g.Go(func() error {
		page.Recommendations = s.recommendations(ctx, l, product)
		return nil
	})
	g.Go(func() error {
		page.Materials = s.materials(ctx, product)
		return nil
	})
	_ = g.Wait()

	for _, img := range product.Images {
		if isShowcase(img) {
			page.ShowcaseImages = append(page.ShowcaseImages, img)
		} else {
			page.MainImages = append(page.MainImages, img)
		}
	}
	for _, o := range product.Options {
		if o.Name == sizeOptionName {
			page.ShowSizeGuide = true
		}
	}

	return page, nil
}

func (s *Service) recommendations(ctx context.Context, l locale.Locale, product *domain.Product) []ProductCard {
	recs, err := s.api.ProductRecommendations(ctx, inContext(l), product.ID)
	if err != nil {
		s.logger.Warn("Failed to fetch product recommendations",
			zap.String("handle", product.Handle),
			zap.Error(err),
		)
		return nil
	}
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return s.cards(l, recs)
}

// materials resolves the material metaobject ids stored on the product to
// their labels. Any failure yields no materials.
func (s *Service) materials(ctx context.Context, product *domain.Product) []string {
	ids := ParseMaterialIDs(product.MaterialMetafield)
	if len(ids) == 0 {
		if product.MaterialMetafield != nil && product.MaterialMetafield.Value != "" {
			s.logger.Warn("Invalid material metafield",
				zap.String("handle", product.Handle),
				zap.String("value", product.MaterialMetafield.Value),
			)
		}
		return nil
	}

	labels := make([]string, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			obj, err := s.api.Metaobject(gctx, id)
			if err != nil {
				return err
			}
			if obj != nil {
				labels[i], _ = obj.Field(materialLabelField)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn("Failed to fetch product materials",
			zap.String("handle", product.Handle),
			zap.Error(err),
		)
		return nil
	}

	out := labels[:0]
	for _, label := range labels {
		if label != "" {
			out = append(out, label)
		}
	}
	return out
}

// ParseMaterialIDs decodes the JSON array of metaobject ids held by the
// material metafield; anything else decodes to nil
func ParseMaterialIDs(m *domain.Metafield) []string {
	if m == nil || m.Value == "" {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(m.Value), &ids); err != nil {
		return nil
	}
	return ids
}

// OptionValue is one selectable value of a product option
type OptionValue struct {
	Value     string
	Selected  bool
	Available bool
	URL       string
}

// OptionGroup is a product option rendered as a selector
type OptionGroup struct {
	Name   string
	Values []OptionValue
}

// OptionGroups builds the variant selectors. variants is the deferred full
// variant list; when it is nil every value is shown as available.
func (p *ProductPage) OptionGroups(variants []domain.Variant) []OptionGroup {
	var selected []domain.SelectedOption
	if p.SelectedVariant != nil {
		selected = p.SelectedVariant.SelectedOptions
	}

	groups := make([]OptionGroup, 0, len(p.Product.Options))
	for _, opt := range p.Product.Options {
		if len(opt.Values) == 1 && opt.Values[0] == "Default Title" {
			continue
		}
		g := OptionGroup{Name: opt.Name}
		for _, value := range opt.Values {
			target := withOption(selected, opt.Name, value)
			v := OptionValue{
				Value:     value,
				Selected:  optionValue(selected, opt.Name) == value,
				Available: true,
				URL:       VariantURL(p.locale, p.Product.Handle, target, p.query),
			}
			if variants != nil {
				match := findVariant(variants, target)
				v.Available = match != nil && match.AvailableForSale
			}
			g.Values = append(g.Values, v)
		}
		groups = append(groups, g)
	}
	return groups
}

func optionValue(opts []domain.SelectedOption, name string) string {
	for _, o := range opts {
		if o.Name == name {
			return o.Value
		}
	}
	return ""
}

func withOption(opts []domain.SelectedOption, name, value string) []domain.SelectedOption {
	out := make([]domain.SelectedOption, 0, len(opts)+1)
	replaced := false
	for _, o := range opts {
		if o.Name == name {
			out = append(out, domain.SelectedOption{Name: name, Value: value})
			replaced = true
			continue
		}
		out = append(out, o)
	}
	if !replaced {
		out = append(out, domain.SelectedOption{Name: name, Value: value})
	}
	return out
}

func findVariant(variants []domain.Variant, opts []domain.SelectedOption) *domain.Variant {
	for i := range variants {
		matches := true
		for _, o := range opts {
			if v, ok := variants[i].Option(o.Name); !ok || v != o.Value {
				matches = false
				break
			}
		}
		if matches {
			return &variants[i]
		}
	}
	return nil
}
