package shopify

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/kleinod-atelier/storefront/internal/domain"
	apperrors "github.com/kleinod-atelier/storefront/pkg/errors"
)

type imageConnection struct {
	Nodes []domain.Image `json:"nodes"`
}

type variantConnection struct {
	Nodes []domain.Variant `json:"nodes"`
}

// productNode is the wire shape of a product; connections arrive as {nodes: [...]}
type productNode struct {
	ID                string                 `json:"id"`
	Handle            string                 `json:"handle"`
	Title             string                 `json:"title"`
	Vendor            string                 `json:"vendor"`
	ProductType       string                 `json:"productType"`
	Description       string                 `json:"description"`
	DescriptionHTML   string                 `json:"descriptionHtml"`
	Tags              []string               `json:"tags"`
	FeaturedImage     *domain.Image          `json:"featuredImage"`
	Images            imageConnection        `json:"images"`
	PriceRange        domain.PriceRange      `json:"priceRange"`
	Options           []domain.ProductOption `json:"options"`
	Variants          variantConnection      `json:"variants"`
	SelectedVariant   *domain.Variant        `json:"selectedVariant"`
	MaterialMetafield *domain.Metafield      `json:"materialMetafield"`
	GalleryMetafield  *domain.Metafield      `json:"galleryMetafield"`
	SEO               domain.SEO             `json:"seo"`
}

func (n *productNode) toDomain() domain.Product {
	return domain.Product{
		ID:                n.ID,
		Handle:            n.Handle,
		Title:             n.Title,
		Vendor:            n.Vendor,
		ProductType:       n.ProductType,
		Description:       n.Description,
		DescriptionHTML:   n.DescriptionHTML,
		Tags:              n.Tags,
		FeaturedImage:     n.FeaturedImage,
		Images:            n.Images.Nodes,
		PriceRange:        n.PriceRange,
		Options:           n.Options,
		Variants:          n.Variants.Nodes,
		SelectedVariant:   n.SelectedVariant,
		MaterialMetafield: n.MaterialMetafield,
		GalleryMetafield:  n.GalleryMetafield,
		SEO:               n.SEO,
	}
}

type productConnection struct {
	Nodes    []productNode   `json:"nodes"`
	PageInfo domain.PageInfo `json:"pageInfo"`
}

func (c *productConnection) toDomain() domain.ProductConnection {
	out := domain.ProductConnection{PageInfo: c.PageInfo}
	for i := range c.Nodes {
		out.Nodes = append(out.Nodes, c.Nodes[i].toDomain())
	}
	return out
}

func toProducts(nodes []productNode) []domain.Product {
	out := make([]domain.Product, 0, len(nodes))
	for i := range nodes {
		out = append(out, nodes[i].toDomain())
	}
	return out
}

// Product fetches a product by handle. A missing product is (nil, nil).
func (c *Client) Product(ctx context.Context, ic InContext, handle string, selected []domain.SelectedOption) (*domain.Product, error) {
	if selected == nil {
		selected = []domain.SelectedOption{}
	}
	var resp struct {
		Product *productNode `json:"product"`
	}
	err := c.executeInContext(ctx, ic, ProductQuery, map[string]interface{}{
		"handle":          handle,
		"selectedOptions": selected,
	}, &resp)
	if err != nil {
		return nil, errors.Wrapf(err, "product %s", handle)
	}
	if resp.Product == nil {
		return nil, nil
	}
	p := resp.Product.toDomain()
	return &p, nil
}

// ProductVariants fetches up to 250 variants of a product
func (c *Client) ProductVariants(ctx context.Context, ic InContext, handle string) ([]domain.Variant, error) {
	var resp struct {
		Product *struct {
			Variants variantConnection `json:"variants"`
		} `json:"product"`
	}
	if err := c.executeInContext(ctx, ic, ProductVariantsQuery, map[string]interface{}{"handle": handle}, &resp); err != nil {
		return nil, errors.Wrapf(err, "variants of %s", handle)
	}
	if resp.Product == nil {
		return nil, nil
	}
	return resp.Product.Variants.Nodes, nil
}

// ProductRecommendations fetches products related to productID
func (c *Client) ProductRecommendations(ctx context.Context, ic InContext, productID string) ([]domain.Product, error) {
	var resp struct {
		ProductRecommendations []productNode `json:"productRecommendations"`
	}
	if err := c.executeInContext(ctx, ic, ProductRecommendationsQuery, map[string]interface{}{"productId": productID}, &resp); err != nil {
		return nil, errors.Wrapf(err, "recommendations for %s", productID)
	}
	return toProducts(resp.ProductRecommendations), nil
}

// Metaobject fetches a metaobject by id. A missing metaobject is (nil, nil).
func (c *Client) Metaobject(ctx context.Context, id string) (*domain.Metaobject, error) {
	var resp struct {
		Metaobject *domain.Metaobject `json:"metaobject"`
	}
	if err := c.Execute(ctx, MetaobjectQuery, map[string]interface{}{"id": id}, &resp); err != nil {
		return nil, errors.Wrapf(err, "metaobject %s", id)
	}
	return resp.Metaobject, nil
}

// Collection fetches a collection with one page of products. A missing collection is (nil, nil).
func (c *Client) Collection(ctx context.Context, ic InContext, handle string, page Page) (*domain.Collection, error) {
	vars := page.vars()
	vars["handle"] = handle
	var resp struct {
		Collection *struct {
			ID          string            `json:"id"`
			Handle      string            `json:"handle"`
			Title       string            `json:"title"`
			Description string            `json:"description"`
			Products    productConnection `json:"products"`
		} `json:"collection"`
	}
	if err := c.executeInContext(ctx, ic, CollectionQuery, vars, &resp); err != nil {
		return nil, errors.Wrapf(err, "collection %s", handle)
	}
	if resp.Collection == nil {
		return nil, nil
	}
	col := resp.Collection
	return &domain.Collection{
		ID:          col.ID,
		Handle:      col.Handle,
		Title:       col.Title,
		Description: col.Description,
		Products:    col.Products.toDomain(),
	}, nil
}

// ProductsParams narrows and orders a catalog listing
type ProductsParams struct {
	Query   string
	SortKey string
	Reverse bool
	Page    Page
}

// Products fetches one page of the whole catalog
func (c *Client) Products(ctx context.Context, ic InContext, params ProductsParams) (*domain.ProductConnection, error) {
	vars := params.Page.vars()
	if params.Query != "" {
		vars["query"] = params.Query
	}
	if params.SortKey != "" {
		vars["sortKey"] = params.SortKey
		vars["sortReverse"] = params.Reverse
	}
	var resp struct {
		Products productConnection `json:"products"`
	}
	if err := c.executeInContext(ctx, ic, CatalogQuery, vars, &resp); err != nil {
		return nil, errors.Wrap(err, "catalog")
	}
	conn := resp.Products.toDomain()
	return &conn, nil
}

// FeaturedCollection returns the most recently updated collection, or nil when the shop has none
func (c *Client) FeaturedCollection(ctx context.Context, ic InContext) (*domain.Collection, error) {
	var resp struct {
		Collections struct {
			Nodes []domain.Collection `json:"nodes"`
		} `json:"collections"`
	}
	if err := c.executeInContext(ctx, ic, FeaturedCollectionQuery, nil, &resp); err != nil {
		return nil, errors.Wrap(err, "featured collection")
	}
	if len(resp.Collections.Nodes) == 0 {
		return nil, nil
	}
	return &resp.Collections.Nodes[0], nil
}

// RecommendedProducts returns the newest products for the landing page
func (c *Client) RecommendedProducts(ctx context.Context, ic InContext) ([]domain.Product, error) {
	var resp struct {
		Products productConnection `json:"products"`
	}
	if err := c.executeInContext(ctx, ic, RecommendedProductsQuery, nil, &resp); err != nil {
		return nil, errors.Wrap(err, "recommended products")
	}
	return toProducts(resp.Products.Nodes), nil
}

// Header fetches the shop identity and the navigation menu with the given handle
func (c *Client) Header(ctx context.Context, ic InContext, menuHandle string) (*domain.Shop, *domain.Menu, error) {
	var resp struct {
		Shop struct {
			ID            string `json:"id"`
			Name          string `json:"name"`
			PrimaryDomain struct {
				URL string `json:"url"`
			} `json:"primaryDomain"`
		} `json:"shop"`
		Menu *domain.Menu `json:"menu"`
	}
	if err := c.executeInContext(ctx, ic, HeaderQuery, map[string]interface{}{"headerMenuHandle": menuHandle}, &resp); err != nil {
		return nil, nil, errors.Wrap(err, "header")
	}
	shop := &domain.Shop{
		ID:               resp.Shop.ID,
		Name:             resp.Shop.Name,
		PrimaryDomainURL: resp.Shop.PrimaryDomain.URL,
	}
	return shop, resp.Menu, nil
}

// FeedProducts fetches one page of products with their variants for the merchant feed
func (c *Client) FeedProducts(ctx context.Context, first int, after string) (*domain.ProductConnection, error) {
	vars := map[string]interface{}{"first": first}
	if after != "" {
		vars["after"] = after
	}
	var resp struct {
		Products productConnection `json:"products"`
	}
	if err := c.Execute(ctx, FeedProductsQuery, vars, &resp); err != nil {
		return nil, errors.Wrap(err, "feed products")
	}
	conn := resp.Products.toDomain()
	return &conn, nil
}

type moneyCost struct {
	SubtotalAmount domain.Money `json:"subtotalAmount"`
	TotalAmount    domain.Money `json:"totalAmount"`
}

type cartNode struct {
	ID            string    `json:"id"`
	CheckoutURL   string    `json:"checkoutUrl"`
	TotalQuantity int       `json:"totalQuantity"`
	Cost          moneyCost `json:"cost"`
	Lines         struct {
		Nodes []struct {
			ID          string    `json:"id"`
			Quantity    int       `json:"quantity"`
			Cost        moneyCost `json:"cost"`
			Merchandise struct {
				domain.Variant
				Product struct {
					Title  string `json:"title"`
					Handle string `json:"handle"`
				} `json:"product"`
			} `json:"merchandise"`
		} `json:"nodes"`
	} `json:"lines"`
}

func (n *cartNode) toDomain() *domain.Cart {
	cart := &domain.Cart{
		ID:            n.ID,
		CheckoutURL:   n.CheckoutURL,
		TotalQuantity: n.TotalQuantity,
		Subtotal:      n.Cost.SubtotalAmount,
		Total:         n.Cost.TotalAmount,
	}
	for _, l := range n.Lines.Nodes {
		cart.Lines = append(cart.Lines, domain.CartLine{
			ID:            l.ID,
			Quantity:      l.Quantity,
			Merchandise:   l.Merchandise.Variant,
			ProductTitle:  l.Merchandise.Product.Title,
			ProductHandle: l.Merchandise.Product.Handle,
			Total:         l.Cost.TotalAmount,
		})
	}
	return cart
}

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

type cartPayload struct {
	Cart       *cartNode   `json:"cart"`
	UserErrors []userError `json:"userErrors"`
}

// result maps the payload to a cart. A cart the platform no longer knows is
// *errors.ErrNotFound; any other user error is *errors.ErrValidation.
func (p *cartPayload) result(op, cartID string) (*domain.Cart, error) {
	if len(p.UserErrors) > 0 {
		if p.Cart == nil && cartID != "" && missingCart(p.UserErrors) {
			return nil, &apperrors.ErrNotFound{Resource: "cart", ID: cartID}
		}
		fields := map[string]string{}
		msgs := make([]string, 0, len(p.UserErrors))
		for _, ue := range p.UserErrors {
			msgs = append(msgs, ue.Message)
			fields[strings.Join(ue.Field, ".")] = ue.Message
		}
		return nil, &apperrors.ErrValidation{Message: strings.Join(msgs, "; "), Fields: fields}
	}
	if p.Cart == nil {
		if cartID != "" {
			return nil, &apperrors.ErrNotFound{Resource: "cart", ID: cartID}
		}
		return nil, errors.Errorf("%s returned no cart", op)
	}
	return p.Cart.toDomain(), nil
}

func missingCart(userErrors []userError) bool {
	for _, ue := range userErrors {
		if len(ue.Field) > 0 && ue.Field[0] == "cartId" {
			return true
		}
		if strings.Contains(strings.ToLower(ue.Message), "does not exist") {
			return true
		}
	}
	return false
}

// Cart fetches a cart by id. An expired or unknown cart is (nil, nil).
func (c *Client) Cart(ctx context.Context, ic InContext, cartID string) (*domain.Cart, error) {
	var resp struct {
		Cart *cartNode `json:"cart"`
	}
	if err := c.executeInContext(ctx, ic, CartQuery, map[string]interface{}{"cartId": cartID}, &resp); err != nil {
		return nil, errors.Wrap(err, "cart")
	}
	if resp.Cart == nil {
		return nil, nil
	}
	return resp.Cart.toDomain(), nil
}

// CartCreate creates a cart holding lines
func (c *Client) CartCreate(ctx context.Context, ic InContext, lines []domain.CartLineInput) (*domain.Cart, error) {
	var resp struct {
		CartCreate cartPayload `json:"cartCreate"`
	}
	input := map[string]interface{}{"lines": lines}
	if err := c.executeInContext(ctx, ic, CartCreateMutation, map[string]interface{}{"input": input}, &resp); err != nil {
		return nil, errors.Wrap(err, "cartCreate")
	}
	return resp.CartCreate.result("cartCreate", "")
}

// CartLinesAdd adds lines to an existing cart
func (c *Client) CartLinesAdd(ctx context.Context, ic InContext, cartID string, lines []domain.CartLineInput) (*domain.Cart, error) {
	var resp struct {
		CartLinesAdd cartPayload `json:"cartLinesAdd"`
	}
	vars := map[string]interface{}{"cartId": cartID, "lines": lines}
	if err := c.executeInContext(ctx, ic, CartLinesAddMutation, vars, &resp); err != nil {
		return nil, errors.Wrap(err, "cartLinesAdd")
	}
	return resp.CartLinesAdd.result("cartLinesAdd", cartID)
}

// CartLinesUpdate changes line quantities
func (c *Client) CartLinesUpdate(ctx context.Context, ic InContext, cartID string, lines []domain.CartLineUpdate) (*domain.Cart, error) {
	var resp struct {
		CartLinesUpdate cartPayload `json:"cartLinesUpdate"`
	}
	vars := map[string]interface{}{"cartId": cartID, "lines": lines}
	if err := c.executeInContext(ctx, ic, CartLinesUpdateMutation, vars, &resp); err != nil {
		return nil, errors.Wrap(err, "cartLinesUpdate")
	}
	return resp.CartLinesUpdate.result("cartLinesUpdate", cartID)
}

// CartLinesRemove removes lines by id
func (c *Client) CartLinesRemove(ctx context.Context, ic InContext, cartID string, lineIDs []string) (*domain.Cart, error) {
	var resp struct {
		CartLinesRemove cartPayload `json:"cartLinesRemove"`
	}
	vars := map[string]interface{}{"cartId": cartID, "lineIds": lineIDs}
	if err := c.executeInContext(ctx, ic, CartLinesRemoveMutation, vars, &resp); err != nil {
		return nil, errors.Wrap(err, "cartLinesRemove")
	}
	return resp.CartLinesRemove.result("cartLinesRemove", cartID)
}
