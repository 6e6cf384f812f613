package domain

// CartLine is one merchandise line in a cart
type CartLine struct {
	ID            string  `json:"id"`
	Quantity      int     `json:"quantity"`
	Merchandise   Variant `json:"merchandise"`
	ProductTitle  string  `json:"productTitle"`
	ProductHandle string  `json:"productHandle"`
	Total         Money   `json:"total"`
}

// Cart mirrors the platform cart; totals are computed by the platform
type Cart struct {
	ID            string     `json:"id"`
	CheckoutURL   string     `json:"checkoutUrl"`
	TotalQuantity int        `json:"totalQuantity"`
	Lines         []CartLine `json:"lines"`
	Subtotal      Money      `json:"subtotal"`
	Total         Money      `json:"total"`
}

// CartLineInput adds merchandise to a cart
type CartLineInput struct {
	MerchandiseID string `json:"merchandiseId"`
	Quantity      int    `json:"quantity"`
}

// CartLineUpdate changes the quantity of an existing line
type CartLineUpdate struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}
