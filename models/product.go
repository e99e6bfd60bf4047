package models

import "time"

// Product is read-only catalog data keyed by an external product id.
// PriceInstallment is a fixed markup over the cash price, computed once when
// the product is first stored and never recomputed on sync updates.
type Product struct {
	ID               int       `json:"id"`
	APIID            *int      `json:"api_id,omitempty"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	PriceCash        Money     `json:"price_cash"`
	PriceInstallment Money     `json:"price_installment"`
	Category         string    `json:"category"`
	ImageURL         string    `json:"image_url"`
	Rating           Money     `json:"rating"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CartItem is one product line in a client's cart.
type CartItem struct {
	ID        int       `json:"id"`
	AccountID int       `json:"account_id"`
	ProductID int       `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	// Computed fields
	Title     *string `json:"title,omitempty"`
	PriceCash *Money  `json:"price_cash,omitempty"`
}

// CartItemInput is used for adding products to the cart.
type CartItemInput struct {
	AccountID int `json:"account_id"`
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

func (c *CartItemInput) Validate() string {
	if c.AccountID <= 0 {
		return "account_id is required"
	}
	if c.ProductID <= 0 {
		return "product_id is required"
	}
	if c.Quantity <= 0 {
		return "quantity must be positive"
	}
	return ""
}
