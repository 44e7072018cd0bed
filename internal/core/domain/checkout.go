package domain

import "github.com/shopspring/decimal"

// Quote is the price breakdown shown on the cart page.
type Quote struct {
	TotalItems int             `json:"total_items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Shipping   decimal.Decimal `json:"shipping"`
	Discount   decimal.Decimal `json:"discount"`
	Total      decimal.Decimal `json:"total"`
	PromoCode  string          `json:"promo_code,omitempty"`
}

// StaleReason explains why a cart line disagrees with the live catalog.
type StaleReason string

const (
	StalePriceChanged      StaleReason = "price_changed"
	StaleInsufficientStock StaleReason = "insufficient_stock"
	StaleUnavailable       StaleReason = "unavailable"
	StaleMissing           StaleReason = "missing"
)

// StaleLine reports a cart line whose embedded product no longer matches
// the freshly fetched one.
type StaleLine struct {
	ProductID string          `json:"product_id"`
	Reason    StaleReason     `json:"reason"`
	CartPrice decimal.Decimal `json:"cart_price"`
	LivePrice decimal.Decimal `json:"live_price"`
	Quantity  int             `json:"quantity"`
	Stock     int             `json:"stock"`
}
