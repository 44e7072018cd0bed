package ports

import (
	"context"

	"github.com/greenleaf/storefront/internal/core/domain"
)

// CheckoutInput carries what the checkout hand-off needs.
type CheckoutInput struct {
	Cart      domain.Cart
	PromoCode string
}

// CheckoutResult is returned when a cart is ready to hand off to payment.
type CheckoutResult struct {
	Quote domain.Quote       `json:"quote"`
	Stale []domain.StaleLine `json:"stale,omitempty"`
}

// CheckoutService prices carts and re-validates them against the catalog.
type CheckoutService interface {
	Quote(cart domain.Cart, promoCode string) (domain.Quote, error)
	Revalidate(ctx context.Context, cart domain.Cart) ([]domain.StaleLine, error)
	Prepare(ctx context.Context, in CheckoutInput) (*CheckoutResult, error)
}
