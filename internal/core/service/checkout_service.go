package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/greenleaf/storefront/internal/core/domain"
	"github.com/greenleaf/storefront/internal/core/ports"
)

// Promo codes accepted on the cart page.
const (
	PromoTenPercent   = "DESCONTO10"
	PromoFreeShipping = "FRETEGRATIS"
)

// CheckoutConfig holds the shipping rule of the cart page.
type CheckoutConfig struct {
	// FreeShippingOver is the subtotal above which shipping is free.
	FreeShippingOver decimal.Decimal
	ShippingFee      decimal.Decimal
}

// DefaultCheckoutConfig is free shipping above 100, otherwise a flat 15.
func DefaultCheckoutConfig() CheckoutConfig {
	return CheckoutConfig{
		FreeShippingOver: decimal.NewFromInt(100),
		ShippingFee:      decimal.NewFromInt(15),
	}
}

type checkoutService struct {
	catalog ports.Catalog
	cfg     CheckoutConfig
	log     zerolog.Logger
}

// NewCheckoutService returns a CheckoutService that re-validates carts
// against catalog.
func NewCheckoutService(catalog ports.Catalog, cfg CheckoutConfig, log zerolog.Logger) ports.CheckoutService {
	return &checkoutService{catalog: catalog, cfg: cfg, log: log}
}

// Quote prices the cart. promoCode is case-insensitive; an unknown
// non-empty code returns domain.ErrInvalidPromo.
func (s *checkoutService) Quote(cart domain.Cart, promoCode string) (domain.Quote, error) {
	subtotal := cart.TotalPrice()

	shipping := decimal.Zero
	if len(cart) > 0 && !subtotal.GreaterThan(s.cfg.FreeShippingOver) {
		shipping = s.cfg.ShippingFee
	}

	discount := decimal.Zero
	code := strings.ToUpper(strings.TrimSpace(promoCode))
	switch code {
	case "":
	case PromoTenPercent:
		discount = subtotal.Mul(decimal.RequireFromString("0.10"))
	case PromoFreeShipping:
		discount = shipping
	default:
		return domain.Quote{}, fmt.Errorf("quote: %w: %s", domain.ErrInvalidPromo, promoCode)
	}

	return domain.Quote{
		TotalItems: cart.TotalItems(),
		Subtotal:   subtotal,
		Shipping:   shipping,
		Discount:   discount,
		Total:      subtotal.Add(shipping).Sub(discount),
		PromoCode:  code,
	}, nil
}

// Revalidate fetches every product in the cart and reports lines that no
// longer match the catalog. It never changes the cart.
func (s *checkoutService) Revalidate(ctx context.Context, cart domain.Cart) ([]domain.StaleLine, error) {
	var stale []domain.StaleLine
	for _, line := range cart {
		live, err := s.catalog.GetProduct(ctx, line.Product.ID)
		if errors.Is(err, domain.ErrProductNotFound) {
			stale = append(stale, domain.StaleLine{
				ProductID: line.Product.ID,
				Reason:    domain.StaleMissing,
				CartPrice: line.Product.Price,
				Quantity:  line.Quantity,
			})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("revalidate %s: %w", line.Product.ID, err)
		}

		if reason, ok := staleReason(line, *live); ok {
			stale = append(stale, domain.StaleLine{
				ProductID: line.Product.ID,
				Reason:    reason,
				CartPrice: line.Product.Price,
				LivePrice: live.Price,
				Quantity:  line.Quantity,
				Stock:     live.Stock,
			})
		}
	}
	return stale, nil
}

// Prepare is the checkout hand-off: the cart must be non-empty and is
// re-validated before it is priced.
func (s *checkoutService) Prepare(ctx context.Context, in ports.CheckoutInput) (*ports.CheckoutResult, error) {
	if len(in.Cart) == 0 {
		return nil, domain.ErrEmptyCart
	}

	stale, err := s.Revalidate(ctx, in.Cart)
	if err != nil {
		return nil, err
	}

	quote, err := s.Quote(in.Cart, in.PromoCode)
	if err != nil {
		return nil, err
	}

	if len(stale) > 0 {
		s.log.Info().Int("stale_lines", len(stale)).Msg("checkout blocked by stale cart")
	}
	return &ports.CheckoutResult{Quote: quote, Stale: stale}, nil
}

// staleReason picks the most severe mismatch between a cart line and the
// live product.
func staleReason(line domain.CartLine, live domain.Product) (domain.StaleReason, bool) {
	switch {
	case live.Status != domain.ProductActive:
		return domain.StaleUnavailable, true
	case live.Stock < line.Quantity:
		return domain.StaleInsufficientStock, true
	case !live.Price.Equal(line.Product.Price):
		return domain.StalePriceChanged, true
	}
	return "", false
}
