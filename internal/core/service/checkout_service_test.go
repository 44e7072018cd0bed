package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/greenleaf/storefront/internal/core/domain"
	"github.com/greenleaf/storefront/internal/core/ports"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCheckoutService_Quote(t *testing.T) {
	svc := NewCheckoutService(&stubCatalog{}, DefaultCheckoutConfig(), zerolog.Nop())

	small := domain.Cart{{Product: testProduct("A", "20"), Quantity: 2}}
	large := domain.Cart{{Product: testProduct("A", "60"), Quantity: 2}}
	exactly := domain.Cart{{Product: testProduct("A", "100"), Quantity: 1}}

	tests := []struct {
		name     string
		cart     domain.Cart
		promo    string
		shipping string
		discount string
		total    string
	}{
		{name: "empty cart", cart: domain.Cart{}, shipping: "0", discount: "0", total: "0"},
		{name: "pays shipping", cart: small, shipping: "15", discount: "0", total: "55"},
		{name: "free shipping over 100", cart: large, shipping: "0", discount: "0", total: "120"},
		{name: "100 is not over 100", cart: exactly, shipping: "15", discount: "0", total: "115"},
		{name: "ten percent", cart: small, promo: "desconto10", shipping: "15", discount: "4", total: "51"},
		{name: "free shipping code", cart: small, promo: "FRETEGRATIS", shipping: "15", discount: "15", total: "40"},
		{name: "free shipping code when already free", cart: large, promo: "fretegratis", shipping: "0", discount: "0", total: "120"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := svc.Quote(tt.cart, tt.promo)
			if err != nil {
				t.Fatalf("quote: %v", err)
			}
			if !q.Shipping.Equal(dec(tt.shipping)) || !q.Discount.Equal(dec(tt.discount)) || !q.Total.Equal(dec(tt.total)) {
				t.Fatalf("got shipping=%s discount=%s total=%s", q.Shipping, q.Discount, q.Total)
			}
			if q.TotalItems != tt.cart.TotalItems() {
				t.Fatalf("unexpected total items %d", q.TotalItems)
			}
		})
	}
}

func TestCheckoutService_QuoteInvalidPromo(t *testing.T) {
	svc := NewCheckoutService(&stubCatalog{}, DefaultCheckoutConfig(), zerolog.Nop())
	_, err := svc.Quote(domain.Cart{{Product: testProduct("A", "1"), Quantity: 1}}, "HALFOFF")
	if !errors.Is(err, domain.ErrInvalidPromo) {
		t.Fatalf("expected ErrInvalidPromo, got %v", err)
	}
}

func TestCheckoutService_Revalidate(t *testing.T) {
	inactive := testProduct("C", "5")
	inactive.Status = domain.ProductInactive
	lowStock := testProduct("D", "5")
	lowStock.Stock = 1

	catalog := &stubCatalog{products: map[string]domain.Product{
		"A": testProduct("A", "10"),
		"B": testProduct("B", "12"),
		"C": inactive,
		"D": lowStock,
	}}
	svc := NewCheckoutService(catalog, DefaultCheckoutConfig(), zerolog.Nop())

	cart := domain.Cart{
		{Product: testProduct("A", "10"), Quantity: 1},
		{Product: testProduct("B", "9.50"), Quantity: 1},
		{Product: testProduct("C", "5"), Quantity: 1},
		{Product: testProduct("D", "5"), Quantity: 3},
		{Product: testProduct("E", "1"), Quantity: 1},
	}

	stale, err := svc.Revalidate(context.Background(), cart)
	if err != nil {
		t.Fatalf("revalidate: %v", err)
	}

	want := map[string]domain.StaleReason{
		"B": domain.StalePriceChanged,
		"C": domain.StaleUnavailable,
		"D": domain.StaleInsufficientStock,
		"E": domain.StaleMissing,
	}
	if len(stale) != len(want) {
		t.Fatalf("expected %d stale lines, got %+v", len(want), stale)
	}
	for _, s := range stale {
		if want[s.ProductID] != s.Reason {
			t.Errorf("%s: expected %s, got %s", s.ProductID, want[s.ProductID], s.Reason)
		}
	}
}

func TestCheckoutService_RevalidateUpstreamError(t *testing.T) {
	svc := NewCheckoutService(&stubCatalog{err: domain.ErrUpstream}, DefaultCheckoutConfig(), zerolog.Nop())
	_, err := svc.Revalidate(context.Background(), domain.Cart{{Product: testProduct("A", "1"), Quantity: 1}})
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestCheckoutService_Prepare(t *testing.T) {
	catalog := &stubCatalog{products: map[string]domain.Product{"A": testProduct("A", "10")}}
	svc := NewCheckoutService(catalog, DefaultCheckoutConfig(), zerolog.Nop())

	if _, err := svc.Prepare(context.Background(), ports.CheckoutInput{}); !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}

	res, err := svc.Prepare(context.Background(), ports.CheckoutInput{
		Cart: domain.Cart{{Product: testProduct("A", "10"), Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if len(res.Stale) != 0 || !res.Quote.Total.Equal(dec("45")) {
		t.Fatalf("unexpected result %+v", res)
	}
}
