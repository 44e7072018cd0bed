package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/greenleaf/storefront/internal/core/domain"
)

// Sort orders accepted by the remote product listing.
const (
	SortName      = "name"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNewest    = "newest"
)

// ProductQuery carries the listing filters of the products page.
type ProductQuery struct {
	Page     int              // 1-based
	Limit    int              // page size, defaults to 12
	Category domain.Category  // optional
	Search   string           // optional: free text
	MinPrice *decimal.Decimal // optional
	MaxPrice *decimal.Decimal // optional
	Sort     string           // optional: one of the Sort* constants
}

// ProductPage is one page of the product listing.
type ProductPage struct {
	Products   []domain.Product `json:"products"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	TotalPages int              `json:"totalPages"`
}

// Catalog is the remote product API.
type Catalog interface {
	ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}
