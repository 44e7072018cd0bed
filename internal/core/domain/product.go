package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups catalog products.
type Category string

const (
	CategoryPlants      Category = "PLANTS"
	CategoryTools       Category = "TOOLS"
	CategoryPots        Category = "POTS"
	CategoryFertilizers Category = "FERTILIZERS"
	CategorySeeds       Category = "SEEDS"
	CategoryAccessories Category = "ACCESSORIES"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryPlants,
	CategoryTools,
	CategoryPots,
	CategoryFertilizers,
	CategorySeeds,
	CategoryAccessories,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ProductStatus is the catalog availability flag.
type ProductStatus string

const (
	ProductActive     ProductStatus = "ACTIVE"
	ProductInactive   ProductStatus = "INACTIVE"
	ProductOutOfStock ProductStatus = "OUT_OF_STOCK"
)

// Dimensions is the physical size of a product, in centimetres.
type Dimensions struct {
	Height float64 `json:"height"`
	Width  float64 `json:"width"`
	Depth  float64 `json:"depth"`
}

// Product is a catalog entity as fetched from the remote API. It is treated
// as an immutable value: cart lines reference it but never modify it.
type Product struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	Category         Category        `json:"category"`
	Price            decimal.Decimal `json:"price"`
	Stock            int             `json:"stock"`
	SKU              string          `json:"sku"`
	Images           []string        `json:"images"`
	Status           ProductStatus   `json:"status"`
	Weight           *float64        `json:"weight,omitempty"`
	Dimensions       *Dimensions     `json:"dimensions,omitempty"`
	CareInstructions string          `json:"careInstructions,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// Purchasable reports whether the product can currently be sold.
func (p Product) Purchasable() bool {
	return p.Status == ProductActive && p.Stock > 0
}
