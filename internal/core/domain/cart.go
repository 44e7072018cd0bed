package domain

import "github.com/shopspring/decimal"

// CartLine pairs a product with the quantity wanted. Quantity is always >= 1.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Subtotal is the line price: product price times quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the ordered list of lines. Order is the order in which products
// were first added; there is at most one line per product id.
type Cart []CartLine

// Index returns the position of the line holding productID, or -1.
func (c Cart) Index(productID string) int {
	for i, line := range c {
		if line.Product.ID == productID {
			return i
		}
	}
	return -1
}

// TotalItems is the sum of all line quantities.
func (c Cart) TotalItems() int {
	total := 0
	for _, line := range c {
		total += line.Quantity
	}
	return total
}

// TotalPrice is the sum of price*quantity over all lines.
func (c Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c {
		total = total.Add(line.Subtotal())
	}
	return total
}

// Clone returns a copy whose backing array is not shared with c.
func (c Cart) Clone() Cart {
	if c == nil {
		return Cart{}
	}
	out := make(Cart, len(c))
	copy(out, c)
	return out
}
