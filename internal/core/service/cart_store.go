package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/greenleaf/storefront/internal/core/domain"
	"github.com/greenleaf/storefront/internal/core/ports"
)

const cartStore = "cart"

// DefaultQuantity is what callers add when the user did not pick a quantity.
const DefaultQuantity = 1

// CartStore holds the ordered cart lines and mirrors them into durable
// storage under the cart key.
type CartStore struct {
	storage  ports.Storage
	observer ports.Observer
	log      zerolog.Logger
	m        *mirror[domain.Cart]
}

// NewCartStore returns an empty, uninitialized cart; call Rehydrate once
// before first use.
func NewCartStore(storage ports.Storage, observer ports.Observer, log zerolog.Logger) *CartStore {
	if observer == nil {
		observer = ports.NopObserver{}
	}
	return &CartStore{
		storage:  storage,
		observer: observer,
		log:      log,
		m:        newMirror(cartStore, domain.Cart{}, domain.Cart.Clone, observer, log),
	}
}

// AddItem merges quantity into the line for product.ID, keeping its
// position, or appends a new line. Non-positive quantities are rejected
// with domain.ErrInvalidQuantity and leave the cart untouched.
func (c *CartStore) AddItem(ctx context.Context, product domain.Product, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	return c.m.run(ctx, command[domain.Cart]{
		name: "add_item",
		apply: func(cur domain.Cart) domain.Cart {
			next := cur.Clone()
			if i := next.Index(product.ID); i >= 0 {
				next[i].Quantity += quantity
				return next
			}
			return append(next, domain.CartLine{Product: product, Quantity: quantity})
		},
		persist: c.write,
	})
}

// RemoveItem drops the line for productID. Unknown ids are a no-op.
func (c *CartStore) RemoveItem(ctx context.Context, productID string) error {
	return c.m.run(ctx, command[domain.Cart]{
		name:    "remove_item",
		apply:   func(cur domain.Cart) domain.Cart { return without(cur, productID) },
		persist: c.write,
	})
}

// UpdateQuantity sets the quantity of the line for productID in place.
// A quantity <= 0 removes the line, exactly like RemoveItem.
func (c *CartStore) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return c.RemoveItem(ctx, productID)
	}
	return c.m.run(ctx, command[domain.Cart]{
		name: "update_quantity",
		apply: func(cur domain.Cart) domain.Cart {
			next := cur.Clone()
			if i := next.Index(productID); i >= 0 {
				next[i].Quantity = quantity
			}
			return next
		},
		persist: c.write,
	})
}

// ClearCart empties the cart and deletes the durable key entirely.
func (c *CartStore) ClearCart(ctx context.Context) error {
	return c.m.run(ctx, command[domain.Cart]{
		name:  "clear",
		apply: func(domain.Cart) domain.Cart { return domain.Cart{} },
		persist: func(ctx context.Context, _ domain.Cart) error {
			return c.storage.Delete(ctx, ports.KeyCart)
		},
	})
}

// Lines returns a copy of the cart lines in insertion order.
func (c *CartStore) Lines() domain.Cart {
	return c.m.get()
}

// TotalItems is the sum of all line quantities.
func (c *CartStore) TotalItems() int {
	return c.m.get().TotalItems()
}

// TotalPrice is the sum of price*quantity over all lines.
func (c *CartStore) TotalPrice() decimal.Decimal {
	return c.m.get().TotalPrice()
}

// Subscribe registers fn to be called with a copy of the cart after every
// change. The returned func removes the subscription.
func (c *CartStore) Subscribe(fn func(domain.Cart)) (unsubscribe func()) {
	return c.m.subs.add(fn)
}

// Rehydrate replaces the in-memory cart with the durable snapshot, verbatim:
// stale prices and quantities from an earlier visit are kept as they are.
// An unparseable snapshot is deleted and the cart stays empty; that case is
// logged, not returned. It is a no-op once the cart has been rehydrated or
// mutated.
func (c *CartStore) Rehydrate(ctx context.Context) error {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	if c.m.initialized {
		return nil
	}

	raw, ok, err := c.storage.Get(ctx, ports.KeyCart)
	if err != nil {
		c.m.restore(domain.Cart{})
		c.observer.Rehydrated(cartStore, ports.RehydrateFailed)
		return fmt.Errorf("cart rehydrate: %w", err)
	}
	if !ok {
		c.m.restore(domain.Cart{})
		c.observer.Rehydrated(cartStore, ports.RehydrateEmpty)
		return nil
	}

	var lines *domain.Cart
	if err := json.Unmarshal([]byte(raw), &lines); err != nil || lines == nil {
		c.log.Warn().Err(err).Msg("discarding corrupt cart snapshot")
		if derr := c.storage.Delete(ctx, ports.KeyCart); derr != nil {
			c.observer.StorageFailed(cartStore, "rehydrate")
			c.log.Error().Err(derr).Msg("failed to delete corrupt cart key")
		}
		c.m.restore(domain.Cart{})
		c.observer.Rehydrated(cartStore, ports.RehydrateCorrupt)
		return nil
	}

	c.m.restore(*lines)
	c.observer.Rehydrated(cartStore, ports.RehydrateRestored)
	return nil
}

// write serializes the whole cart under the cart key.
func (c *CartStore) write(ctx context.Context, cart domain.Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	return c.storage.Set(ctx, ports.KeyCart, string(raw))
}

func without(cart domain.Cart, productID string) domain.Cart {
	next := make(domain.Cart, 0, len(cart))
	for _, line := range cart {
		if line.Product.ID != productID {
			next = append(next, line)
		}
	}
	return next
}
