package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of a past order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderConfirmed  OrderStatus = "CONFIRMED"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

var orderStatusLabels = map[OrderStatus]string{
	OrderPending:    "Pendente",
	OrderConfirmed:  "Confirmado",
	OrderProcessing: "Processando",
	OrderShipped:    "Enviado",
	OrderDelivered:  "Entregue",
	OrderCancelled:  "Cancelado",
}

// Label returns the storefront display label, falling back to the raw status.
func (s OrderStatus) Label() string {
	if label, ok := orderStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// OrderItem is one product line of a placed order.
type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Order is a past order listed on the profile page.
type Order struct {
	ID          string          `json:"id"`
	Status      OrderStatus     `json:"status"`
	Items       []OrderItem     `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ShortID is the last eight characters of the id, as shown to customers.
func (o Order) ShortID() string {
	if len(o.ID) <= 8 {
		return o.ID
	}
	return o.ID[len(o.ID)-8:]
}
