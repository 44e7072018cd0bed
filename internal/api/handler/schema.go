package handler

import (
	"github.com/shopspring/decimal"

	"github.com/greenleaf/storefront/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Cart ---

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	// Quantity defaults to 1 when omitted.
	Quantity int `json:"quantity" validate:"gte=0"`
}

type updateQuantityRequest struct {
	// Zero or less removes the line.
	Quantity *int `json:"quantity" validate:"required"`
}

type quoteRequest struct {
	PromoCode string `json:"promo_code" validate:"max=32"`
}

type cartResponse struct {
	Lines      domain.Cart     `json:"lines"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

func toCartResponse(cart domain.Cart) cartResponse {
	if cart == nil {
		cart = domain.Cart{}
	}
	return cartResponse{
		Lines:      cart,
		TotalItems: cart.TotalItems(),
		TotalPrice: cart.TotalPrice(),
	}
}

// --- Session ---

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Name            string `json:"name"             validate:"required,min=2"`
	Email           string `json:"email"            validate:"required,email"`
	Phone           string `json:"phone"            validate:"omitempty,max=32"`
	Password        string `json:"password"         validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type sessionResponse struct {
	State domain.SessionState `json:"state"`
	User  *domain.User        `json:"user,omitempty"`
}

func toSessionResponse(s domain.Session) sessionResponse {
	return sessionResponse{State: s.State(), User: s.User}
}

// --- Checkout ---

type checkoutRequest struct {
	PromoCode string `json:"promo_code" validate:"max=32"`
}

type checkoutResponse struct {
	Ready bool               `json:"ready"`
	Quote domain.Quote       `json:"quote"`
	Stale []domain.StaleLine `json:"stale,omitempty"`
}

// --- Orders ---

type orderResponse struct {
	ID          string             `json:"id"`
	Reference   string             `json:"reference"`
	Status      domain.OrderStatus `json:"status"`
	StatusLabel string             `json:"status_label"`
	Items       []domain.OrderItem `json:"items"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	CreatedAt   string             `json:"created_at"`
}

// --- Admin ---

type profileSnapshotResponse struct {
	ID            string       `json:"id"`
	TokenPresent  bool         `json:"token_present"`
	User          *domain.User `json:"user,omitempty"`
	UserCorrupt   bool         `json:"user_corrupt,omitempty"`
	Cart          *domain.Cart `json:"cart,omitempty"`
	CartCorrupt   bool         `json:"cart_corrupt,omitempty"`
	ProfileLoaded bool         `json:"profile_loaded"`
}
