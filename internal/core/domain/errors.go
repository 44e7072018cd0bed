package domain

import "errors"

var (
	ErrEmptyToken         = errors.New("session token is empty")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrSessionExpired     = errors.New("session expired")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrProductNotFound    = errors.New("product not found")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrInvalidPromo       = errors.New("invalid promo code")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrUpstream           = errors.New("upstream api error")
	ErrNotPersisted       = errors.New("change applied but not saved")
)
