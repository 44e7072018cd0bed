package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/greenleaf/storefront/internal/core/domain"
	"github.com/greenleaf/storefront/internal/core/ports"
	"github.com/greenleaf/storefront/internal/core/service"
)

// AccountService is what the session and profile handlers need from
// service.AccountService.
type AccountService interface {
	Login(ctx context.Context, p *service.Profile, email, password string) (*domain.User, error)
	Register(ctx context.Context, p *service.Profile, in ports.RegisterInput) (*domain.User, error)
	Logout(ctx context.Context, p *service.Profile) error
	Orders(ctx context.Context, p *service.Profile) ([]domain.Order, error)
}

// AuthHandler drives the session of the requesting browser profile.
type AuthHandler struct {
	accounts AccountService
}

func NewAuthHandler(accounts AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// Session returns the session state of the profile.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200   {object}  sessionResponse
// @Router       /v1/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	p, err := ctxProfile(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(p.Session.Session()))
}

// Login authenticates against the remote API and starts the session.
//
// @Summary      Login
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /v1/session/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	p, err := ctxProfile(c)
	if err != nil {
		return err
	}

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	if _, err := h.accounts.Login(c.Request().Context(), p, req.Email, req.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(p.Session.Session()))
}

// Register creates an account and logs the profile straight in.
//
// @Summary      Register a new account
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /v1/session/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	p, err := ctxProfile(c)
	if err != nil {
		return err
	}

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	in := ports.RegisterInput{Name: req.Name, Email: req.Email, Phone: req.Phone, Password: req.Password}
	if _, err := h.accounts.Register(c.Request().Context(), p, in); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toSessionResponse(p.Session.Session()))
}

// Logout ends the session. Logging out an anonymous profile is a no-op.
//
// @Summary      Logout
// @Tags         session
// @Produce      json
// @Success      200   {object}  sessionResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/session/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	p, err := ctxProfile(c)
	if err != nil {
		return err
	}
	if err := h.accounts.Logout(c.Request().Context(), p); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(p.Session.Session()))
}

// Orders lists the past orders of the logged-in user.
//
// @Summary      Order history
// @Tags         profile
// @Produce      json
// @Success      200   {array}   orderResponse
// @Failure      401   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /v1/profile/orders [get]
func (h *AuthHandler) Orders(c echo.Context) error {
	p, err := ctxProfile(c)
	if err != nil {
		return err
	}
	orders, err := h.accounts.Orders(c.Request().Context(), p)
	if err != nil {
		return err
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, orderResponse{
			ID:          o.ID,
			Reference:   o.ShortID(),
			Status:      o.Status,
			StatusLabel: o.Status.Label(),
			Items:       o.Items,
			TotalAmount: o.TotalAmount,
			CreatedAt:   o.CreatedAt.Format("2006-01-02"),
		})
	}
	return c.JSON(http.StatusOK, resp)
}
