package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/greenleaf/storefront/internal/api/metrics"
	"github.com/greenleaf/storefront/internal/core/ports"
)

// CheckoutHandler is the hand-off from cart to payment. It never places an
// order; it only confirms the cart still matches the catalog.
type CheckoutHandler struct {
	checkout ports.CheckoutService
}

func NewCheckoutHandler(checkout ports.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// Prepare re-validates the cart against the live catalog and prices it.
// A stale cart is answered with 409 and the offending lines; the cart
// itself is left as it is.
//
// @Summary      Prepare checkout
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        body  body      checkoutRequest  false  "Promo code"
// @Success      200   {object}  checkoutResponse
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  checkoutResponse
// @Failure      422   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /v1/checkout [post]
func (h *CheckoutHandler) Prepare(c echo.Context) error {
	p, err := ctxProfile(c)
	if err != nil {
		return err
	}

	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	res, err := h.checkout.Prepare(c.Request().Context(), ports.CheckoutInput{
		Cart:      p.Cart.Lines(),
		PromoCode: req.PromoCode,
	})
	if err != nil {
		return err
	}

	if len(res.Stale) > 0 {
		for _, s := range res.Stale {
			metrics.StaleLinesTotal.WithLabelValues(string(s.Reason)).Inc()
		}
		return c.JSON(http.StatusConflict, checkoutResponse{Quote: res.Quote, Stale: res.Stale})
	}
	return c.JSON(http.StatusOK, checkoutResponse{Ready: true, Quote: res.Quote})
}
