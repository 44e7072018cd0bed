package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/greenleaf/storefront/internal/core/ports"
	"github.com/greenleaf/storefront/internal/core/service"
)

// CartHandler exposes the cart store of the requesting browser profile.
type CartHandler struct {
	catalog  ports.Catalog
	checkout ports.CheckoutService
}

func NewCartHandler(catalog ports.Catalog, checkout ports.CheckoutService) *CartHandler {
	return &CartHandler{catalog: catalog, checkout: checkout}
}

// Get returns the cart with its totals.
//
// @Summary      Get the cart
// @Tags         cart
// @Produce      json
// @Success      200   {object}  cartResponse
// @Router       /v1/cart [get]
func (h *CartHandler) Get(c echo.Context) error {
	p, err := ctxProfile(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartResponse(p.Cart.Lines()))
}

// AddItem adds a catalog product to the cart, merging with an existing line.
//
// @Summary      Add a product to the cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        body  body      addItemRequest  true  "Product and quantity"
// @Success      200   {object}  cartResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/cart/items [post]
func (h *CartHandler) AddItem(c echo.Context) error {
	p, err := ctxProfile(c)
	if err != nil {
		return err
	}

	var req addItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	qty := req.Quantity
	if qty == 0 {
		qty = service.DefaultQuantity
	}

	product, err := h.catalog.GetProduct(c.Request().Context(), req.ProductID)
	if err != nil {
		return err
	}
	if !product.Purchasable() {
		return echo.NewHTTPError(http.StatusConflict, "product is not available")
	}
	// Advisory only: the stock is re-checked at checkout.
	inCart := 0
	if lines := p.Cart.Lines(); lines.Index(product.ID) >= 0 {
		inCart = lines[lines.Index(product.ID)].Quantity
	}
	if inCart+qty > product.Stock {
		return echo.NewHTTPError(http.StatusConflict, "insufficient stock")
	}

	if err := p.Cart.AddItem(c.Request().Context(), *product, qty); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartResponse(p.Cart.Lines()))
}

// UpdateQuantity sets the quantity of a line. Zero or less removes it.
//
// @Summary      Change a line quantity
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        product_id  path      string                 true  "Product ID"
// @Param        body        body      updateQuantityRequest  true  "New quantity"
// @Success      200         {object}  cartResponse
// @Failure      400         {object}  errorResponse
// @Failure      422         {object}  errorResponse
// @Failure      503         {object}  errorResponse
// @Router       /v1/cart/items/{product_id} [patch]
func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	p, err := ctxProfile(c)
	if err != nil {
		return err
	}

	var req updateQuantityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	if err := p.Cart.UpdateQuantity(c.Request().Context(), c.Param("product_id"), *req.Quantity); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartResponse(p.Cart.Lines()))
}

// RemoveItem drops a line from the cart.
//
// @Summary      Remove a line
// @Tags         cart
// @Produce      json
// @Param        product_id  path      string  true  "Product ID"
// @Success      200         {object}  cartResponse
// @Failure      503         {object}  errorResponse
// @Router       /v1/cart/items/{product_id} [delete]
func (h *CartHandler) RemoveItem(c echo.Context) error {
	p, err := ctxProfile(c)
	if err != nil {
		return err
	}
	if err := p.Cart.RemoveItem(c.Request().Context(), c.Param("product_id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartResponse(p.Cart.Lines()))
}

// Clear empties the cart.
//
// @Summary      Empty the cart
// @Tags         cart
// @Produce      json
// @Success      200   {object}  cartResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/cart [delete]
func (h *CartHandler) Clear(c echo.Context) error {
	p, err := ctxProfile(c)
	if err != nil {
		return err
	}
	if err := p.Cart.ClearCart(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartResponse(p.Cart.Lines()))
}

// Quote prices the cart: subtotal, shipping, promo discount and total.
//
// @Summary      Price the cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        body  body      quoteRequest  false  "Promo code"
// @Success      200   {object}  domain.Quote
// @Failure      422   {object}  errorResponse
// @Router       /v1/cart/quote [post]
func (h *CartHandler) Quote(c echo.Context) error {
	p, err := ctxProfile(c)
	if err != nil {
		return err
	}

	var req quoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	q, err := h.checkout.Quote(p.Cart.Lines(), req.PromoCode)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, q)
}
