package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/greenleaf/storefront/internal/core/domain"
	"github.com/greenleaf/storefront/internal/core/ports"
)

const (
	maxPageSize  = 48
	relatedLimit = 4
)

// CatalogHandler passes product reads through to the remote catalog.
type CatalogHandler struct {
	catalog ports.Catalog
}

func NewCatalogHandler(catalog ports.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// List returns one page of products.
//
// @Summary      List products
// @Tags         catalog
// @Produce      json
// @Param        page      query     int     false  "Page, from 1"
// @Param        limit     query     int     false  "Page size"
// @Param        category  query     string  false  "Category"
// @Param        search    query     string  false  "Free text"
// @Param        minPrice  query     string  false  "Minimum price"
// @Param        maxPrice  query     string  false  "Maximum price"
// @Param        sort      query     string  false  "name, price_asc, price_desc or newest"
// @Success      200       {object}  ports.ProductPage
// @Failure      422       {object}  errorResponse
// @Failure      502       {object}  errorResponse
// @Router       /v1/products [get]
func (h *CatalogHandler) List(c echo.Context) error {
	q, err := parseProductQuery(c)
	if err != nil {
		return err
	}
	page, err := h.catalog.ListProducts(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// Get returns one product.
//
// @Summary      Get a product
// @Tags         catalog
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  domain.Product
// @Failure      404  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /v1/products/{id} [get]
func (h *CatalogHandler) Get(c echo.Context) error {
	p, err := h.catalog.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Related returns up to four other products of the same category.
//
// @Summary      Related products
// @Tags         catalog
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {array}   domain.Product
// @Failure      404  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /v1/products/{id}/related [get]
func (h *CatalogHandler) Related(c echo.Context) error {
	ctx := c.Request().Context()
	p, err := h.catalog.GetProduct(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	page, err := h.catalog.ListProducts(ctx, ports.ProductQuery{
		Page:     1,
		Limit:    relatedLimit + 1,
		Category: p.Category,
	})
	if err != nil {
		return err
	}

	related := make([]domain.Product, 0, relatedLimit)
	for _, other := range page.Products {
		if other.ID == p.ID {
			continue
		}
		related = append(related, other)
		if len(related) == relatedLimit {
			break
		}
	}
	return c.JSON(http.StatusOK, related)
}

func parseProductQuery(c echo.Context) (ports.ProductQuery, error) {
	q := ports.ProductQuery{
		Page:     1,
		Search:   c.QueryParam("search"),
		Category: domain.Category(c.QueryParam("category")),
		Sort:     c.QueryParam("sort"),
	}

	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return q, echo.NewHTTPError(http.StatusUnprocessableEntity, "page must be a positive integer")
		}
		q.Page = n
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPageSize {
			return q, echo.NewHTTPError(http.StatusUnprocessableEntity, "limit must be between 1 and "+strconv.Itoa(maxPageSize))
		}
		q.Limit = n
	}
	if q.Category != "" && !q.Category.Valid() {
		return q, echo.NewHTTPError(http.StatusUnprocessableEntity, "unknown category")
	}
	switch q.Sort {
	case "", ports.SortName, ports.SortPriceAsc, ports.SortPriceDesc, ports.SortNewest:
	default:
		return q, echo.NewHTTPError(http.StatusUnprocessableEntity, "unknown sort")
	}

	var err error
	if q.MinPrice, err = priceParam(c, "minPrice"); err != nil {
		return q, err
	}
	if q.MaxPrice, err = priceParam(c, "maxPrice"); err != nil {
		return q, err
	}
	if q.MinPrice != nil && q.MaxPrice != nil && q.MinPrice.GreaterThan(*q.MaxPrice) {
		return q, echo.NewHTTPError(http.StatusUnprocessableEntity, "minPrice must not exceed maxPrice")
	}
	return q, nil
}

func priceParam(c echo.Context, name string) (*decimal.Decimal, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		return nil, echo.NewHTTPError(http.StatusUnprocessableEntity, name+" must be a non-negative number")
	}
	return &d, nil
}
