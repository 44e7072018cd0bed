package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/greenleaf/storefront/docs"
	"github.com/greenleaf/storefront/internal/api/handler"
	"github.com/greenleaf/storefront/internal/api/middleware"
	"github.com/greenleaf/storefront/internal/core/domain"
	"github.com/greenleaf/storefront/internal/core/ports"
	"github.com/greenleaf/storefront/internal/core/service"
)

// Deps are the components the router exposes.
type Deps struct {
	Profiles *service.Profiles
	Storage  ports.Storage
	Catalog  ports.Catalog
	Accounts handler.AccountService
	Checkout ports.CheckoutService
	Stream   handler.StreamServer
	// Pingers are checked by the readiness probe, by name.
	Pingers map[string]ports.Pinger
	// Metrics receives the HTTP metrics and is served on /metrics together
	// with the default registry. Nil means the default registry alone.
	Metrics       *prometheus.Registry
	SecureCookies bool
	Log           zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Metrics != nil {
		registerer = d.Metrics
		gatherer = prometheus.Gatherers{d.Metrics, prometheus.DefaultGatherer}
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "storefront",
		Subsystem:  "http",
		Registerer: registerer,
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Accounts)
	cartHandler := handler.NewCartHandler(d.Catalog, d.Checkout)
	catalogHandler := handler.NewCatalogHandler(d.Catalog)
	checkoutHandler := handler.NewCheckoutHandler(d.Checkout)
	streamHandler := handler.NewStreamHandler(d.Stream, d.Log.With().Str("component", "stream").Logger())
	adminHandler := handler.NewAdminHandler(d.Storage, d.Profiles)

	requireSession := middleware.RequireSession(nil)

	// --- Catalog (no profile needed) ---
	e.GET("/v1/products", catalogHandler.List)
	e.GET("/v1/products/:id", catalogHandler.Get)
	e.GET("/v1/products/:id/related", catalogHandler.Related)

	// --- Profile-scoped routes ---
	v1 := e.Group("/v1", middleware.Profile(d.Profiles, d.SecureCookies))

	v1.GET("/cart", cartHandler.Get)
	v1.DELETE("/cart", cartHandler.Clear)
	v1.POST("/cart/items", cartHandler.AddItem)
	v1.PATCH("/cart/items/:product_id", cartHandler.UpdateQuantity)
	v1.DELETE("/cart/items/:product_id", cartHandler.RemoveItem)
	v1.POST("/cart/quote", cartHandler.Quote)

	v1.GET("/session", authHandler.Session)
	v1.POST("/session/login", authHandler.Login)
	v1.POST("/session/register", authHandler.Register)
	v1.POST("/session/logout", authHandler.Logout)

	v1.GET("/stream", streamHandler.Stream)

	// --- Logged-in routes ---
	v1.POST("/checkout", checkoutHandler.Prepare, requireSession)
	v1.GET("/profile/orders", authHandler.Orders, requireSession)
	v1.GET("/admin/profiles/:id", adminHandler.Profile, requireSession, middleware.RBAC(domain.RoleAdmin))

	// --- Operational endpoints ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Pingers)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
