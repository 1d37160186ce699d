package api

import (
	"context"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"

	"github.com/handmadehub/storefront/internal/api/handler"
	"github.com/handmadehub/storefront/internal/api/middleware"
	"github.com/handmadehub/storefront/internal/core/ports"
	"github.com/handmadehub/storefront/internal/core/service"
)

// Deps carries everything the router needs wired in. All dependencies are
// constructed once in main and passed by reference: there is no hidden
// global state reachable from handlers.
type Deps struct {
	Stores        ports.StoreProvider
	Sessions      *service.SessionService
	Orders        ports.OrderGateway
	Tokens        ports.TokenStore
	Gateway       ports.Passthrough
	ReadyChecks   map[string]func(ctx context.Context) error
	SessionCookie string
	Log           zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("storefront"))
	e.Use(middleware.Session(deps.SessionCookie))

	// --- Handlers ---
	cartHandler := handler.NewCartHandler(deps.Stores)
	checkoutHandler := handler.NewCheckoutHandler(deps.Stores, deps.Orders, deps.Tokens)
	sessionHandler := handler.NewSessionHandler(deps.Sessions)
	proxy := handler.NewProxyHandler(deps.Gateway, deps.Tokens, deps.Stores)

	v1 := e.Group("/v1")

	// --- Cart ---
	v1.GET("/cart", cartHandler.Get)
	v1.POST("/cart/items", cartHandler.AddItem)
	v1.PUT("/cart/items/:id", cartHandler.UpdateQuantity)
	v1.DELETE("/cart/items/:id", cartHandler.RemoveItem)
	v1.POST("/cart/gift-card", cartHandler.AddGiftCard)
	v1.DELETE("/cart/error", cartHandler.DismissError)

	// --- Checkout ---
	v1.POST("/checkout", checkoutHandler.Submit)

	// --- Session ---
	v1.GET("/session", sessionHandler.Identity)
	v1.POST("/session/login", sessionHandler.Login)
	v1.POST("/session/register", sessionHandler.Register)
	v1.POST("/session/logout", sessionHandler.Logout)

	// --- Upstream passthrough: products ---
	v1.GET("/products", proxy.Route("/products"))
	v1.GET("/products/search", proxy.Route("/products/search"))
	v1.GET("/products/mine", proxy.Route("/products/my-products"))
	v1.GET("/products/:id", proxy.RouteParam("/products/", "id"))
	v1.POST("/products", proxy.Route("/products"))
	v1.PUT("/products/:id", proxy.RouteParam("/products/", "id"))
	v1.DELETE("/products/:id", proxy.RouteParam("/products/", "id"))

	// --- Upstream passthrough: orders ---
	v1.POST("/orders", proxy.Route("/orders"))
	v1.GET("/orders/my", proxy.Route("/orders/my"))
	v1.GET("/orders/all", proxy.Route("/orders/all"))
	v1.GET("/orders/artisan", proxy.Route("/orders/my-orders"))
	v1.GET("/orders/:id", proxy.RouteParam("/orders/", "id"))
	v1.PUT("/orders/:id/status", proxy.RouteParamSuffix("/orders/", "id", "/status"))
	v1.PUT("/orders/:id/tracking", proxy.RouteParamSuffix("/orders/", "id", "/tracking"))

	// --- Upstream passthrough: reviews ---
	v1.GET("/reviews/product/:id", proxy.RouteParam("/reviews/product/", "id"))
	v1.POST("/reviews/:id", proxy.RouteParam("/reviews/", "id"))

	// --- Upstream passthrough: artisan requests ---
	v1.GET("/artisan-requests", proxy.Route("/artisan-requests"))
	v1.GET("/artisan-requests/my-request", proxy.Route("/artisan-requests/my-request"))
	v1.POST("/artisan-requests", proxy.Route("/artisan-requests"))
	v1.PUT("/artisan-requests/:id", proxy.RouteParam("/artisan-requests/", "id"))

	// --- Upstream passthrough: users (admin views) ---
	v1.GET("/users", proxy.Route("/users"))

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	// --- Health probes ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.ReadyChecks)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)

	return e
}
