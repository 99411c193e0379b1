package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spa-booking-deposits/internal/handler"
	"github.com/iliyamo/spa-booking-deposits/internal/middleware"
)

// RegisterRoutes registers the unauthenticated endpoints.  policy is the
// deposit policy handler, wrapped by the response cache.
func RegisterRoutes(e *echo.Echo, policy echo.HandlerFunc, cache echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)
	e.GET("/v1/deposit-policy", policy, cache)
}

// RegisterAuth registers token endpoints under /v1/auth and /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret, false))
}

// RegisterAccount registers endpoints open to every signed-in role: the
// notification inbox, the live websocket and the membership checkout.
func RegisterAccount(e *echo.Echo, n *handler.NotificationHandler, live echo.HandlerFunc, co *handler.CheckoutHandler, jwtSecret string) {
	auth := middleware.JWTAuth(jwtSecret, false)
	e.GET("/v1/notifications", n.List, auth)
	e.POST("/v1/notifications/:id/read", n.MarkRead, auth)
	e.GET("/v1/ws", live, middleware.JWTAuth(jwtSecret, true))
	e.POST("/v1/checkout", co.Create, auth, middleware.RequireRole("THERAPIST"))
}
