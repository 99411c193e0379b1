package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spa-booking-deposits/internal/handler"
	"github.com/iliyamo/spa-booking-deposits/internal/middleware"
)

// RegisterCustomer registers the booking and deposit endpoints.  All
// routes require a valid JWT with the CUSTOMER role, except the proof
// download, which the reviewing therapist and admins use as well.
func RegisterCustomer(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret, false),
		middleware.RequireRole("CUSTOMER"),
	)
	g.POST("/scheduled-bookings", h.Create)
	g.POST("/scheduled-bookings/:id/deposit", h.SubmitDeposit)
	g.POST("/scheduled-bookings/:id/no-show", h.NoShow)
	g.GET("/my-scheduled-bookings", h.ListMine)

	e.GET("/v1/scheduled-bookings/:id/proof", h.Proof,
		middleware.JWTAuth(jwtSecret, false),
		middleware.RequireRole("CUSTOMER", "THERAPIST", "ADMIN"),
	)
}
