package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spa-booking-deposits/internal/handler"
	"github.com/iliyamo/spa-booking-deposits/internal/middleware"
)

// RegisterDashboard registers the review dashboard under /v1/therapist.
// Therapists act on their own bookings, admins on all of them.  Bank
// details are therapist only.
func RegisterDashboard(e *echo.Echo, d *handler.DashboardHandler, p *handler.ProfileHandler, jwtSecret string) {
	g := e.Group(
		"/v1/therapist",
		middleware.JWTAuth(jwtSecret, false),
		middleware.RequireRole("THERAPIST", "ADMIN"),
	)
	g.GET("/bookings", d.List)
	g.GET("/bookings/upcoming", d.Upcoming)
	g.GET("/bookings/reminders", d.Reminders)
	g.GET("/payouts", d.ListPayouts)
	g.POST("/bookings/:id/approve", d.Approve)
	g.POST("/bookings/:id/reject", d.Reject)
	g.POST("/bookings/:id/no-show", d.NoShow)

	therapistOnly := middleware.RequireRole("THERAPIST")
	g.GET("/bank-details", p.GetBank, therapistOnly)
	g.PUT("/bank-details", p.PutBank, therapistOnly)
}
