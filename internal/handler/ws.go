package handler

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spa-booking-deposits/internal/middleware"
)

// LiveHub attaches websocket connections for live notifications.
type LiveHub interface {
	Serve(w http.ResponseWriter, r *http.Request, userID uint64, role string) error
}

// LiveUpdates upgrades the request to a websocket on which the caller
// receives its notifications as they happen.
func LiveUpdates(h LiveHub) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, _ := middleware.UserID(c)
		if err := h.Serve(c.Response(), c.Request(), id, middleware.Role(c)); err != nil {
			log.Printf("ws: upgrade for %d: %v", id, err)
		}
		return nil
	}
}
