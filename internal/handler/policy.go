package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// DepositPolicy publishes the deposit rules shown before booking.  The
// route is cached, so the response depends on configuration only.
func DepositPolicy(d DepositWorkflow, currency string) echo.HandlerFunc {
	return func(c echo.Context) error {
		p := d.Policy()
		return c.JSON(http.StatusOK, echo.Map{
			"deposit_percent": p.Percent,
			"min_percent":     p.MinPercent,
			"max_percent":     p.MaxPercent,
			"max_proof_bytes": p.MaxProofBytes,
			"currency":        currency,
			"timezone":        p.Location.String(),
			"refundable":      false,
		})
	}
}
