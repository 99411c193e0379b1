package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spa-booking-deposits/internal/payment"
)

// SessionCreator opens hosted checkout sessions.
type SessionCreator interface {
	CreateSession(ctx context.Context, req payment.CheckoutRequest) (string, error)
}

type CheckoutHandler struct {
	Sessions SessionCreator
	Users    UserStore
}

func NewCheckoutHandler(s SessionCreator, u UserStore) *CheckoutHandler {
	return &CheckoutHandler{Sessions: s, Users: u}
}

type checkoutReq struct {
	Country  string `json:"country" validate:"omitempty,iso3166_1_alpha2"`
	Currency string `json:"currency" validate:"required,len=3"`
	Interval string `json:"interval" validate:"required,oneof=month year"`
	Amount   int64  `json:"amount" validate:"required,gt=0"`
}

// Create returns {url} of a membership checkout for the caller.
func (h *CheckoutHandler) Create(c echo.Context) error {
	var req checkoutReq
	if err := bindValid(c, &req); err != nil {
		return fail(c, err)
	}
	a := actor(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	email := ""
	if h.Users != nil {
		if u, err := h.Users.GetByID(ctx, a.ID); err == nil {
			email = u.Email
		}
	}
	url, err := h.Sessions.CreateSession(ctx, payment.CheckoutRequest{
		Country:       req.Country,
		Currency:      req.Currency,
		Interval:      req.Interval,
		Amount:        req.Amount,
		CustomerEmail: email,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"url": url})
}
