package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spa-booking-deposits/internal/deposit"
	"github.com/iliyamo/spa-booking-deposits/internal/middleware"
	"github.com/iliyamo/spa-booking-deposits/internal/service"
)

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator { return &Validator{v: validator.New()} }

func (cv *Validator) Validate(i interface{}) error { return cv.v.Struct(i) }

// bindValid binds the request body into req and runs struct validation.
func bindValid(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return deposit.Validation("invalid body", nil)
	}
	if err := c.Validate(req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return deposit.Validation(ve[0].Field()+" failed "+ve[0].Tag(), nil)
		}
		return deposit.Validation(err.Error(), nil)
	}
	return nil
}

// actor builds the service caller from the identity set by JWTAuth.
func actor(c echo.Context) service.Actor {
	id, _ := middleware.UserID(c)
	return service.Actor{ID: id, Role: middleware.Role(c)}
}

// statusFor maps a deposit error kind onto an HTTP status.
func statusFor(err error) int {
	switch deposit.KindOf(err) {
	case deposit.KindValidation:
		return http.StatusBadRequest
	case deposit.KindUpload:
		if errors.Is(err, deposit.ErrProofTooLarge) {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadRequest
	case deposit.KindNotFound:
		return http.StatusNotFound
	case deposit.KindForbidden:
		return http.StatusForbidden
	case deposit.KindConflict:
		return http.StatusConflict
	}
	if deposit.IsRetryable(err) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// fail writes err as {"error", "code"}.  Service failures are logged and
// their detail is not sent to the client.
func fail(c echo.Context, err error) error {
	status := statusFor(err)
	kind := deposit.KindOf(err)
	msg := err.Error()
	var de *deposit.Error
	if errors.As(err, &de) && de.Msg != "" {
		msg = de.Msg
	}
	if status >= 500 {
		log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
		msg = "temporarily unavailable, retry later"
	}
	return c.JSON(status, echo.Map{"error": msg, "code": string(kind)})
}
