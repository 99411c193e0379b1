package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spa-booking-deposits/internal/deposit"
	"github.com/iliyamo/spa-booking-deposits/internal/middleware"
	"github.com/iliyamo/spa-booking-deposits/internal/model"
	"github.com/iliyamo/spa-booking-deposits/internal/repository"
)

// NotificationReader serves a recipient's dashboard notifications.
type NotificationReader interface {
	ListForRecipient(ctx context.Context, recipientType string, recipientID uint64, unreadOnly bool, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, id uint64, recipientType string, recipientID uint64) error
}

type NotificationHandler struct {
	Notes NotificationReader
}

func NewNotificationHandler(n NotificationReader) *NotificationHandler {
	return &NotificationHandler{Notes: n}
}

// recipient maps the caller onto the notification addressing.  Admin
// notifications are shared and addressed to ID 0.
func recipient(c echo.Context) (string, uint64) {
	id, _ := middleware.UserID(c)
	switch middleware.Role(c) {
	case model.RoleAdmin:
		return model.RecipientAdmin, 0
	case model.RoleTherapist:
		return model.RecipientTherapist, id
	}
	return model.RecipientCustomer, id
}

// List returns notifications; ?unread=true limits to unread, ?limit= caps
// the count (default 50).
func (h *NotificationHandler) List(c echo.Context) error {
	unread, _ := strconv.ParseBool(c.QueryParam("unread"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	rt, rid := recipient(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Notes.ListForRecipient(ctx, rt, rid, unread, limit)
	if err != nil {
		return fail(c, deposit.Service("list notifications", err))
	}
	return c.JSON(http.StatusOK, echo.Map{"notifications": list})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, deposit.Validation("invalid notification id", nil))
	}
	rt, rid := recipient(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Notes.MarkRead(ctx, id, rt, rid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, deposit.NotFound("notification not found"))
		}
		return fail(c, deposit.Service("mark notification read", err))
	}
	return c.NoContent(http.StatusNoContent)
}
