package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spa-booking-deposits/internal/deposit"
	"github.com/iliyamo/spa-booking-deposits/internal/model"
	"github.com/iliyamo/spa-booking-deposits/internal/service"
)

// ReminderPoller lists the bookings due for a reminder.
type ReminderPoller interface {
	Poll(ctx context.Context, therapistID uint64) ([]model.ScheduledBooking, error)
}

// PayoutLister reads the payout ledger.
type PayoutLister interface {
	ListByTherapist(ctx context.Context, therapistID uint64) ([]model.PayoutRecord, error)
}

// DashboardHandler serves the therapist and admin review dashboard.
type DashboardHandler struct {
	Deposits DepositWorkflow
	Poller   ReminderPoller
	Payouts  PayoutLister
}

func NewDashboardHandler(d DepositWorkflow, r ReminderPoller, p PayoutLister) *DashboardHandler {
	return &DashboardHandler{Deposits: d, Poller: r, Payouts: p}
}

type reviewReq struct {
	Version uint64 `json:"version"`
	Reason  string `json:"reason" validate:"max=500"`
}

type noShowReq struct {
	Version uint64 `json:"version"`
	Reason  string `json:"reason" validate:"max=500"`
	Confirm bool   `json:"confirm"`
}

// List returns the dashboard bookings.  ?status= takes a comma separated
// list of deposit statuses.
func (h *DashboardHandler) List(c echo.Context) error {
	statuses, err := parseStatuses(c.QueryParam("status"))
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Deposits.ListBookings(ctx, actor(c), statuses)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": list})
}

// Upcoming returns bookings starting within the next five hours.
func (h *DashboardHandler) Upcoming(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Deposits.Upcoming(ctx, actor(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": list})
}

// Reminders shows which bookings the scheduler will remind next.  Admins
// see every therapist's.
func (h *DashboardHandler) Reminders(c echo.Context) error {
	a := actor(c)
	var therapistID uint64
	if a.Role == model.RoleTherapist {
		therapistID = a.ID
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Poller.Poll(ctx, therapistID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": list})
}

// ListPayouts lists payout records.  Therapists see their own; admins pass
// ?therapist_id=.
func (h *DashboardHandler) ListPayouts(c echo.Context) error {
	a := actor(c)
	therapistID := a.ID
	if a.Role == model.RoleAdmin {
		id, err := strconv.ParseUint(c.QueryParam("therapist_id"), 10, 64)
		if err != nil || id == 0 {
			return fail(c, deposit.Validation("therapist_id is required", nil))
		}
		therapistID = id
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Payouts.ListByTherapist(ctx, therapistID)
	if err != nil {
		return fail(c, deposit.Service("list payouts", err))
	}
	return c.JSON(http.StatusOK, echo.Map{"payouts": list})
}

func (h *DashboardHandler) Approve(c echo.Context) error {
	var req reviewReq
	if err := bindValid(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	b, err := h.Deposits.ApproveDeposit(ctx, c.Param("id"), actor(c), req.Version)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *DashboardHandler) Reject(c echo.Context) error {
	var req reviewReq
	if err := bindValid(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Deposits.RejectDeposit(ctx, c.Param("id"), actor(c), strings.TrimSpace(req.Reason), req.Version)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// NoShow reports a missed appointment.  The body must carry
// "confirm": true.
func (h *DashboardHandler) NoShow(c echo.Context) error {
	return reportNoShow(c, h.Deposits)
}

func reportNoShow(c echo.Context, d DepositWorkflow) error {
	var req noShowReq
	if err := bindValid(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := d.ReportNoShow(ctx, service.NoShowInput{
		ID:      c.Param("id"),
		Actor:   actor(c),
		Reason:  strings.TrimSpace(req.Reason),
		Confirm: req.Confirm,
		Version: req.Version,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

func parseStatuses(raw string) ([]model.DepositStatus, error) {
	var out []model.DepositStatus
	for _, p := range strings.Split(raw, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" || p == "all" {
			continue
		}
		switch s := model.DepositStatus(p); s {
		case model.DepositPending, model.DepositPaid, model.DepositApproved, model.DepositRejected:
			out = append(out, s)
		default:
			return nil, deposit.Validation("unknown status "+p, nil)
		}
	}
	return out, nil
}
