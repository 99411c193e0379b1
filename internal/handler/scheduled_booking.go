package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spa-booking-deposits/internal/deposit"
	"github.com/iliyamo/spa-booking-deposits/internal/model"
	"github.com/iliyamo/spa-booking-deposits/internal/service"
	"github.com/iliyamo/spa-booking-deposits/internal/storage"
)

// DepositWorkflow is the deposit service as seen by the HTTP layer.
type DepositWorkflow interface {
	Policy() service.Policy
	CreateScheduledBooking(ctx context.Context, in service.CreateInput) (*model.ScheduledBooking, error)
	SubmitDeposit(ctx context.Context, in service.SubmitInput) (*model.ScheduledBooking, error)
	ListForCustomer(ctx context.Context, a service.Actor) ([]model.DashboardBooking, error)
	ListBookings(ctx context.Context, a service.Actor, statuses []model.DepositStatus) ([]model.DashboardBooking, error)
	Upcoming(ctx context.Context, a service.Actor) ([]model.DashboardBooking, error)
	ApproveDeposit(ctx context.Context, id string, a service.Actor, version uint64) (*model.ScheduledBooking, error)
	RejectDeposit(ctx context.Context, id string, a service.Actor, reason string, version uint64) (*model.ScheduledBooking, error)
	ReportNoShow(ctx context.Context, in service.NoShowInput) (*model.ScheduledBooking, error)
	Proof(ctx context.Context, id string, a service.Actor) (storage.File, error)
}

// BookingHandler serves the customer side of scheduled bookings.
type BookingHandler struct {
	Deposits DepositWorkflow
	Users    UserStore
}

func NewBookingHandler(d DepositWorkflow, u UserStore) *BookingHandler {
	return &BookingHandler{Deposits: d, Users: u}
}

type createBookingReq struct {
	BookingID      string   `json:"booking_id" validate:"omitempty,max=64"`
	TherapistID    uint64   `json:"therapist_id" validate:"required"`
	ProviderType   string   `json:"provider_type" validate:"omitempty,oneof=therapist place"`
	ServiceType    string   `json:"service_type" validate:"required,max=120"`
	DurationMin    int      `json:"duration_min" validate:"required,gt=0,lte=600"`
	TotalPrice     int64    `json:"total_price" validate:"required,gt=0"`
	ScheduledDate  string   `json:"scheduled_date" validate:"required,datetime=2006-01-02"`
	ScheduledTime  string   `json:"scheduled_time" validate:"required,datetime=15:04"`
	Location       string   `json:"location" validate:"required,max=255"`
	Lat            *float64 `json:"lat" validate:"omitempty,latitude"`
	Lng            *float64 `json:"lng" validate:"omitempty,longitude"`
	DepositPercent *int     `json:"deposit_percent"`
}

// Create books an appointment for the calling customer.  The response
// carries the deposit amount the customer must pay.
func (h *BookingHandler) Create(c echo.Context) error {
	var req createBookingReq
	if err := bindValid(c, &req); err != nil {
		return fail(c, err)
	}
	a := actor(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	name := ""
	if h.Users != nil {
		if u, err := h.Users.GetByID(ctx, a.ID); err == nil {
			name = u.DisplayName
		}
	}
	b, err := h.Deposits.CreateScheduledBooking(ctx, service.CreateInput{
		BookingID:     req.BookingID,
		CustomerID:    a.ID,
		CustomerName:  name,
		TherapistID:   req.TherapistID,
		ProviderType:  req.ProviderType,
		ServiceType:   req.ServiceType,
		DurationMin:   req.DurationMin,
		TotalPrice:    req.TotalPrice,
		ScheduledDate: req.ScheduledDate,
		ScheduledTime: req.ScheduledTime,
		Location:      req.Location,
		Lat:           req.Lat,
		Lng:           req.Lng,
		Percent:       req.DepositPercent,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// SubmitDeposit accepts the multipart deposit form: proof (file),
// payment_method, terms_accepted and the optional base version.
func (h *BookingHandler) SubmitDeposit(c echo.Context) error {
	terms, _ := strconv.ParseBool(c.FormValue("terms_accepted"))
	version, err := parseVersion(c.FormValue("version"))
	if err != nil {
		return fail(c, err)
	}
	in := service.SubmitInput{
		ID:            c.Param("id"),
		Actor:         actor(c),
		Version:       version,
		TermsAccepted: terms,
		Method:        model.PaymentMethod(strings.TrimSpace(c.FormValue("payment_method"))),
	}

	fh, err := c.FormFile("proof")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		return fail(c, deposit.Validation("invalid multipart form", nil))
	default:
		var f multipart.File
		if f, err = fh.Open(); err != nil {
			return fail(c, deposit.Upload("cannot read proof", err))
		}
		defer f.Close()
		in.Proof = f
		in.ProofName = fh.Filename
		in.ProofSize = fh.Size
		in.ProofType = fh.Header.Get("Content-Type")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	b, err := h.Deposits.SubmitDeposit(ctx, in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// ListMine returns the caller's bookings, newest first.
func (h *BookingHandler) ListMine(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Deposits.ListForCustomer(ctx, actor(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": list})
}

// NoShow lets the customer report a missed appointment.  The report stays
// "reported" until the provider side reviews it.
func (h *BookingHandler) NoShow(c echo.Context) error {
	return reportNoShow(c, h.Deposits)
}

// Proof streams the payment proof to the booking's customer, its
// therapist or an admin.
func (h *BookingHandler) Proof(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	f, err := h.Deposits.Proof(ctx, c.Param("id"), actor(c))
	if err != nil {
		return fail(c, err)
	}
	c.Response().Header().Set("Cache-Control", "private, no-store")
	return c.Blob(http.StatusOK, f.ContentType, f.Body)
}

// parseVersion reads an optional base version; empty means "any".
func parseVersion(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, deposit.Validation("version must be a positive integer", nil)
	}
	return v, nil
}
