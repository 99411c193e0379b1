package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spa-booking-deposits/internal/deposit"
	"github.com/iliyamo/spa-booking-deposits/internal/middleware"
	"github.com/iliyamo/spa-booking-deposits/internal/model"
	"github.com/iliyamo/spa-booking-deposits/internal/repository"
)

// BankStore reads and writes a therapist's payout destination.
type BankStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Therapist, error)
	UpdateBank(ctx context.Context, id uint64, d model.BankDetails) error
}

type ProfileHandler struct {
	Therapists BankStore
}

func NewProfileHandler(s BankStore) *ProfileHandler { return &ProfileHandler{Therapists: s} }

type bankReq struct {
	BankName      string `json:"bank_name" validate:"required,max=100"`
	AccountName   string `json:"account_name" validate:"required,max=120"`
	AccountNumber string `json:"account_number" validate:"required,numeric,min=6,max=34"`
	SwiftCode     string `json:"swift_code" validate:"omitempty,alphanum,min=8,max=11"`
}

// GetBank returns the caller's bank details.
func (h *ProfileHandler) GetBank(c echo.Context) error {
	id, _ := middleware.UserID(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Therapists.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, deposit.NotFound("therapist profile not found"))
		}
		return fail(c, deposit.Service("load therapist", err))
	}
	return c.JSON(http.StatusOK, t.Bank)
}

// PutBank replaces the caller's bank details.  Approvals need them to
// record the payout.
func (h *ProfileHandler) PutBank(c echo.Context) error {
	var req bankReq
	if err := bindValid(c, &req); err != nil {
		return fail(c, err)
	}
	id, _ := middleware.UserID(c)
	d := model.BankDetails{
		BankName:      strings.TrimSpace(req.BankName),
		AccountName:   strings.TrimSpace(req.AccountName),
		AccountNumber: req.AccountNumber,
	}
	if req.SwiftCode != "" {
		swift := strings.ToUpper(req.SwiftCode)
		d.SwiftCode = &swift
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Therapists.UpdateBank(ctx, id, d); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, deposit.NotFound("therapist profile not found"))
		}
		return fail(c, deposit.Service("update bank details", err))
	}
	return c.JSON(http.StatusOK, d)
}
