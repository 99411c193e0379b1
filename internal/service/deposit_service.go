package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/spa-booking-deposits/internal/deposit"
	"github.com/iliyamo/spa-booking-deposits/internal/model"
	"github.com/iliyamo/spa-booking-deposits/internal/queue"
	"github.com/iliyamo/spa-booking-deposits/internal/repository"
	"github.com/iliyamo/spa-booking-deposits/internal/storage"
)

// BookingStore is the persistence the workflow needs.  Mutations take the
// version the caller read and fail with repository.ErrConflict when it is
// stale.
type BookingStore interface {
	Create(ctx context.Context, b *model.ScheduledBooking) error
	GetByID(ctx context.Context, id string) (*model.ScheduledBooking, error)
	ListByTherapist(ctx context.Context, therapistID uint64, statuses []model.DepositStatus) ([]model.ScheduledBooking, error)
	ListByCustomer(ctx context.Context, customerID uint64) ([]model.ScheduledBooking, error)
	MarkPaid(ctx context.Context, id string, version uint64, method model.PaymentMethod, proofURL, proofKey string, paidAt time.Time) error
	ApproveWithPayout(ctx context.Context, id string, version uint64, approvedBy uint64, at time.Time, rec *model.PayoutRecord) error
	Reject(ctx context.Context, id string, version uint64, reason *string, at time.Time) error
	ReportNoShow(ctx context.Context, id string, version uint64, status model.NoShowStatus, reporter string, reason *string, at time.Time) error
}

// TherapistStore resolves provider profiles and payout bank details.
type TherapistStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Therapist, error)
}

// ProofStore keeps uploaded payment proofs.
type ProofStore interface {
	Save(ctx context.Context, name string, r io.Reader) (storage.Stored, error)
	Open(ctx context.Context, key string) (storage.File, error)
	Delete(ctx context.Context, key string) error
}

// EventPublisher emits booking events.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// Policy is the deposit policy in effect.
type Policy struct {
	Percent       int
	MinPercent    int
	MaxPercent    int
	MaxProofBytes int64
	Location      *time.Location
}

// Actor is the authenticated caller.
type Actor struct {
	ID   uint64
	Role string
}

// Deps wires a DepositService.  Events and Notifier may be nil.
type Deps struct {
	Bookings   BookingStore
	Therapists TherapistStore
	Proofs     ProofStore
	Events     EventPublisher
	Notifier   *Notifier
	Policy     Policy
	Now        func() time.Time
}

// DepositService runs the deposit workflow.  Every error it returns is a
// *deposit.Error.
type DepositService struct {
	bookings   BookingStore
	therapists TherapistStore
	proofs     ProofStore
	events     EventPublisher
	notify     *Notifier
	policy     Policy
	now        func() time.Time
}

func NewDepositService(d Deps) *DepositService {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Policy.Location == nil {
		d.Policy.Location = time.UTC
	}
	if d.Policy.MaxPercent == 0 && d.Policy.MinPercent == 0 {
		d.Policy.MaxPercent = 100
	}
	return &DepositService{
		bookings:   d.Bookings,
		therapists: d.Therapists,
		proofs:     d.Proofs,
		events:     d.Events,
		notify:     d.Notifier,
		policy:     d.Policy,
		now:        d.Now,
	}
}

// Policy returns the policy in effect.
func (s *DepositService) Policy() Policy { return s.policy }

// storeErr maps repository sentinels onto the deposit taxonomy.
func storeErr(op string, err error) error {
	var de *deposit.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &de):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return deposit.NotFound("scheduled booking not found")
	case errors.Is(err, repository.ErrConflict):
		return deposit.Conflict("booking was modified, reload and retry", deposit.ErrStaleVersion)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &deposit.Error{Kind: deposit.KindService, Msg: op, Err: err}
	}
	return deposit.Service(op, err)
}

func (s *DepositService) publish(ctx context.Context, key string, b *model.ScheduledBooking, mut func(*queue.BookingEvent)) {
	if s.events == nil {
		return
	}
	ev := queue.BookingEvent{
		Key:           key,
		DepositID:     b.ID,
		BookingID:     b.BookingID,
		CustomerID:    b.CustomerID,
		TherapistID:   b.TherapistID,
		DepositAmount: b.DepositAmount,
		DepositStatus: string(b.DepositStatus),
		ScheduledFor:  b.ScheduledDate + " " + b.ScheduledTime,
		Version:       b.Version,
	}
	ev.Stamp(s.now())
	if mut != nil {
		mut(&ev)
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		log.Printf("deposit-service: publish %s for %s: %v", key, b.ID, err)
	}
}

// load fetches a booking and checks the caller's base version.
func (s *DepositService) load(ctx context.Context, id string, version uint64) (*model.ScheduledBooking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("load booking", err)
	}
	if version != 0 && version != b.Version {
		return nil, deposit.Conflict(fmt.Sprintf("booking is at version %d, not %d", b.Version, version), deposit.ErrStaleVersion)
	}
	return b, nil
}

// authorizeProvider lets admins act on any booking and therapists on their
// own.
func authorizeProvider(a Actor, b *model.ScheduledBooking) error {
	switch a.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleTherapist:
		if b.TherapistID == a.ID {
			return nil
		}
	}
	return deposit.Forbidden("booking belongs to another provider")
}

// CreateInput is a customer's request for a scheduled booking.
type CreateInput struct {
	BookingID     string
	CustomerID    uint64
	CustomerName  string
	TherapistID   uint64
	ProviderType  string
	ServiceType   string
	DurationMin   int
	TotalPrice    int64
	ScheduledDate string
	ScheduledTime string
	Location      string
	Lat, Lng      *float64
	Percent       *int
}

// CreateScheduledBooking stores a pending booking with the deposit split
// computed from the policy and asks the customer for the deposit.
func (s *DepositService) CreateScheduledBooking(ctx context.Context, in CreateInput) (*model.ScheduledBooking, error) {
	at, err := deposit.ScheduledAt(in.ScheduledDate, in.ScheduledTime, s.policy.Location)
	if err != nil {
		return nil, err
	}
	if !at.After(s.now()) {
		return nil, deposit.Validation("scheduled time must be in the future", nil)
	}
	if in.DurationMin <= 0 {
		return nil, deposit.Validation("duration must be positive", nil)
	}
	pct := s.policy.Percent
	if in.Percent != nil {
		pct = *in.Percent
	}
	pct = deposit.ClampInt(pct, s.policy.MinPercent, s.policy.MaxPercent)
	dep, rem, err := deposit.Split(in.TotalPrice, pct)
	if err != nil {
		return nil, err
	}
	th, err := s.therapists.GetByID(ctx, in.TherapistID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, deposit.NotFound("therapist not found")
		}
		return nil, storeErr("load therapist", err)
	}
	provider := in.ProviderType
	if provider == "" {
		provider = "therapist"
	}
	bookingID := strings.TrimSpace(in.BookingID)
	if bookingID == "" {
		bookingID = "BK-" + strings.ToUpper(uuid.NewString()[:8])
	}
	b := &model.ScheduledBooking{
		BookingID:       bookingID,
		CustomerID:      in.CustomerID,
		CustomerName:    in.CustomerName,
		TherapistID:     th.ID,
		TherapistName:   th.DisplayName,
		ProviderType:    provider,
		ServiceType:     in.ServiceType,
		DurationMin:     in.DurationMin,
		TotalPrice:      in.TotalPrice,
		DepositPercent:  pct,
		DepositAmount:   dep,
		RemainingAmount: rem,
		PayoutAmount:    dep,
		ScheduledDate:   in.ScheduledDate,
		ScheduledTime:   in.ScheduledTime,
		Location:        in.Location,
		Lat:             in.Lat,
		Lng:             in.Lng,
		DepositStatus:   model.DepositPending,
		PaymentMethod:   model.MethodBankTransfer,
		PayoutStatus:    model.PayoutPending,
		NoShowStatus:    model.NoShowNone,
		RemindersSent:   []string{},
	}
	if err := deposit.CheckInvariants(b); err != nil {
		return nil, err
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, storeErr("create booking", err)
	}
	s.notify.Notify(ctx, model.Notification{
		RecipientID:   b.CustomerID,
		RecipientType: model.RecipientCustomer,
		Type:          model.NotifyDepositRequired,
		Title:         "Deposit required",
		Message:       fmt.Sprintf("Pay a %d%% deposit of %d to confirm booking %s.", pct, dep, b.BookingID),
		BookingID:     b.BookingID,
	})
	return b, nil
}

// SubmitInput is the customer's deposit submission.  ProofSize and
// ProofType are the values declared by the upload and are checked before
// anything is read or stored.
type SubmitInput struct {
	ID            string
	Actor         Actor
	Version       uint64
	TermsAccepted bool
	Method        model.PaymentMethod
	ProofName     string
	ProofSize     int64
	ProofType     string
	Proof         io.Reader
}

// SubmitDeposit validates the submission, stores the proof and marks the
// deposit paid.  Nothing is stored when validation fails.
func (s *DepositService) SubmitDeposit(ctx context.Context, in SubmitInput) (*model.ScheduledBooking, error) {
	if !in.TermsAccepted {
		return nil, deposit.Validation("terms not accepted", deposit.ErrTermsRequired)
	}
	if in.Method != "" && !in.Method.Valid() {
		return nil, deposit.Validation("unknown payment method "+string(in.Method), nil)
	}
	declared := deposit.Proof{Name: in.ProofName, ContentType: in.ProofType, Size: in.ProofSize}
	if err := deposit.ValidateProof(declared, s.policy.MaxProofBytes); err != nil {
		return nil, err
	}

	b, err := s.load(ctx, in.ID, in.Version)
	if err != nil {
		return nil, err
	}
	if in.Actor.Role != model.RoleCustomer || b.CustomerID != in.Actor.ID {
		return nil, deposit.Forbidden("booking belongs to another customer")
	}
	if err := deposit.CanMarkPaid(b); err != nil {
		return nil, err
	}
	col, err := deposit.NewCollector(b.TotalPrice, b.DepositPercent, s.policy.MaxProofBytes)
	if err != nil {
		return nil, err
	}
	if err := col.AcceptTerms(in.TermsAccepted); err != nil {
		return nil, err
	}
	if err := col.SetMethod(in.Method); err != nil {
		return nil, err
	}
	if err := col.AttachProof(declared); err != nil {
		return nil, err
	}
	sub, err := col.Submit()
	if err != nil {
		return nil, err
	}
	if sub.Amount != b.DepositAmount {
		return nil, deposit.Conflict("deposit amount changed since booking", deposit.ErrInvalidState)
	}

	stored, err := s.proofs.Save(ctx, in.ProofName, in.Proof)
	if err != nil {
		return nil, storeErr("store proof", err)
	}
	paidAt := s.now().UTC()
	proofURL := model.ProofPath(b.ID)
	if err := s.bookings.MarkPaid(ctx, b.ID, b.Version, sub.Method, proofURL, stored.Key, paidAt); err != nil {
		s.discardProof(ctx, stored.Key)
		return nil, storeErr("mark deposit paid", err)
	}
	b.DepositStatus = model.DepositPaid
	b.PaymentMethod = sub.Method
	b.PaymentProofURL = &proofURL
	b.PaymentProofKey = stored.Key
	b.TermsAccepted = true
	b.PaidAt = &paidAt
	b.Version++

	msg := fmt.Sprintf("%s paid a deposit of %d for booking %s on %s %s. Review the proof.",
		b.CustomerName, b.DepositAmount, b.BookingID, b.ScheduledDate, b.ScheduledTime)
	s.notify.Notify(ctx, model.Notification{
		RecipientID: b.TherapistID, RecipientType: model.RecipientTherapist,
		Type: model.NotifyDepositPaid, Title: "Deposit paid", Message: msg, Urgent: true, BookingID: b.BookingID,
	})
	s.notify.Notify(ctx, model.Notification{
		RecipientType: model.RecipientAdmin,
		Type:          model.NotifyDepositPaid, Title: "Deposit awaiting review", Message: msg, BookingID: b.BookingID,
	})
	s.publish(ctx, queue.KeyDepositPaid, b, nil)
	return b, nil
}

// discardProof removes a proof no booking points at.  It runs even when the
// request context is already cancelled.
func (s *DepositService) discardProof(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.proofs.Delete(ctx, key); err != nil {
		log.Printf("deposit: discard proof %s: %v", key, err)
	}
}

// Proof returns the payment proof of booking id.  Only the booking's
// customer, its therapist and admins may read it.
func (s *DepositService) Proof(ctx context.Context, id string, a Actor) (storage.File, error) {
	b, err := s.load(ctx, id, 0)
	if err != nil {
		return storage.File{}, err
	}
	if a.Role == model.RoleCustomer {
		if b.CustomerID != a.ID {
			return storage.File{}, deposit.Forbidden("booking belongs to another customer")
		}
	} else if err := authorizeProvider(a, b); err != nil {
		return storage.File{}, err
	}
	if b.PaymentProofKey == "" {
		return storage.File{}, deposit.NotFound("no proof uploaded")
	}
	f, err := s.proofs.Open(ctx, b.PaymentProofKey)
	if err != nil {
		return storage.File{}, storeErr("open proof", err)
	}
	return f, nil
}

// ListBookings returns the dashboard list for a therapist (own bookings)
// or an admin (all bookings), newest first, optionally filtered by deposit
// status.
func (s *DepositService) ListBookings(ctx context.Context, a Actor, statuses []model.DepositStatus) ([]model.DashboardBooking, error) {
	var therapistID uint64
	switch a.Role {
	case model.RoleTherapist:
		therapistID = a.ID
	case model.RoleAdmin:
	default:
		return nil, deposit.Forbidden("dashboard is for providers")
	}
	list, err := s.bookings.ListByTherapist(ctx, therapistID, statuses)
	if err != nil {
		return nil, storeErr("list bookings", err)
	}
	return s.annotate(list), nil
}

// ListForCustomer returns the caller's own bookings.
func (s *DepositService) ListForCustomer(ctx context.Context, a Actor) ([]model.DashboardBooking, error) {
	list, err := s.bookings.ListByCustomer(ctx, a.ID)
	if err != nil {
		return nil, storeErr("list bookings", err)
	}
	return s.annotate(list), nil
}

// Upcoming returns the provider's bookings starting within the next five
// hours.
func (s *DepositService) Upcoming(ctx context.Context, a Actor) ([]model.DashboardBooking, error) {
	all, err := s.ListBookings(ctx, a, nil)
	if err != nil {
		return nil, err
	}
	out := []model.DashboardBooking{}
	for _, b := range all {
		if b.UpcomingSoon {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *DepositService) annotate(list []model.ScheduledBooking) []model.DashboardBooking {
	now := s.now()
	out := make([]model.DashboardBooking, 0, len(list))
	for _, b := range list {
		d := model.DashboardBooking{ScheduledBooking: b}
		if at, err := deposit.ScheduledAt(b.ScheduledDate, b.ScheduledTime, s.policy.Location); err == nil {
			d.UpcomingSoon = deposit.IsUpcomingSoon(at, now)
		}
		out = append(out, d)
	}
	return out
}

// ApproveDeposit approves a paid deposit, records the payout to the
// therapist's bank account and confirms the booking to the customer.
func (s *DepositService) ApproveDeposit(ctx context.Context, id string, a Actor, version uint64) (*model.ScheduledBooking, error) {
	b, err := s.load(ctx, id, version)
	if err != nil {
		return nil, err
	}
	if err := authorizeProvider(a, b); err != nil {
		return nil, err
	}
	if err := deposit.CanApprove(b); err != nil {
		return nil, err
	}
	th, err := s.therapists.GetByID(ctx, b.TherapistID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, storeErr("load therapist", err)
	}
	if th == nil || strings.TrimSpace(th.Bank.AccountNumber) == "" {
		return nil, deposit.Validation("therapist bank details are required for payout", nil)
	}
	now := s.now().UTC()
	ref := PayoutReference(now)
	rec := &model.PayoutRecord{
		DepositID:     b.ID,
		BookingID:     b.BookingID,
		TherapistID:   b.TherapistID,
		TherapistName: b.TherapistName,
		Amount:        b.PayoutAmount,
		BankName:      th.Bank.BankName,
		AccountName:   th.Bank.AccountName,
		AccountNumber: th.Bank.AccountNumber,
		Reference:     ref,
		Status:        "sent",
	}
	if err := s.bookings.ApproveWithPayout(ctx, b.ID, b.Version, a.ID, now, rec); err != nil {
		return nil, storeErr("approve deposit", err)
	}
	approver := a.ID
	b.DepositStatus = model.DepositApproved
	b.ApprovedAt = &now
	b.ApprovedBy = &approver
	b.PayoutStatus = model.PayoutProcessed
	b.PayoutDate = &now
	b.PayoutReference = &ref
	b.Version++

	s.notify.Notify(ctx, model.Notification{
		RecipientID: b.CustomerID, RecipientType: model.RecipientCustomer,
		Type: model.NotifyDepositApproved, Title: "Booking confirmed",
		Message:   fmt.Sprintf("Your deposit for booking %s was approved. See you on %s at %s.", b.BookingID, b.ScheduledDate, b.ScheduledTime),
		BookingID: b.BookingID,
	})
	s.notify.Notify(ctx, model.Notification{
		RecipientID: b.CustomerID, RecipientType: model.RecipientCustomer,
		Type: model.NotifyBalanceDetails, Title: "Remaining balance",
		Message: BalanceMessage(b, th.Bank), Urgent: true, BookingID: b.BookingID,
	})
	s.notify.Notify(ctx, model.Notification{
		RecipientID: b.TherapistID, RecipientType: model.RecipientTherapist,
		Type: model.NotifyPayoutSent, Title: "Payout sent",
		Message: fmt.Sprintf("Deposit of %d for booking %s sent to %s account ending in %s (ref %s).",
			b.PayoutAmount, b.BookingID, th.Bank.BankName, Last4(th.Bank.AccountNumber), ref),
		BookingID: b.BookingID,
	})
	s.publish(ctx, queue.KeyDepositApproved, b, func(ev *queue.BookingEvent) { ev.PayoutReference = ref })
	return b, nil
}

// RejectDeposit rejects a paid deposit.  Rejection is terminal.
func (s *DepositService) RejectDeposit(ctx context.Context, id string, a Actor, reason string, version uint64) (*model.ScheduledBooking, error) {
	b, err := s.load(ctx, id, version)
	if err != nil {
		return nil, err
	}
	if err := authorizeProvider(a, b); err != nil {
		return nil, err
	}
	if err := deposit.CanReject(b); err != nil {
		return nil, err
	}
	var why *string
	if r := strings.TrimSpace(reason); r != "" {
		why = &r
	}
	now := s.now().UTC()
	if err := s.bookings.Reject(ctx, b.ID, b.Version, why, now); err != nil {
		return nil, storeErr("reject deposit", err)
	}
	b.DepositStatus = model.DepositRejected
	b.RejectedAt = &now
	b.RejectionReason = why
	b.Version++

	msg := fmt.Sprintf("Your deposit for booking %s was rejected.", b.BookingID)
	if why != nil {
		msg += " Reason: " + *why
	}
	s.notify.Notify(ctx, model.Notification{
		RecipientID: b.CustomerID, RecipientType: model.RecipientCustomer,
		Type: model.NotifyDepositRejected, Title: "Deposit rejected", Message: msg, Urgent: true, BookingID: b.BookingID,
	})
	s.publish(ctx, queue.KeyDepositRejected, b, func(ev *queue.BookingEvent) {
		if why != nil {
			ev.Reason = *why
		}
	})
	return b, nil
}

// NoShowInput reports a missed appointment.  Confirm must be true: the
// report forfeits the deposit and cannot be undone.
type NoShowInput struct {
	ID      string
	Actor   Actor
	Reason  string
	Confirm bool
	Version uint64
}

// ReportNoShow records a no-show after the scheduled time has passed.  A
// provider's report is confirmed immediately; a customer's report stays
// reported until reviewed.
func (s *DepositService) ReportNoShow(ctx context.Context, in NoShowInput) (*model.ScheduledBooking, error) {
	if !in.Confirm {
		return nil, deposit.Validation("confirm the no-show report", deposit.ErrNotConfirmed)
	}
	b, err := s.load(ctx, in.ID, in.Version)
	if err != nil {
		return nil, err
	}
	status := model.NoShowConfirmed
	if in.Actor.Role == model.RoleCustomer {
		if b.CustomerID != in.Actor.ID {
			return nil, deposit.Forbidden("booking belongs to another customer")
		}
		status = model.NoShowReported
	} else if err := authorizeProvider(in.Actor, b); err != nil {
		return nil, err
	}
	at, err := deposit.ScheduledAt(b.ScheduledDate, b.ScheduledTime, s.policy.Location)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := deposit.CanReportNoShow(b, at, now); err != nil {
		return nil, err
	}
	var why *string
	if r := strings.TrimSpace(in.Reason); r != "" {
		why = &r
	}
	reporter := strings.ToLower(in.Actor.Role)
	reportedAt := now.UTC()
	if err := s.bookings.ReportNoShow(ctx, b.ID, b.Version, status, reporter, why, reportedAt); err != nil {
		return nil, storeErr("report no-show", err)
	}
	b.NoShowStatus = status
	b.NoShowReportedAt = &reportedAt
	b.NoShowReportedBy = &reporter
	b.NoShowReason = why
	b.PenaltyApplied = true
	b.Version++

	s.notify.Notify(ctx, model.Notification{
		RecipientID: b.CustomerID, RecipientType: model.RecipientCustomer,
		Type: model.NotifyNoShow, Title: "Missed appointment",
		Message:   fmt.Sprintf("Booking %s was marked as a no-show. Your deposit of %d is forfeited.", b.BookingID, b.DepositAmount),
		Urgent:    true,
		BookingID: b.BookingID,
	})
	s.notify.Notify(ctx, model.Notification{
		RecipientID: b.TherapistID, RecipientType: model.RecipientTherapist,
		Type: model.NotifyNoShow, Title: "No-show recorded",
		Message:   fmt.Sprintf("No-show recorded for booking %s. The deposit of %d is kept.", b.BookingID, b.DepositAmount),
		BookingID: b.BookingID,
	})
	s.publish(ctx, queue.KeyNoShow, b, func(ev *queue.BookingEvent) {
		ev.NoShowStatus = string(status)
		if why != nil {
			ev.Reason = *why
		}
	})
	return b, nil
}

// BalanceMessage tells the customer where to pay the remaining balance once
// the service is done.
func BalanceMessage(b *model.ScheduledBooking, bank model.BankDetails) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Booking %s is confirmed. Remaining balance: %d, payable after the service.\n", b.BookingID, b.RemainingAmount)
	fmt.Fprintf(&sb, "Bank: %s\nAccount name: %s\nAccount number: %s\n", bank.BankName, bank.AccountName, bank.AccountNumber)
	if bank.SwiftCode != nil && *bank.SwiftCode != "" {
		fmt.Fprintf(&sb, "SWIFT: %s\n", *bank.SwiftCode)
	}
	fmt.Fprintf(&sb, "Only pay to these exact bank details. Your deposit of %d is non-refundable. Report any other payment request.", b.DepositAmount)
	return sb.String()
}

// PayoutReference builds a unique payout reference like PAY-20251201-1A2B3C4D.
func PayoutReference(now time.Time) string {
	return "PAY-" + now.UTC().Format("20060102") + "-" + strings.ToUpper(uuid.NewString()[:8])
}

// Last4 returns the last four characters of an account number.
func Last4(account string) string {
	account = strings.TrimSpace(account)
	if len(account) <= 4 {
		return account
	}
	return account[len(account)-4:]
}
