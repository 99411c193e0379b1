package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/spa-booking-deposits/internal/model"
)

// ScheduledBookingRepo persists scheduled_booking_deposits rows.  Every
// mutating method takes the version the caller read; the update only
// applies when that version is still current and bumps it by one.
type ScheduledBookingRepo struct {
	db      *sql.DB
	payouts *PayoutRepo
}

// NewScheduledBookingRepo returns a repo bound to db.
func NewScheduledBookingRepo(db *sql.DB) *ScheduledBookingRepo {
	return &ScheduledBookingRepo{db: db, payouts: NewPayoutRepo(db)}
}

const bookingColumns = `id, booking_id, customer_id, customer_name, therapist_id, therapist_name, provider_type,
	service_type, duration_min, total_price, deposit_percent, deposit_amount, remaining_amount, payout_amount,
	scheduled_date, scheduled_time, location, lat, lng,
	deposit_status, payment_method, payment_proof_url, payment_proof_key, terms_accepted, paid_at, approved_at, approved_by,
	rejected_at, rejection_reason, payout_status, payout_date, payout_reference,
	no_show_status, no_show_reported_at, no_show_reported_by, no_show_reason, penalty_applied,
	reminders_sent, last_reminder_at, version, created_at, updated_at`

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(s rowScanner) (*model.ScheduledBooking, error) {
	var (
		b                                          model.ScheduledBooking
		lat, lng                                   sql.NullFloat64
		proofURL, proofKey, rejReason, payoutRef   sql.NullString
		reportedBy, noShowReason, reminders        sql.NullString
		paidAt, approvedAt, rejectedAt, payoutDate sql.NullTime
		reportedAt, lastReminder                   sql.NullTime
		approvedBy                                 sql.NullInt64
	)
	err := s.Scan(
		&b.ID, &b.BookingID, &b.CustomerID, &b.CustomerName, &b.TherapistID, &b.TherapistName, &b.ProviderType,
		&b.ServiceType, &b.DurationMin, &b.TotalPrice, &b.DepositPercent, &b.DepositAmount, &b.RemainingAmount, &b.PayoutAmount,
		&b.ScheduledDate, &b.ScheduledTime, &b.Location, &lat, &lng,
		&b.DepositStatus, &b.PaymentMethod, &proofURL, &proofKey, &b.TermsAccepted, &paidAt, &approvedAt, &approvedBy,
		&rejectedAt, &rejReason, &b.PayoutStatus, &payoutDate, &payoutRef,
		&b.NoShowStatus, &reportedAt, &reportedBy, &noShowReason, &b.PenaltyApplied,
		&reminders, &lastReminder, &b.Version, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lat.Valid {
		b.Lat = &lat.Float64
	}
	if lng.Valid {
		b.Lng = &lng.Float64
	}
	if approvedBy.Valid {
		id := uint64(approvedBy.Int64)
		b.ApprovedBy = &id
	}
	b.PaymentProofURL = strPtr(proofURL)
	b.PaymentProofKey = proofKey.String
	b.RejectionReason = strPtr(rejReason)
	b.PayoutReference = strPtr(payoutRef)
	b.NoShowReportedBy = strPtr(reportedBy)
	b.NoShowReason = strPtr(noShowReason)
	b.PaidAt = timePtr(paidAt)
	b.ApprovedAt = timePtr(approvedAt)
	b.RejectedAt = timePtr(rejectedAt)
	b.PayoutDate = timePtr(payoutDate)
	b.NoShowReportedAt = timePtr(reportedAt)
	b.LastReminderAt = timePtr(lastReminder)
	b.RemindersSent = []string{}
	if reminders.Valid && strings.TrimSpace(reminders.String) != "" {
		if err := json.Unmarshal([]byte(reminders.String), &b.RemindersSent); err != nil {
			return nil, err
		}
	}
	return &b, nil
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// Create inserts a new booking in the pending state.  ID (when empty),
// Version and the timestamps are populated on b.
func (r *ScheduledBookingRepo) Create(ctx context.Context, b *model.ScheduledBooking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	b.Version = 1
	b.CreatedAt = now
	b.UpdatedAt = now
	if b.RemindersSent == nil {
		b.RemindersSent = []string{}
	}
	reminders, err := json.Marshal(b.RemindersSent)
	if err != nil {
		return err
	}
	const q = `INSERT INTO scheduled_booking_deposits (
		id, booking_id, customer_id, customer_name, therapist_id, therapist_name, provider_type,
		service_type, duration_min, total_price, deposit_percent, deposit_amount, remaining_amount, payout_amount,
		scheduled_date, scheduled_time, location, lat, lng,
		deposit_status, payment_method, terms_accepted, payout_status, no_show_status,
		reminders_sent, version, created_at, updated_at
	) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	_, err = r.db.ExecContext(ctx, q,
		b.ID, b.BookingID, b.CustomerID, b.CustomerName, b.TherapistID, b.TherapistName, b.ProviderType,
		b.ServiceType, b.DurationMin, b.TotalPrice, b.DepositPercent, b.DepositAmount, b.RemainingAmount, b.PayoutAmount,
		b.ScheduledDate, b.ScheduledTime, b.Location, b.Lat, b.Lng,
		b.DepositStatus, b.PaymentMethod, b.TermsAccepted, b.PayoutStatus, b.NoShowStatus,
		string(reminders), b.Version, b.CreatedAt, b.UpdatedAt,
	)
	return err
}

// GetByID loads one booking or returns ErrNotFound.
func (r *ScheduledBookingRepo) GetByID(ctx context.Context, id string) (*model.ScheduledBooking, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM scheduled_booking_deposits WHERE id = ?`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// ListByTherapist returns the therapist's bookings, newest first.  A zero
// therapistID lists every booking (admin view).  When statuses is non-empty
// only bookings in one of those deposit states are returned.
func (r *ScheduledBookingRepo) ListByTherapist(ctx context.Context, therapistID uint64, statuses []model.DepositStatus) ([]model.ScheduledBooking, error) {
	var (
		where []string
		args  []any
	)
	if therapistID != 0 {
		where = append(where, "therapist_id = ?")
		args = append(args, therapistID)
	}
	if len(statuses) > 0 {
		ph := make([]string, len(statuses))
		for i, s := range statuses {
			ph[i] = "?"
			args = append(args, s)
		}
		where = append(where, "deposit_status IN ("+strings.Join(ph, ",")+")")
	}
	q := `SELECT ` + bookingColumns + ` FROM scheduled_booking_deposits`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC`
	return r.list(ctx, q, args...)
}

// ListByCustomer returns the customer's bookings, newest first.
func (r *ScheduledBookingRepo) ListByCustomer(ctx context.Context, customerID uint64) ([]model.ScheduledBooking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM scheduled_booking_deposits
		WHERE customer_id = ? ORDER BY created_at DESC`, customerID)
}

// ListForReminders returns approved, non-no-show bookings whose scheduled
// date lies in [fromDate, toDate] (YYYY-MM-DD).  The caller narrows the
// result to the exact reminder window.  A non-zero therapistID restricts
// the result to that therapist.
func (r *ScheduledBookingRepo) ListForReminders(ctx context.Context, fromDate, toDate string, therapistID uint64) ([]model.ScheduledBooking, error) {
	q := `SELECT ` + bookingColumns + ` FROM scheduled_booking_deposits
		WHERE deposit_status = 'approved' AND no_show_status = 'none'
		AND scheduled_date BETWEEN ? AND ?`
	args := []any{fromDate, toDate}
	if therapistID != 0 {
		q += ` AND therapist_id = ?`
		args = append(args, therapistID)
	}
	q += ` ORDER BY scheduled_date, scheduled_time`
	return r.list(ctx, q, args...)
}

func (r *ScheduledBookingRepo) list(ctx context.Context, q string, args ...any) ([]model.ScheduledBooking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ScheduledBooking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// update applies set to the row at the given version and bumps the version.
// Zero affected rows means either the row is gone (ErrNotFound) or someone
// else wrote first (ErrConflict).
func (r *ScheduledBookingRepo) update(ctx context.Context, ex execer, id string, version uint64, set string, args ...any) error {
	q := `UPDATE scheduled_booking_deposits SET ` + set + `, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
	args = append(args, time.Now().UTC(), id, version)
	res, err := ex.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var one int
	err = ex.QueryRowContext(ctx, `SELECT 1 FROM scheduled_booking_deposits WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrConflict
}

// MarkPaid records the customer's submission: method, proof URL and key,
// terms and paid-at.  depositStatus becomes paid.
func (r *ScheduledBookingRepo) MarkPaid(ctx context.Context, id string, version uint64, method model.PaymentMethod, proofURL, proofKey string, paidAt time.Time) error {
	return r.update(ctx, r.db, id, version,
		`deposit_status = 'paid', payment_method = ?, payment_proof_url = ?, payment_proof_key = ?, terms_accepted = 1, paid_at = ?`,
		method, proofURL, proofKey, paidAt)
}

// ApproveWithPayout approves the deposit, moves the payout to processed and
// inserts the payout record in one transaction.
func (r *ScheduledBookingRepo) ApproveWithPayout(ctx context.Context, id string, version uint64, approvedBy uint64, at time.Time, rec *model.PayoutRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	err = r.update(ctx, tx, id, version,
		`deposit_status = 'approved', approved_at = ?, approved_by = ?, payout_status = 'processed', payout_date = ?, payout_reference = ?`,
		at, approvedBy, at, rec.Reference)
	if err != nil {
		return err
	}
	if err := r.payouts.CreateTx(ctx, tx, rec); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Reject moves a paid deposit to rejected.  reason may be nil.
func (r *ScheduledBookingRepo) Reject(ctx context.Context, id string, version uint64, reason *string, at time.Time) error {
	return r.update(ctx, r.db, id, version,
		`deposit_status = 'rejected', rejected_at = ?, rejection_reason = ?`, at, reason)
}

// ReportNoShow records a no-show and applies the deposit penalty.
func (r *ScheduledBookingRepo) ReportNoShow(ctx context.Context, id string, version uint64, status model.NoShowStatus, reporter string, reason *string, at time.Time) error {
	return r.update(ctx, r.db, id, version,
		`no_show_status = ?, no_show_reported_at = ?, no_show_reported_by = ?, no_show_reason = ?, penalty_applied = 1`,
		status, at, reporter, reason)
}

// AppendReminder stores the full reminder list (existing entries plus the
// new timestamp) and last-reminder time.
func (r *ScheduledBookingRepo) AppendReminder(ctx context.Context, id string, version uint64, sent []string, at time.Time) error {
	bs, err := json.Marshal(sent)
	if err != nil {
		return err
	}
	return r.update(ctx, r.db, id, version,
		`reminders_sent = ?, last_reminder_at = ?`, string(bs), at)
}
