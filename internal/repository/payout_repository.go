package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/spa-booking-deposits/internal/model"
)

// PayoutRepo writes the therapist_payouts accounting rows.  Rows are only
// ever created inside the approval transaction.
type PayoutRepo struct{ db *sql.DB }

func NewPayoutRepo(db *sql.DB) *PayoutRepo { return &PayoutRepo{db: db} }

// CreateTx inserts rec within tx and populates its ID and CreatedAt.
func (r *PayoutRepo) CreateTx(ctx context.Context, tx *sql.Tx, rec *model.PayoutRecord) error {
	if rec.Status == "" {
		rec.Status = "sent"
	}
	rec.CreatedAt = time.Now().UTC()
	const q = `INSERT INTO therapist_payouts
		(deposit_id, booking_id, therapist_id, therapist_name, amount, bank_name, account_name, account_number, payout_reference, status, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`
	res, err := tx.ExecContext(ctx, q,
		rec.DepositID, rec.BookingID, rec.TherapistID, rec.TherapistName, rec.Amount,
		rec.BankName, rec.AccountName, rec.AccountNumber, rec.Reference, rec.Status, rec.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	return nil
}

// ListByTherapist returns the therapist's payouts, newest first.
func (r *PayoutRepo) ListByTherapist(ctx context.Context, therapistID uint64) ([]model.PayoutRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, deposit_id, booking_id, therapist_id, therapist_name, amount,
		bank_name, account_name, account_number, payout_reference, status, created_at
		FROM therapist_payouts WHERE therapist_id = ? ORDER BY created_at DESC`, therapistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.PayoutRecord{}
	for rows.Next() {
		var p model.PayoutRecord
		if err := rows.Scan(&p.ID, &p.DepositID, &p.BookingID, &p.TherapistID, &p.TherapistName, &p.Amount,
			&p.BankName, &p.AccountName, &p.AccountNumber, &p.Reference, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
