package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/spa-booking-deposits/internal/model"
)

// TherapistRepo manages the therapists table, which carries the payout
// bank details of each provider account.
type TherapistRepo struct{ db *sql.DB }

func NewTherapistRepo(db *sql.DB) *TherapistRepo { return &TherapistRepo{db: db} }

// Ensure creates the profile row for a therapist user if it is missing.
func (r *TherapistRepo) Ensure(ctx context.Context, id uint64, displayName string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT IGNORE INTO therapists (id, display_name) VALUES (?, ?)", id, displayName)
	return err
}

// GetByID loads a therapist with bank details or returns ErrNotFound.
func (r *TherapistRepo) GetByID(ctx context.Context, id uint64) (*model.Therapist, error) {
	var (
		t                        model.Therapist
		bank, accName, accNumber sql.NullString
		swift                    sql.NullString
		verifiedAt               sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, display_name, bank_name, account_name, account_number, swift_code, verified_at
		 FROM therapists WHERE id = ? LIMIT 1`, id).
		Scan(&t.ID, &t.DisplayName, &bank, &accName, &accNumber, &swift, &verifiedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.Bank = model.BankDetails{
		BankName:      bank.String,
		AccountName:   accName.String,
		AccountNumber: accNumber.String,
		SwiftCode:     strPtr(swift),
		VerifiedAt:    timePtr(verifiedAt),
	}
	return &t, nil
}

// UpdateBank replaces the bank details.  Changing them clears verified_at.
func (r *TherapistRepo) UpdateBank(ctx context.Context, id uint64, d model.BankDetails) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE therapists SET bank_name = ?, account_name = ?, account_number = ?, swift_code = ?, verified_at = NULL, updated_at = ?
		 WHERE id = ?`,
		d.BankName, d.AccountName, d.AccountNumber, d.SwiftCode, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
