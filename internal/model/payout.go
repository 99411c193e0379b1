package model

import "time"

// BankDetails is the payout destination stored on the therapists table.
type BankDetails struct {
	BankName      string     `json:"bank_name"`
	AccountName   string     `json:"account_name"`
	AccountNumber string     `json:"account_number"`
	SwiftCode     *string    `json:"swift_code,omitempty"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
}

// Therapist is the provider profile used for payouts.
type Therapist struct {
	ID          uint64 // therapists.id (= users.id)
	DisplayName string // therapists.display_name
	Bank        BankDetails
}

// PayoutRecord is the accounting row written when a deposit is approved.
type PayoutRecord struct {
	ID            uint64    `json:"id"`
	DepositID     string    `json:"deposit_id"`
	BookingID     string    `json:"booking_id"`
	TherapistID   uint64    `json:"therapist_id"`
	TherapistName string    `json:"therapist_name"`
	Amount        int64     `json:"amount"`
	BankName      string    `json:"bank_name"`
	AccountName   string    `json:"account_name"`
	AccountNumber string    `json:"account_number"`
	Reference     string    `json:"payout_reference"`
	Status        string    `json:"status"` // sent
	CreatedAt     time.Time `json:"created_at"`
}
