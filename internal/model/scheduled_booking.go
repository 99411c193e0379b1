package model

import "time"

// DepositStatus tracks the customer's deposit.  It moves pending -> paid on
// customer submission and paid -> approved|rejected on review.  Nothing
// moves an approved deposit back; deposits are non-refundable.
type DepositStatus string

const (
	DepositPending  DepositStatus = "pending"
	DepositPaid     DepositStatus = "paid"
	DepositApproved DepositStatus = "approved"
	DepositRejected DepositStatus = "rejected"
)

// PayoutStatus tracks the transfer of the deposit to the provider.  It may
// only leave pending once the deposit is approved.
type PayoutStatus string

const (
	PayoutPending   PayoutStatus = "pending"
	PayoutProcessed PayoutStatus = "processed"
	PayoutCompleted PayoutStatus = "completed"
)

// NoShowStatus records a customer's failure to appear.
type NoShowStatus string

const (
	NoShowNone      NoShowStatus = "none"
	NoShowReported  NoShowStatus = "reported"
	NoShowConfirmed NoShowStatus = "confirmed"
)

// PaymentMethod is how the customer paid the deposit.
type PaymentMethod string

const (
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCreditCard   PaymentMethod = "credit_card"
	MethodEWallet      PaymentMethod = "e_wallet"
)

// Valid reports whether m is one of the accepted payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodBankTransfer, MethodCreditCard, MethodEWallet:
		return true
	}
	return false
}

// ScheduledBooking mirrors a row of scheduled_booking_deposits.  Money is in
// integer currency units (IDR has no minor unit).  Version is the
// optimistic concurrency token; every write bumps it.
type ScheduledBooking struct {
	ID            string `json:"id"`
	BookingID     string `json:"booking_id"`
	CustomerID    uint64 `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	TherapistID   uint64 `json:"therapist_id"`
	TherapistName string `json:"therapist_name"`
	ProviderType  string `json:"provider_type"` // therapist | place
	ServiceType   string `json:"service_type"`
	DurationMin   int    `json:"duration_min"`

	TotalPrice      int64 `json:"total_price"`
	DepositPercent  int   `json:"deposit_percent"`
	DepositAmount   int64 `json:"deposit_amount"`
	RemainingAmount int64 `json:"remaining_amount"`
	PayoutAmount    int64 `json:"payout_amount"`

	ScheduledDate string   `json:"scheduled_date"` // YYYY-MM-DD
	ScheduledTime string   `json:"scheduled_time"` // HH:MM
	Location      string   `json:"location"`
	Lat           *float64 `json:"lat,omitempty"`
	Lng           *float64 `json:"lng,omitempty"`

	DepositStatus   DepositStatus `json:"deposit_status"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	PaymentProofURL *string       `json:"payment_proof_url,omitempty"` // authenticated API path
	PaymentProofKey string        `json:"-"`                           // storage key
	TermsAccepted   bool          `json:"terms_accepted"`
	PaidAt          *time.Time    `json:"paid_at,omitempty"`
	ApprovedAt      *time.Time    `json:"approved_at,omitempty"`
	ApprovedBy      *uint64       `json:"approved_by,omitempty"`
	RejectedAt      *time.Time    `json:"rejected_at,omitempty"`
	RejectionReason *string       `json:"rejection_reason,omitempty"`

	PayoutStatus    PayoutStatus `json:"payout_status"`
	PayoutDate      *time.Time   `json:"payout_date,omitempty"`
	PayoutReference *string      `json:"payout_reference,omitempty"`

	NoShowStatus     NoShowStatus `json:"no_show_status"`
	NoShowReportedAt *time.Time   `json:"no_show_reported_at,omitempty"`
	NoShowReportedBy *string      `json:"no_show_reported_by,omitempty"`
	NoShowReason     *string      `json:"no_show_reason,omitempty"`
	PenaltyApplied   bool         `json:"penalty_applied"`

	RemindersSent  []string   `json:"reminders_sent"`
	LastReminderAt *time.Time `json:"last_reminder_at,omitempty"`

	Version   uint64    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProofPath is the authenticated route serving the proof of booking id.
func ProofPath(id string) string {
	return "/v1/scheduled-bookings/" + id + "/proof"
}

// DashboardBooking is a ScheduledBooking annotated for the therapist view.
type DashboardBooking struct {
	ScheduledBooking
	UpcomingSoon bool `json:"upcoming_soon"`
}
