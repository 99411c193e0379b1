package model

import "time"

// Notification types delivered to dashboards.
const (
	NotifyDepositRequired = "deposit_required"
	NotifyDepositPaid     = "deposit_paid"
	NotifyDepositApproved = "deposit_approved"
	NotifyDepositRejected = "deposit_rejected"
	NotifyPayoutSent      = "payout_sent"
	NotifyBalanceDetails  = "balance_details"
	NotifyReminder        = "reminder_5h"
	NotifyNoShow          = "no_show"
)

// Recipient types.  Admin notifications use RecipientID 0.
const (
	RecipientCustomer  = "customer"
	RecipientTherapist = "therapist"
	RecipientAdmin     = "admin"
)

// Notification mirrors the notifications table.
type Notification struct {
	ID            uint64    `json:"id"`
	RecipientID   uint64    `json:"recipient_id"`
	RecipientType string    `json:"recipient_type"`
	Type          string    `json:"type"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	Urgent        bool      `json:"urgent"`
	BookingID     string    `json:"booking_id"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"created_at"`
}
