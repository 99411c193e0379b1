// Package queue carries domain events over RabbitMQ: a publisher on the
// booking.events topic exchange and an audit consumer that appends every
// event to logs/booking.log.
package queue

import "time"

// Exchange is the topic exchange all booking events are published to.
const Exchange = "booking.events"

// Routing keys.
const (
	KeyDepositPaid     = "deposit.paid"
	KeyDepositApproved = "deposit.approved"
	KeyDepositRejected = "deposit.rejected"
	KeyReminder        = "booking.reminder"
	KeyNoShow          = "booking.no_show"
)

// BookingEvent is the payload of every booking event.  Fields that do not
// apply to a given routing key are left empty.
type BookingEvent struct {
	Key             string `json:"key"`
	DepositID       string `json:"deposit_id"`
	BookingID       string `json:"booking_id"`
	CustomerID      uint64 `json:"customer_id"`
	TherapistID     uint64 `json:"therapist_id"`
	DepositAmount   int64  `json:"deposit_amount"`
	DepositStatus   string `json:"deposit_status"`
	PayoutReference string `json:"payout_reference,omitempty"`
	NoShowStatus    string `json:"no_show_status,omitempty"`
	Reason          string `json:"reason,omitempty"`
	ScheduledFor    string `json:"scheduled_for,omitempty"`
	Version         uint64 `json:"version"`
	OccurredAt      string `json:"occurred_at"`
}

// Stamp sets OccurredAt to t in RFC3339 UTC.
func (e *BookingEvent) Stamp(t time.Time) {
	e.OccurredAt = t.UTC().Format(time.RFC3339)
}
