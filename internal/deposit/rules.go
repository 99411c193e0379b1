package deposit

import (
	"time"

	"github.com/iliyamo/spa-booking-deposits/internal/model"
)

// UpcomingWindow is how far ahead a booking is highlighted on the dashboard.
const UpcomingWindow = 5 * time.Hour

// ReminderDedup suppresses a second reminder within this period.
const ReminderDedup = time.Hour

// ScheduledAt combines the booking's date (YYYY-MM-DD) and time (HH:MM) in loc.
func ScheduledAt(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
	if err != nil {
		return time.Time{}, Validation("invalid scheduled date/time", err)
	}
	return t, nil
}

// IsUpcomingSoon reports 0 < at-now <= UpcomingWindow.  It drives UI
// highlighting only and gates no transition.
func IsUpcomingSoon(at, now time.Time) bool {
	d := at.Sub(now)
	return d > 0 && d <= UpcomingWindow
}

// CheckInvariants validates the money and payout invariants of b.
func CheckInvariants(b *model.ScheduledBooking) error {
	if b.DepositAmount+b.RemainingAmount != b.TotalPrice {
		return Validation("deposit and remaining amount do not sum to total", nil)
	}
	if b.PayoutStatus != model.PayoutPending && b.DepositStatus != model.DepositApproved {
		return Conflict("payout requires an approved deposit", ErrInvalidState)
	}
	return nil
}

// CanMarkPaid allows the customer submission on a pending deposit only.
func CanMarkPaid(b *model.ScheduledBooking) error {
	if b.DepositStatus != model.DepositPending {
		return Conflict("deposit is "+string(b.DepositStatus), ErrInvalidState)
	}
	return nil
}

// CanApprove allows approval of a paid deposit only.
func CanApprove(b *model.ScheduledBooking) error {
	if b.DepositStatus != model.DepositPaid {
		return Conflict("deposit is "+string(b.DepositStatus)+", not paid", ErrInvalidState)
	}
	return nil
}

// CanReject allows rejection of a paid deposit only.  Approved deposits are
// non-refundable and cannot be rejected afterwards.
func CanReject(b *model.ScheduledBooking) error {
	if b.DepositStatus != model.DepositPaid {
		return Conflict("deposit is "+string(b.DepositStatus)+", not paid", ErrInvalidState)
	}
	return nil
}

// CanReportNoShow requires an approved deposit, no earlier report and a
// scheduled time strictly in the past.
func CanReportNoShow(b *model.ScheduledBooking, at, now time.Time) error {
	if b.DepositStatus != model.DepositApproved {
		return Conflict("no-show requires an approved deposit", ErrInvalidState)
	}
	if b.NoShowStatus != model.NoShowNone {
		return Conflict("no-show already "+string(b.NoShowStatus), ErrInvalidState)
	}
	if !now.After(at) {
		return Validation("appointment time has not passed yet", nil)
	}
	return nil
}

// NeedsReminder reports whether b should get its pre-appointment reminder:
// approved, not a no-show, starting within [lead, lead+1h] from now, and
// no reminder sent during the last hour.
func NeedsReminder(b *model.ScheduledBooking, at, now time.Time, lead time.Duration) bool {
	if b.DepositStatus != model.DepositApproved || b.NoShowStatus != model.NoShowNone {
		return false
	}
	d := at.Sub(now)
	if d < lead || d > lead+time.Hour {
		return false
	}
	for _, sent := range b.RemindersSent {
		t, err := time.Parse(time.RFC3339, sent)
		if err != nil {
			continue
		}
		if now.Sub(t) < ReminderDedup {
			return false
		}
	}
	return true
}
