// Package reminder sends the pre-appointment reminder for approved
// bookings.  The Scheduler is owned by main and stops when its context is
// cancelled; every store call inherits that context.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/spa-booking-deposits/internal/deposit"
	"github.com/iliyamo/spa-booking-deposits/internal/model"
	"github.com/iliyamo/spa-booking-deposits/internal/queue"
	"github.com/iliyamo/spa-booking-deposits/internal/repository"
)

// Store is the booking persistence the scheduler needs.
type Store interface {
	ListForReminders(ctx context.Context, fromDate, toDate string, therapistID uint64) ([]model.ScheduledBooking, error)
	AppendReminder(ctx context.Context, id string, version uint64, sent []string, at time.Time) error
}

type Notifier interface {
	Notify(ctx context.Context, n model.Notification)
}

type Publisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// Config wires a Scheduler.  Lead defaults to five hours, Interval to
// five minutes and Location to UTC.
type Config struct {
	Store    Store
	Notifier Notifier
	Events   Publisher
	Lead     time.Duration
	Interval time.Duration
	Location *time.Location
	Now      func() time.Time
}

type Scheduler struct {
	store    Store
	notify   Notifier
	events   Publisher
	lead     time.Duration
	interval time.Duration
	loc      *time.Location
	now      func() time.Time
}

func New(c Config) *Scheduler {
	if c.Lead <= 0 {
		c.Lead = 5 * time.Hour
	}
	if c.Interval <= 0 {
		c.Interval = 5 * time.Minute
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return &Scheduler{
		store:    c.Store,
		notify:   c.Notifier,
		events:   c.Events,
		lead:     c.Lead,
		interval: c.Interval,
		loc:      c.Location,
		now:      c.Now,
	}
}

// Run ticks immediately and then every interval until ctx is done.  Tick
// errors are logged and the loop waits for the next tick.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Printf("reminder: scheduler started (lead=%s interval=%s)", s.lead, s.interval)
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		if n, err := s.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Printf("reminder: tick failed after %d reminders: %v", n, err)
		} else if n > 0 {
			log.Printf("reminder: sent %d reminders", n)
		}
		select {
		case <-ctx.Done():
			log.Printf("reminder: scheduler stopped")
			return ctx.Err()
		case <-t.C:
		}
	}
	log.Printf("reminder: scheduler stopped")
	return ctx.Err()
}

// Poll returns the bookings that currently need a reminder.  A non-zero
// therapistID limits the result to that therapist.
func (s *Scheduler) Poll(ctx context.Context, therapistID uint64) ([]model.ScheduledBooking, error) {
	now := s.now().In(s.loc)
	from := now.Format("2006-01-02")
	to := now.Add(s.lead + time.Hour).Format("2006-01-02")
	list, err := s.store.ListForReminders(ctx, from, to, therapistID)
	if err != nil {
		return nil, deposit.Service("list reminder candidates", err)
	}
	due := []model.ScheduledBooking{}
	for i := range list {
		at, err := deposit.ScheduledAt(list[i].ScheduledDate, list[i].ScheduledTime, s.loc)
		if err != nil {
			continue
		}
		if deposit.NeedsReminder(&list[i], at, now, s.lead) {
			due = append(due, list[i])
		}
	}
	return due, nil
}

// Tick sends one round of reminders and returns how many went out.  The
// reminder is recorded before anyone is notified, so a booking that lost a
// version race to another writer is skipped instead of reminded twice.
func (s *Scheduler) Tick(ctx context.Context) (int, error) {
	due, err := s.Poll(ctx, 0)
	if err != nil {
		return 0, err
	}
	sent := 0
	for i := range due {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		b := &due[i]
		now := s.now().UTC()
		stamps := append(append([]string{}, b.RemindersSent...), now.Format(time.RFC3339))
		if err := s.store.AppendReminder(ctx, b.ID, b.Version, stamps, now); err != nil {
			if errors.Is(err, repository.ErrConflict) || errors.Is(err, repository.ErrNotFound) {
				log.Printf("reminder: skip %s: %v", b.ID, err)
				continue
			}
			return sent, deposit.Service("record reminder", err)
		}
		b.RemindersSent = stamps
		b.LastReminderAt = &now
		b.Version++
		s.deliver(ctx, b)
		sent++
	}
	return sent, nil
}

func (s *Scheduler) deliver(ctx context.Context, b *model.ScheduledBooking) {
	when := b.ScheduledDate + " " + b.ScheduledTime
	if s.notify != nil {
		s.notify.Notify(ctx, model.Notification{
			RecipientID: b.CustomerID, RecipientType: model.RecipientCustomer,
			Type: model.NotifyReminder, Title: "Appointment reminder",
			Message:   fmt.Sprintf("Your %s with %s starts at %s. Remaining balance: %d.", b.ServiceType, b.TherapistName, when, b.RemainingAmount),
			Urgent:    true,
			BookingID: b.BookingID,
		})
		s.notify.Notify(ctx, model.Notification{
			RecipientID: b.TherapistID, RecipientType: model.RecipientTherapist,
			Type: model.NotifyReminder, Title: "Upcoming appointment",
			Message:   fmt.Sprintf("%s (%d min) with %s at %s, %s.", b.ServiceType, b.DurationMin, b.CustomerName, when, b.Location),
			Urgent:    true,
			BookingID: b.BookingID,
		})
	}
	if s.events != nil {
		ev := queue.BookingEvent{
			Key: queue.KeyReminder, DepositID: b.ID, BookingID: b.BookingID,
			CustomerID: b.CustomerID, TherapistID: b.TherapistID, DepositAmount: b.DepositAmount,
			DepositStatus: string(b.DepositStatus), ScheduledFor: when, Version: b.Version,
		}
		ev.Stamp(s.now())
		if err := s.events.Publish(ctx, ev); err != nil {
			log.Printf("reminder: publish for %s: %v", b.ID, err)
		}
	}
}
