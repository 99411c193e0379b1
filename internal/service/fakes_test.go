package service

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/iliyamo/spa-booking-deposits/internal/deposit"
	"github.com/iliyamo/spa-booking-deposits/internal/model"
	"github.com/iliyamo/spa-booking-deposits/internal/queue"
	"github.com/iliyamo/spa-booking-deposits/internal/realtime"
	"github.com/iliyamo/spa-booking-deposits/internal/repository"
	"github.com/iliyamo/spa-booking-deposits/internal/storage"
)

type memBookings struct {
	mu      sync.Mutex
	rows    map[string]*model.ScheduledBooking
	payouts []model.PayoutRecord
	seq     int
	failErr error
}

func newMemBookings() *memBookings {
	return &memBookings{rows: map[string]*model.ScheduledBooking{}}
}

func (m *memBookings) put(b model.ScheduledBooking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.Version == 0 {
		b.Version = 1
	}
	m.rows[b.ID] = &b
}

func (m *memBookings) Create(_ context.Context, b *model.ScheduledBooking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.seq++
	if b.ID == "" {
		b.ID = "sb-" + strconv.Itoa(m.seq)
	}
	b.Version = 1
	b.CreatedAt = time.Now()
	cp := *b
	m.rows[b.ID] = &cp
	return nil
}

func (m *memBookings) GetByID(_ context.Context, id string) (*model.ScheduledBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memBookings) ListByTherapist(_ context.Context, therapistID uint64, statuses []model.DepositStatus) ([]model.ScheduledBooking, error) {
	return m.filter(func(b *model.ScheduledBooking) bool {
		if therapistID != 0 && b.TherapistID != therapistID {
			return false
		}
		if len(statuses) == 0 {
			return true
		}
		for _, s := range statuses {
			if b.DepositStatus == s {
				return true
			}
		}
		return false
	}), nil
}

func (m *memBookings) ListByCustomer(_ context.Context, customerID uint64) ([]model.ScheduledBooking, error) {
	return m.filter(func(b *model.ScheduledBooking) bool { return b.CustomerID == customerID }), nil
}

func (m *memBookings) ListForReminders(_ context.Context, from, to string, therapistID uint64) ([]model.ScheduledBooking, error) {
	return m.filter(func(b *model.ScheduledBooking) bool {
		return b.DepositStatus == model.DepositApproved && b.NoShowStatus == model.NoShowNone &&
			b.ScheduledDate >= from && b.ScheduledDate <= to &&
			(therapistID == 0 || b.TherapistID == therapistID)
	}), nil
}

func (m *memBookings) filter(keep func(*model.ScheduledBooking) bool) []model.ScheduledBooking {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.ScheduledBooking{}
	for _, b := range m.rows {
		if keep(b) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memBookings) mutate(id string, version uint64, f func(*model.ScheduledBooking)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	b, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if b.Version != version {
		return repository.ErrConflict
	}
	f(b)
	b.Version++
	return nil
}

func (m *memBookings) MarkPaid(_ context.Context, id string, version uint64, method model.PaymentMethod, url, key string, at time.Time) error {
	return m.mutate(id, version, func(b *model.ScheduledBooking) {
		b.DepositStatus = model.DepositPaid
		b.PaymentMethod = method
		b.PaymentProofURL = &url
		b.PaymentProofKey = key
		b.TermsAccepted = true
		b.PaidAt = &at
	})
}

func (m *memBookings) ApproveWithPayout(_ context.Context, id string, version uint64, by uint64, at time.Time, rec *model.PayoutRecord) error {
	err := m.mutate(id, version, func(b *model.ScheduledBooking) {
		b.DepositStatus = model.DepositApproved
		b.ApprovedBy = &by
		b.ApprovedAt = &at
		b.PayoutStatus = model.PayoutProcessed
		b.PayoutReference = &rec.Reference
	})
	if err == nil {
		m.mu.Lock()
		m.payouts = append(m.payouts, *rec)
		m.mu.Unlock()
	}
	return err
}

func (m *memBookings) Reject(_ context.Context, id string, version uint64, reason *string, at time.Time) error {
	return m.mutate(id, version, func(b *model.ScheduledBooking) {
		b.DepositStatus = model.DepositRejected
		b.RejectionReason = reason
		b.RejectedAt = &at
	})
}

func (m *memBookings) ReportNoShow(_ context.Context, id string, version uint64, st model.NoShowStatus, by string, reason *string, at time.Time) error {
	return m.mutate(id, version, func(b *model.ScheduledBooking) {
		b.NoShowStatus = st
		b.NoShowReportedBy = &by
		b.NoShowReason = reason
		b.NoShowReportedAt = &at
		b.PenaltyApplied = true
	})
}

func (m *memBookings) AppendReminder(_ context.Context, id string, version uint64, sent []string, at time.Time) error {
	return m.mutate(id, version, func(b *model.ScheduledBooking) {
		b.RemindersSent = append([]string{}, sent...)
		b.LastReminderAt = &at
	})
}

type memTherapists map[uint64]*model.Therapist

func (m memTherapists) GetByID(_ context.Context, id uint64) (*model.Therapist, error) {
	t, ok := m[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

type memProofs struct {
	mu      sync.Mutex
	saved   int
	err     error
	files   map[string][]byte
	deleted []string
}

func (p *memProofs) Save(_ context.Context, name string, r io.Reader) (storage.Stored, error) {
	if p.err != nil {
		return storage.Stored{}, p.err
	}
	var buf bytes.Buffer
	n, _ := io.Copy(&buf, r)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved++
	key := "proofs/" + strconv.Itoa(p.saved) + "-" + name
	if p.files == nil {
		p.files = map[string][]byte{}
	}
	p.files[key] = buf.Bytes()
	return storage.Stored{Key: key, ContentType: "image/jpeg", Size: n}, nil
}

func (p *memProofs) Open(_ context.Context, key string) (storage.File, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	body, ok := p.files[key]
	if !ok {
		return storage.File{}, deposit.NotFound("proof not found")
	}
	return storage.File{Body: body, ContentType: "image/jpeg"}, nil
}

func (p *memProofs) Delete(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.files, key)
	p.deleted = append(p.deleted, key)
	return nil
}

type memEvents struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (e *memEvents) Publish(_ context.Context, ev queue.BookingEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.keys = append(e.keys, ev.Key)
	return e.err
}

type memNotes struct {
	mu    sync.Mutex
	notes []model.Notification
}

func (n *memNotes) Create(_ context.Context, note *model.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, *note)
	return nil
}

func (n *memNotes) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, x := range n.notes {
		out = append(out, x.RecipientType+":"+x.Type)
	}
	return out
}

type nopPusher struct{}

func (nopPusher) SendToUser(string, uint64, realtime.Message) int { return 1 }
func (nopPusher) SendToRole(string, realtime.Message) int         { return 1 }
