package handler

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/spa-booking-deposits/internal/deposit"
	"github.com/iliyamo/spa-booking-deposits/internal/model"
	"github.com/iliyamo/spa-booking-deposits/internal/repository"
	"github.com/iliyamo/spa-booking-deposits/internal/service"
	"github.com/iliyamo/spa-booking-deposits/internal/storage"
	"github.com/iliyamo/spa-booking-deposits/internal/utils"
)

// fakeWorkflow records the inputs it receives and returns err when set.
type fakeWorkflow struct {
	err        error
	create     service.CreateInput
	submit     service.SubmitInput
	proofBody  string
	statuses   []model.DepositStatus
	noShow     service.NoShowInput
	approvedBy service.Actor
	version    uint64
}

func (f *fakeWorkflow) Policy() service.Policy {
	return service.Policy{Percent: 30, MinPercent: 0, MaxPercent: 50, MaxProofBytes: 5 << 20, Location: time.UTC}
}

func (f *fakeWorkflow) booking(id string) *model.ScheduledBooking {
	return &model.ScheduledBooking{ID: id, BookingID: "BK-1", DepositStatus: model.DepositPending, Version: 1}
}

func (f *fakeWorkflow) CreateScheduledBooking(_ context.Context, in service.CreateInput) (*model.ScheduledBooking, error) {
	f.create = in
	if f.err != nil {
		return nil, f.err
	}
	return f.booking("dep-1"), nil
}

func (f *fakeWorkflow) SubmitDeposit(_ context.Context, in service.SubmitInput) (*model.ScheduledBooking, error) {
	f.submit = in
	if in.Proof != nil {
		b, _ := io.ReadAll(in.Proof)
		f.proofBody = string(b)
	}
	if f.err != nil {
		return nil, f.err
	}
	if !in.TermsAccepted {
		return nil, deposit.Validation("terms not accepted", deposit.ErrTermsRequired)
	}
	b := f.booking(in.ID)
	b.DepositStatus = model.DepositPaid
	return b, nil
}

func (f *fakeWorkflow) ListForCustomer(context.Context, service.Actor) ([]model.DashboardBooking, error) {
	return []model.DashboardBooking{{ScheduledBooking: *f.booking("dep-1")}}, f.err
}

func (f *fakeWorkflow) ListBookings(_ context.Context, a service.Actor, statuses []model.DepositStatus) ([]model.DashboardBooking, error) {
	f.statuses = statuses
	if a.Role == model.RoleCustomer {
		return nil, deposit.Forbidden("dashboard is for providers")
	}
	return []model.DashboardBooking{}, f.err
}

func (f *fakeWorkflow) Upcoming(context.Context, service.Actor) ([]model.DashboardBooking, error) {
	return []model.DashboardBooking{}, f.err
}

func (f *fakeWorkflow) ApproveDeposit(_ context.Context, id string, a service.Actor, version uint64) (*model.ScheduledBooking, error) {
	f.approvedBy, f.version = a, version
	if f.err != nil {
		return nil, f.err
	}
	b := f.booking(id)
	b.DepositStatus = model.DepositApproved
	return b, nil
}

func (f *fakeWorkflow) RejectDeposit(_ context.Context, id string, _ service.Actor, _ string, version uint64) (*model.ScheduledBooking, error) {
	f.version = version
	if f.err != nil {
		return nil, f.err
	}
	return f.booking(id), nil
}

func (f *fakeWorkflow) Proof(_ context.Context, id string, a service.Actor) (storage.File, error) {
	if a.Role == model.RoleCustomer && a.ID != 7 {
		return storage.File{}, deposit.Forbidden("booking belongs to another customer")
	}
	if id != "dep-1" {
		return storage.File{}, deposit.NotFound("no proof uploaded")
	}
	return storage.File{Body: []byte("\x89PNG"), ContentType: "image/png"}, nil
}

func (f *fakeWorkflow) ReportNoShow(_ context.Context, in service.NoShowInput) (*model.ScheduledBooking, error) {
	f.noShow = in
	if !in.Confirm {
		return nil, deposit.Validation("confirm the no-show report", deposit.ErrNotConfirmed)
	}
	return f.booking(in.ID), f.err
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]model.User
	next  uint64
}

func newMemUsers() *memUsers { return &memUsers{users: map[string]model.User{}} }

func (m *memUsers) Create(_ context.Context, email, name, password, role string, _ int) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	if _, ok := m.users[email]; ok {
		return 0, repository.ErrEmailExists
	}
	hash, err := utils.HashPassword(password, 4)
	if err != nil {
		return 0, err
	}
	m.next++
	m.users[email] = model.User{ID: m.next, Email: email, DisplayName: name, PasswordHash: hash, Role: role, IsActive: true}
	return m.next, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

type memTokens struct {
	mu      sync.Mutex
	owner   map[string]uint64
	revoked map[string]bool
}

func newMemTokens() *memTokens {
	return &memTokens{owner: map[string]uint64{}, revoked: map[string]bool{}}
}

func (m *memTokens) StoreRefresh(_ context.Context, userID uint64, hash string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owner[hash] = userID
	return nil
}

func (m *memTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.owner[hash]
	if !ok || m.revoked[hash] {
		return 0, repository.ErrNotFound
	}
	return id, nil
}

func (m *memTokens) Rotate(_ context.Context, userID uint64, oldHash, newHash string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revoked[oldHash] || m.owner[oldHash] != userID {
		return repository.ErrNotFound
	}
	m.revoked[oldHash] = true
	m.owner[newHash] = userID
	return nil
}

func (m *memTokens) RevokeByHash(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[hash] = true
	return nil
}

type memProfiles struct{ ensured []uint64 }

func (m *memProfiles) Ensure(_ context.Context, id uint64, _ string) error {
	m.ensured = append(m.ensured, id)
	return nil
}

type memBank struct {
	saved model.BankDetails
}

func (m *memBank) GetByID(_ context.Context, id uint64) (*model.Therapist, error) {
	if id != 3 {
		return nil, repository.ErrNotFound
	}
	return &model.Therapist{ID: 3, DisplayName: "Made", Bank: m.saved}, nil
}

func (m *memBank) UpdateBank(_ context.Context, id uint64, d model.BankDetails) error {
	if id != 3 {
		return repository.ErrNotFound
	}
	m.saved = d
	return nil
}

type memNotes struct {
	lastType string
	lastID   uint64
}

func (m *memNotes) ListForRecipient(_ context.Context, rt string, rid uint64, _ bool, _ int) ([]model.Notification, error) {
	m.lastType, m.lastID = rt, rid
	return []model.Notification{{ID: 1, RecipientType: rt, RecipientID: rid, Type: model.NotifyDepositPaid}}, nil
}

func (m *memNotes) MarkRead(_ context.Context, id uint64, rt string, rid uint64) error {
	m.lastType, m.lastID = rt, rid
	if id != 1 {
		return repository.ErrNotFound
	}
	return nil
}

type memPayouts struct{ asked uint64 }

func (m *memPayouts) ListByTherapist(_ context.Context, therapistID uint64) ([]model.PayoutRecord, error) {
	m.asked = therapistID
	return []model.PayoutRecord{{TherapistID: therapistID, Reference: "PAY-20251201-ABCDEF12"}}, nil
}
