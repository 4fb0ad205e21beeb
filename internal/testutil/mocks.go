package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/lexserve/bookings/internal/domain/booking"
	"github.com/lexserve/bookings/internal/domain/catalog"
	domainErrors "github.com/lexserve/bookings/internal/domain/errors"
	"github.com/lexserve/bookings/internal/domain/outbox"
)

// --- Booking Repository Mock ---

// MockBookingRepository is a mock implementation of booking.Repository.
type MockBookingRepository struct {
	mu        sync.Mutex
	bookings  map[uuid.UUID]*booking.Booking
	byRef     map[string]*booking.Booking
	sequences map[string]int64

	CreateFunc         func(ctx context.Context, b *booking.Booking) error
	GetByIDFunc        func(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	GetByReferenceFunc func(ctx context.Context, reference string) (*booking.Booking, error)
	UpdateFunc         func(ctx context.Context, b *booking.Booking) error
	NextSequenceFunc   func(ctx context.Context, kind booking.Kind, year int) (int64, error)
	ListFunc           func(ctx context.Context, filter booking.ListFilter) ([]*booking.Booking, error)
}

func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{
		bookings:  make(map[uuid.UUID]*booking.Booking),
		byRef:     make(map[string]*booking.Booking),
		sequences: make(map[string]int64),
	}
}

// AddBooking seeds a booking into the mock store.
func (m *MockBookingRepository) AddBooking(b *booking.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID] = b
	m.byRef[b.ReferenceNumber] = b
}

func (m *MockBookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, b)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byRef[b.ReferenceNumber]; ok {
		return domainErrors.ErrDuplicateReference
	}
	m.bookings[b.ID] = b
	m.byRef[b.ReferenceNumber] = b
	return nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, domainErrors.ErrBookingNotFound
	}
	return b, nil
}

func (m *MockBookingRepository) GetByReference(ctx context.Context, reference string) (*booking.Booking, error) {
	if m.GetByReferenceFunc != nil {
		return m.GetByReferenceFunc(ctx, reference)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.byRef[reference]
	if !ok {
		return nil, domainErrors.ErrBookingNotFound
	}
	return b, nil
}

func (m *MockBookingRepository) Update(ctx context.Context, b *booking.Booking) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, b)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[b.ID]; !ok {
		return domainErrors.ErrBookingNotFound
	}
	m.bookings[b.ID] = b
	m.byRef[b.ReferenceNumber] = b
	return nil
}

func (m *MockBookingRepository) NextSequence(ctx context.Context, kind booking.Kind, year int) (int64, error) {
	if m.NextSequenceFunc != nil {
		return m.NextSequenceFunc(ctx, kind, year)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%s:%d", kind, year)
	m.sequences[key]++
	return m.sequences[key], nil
}

func (m *MockBookingRepository) List(ctx context.Context, filter booking.ListFilter) ([]*booking.Booking, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*booking.Booking
	for _, b := range m.bookings {
		if filter.Kind != nil && b.Kind != *filter.Kind {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		if filter.PaymentStatus != nil && b.PaymentStatus != *filter.PaymentStatus {
			continue
		}
		if filter.StaffID != nil && (b.AssignedStaffID == nil || *b.AssignedStaffID != *filter.StaffID) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// --- Catalog Repository Mock ---

// MockCatalogRepository is a mock implementation of catalog.Repository.
type MockCatalogRepository struct {
	mu        sync.Mutex
	offerings map[uuid.UUID]*catalog.Offering

	CreateFunc     func(ctx context.Context, o *catalog.Offering) error
	GetByIDFunc    func(ctx context.Context, id uuid.UUID) (*catalog.Offering, error)
	ListActiveFunc func(ctx context.Context, kind *booking.Kind) ([]*catalog.Offering, error)
	UpdateFunc     func(ctx context.Context, o *catalog.Offering) error
}

func NewMockCatalogRepository() *MockCatalogRepository {
	return &MockCatalogRepository{offerings: make(map[uuid.UUID]*catalog.Offering)}
}

// AddOffering seeds an offering into the mock store.
func (m *MockCatalogRepository) AddOffering(o *catalog.Offering) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offerings[o.ID] = o
}

func (m *MockCatalogRepository) Create(ctx context.Context, o *catalog.Offering) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offerings[o.ID] = o
	return nil
}

func (m *MockCatalogRepository) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Offering, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offerings[id]
	if !ok {
		return nil, domainErrors.ErrOfferingNotFound
	}
	return o, nil
}

func (m *MockCatalogRepository) ListActive(ctx context.Context, kind *booking.Kind) ([]*catalog.Offering, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx, kind)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*catalog.Offering
	for _, o := range m.offerings {
		if !o.Active {
			continue
		}
		if kind != nil && o.Kind != *kind {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *MockCatalogRepository) Update(ctx context.Context, o *catalog.Offering) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.offerings[o.ID]; !ok {
		return domainErrors.ErrOfferingNotFound
	}
	m.offerings[o.ID] = o
	return nil
}

// --- Outbox Repository Mock ---

// MockOutboxRepository is a mock implementation of outbox.Repository.
type MockOutboxRepository struct {
	mu      sync.Mutex
	Entries []*outbox.Entry

	InsertFunc        func(ctx context.Context, entry *outbox.Entry) error
	GetPendingFunc    func(ctx context.Context, limit int) ([]*outbox.Entry, error)
	MarkPublishedFunc func(ctx context.Context, id uuid.UUID) error
	MarkFailedFunc    func(ctx context.Context, id uuid.UUID) error
}

func (m *MockOutboxRepository) Insert(ctx context.Context, entry *outbox.Entry) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entry)
	return nil
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Entry, error) {
	if m.GetPendingFunc != nil {
		return m.GetPendingFunc(ctx, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*outbox.Entry
	for _, e := range m.Entries {
		if e.Status == outbox.StatusPending {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Entries {
		if e.ID == id {
			e.Status = outbox.StatusPublished
		}
	}
	return nil
}

func (m *MockOutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	if m.MarkFailedFunc != nil {
		return m.MarkFailedFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Entries {
		if e.ID == id {
			e.RetryCount++
			if e.RetryCount >= e.MaxRetries {
				e.Status = outbox.StatusFailed
			}
		}
	}
	return nil
}

// --- Transaction Manager Mock ---

// MockTransactionManager runs the callback without a real transaction.
type MockTransactionManager struct {
	WithTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.WithTransactionFunc != nil {
		return m.WithTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

// --- Locker Mock ---

// MockLocker runs the callback immediately, as if the lock were free.
type MockLocker struct {
	mu   sync.Mutex
	Keys []string

	WithLockFunc func(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

func (m *MockLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if m.WithLockFunc != nil {
		return m.WithLockFunc(ctx, key, fn)
	}
	m.mu.Lock()
	m.Keys = append(m.Keys, key)
	m.mu.Unlock()
	return fn(ctx)
}
