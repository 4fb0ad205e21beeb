package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lexserve/bookings/internal/domain/booking"
	"github.com/lexserve/bookings/internal/domain/catalog"
	domainErrors "github.com/lexserve/bookings/internal/domain/errors"
)

// BookingService handles booking lifecycle logic: intake, staff-side status
// management, assignment and scheduling.
type BookingService struct {
	bookingRepo booking.Repository
	catalogRepo catalog.Repository
	txManager   TransactionManager
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookingRepo booking.Repository,
	catalogRepo catalog.Repository,
	txManager TransactionManager,
) *BookingService {
	return &BookingService{
		bookingRepo: bookingRepo,
		catalogRepo: catalogRepo,
		txManager:   txManager,
	}
}

// CreateBookingRequest holds the input for creating a booking.
type CreateBookingRequest struct {
	Kind        booking.Kind
	OfferingID  uuid.UUID
	ClientName  string
	ClientEmail string
	ClientPhone string
	Notes       string

	// Exactly one of these must be set, matching Kind.
	Registration *booking.RegistrationDetails
	Consultation *booking.ConsultationDetails
}

// CreateBooking creates a pending booking with the fee snapshotted from the
// offering and a reference number allocated from the per-kind yearly sequence.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*booking.Booking, error) {
	if !booking.ValidKind(req.Kind) {
		return nil, domainErrors.ErrInvalidBookingKind
	}

	offering, err := s.catalogRepo.GetByID(ctx, req.OfferingID)
	if err != nil {
		return nil, err
	}
	if !offering.Active {
		return nil, domainErrors.ErrOfferingInactive
	}
	// A mismatched kind reads the same as a missing offering.
	if offering.Kind != req.Kind {
		return nil, domainErrors.ErrOfferingNotFound
	}

	switch req.Kind {
	case booking.KindRegistration:
		if req.Registration == nil {
			return nil, domainErrors.NewValidationError("registration", "required for registration bookings")
		}
	case booking.KindConsultation:
		if req.Consultation == nil {
			return nil, domainErrors.NewValidationError("consultation", "required for consultation bookings")
		}
	}

	var b *booking.Booking
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		year := time.Now().Year()
		seq, err := s.bookingRepo.NextSequence(txCtx, req.Kind, year)
		if err != nil {
			return err
		}
		reference := booking.FormatReference(req.Kind, year, seq)

		b, err = booking.New(
			req.Kind,
			reference,
			offering.ID,
			req.ClientName,
			req.ClientEmail,
			req.ClientPhone,
			offering.FeeCents,
			offering.Currency,
		)
		if err != nil {
			return err
		}
		b.Registration = req.Registration
		b.Consultation = req.Consultation
		b.Notes = req.Notes

		return s.bookingRepo.Create(txCtx, b)
	})
	if err != nil {
		return nil, err
	}

	return b, nil
}

// BookingStatusView is the guest-facing projection of a booking. It carries
// no staff assignment or intake details.
type BookingStatusView struct {
	ReferenceNumber string
	Kind            booking.Kind
	Status          booking.Status
	PaymentStatus   booking.PaymentStatus
	AmountCents     int64
	Currency        string
	ScheduledAt     *time.Time
	CreatedAt       time.Time
	PaidAt          *time.Time
}

// GetStatus looks up a booking for a guest by reference number and contact
// email. A wrong reference, a wrong email, and a kind mismatch all return
// ErrBookingNotFound, so the response never reveals whether the reference
// exists.
func (s *BookingService) GetStatus(ctx context.Context, kind booking.Kind, reference, email string) (*BookingStatusView, error) {
	b, err := s.bookingRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, domainErrors.ErrBookingNotFound
	}
	if b.Kind != kind || !b.EmailMatches(email) {
		return nil, domainErrors.ErrBookingNotFound
	}
	return &BookingStatusView{
		ReferenceNumber: b.ReferenceNumber,
		Kind:            b.Kind,
		Status:          b.Status,
		PaymentStatus:   b.PaymentStatus,
		AmountCents:     b.AmountCents,
		Currency:        b.Currency,
		ScheduledAt:     b.ScheduledAt,
		CreatedAt:       b.CreatedAt,
		PaidAt:          b.PaidAt,
	}, nil
}

// GetBooking retrieves the full booking for staff use.
func (s *BookingService) GetBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return s.bookingRepo.GetByID(ctx, id)
}

// ListBookings lists bookings with filters for the staff dashboard.
func (s *BookingService) ListBookings(ctx context.Context, filter booking.ListFilter) ([]*booking.Booking, error) {
	return s.bookingRepo.List(ctx, filter)
}

// AssignStaff assigns a staff member and activates the booking. Assignment
// promotes an unpaid booking into its active state: starting work before
// payment clears is a deliberate staff decision, not a gate violation.
func (s *BookingService) AssignStaff(ctx context.Context, id uuid.UUID, staffID string) (*booking.Booking, error) {
	var b *booking.Booking
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		b, err = s.bookingRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := b.Activate(staffID); err != nil {
			return err
		}
		return s.bookingRepo.Update(txCtx, b)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateStatus moves a booking through its lifecycle. Transitions into
// working states fail with ErrPaymentNotConfirmed while payment is pending.
func (s *BookingService) UpdateStatus(ctx context.Context, id uuid.UUID, next booking.Status, notes string) (*booking.Booking, error) {
	var b *booking.Booking
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		b, err = s.bookingRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := b.TransitionTo(next); err != nil {
			return err
		}
		if notes != "" {
			b.Notes = notes
		}
		return s.bookingRepo.Update(txCtx, b)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ScheduleConsultation books a consultation slot. Scheduling is payment
// gated: an unpaid consultation cannot receive a slot.
func (s *BookingService) ScheduleConsultation(ctx context.Context, id uuid.UUID, at time.Time) (*booking.Booking, error) {
	var b *booking.Booking
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		b, err = s.bookingRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := b.Schedule(at); err != nil {
			return err
		}
		return s.bookingRepo.Update(txCtx, b)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}
