package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lexserve/bookings/internal/domain/errors"
)

// Kind distinguishes the two paid-service flows.
type Kind string

const (
	KindRegistration Kind = "registration"
	KindConsultation Kind = "consultation"
)

// ValidKind reports whether k is a known booking kind.
func ValidKind(k Kind) bool {
	return k == KindRegistration || k == KindConsultation
}

// PaymentStatus tracks the settlement state of the booking's payment.
// It is monotonic: once Paid it never regresses. Failed marks the most
// recent session only and the booking may still be paid later.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Status is the booking lifecycle state.
type Status string

const (
	StatusPendingPayment   Status = "pending_payment"
	StatusPaymentConfirmed Status = "payment_confirmed"
	StatusInProgress       Status = "in_progress" // registration only
	StatusBooked           Status = "booked"      // consultation only
	StatusCompleted        Status = "completed"
	StatusCancelled        Status = "cancelled"
	StatusNoShow           Status = "no_show" // consultation only
)

// RegistrationDetails is the typed intake payload for service registrations.
type RegistrationDetails struct {
	BusinessName string
	BusinessType string
	TaxNumber    string
	Notes        string
}

// ConsultationDetails is the typed intake payload for consultation requests.
type ConsultationDetails struct {
	Topic       string
	Mode        string // video, phone, in_person
	Description string
}

// Booking represents a paid-service request tracked through payment and activation.
type Booking struct {
	ID              uuid.UUID
	Kind            Kind
	ReferenceNumber string
	OfferingID      uuid.UUID

	ClientName  string
	ClientEmail string
	ClientPhone string

	// Exactly one of these is set, matching Kind.
	Registration *RegistrationDetails
	Consultation *ConsultationDetails

	PaymentStatus PaymentStatus
	Status        Status

	// AmountCents is the fee snapshot taken from the offering at creation time.
	// Checkout amounts always come from here, never from the client.
	AmountCents int64
	Currency    string

	// TrackerToken identifies the most recently created checkout session.
	// It is a weak reference to gateway-owned state, not an ownership relation.
	TrackerToken *string

	AssignedStaffID *string
	ScheduledAt     *time.Time
	Notes           string

	CreatedAt time.Time
	UpdatedAt time.Time
	PaidAt    *time.Time
}

// New creates a pending booking with the fee snapshot taken from the offering.
func New(kind Kind, reference string, offeringID uuid.UUID, clientName, clientEmail, clientPhone string, amountCents int64, currency string) (*Booking, error) {
	if !ValidKind(kind) {
		return nil, errors.ErrInvalidBookingKind
	}
	if reference == "" {
		return nil, errors.NewValidationError("reference_number", "cannot be empty")
	}
	if clientName == "" {
		return nil, errors.NewValidationError("client_name", "cannot be empty")
	}
	if clientEmail == "" {
		return nil, errors.NewValidationError("client_email", "cannot be empty")
	}
	if amountCents <= 0 {
		return nil, errors.NewValidationError("amount", "must be greater than 0")
	}
	if len(currency) != 3 {
		return nil, errors.NewValidationError("currency", "must be a 3-letter ISO code")
	}

	now := time.Now()
	return &Booking{
		ID:              uuid.New(),
		Kind:            kind,
		ReferenceNumber: reference,
		OfferingID:      offeringID,
		ClientName:      clientName,
		ClientEmail:     clientEmail,
		ClientPhone:     clientPhone,
		PaymentStatus:   PaymentPending,
		Status:          StatusPendingPayment,
		AmountCents:     amountCents,
		Currency:        currency,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// transitions maps allowed booking status transitions per kind.
var transitions = map[Kind]map[Status][]Status{
	KindRegistration: {
		StatusPendingPayment:   {StatusPaymentConfirmed, StatusInProgress, StatusCancelled},
		StatusPaymentConfirmed: {StatusInProgress, StatusCancelled},
		StatusInProgress:       {StatusCompleted, StatusCancelled},
		StatusCompleted:        {},
		StatusCancelled:        {},
	},
	KindConsultation: {
		StatusPendingPayment:   {StatusPaymentConfirmed, StatusBooked, StatusCancelled},
		StatusPaymentConfirmed: {StatusBooked, StatusCancelled},
		StatusBooked:           {StatusCompleted, StatusNoShow, StatusCancelled},
		StatusCompleted:        {},
		StatusCancelled:        {},
		StatusNoShow:           {},
	},
}

// advancing statuses require a settled payment before entry.
var advancing = map[Status]bool{
	StatusInProgress: true,
	StatusBooked:     true,
	StatusCompleted:  true,
}

// ActiveStatus returns the post-activation working state for the booking kind.
func (b *Booking) ActiveStatus() Status {
	if b.Kind == KindConsultation {
		return StatusBooked
	}
	return StatusInProgress
}

// AwaitingActivation reports whether the booking has not yet entered its
// active working state.
func (b *Booking) AwaitingActivation() bool {
	return b.Status == StatusPendingPayment || b.Status == StatusPaymentConfirmed
}

// CanTransitionTo checks the transition table for the booking's kind.
func (b *Booking) CanTransitionTo(next Status) bool {
	allowed, ok := transitions[b.Kind][b.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == next {
			return true
		}
	}
	return false
}

// TransitionTo moves the booking to the next status, enforcing both the
// per-kind transition table and the payment gate: statuses past
// pending_payment require a settled payment. Assignment bypasses the gate
// via Activate, which is the one sanctioned exception.
func (b *Booking) TransitionTo(next Status) error {
	if !b.CanTransitionTo(next) {
		return errors.NewDomainError(
			"invalid_transition",
			"cannot transition from "+string(b.Status)+" to "+string(next),
			errors.ErrInvalidStateTransition,
		)
	}
	if advancing[next] && b.PaymentStatus != PaymentPaid {
		return errors.NewDomainError(
			"payment_required",
			"cannot advance to "+string(next)+" before payment is confirmed",
			errors.ErrPaymentNotConfirmed,
		)
	}
	b.Status = next
	b.UpdatedAt = time.Now()
	return nil
}

// Activate assigns staff and promotes the booking to its active state even
// when payment is still pending. Assignment implies activation: staff may
// deliberately start work before payment clears, so this path skips the
// payment gate that TransitionTo enforces.
func (b *Booking) Activate(staffID string) error {
	if staffID == "" {
		return errors.NewValidationError("staff_id", "cannot be empty")
	}
	b.AssignedStaffID = &staffID
	if b.AwaitingActivation() {
		if !b.CanTransitionTo(b.ActiveStatus()) {
			return errors.NewDomainError(
				"invalid_transition",
				"cannot activate from "+string(b.Status),
				errors.ErrInvalidStateTransition,
			)
		}
		b.Status = b.ActiveStatus()
	}
	b.UpdatedAt = time.Now()
	return nil
}

// SetTracker records the checkout session tracker for the most recent
// initiation attempt.
func (b *Booking) SetTracker(tracker string) {
	b.TrackerToken = &tracker
	b.UpdatedAt = time.Now()
}

// MarkPaid settles the payment. Idempotent: marking an already-paid booking
// is a no-op. The booking status moves to payment_confirmed unless staff
// assignment already activated it.
func (b *Booking) MarkPaid() {
	if b.PaymentStatus == PaymentPaid {
		return
	}
	now := time.Now()
	b.PaymentStatus = PaymentPaid
	b.PaidAt = &now
	if b.Status == StatusPendingPayment {
		b.Status = StatusPaymentConfirmed
	}
	b.UpdatedAt = now
}

// MarkPaymentFailed records a failed session. It never regresses a settled
// payment: failed is terminal for the session, not the booking.
func (b *Booking) MarkPaymentFailed() {
	if b.PaymentStatus == PaymentPaid {
		return
	}
	b.PaymentStatus = PaymentFailed
	b.UpdatedAt = time.Now()
}

// Schedule stores the consultation slot and moves the booking to booked.
// Requires a settled payment; scheduling is the payment-gated step for
// consultations.
func (b *Booking) Schedule(at time.Time) error {
	if b.Kind != KindConsultation {
		return errors.NewDomainError("not_schedulable", "only consultations can be scheduled", errors.ErrInvalidStateTransition)
	}
	if b.PaymentStatus != PaymentPaid {
		return errors.ErrPaymentNotConfirmed
	}
	if b.Status != StatusBooked {
		if err := b.TransitionTo(StatusBooked); err != nil {
			return err
		}
	}
	b.ScheduledAt = &at
	b.UpdatedAt = time.Now()
	return nil
}

// EmailMatches compares a contact email case-insensitively. Guest status
// reads require an exact match of both reference and email.
func (b *Booking) EmailMatches(email string) bool {
	return strings.EqualFold(strings.TrimSpace(b.ClientEmail), strings.TrimSpace(email))
}

// IsTerminal reports whether the booking reached a terminal status.
func (b *Booking) IsTerminal() bool {
	return b.Status == StatusCompleted || b.Status == StatusCancelled || b.Status == StatusNoShow
}
