package booking_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lexserve/bookings/internal/domain/booking"
	"github.com/lexserve/bookings/internal/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPendingBooking(t *testing.T, kind booking.Kind) *booking.Booking {
	t.Helper()
	ref := booking.FormatReference(kind, 2026, 1)
	b, err := booking.New(kind, ref, uuid.New(), "Ayesha Khan", "ayesha@example.com", "+92-300-1234567", 5000000, "PKR")
	require.NoError(t, err)
	return b
}

func TestNew_Valid(t *testing.T) {
	b := newPendingBooking(t, booking.KindRegistration)
	assert.Equal(t, booking.PaymentPending, b.PaymentStatus)
	assert.Equal(t, booking.StatusPendingPayment, b.Status)
	assert.Equal(t, "REG-2026-0001", b.ReferenceNumber)
	assert.Equal(t, int64(5000000), b.AmountCents)
	assert.Nil(t, b.TrackerToken)
	assert.Nil(t, b.AssignedStaffID)
}

func TestNew_InvalidKind(t *testing.T) {
	_, err := booking.New("walk_in", "X-2026-0001", uuid.New(), "A", "a@x.com", "", 100, "PKR")
	assert.ErrorIs(t, err, errors.ErrInvalidBookingKind)
}

func TestNew_MissingFields(t *testing.T) {
	_, err := booking.New(booking.KindConsultation, "", uuid.New(), "A", "a@x.com", "", 100, "PKR")
	assert.Error(t, err)

	_, err = booking.New(booking.KindConsultation, "CON-2026-0001", uuid.New(), "", "a@x.com", "", 100, "PKR")
	assert.Error(t, err)

	_, err = booking.New(booking.KindConsultation, "CON-2026-0001", uuid.New(), "A", "", "", 100, "PKR")
	assert.Error(t, err)

	_, err = booking.New(booking.KindConsultation, "CON-2026-0001", uuid.New(), "A", "a@x.com", "", 0, "PKR")
	assert.Error(t, err)

	_, err = booking.New(booking.KindConsultation, "CON-2026-0001", uuid.New(), "A", "a@x.com", "", 100, "PK")
	assert.Error(t, err)
}

func TestFormatReference(t *testing.T) {
	assert.Equal(t, "REG-2026-0001", booking.FormatReference(booking.KindRegistration, 2026, 1))
	assert.Equal(t, "CON-2026-0042", booking.FormatReference(booking.KindConsultation, 2026, 42))
	assert.Equal(t, "REG-2027-1234", booking.FormatReference(booking.KindRegistration, 2027, 1234))
}

// --- Payment status monotonicity ---

func TestMarkPaid_SetsConfirmedStatus(t *testing.T) {
	b := newPendingBooking(t, booking.KindRegistration)
	b.MarkPaid()
	assert.Equal(t, booking.PaymentPaid, b.PaymentStatus)
	assert.Equal(t, booking.StatusPaymentConfirmed, b.Status)
	require.NotNil(t, b.PaidAt)
}

func TestMarkPaid_Idempotent(t *testing.T) {
	b := newPendingBooking(t, booking.KindRegistration)
	b.MarkPaid()
	firstPaidAt := *b.PaidAt
	b.MarkPaid()
	assert.Equal(t, booking.PaymentPaid, b.PaymentStatus)
	assert.Equal(t, firstPaidAt, *b.PaidAt)
}

func TestMarkPaymentFailed_NeverRegressesPaid(t *testing.T) {
	b := newPendingBooking(t, booking.KindConsultation)
	b.MarkPaid()
	b.MarkPaymentFailed()
	assert.Equal(t, booking.PaymentPaid, b.PaymentStatus)
}

func TestMarkPaymentFailed_SessionOnly(t *testing.T) {
	b := newPendingBooking(t, booking.KindConsultation)
	b.MarkPaymentFailed()
	assert.Equal(t, booking.PaymentFailed, b.PaymentStatus)

	// A later session can still settle the booking.
	b.MarkPaid()
	assert.Equal(t, booking.PaymentPaid, b.PaymentStatus)
}

func TestMarkPaid_KeepsActiveStatus(t *testing.T) {
	b := newPendingBooking(t, booking.KindRegistration)
	require.NoError(t, b.Activate("staff-1"))
	b.MarkPaid()
	assert.Equal(t, booking.StatusInProgress, b.Status)
}

// --- Transition table and payment gate ---

func TestTransitionTo_PaymentGate(t *testing.T) {
	b := newPendingBooking(t, booking.KindRegistration)
	err := b.TransitionTo(booking.StatusInProgress)
	assert.ErrorIs(t, err, errors.ErrPaymentNotConfirmed)
	assert.Equal(t, booking.StatusPendingPayment, b.Status)
}

func TestTransitionTo_AfterPayment(t *testing.T) {
	b := newPendingBooking(t, booking.KindRegistration)
	b.MarkPaid()
	require.NoError(t, b.TransitionTo(booking.StatusInProgress))
	require.NoError(t, b.TransitionTo(booking.StatusCompleted))
	assert.True(t, b.IsTerminal())
}

func TestTransitionTo_CancelAllowedUnpaid(t *testing.T) {
	b := newPendingBooking(t, booking.KindConsultation)
	require.NoError(t, b.TransitionTo(booking.StatusCancelled))
	assert.True(t, b.IsTerminal())
}

func TestTransitionTo_InvalidForKind(t *testing.T) {
	b := newPendingBooking(t, booking.KindRegistration)
	b.MarkPaid()
	err := b.TransitionTo(booking.StatusBooked)
	assert.ErrorIs(t, err, errors.ErrInvalidStateTransition)
}

func TestTransitionTo_TerminalIsTerminal(t *testing.T) {
	b := newPendingBooking(t, booking.KindRegistration)
	require.NoError(t, b.TransitionTo(booking.StatusCancelled))
	err := b.TransitionTo(booking.StatusPaymentConfirmed)
	assert.ErrorIs(t, err, errors.ErrInvalidStateTransition)
}

// --- Assignment activation override ---

func TestActivate_PromotesUnpaidBooking(t *testing.T) {
	b := newPendingBooking(t, booking.KindRegistration)
	require.NoError(t, b.Activate("staff-7"))
	assert.Equal(t, booking.StatusInProgress, b.Status)
	assert.Equal(t, booking.PaymentPending, b.PaymentStatus)
	require.NotNil(t, b.AssignedStaffID)
	assert.Equal(t, "staff-7", *b.AssignedStaffID)
}

func TestActivate_ConsultationGoesToBooked(t *testing.T) {
	b := newPendingBooking(t, booking.KindConsultation)
	b.MarkPaid()
	require.NoError(t, b.Activate("staff-2"))
	assert.Equal(t, booking.StatusBooked, b.Status)
}

func TestActivate_ReassignKeepsStatus(t *testing.T) {
	b := newPendingBooking(t, booking.KindRegistration)
	require.NoError(t, b.Activate("staff-1"))
	require.NoError(t, b.Activate("staff-2"))
	assert.Equal(t, booking.StatusInProgress, b.Status)
	assert.Equal(t, "staff-2", *b.AssignedStaffID)
}

func TestActivate_EmptyStaff(t *testing.T) {
	b := newPendingBooking(t, booking.KindRegistration)
	assert.Error(t, b.Activate(""))
}

// --- Scheduling ---

func TestSchedule_RequiresPayment(t *testing.T) {
	b := newPendingBooking(t, booking.KindConsultation)
	err := b.Schedule(time.Now().Add(48 * time.Hour))
	assert.ErrorIs(t, err, errors.ErrPaymentNotConfirmed)
	assert.Nil(t, b.ScheduledAt)
}

func TestSchedule_AfterPayment(t *testing.T) {
	b := newPendingBooking(t, booking.KindConsultation)
	b.MarkPaid()
	slot := time.Now().Add(48 * time.Hour)
	require.NoError(t, b.Schedule(slot))
	assert.Equal(t, booking.StatusBooked, b.Status)
	require.NotNil(t, b.ScheduledAt)
	assert.Equal(t, slot, *b.ScheduledAt)
}

func TestSchedule_RegistrationNotSchedulable(t *testing.T) {
	b := newPendingBooking(t, booking.KindRegistration)
	b.MarkPaid()
	assert.Error(t, b.Schedule(time.Now()))
}

func TestEmailMatches(t *testing.T) {
	b := newPendingBooking(t, booking.KindRegistration)
	assert.True(t, b.EmailMatches("AYESHA@example.com"))
	assert.True(t, b.EmailMatches("  ayesha@example.com "))
	assert.False(t, b.EmailMatches("other@example.com"))
}
