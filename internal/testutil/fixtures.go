package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lexserve/bookings/internal/domain/booking"
	"github.com/lexserve/bookings/internal/domain/catalog"
)

var fixtureSeq int64

func NewTestOffering(kind booking.Kind, feeCents int64) *catalog.Offering {
	now := time.Now()
	return &catalog.Offering{
		ID:        uuid.New(),
		Kind:      kind,
		Name:      fmt.Sprintf("test %s offering", kind),
		FeeCents:  feeCents,
		Currency:  "PKR",
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func NewTestBooking(kind booking.Kind, offeringID uuid.UUID, amountCents int64) *booking.Booking {
	fixtureSeq++
	now := time.Now()
	b := &booking.Booking{
		ID:              uuid.New(),
		Kind:            kind,
		ReferenceNumber: booking.FormatReference(kind, now.Year(), fixtureSeq),
		OfferingID:      offeringID,
		ClientName:      "Ayesha Khan",
		ClientEmail:     "ayesha@example.com",
		ClientPhone:     "+92-300-1234567",
		PaymentStatus:   booking.PaymentPending,
		Status:          booking.StatusPendingPayment,
		AmountCents:     amountCents,
		Currency:        "PKR",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	switch kind {
	case booking.KindRegistration:
		b.Registration = &booking.RegistrationDetails{
			BusinessName: "Khan Trading Co",
			BusinessType: "sole_proprietor",
		}
	case booking.KindConsultation:
		b.Consultation = &booking.ConsultationDetails{
			Topic: "contract review",
			Mode:  "video",
		}
	}
	return b
}

func NewPaidBooking(kind booking.Kind, offeringID uuid.UUID, amountCents int64) *booking.Booking {
	b := NewTestBooking(kind, offeringID, amountCents)
	b.MarkPaid()
	return b
}

func StringPtr(s string) *string {
	return &s
}
