package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/lexserve/bookings/internal/domain/booking"
	"github.com/lexserve/bookings/internal/domain/errors"
)

// Offering is a purchasable catalog item: a legal-service registration
// package or a consultation slot type. Its fee is the source of truth for
// checkout amounts.
type Offering struct {
	ID        uuid.UUID
	Kind      booking.Kind
	Name      string
	FeeCents  int64
	Currency  string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOffering creates an active offering.
func NewOffering(kind booking.Kind, name string, feeCents int64, currency string) (*Offering, error) {
	if !booking.ValidKind(kind) {
		return nil, errors.ErrInvalidBookingKind
	}
	if name == "" {
		return nil, errors.NewValidationError("name", "cannot be empty")
	}
	if feeCents <= 0 {
		return nil, errors.NewValidationError("fee", "must be greater than 0")
	}
	if len(currency) != 3 {
		return nil, errors.NewValidationError("currency", "must be a 3-letter ISO code")
	}
	now := time.Now()
	return &Offering{
		ID:        uuid.New(),
		Kind:      kind,
		Name:      name,
		FeeCents:  feeCents,
		Currency:  currency,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
