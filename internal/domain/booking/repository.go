package booking

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for booking persistence
type Repository interface {
	// Create creates a new booking
	Create(ctx context.Context, b *Booking) error

	// GetByID retrieves a booking by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// GetByReference retrieves a booking by its reference number
	GetByReference(ctx context.Context, reference string) (*Booking, error)

	// Update updates an existing booking
	Update(ctx context.Context, b *Booking) error

	// NextSequence returns the next reference sequence for a kind and year
	NextSequence(ctx context.Context, kind Kind, year int) (int64, error)

	// List lists bookings with filters
	List(ctx context.Context, filter ListFilter) ([]*Booking, error)
}

// ListFilter defines filters for listing bookings
type ListFilter struct {
	Kind          *Kind
	Status        *Status
	PaymentStatus *PaymentStatus
	StaffID       *string
	Limit         int
	Offset        int
	SortBy        string
	SortOrder     string
}
