package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/lexserve/bookings/internal/domain/booking"
)

// Repository defines the interface for offering persistence
type Repository interface {
	// Create creates a new offering
	Create(ctx context.Context, o *Offering) error

	// GetByID retrieves an offering by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Offering, error)

	// ListActive lists active offerings, optionally filtered by kind
	ListActive(ctx context.Context, kind *booking.Kind) ([]*Offering, error)

	// Update updates an existing offering
	Update(ctx context.Context, o *Offering) error
}
