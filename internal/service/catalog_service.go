package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/lexserve/bookings/internal/domain/booking"
	"github.com/lexserve/bookings/internal/domain/catalog"
)

// CatalogService manages the offering catalog.
type CatalogService struct {
	catalogRepo catalog.Repository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(catalogRepo catalog.Repository) *CatalogService {
	return &CatalogService{catalogRepo: catalogRepo}
}

// CreateOfferingRequest holds the input for creating an offering.
type CreateOfferingRequest struct {
	Kind     booking.Kind
	Name     string
	FeeCents int64
	Currency string
}

// CreateOffering adds an active offering to the catalog.
func (s *CatalogService) CreateOffering(ctx context.Context, req CreateOfferingRequest) (*catalog.Offering, error) {
	o, err := catalog.NewOffering(req.Kind, req.Name, req.FeeCents, req.Currency)
	if err != nil {
		return nil, err
	}
	if err := s.catalogRepo.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// GetOffering retrieves an offering by ID.
func (s *CatalogService) GetOffering(ctx context.Context, id uuid.UUID) (*catalog.Offering, error) {
	return s.catalogRepo.GetByID(ctx, id)
}

// ListActiveOfferings returns the purchasable catalog, optionally filtered
// by booking kind.
func (s *CatalogService) ListActiveOfferings(ctx context.Context, kind *booking.Kind) ([]*catalog.Offering, error) {
	return s.catalogRepo.ListActive(ctx, kind)
}

// DeactivateOffering retires an offering so new bookings cannot use it.
// Existing bookings keep their fee snapshot.
func (s *CatalogService) DeactivateOffering(ctx context.Context, id uuid.UUID) (*catalog.Offering, error) {
	o, err := s.catalogRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Active = false
	if err := s.catalogRepo.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}
