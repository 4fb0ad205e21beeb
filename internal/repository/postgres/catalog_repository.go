package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lexserve/bookings/internal/domain/booking"
	"github.com/lexserve/bookings/internal/domain/catalog"
	domainErrors "github.com/lexserve/bookings/internal/domain/errors"
)

// CatalogRepository implements catalog.Repository using PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (r *CatalogRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// Create inserts a new offering.
func (r *CatalogRepository) Create(ctx context.Context, o *catalog.Offering) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO offerings (id, kind, name, fee, currency, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, string(o.Kind), o.Name, centsToNumericString(o.FeeCents), o.Currency, o.Active, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert offering: %w", err)
	}
	return nil
}

// GetByID retrieves an offering by its ID.
func (r *CatalogRepository) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Offering, error) {
	return r.scanOffering(r.db(ctx).QueryRow(ctx,
		`SELECT id, kind, name, fee, currency, active, created_at, updated_at
		 FROM offerings WHERE id = $1`, id))
}

// ListActive lists active offerings, optionally filtered by kind.
func (r *CatalogRepository) ListActive(ctx context.Context, kind *booking.Kind) ([]*catalog.Offering, error) {
	query := `SELECT id, kind, name, fee, currency, active, created_at, updated_at
		 FROM offerings WHERE active = TRUE`
	args := []any{}
	if kind != nil {
		query += " AND kind = $1"
		args = append(args, string(*kind))
	}
	query += " ORDER BY name ASC"

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list offerings: %w", err)
	}
	defer rows.Close()

	var offerings []*catalog.Offering
	for rows.Next() {
		o, err := r.scanOffering(rows)
		if err != nil {
			return nil, err
		}
		offerings = append(offerings, o)
	}
	return offerings, rows.Err()
}

// Update updates an existing offering.
func (r *CatalogRepository) Update(ctx context.Context, o *catalog.Offering) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE offerings SET name=$1, fee=$2, currency=$3, active=$4, updated_at=$5 WHERE id=$6`,
		o.Name, centsToNumericString(o.FeeCents), o.Currency, o.Active, o.UpdatedAt, o.ID,
	)
	if err != nil {
		return fmt.Errorf("update offering: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrOfferingNotFound
	}
	return nil
}

func (r *CatalogRepository) scanOffering(row scanner) (*catalog.Offering, error) {
	o := &catalog.Offering{}
	var kind, feeStr string

	err := row.Scan(&o.ID, &kind, &o.Name, &feeStr, &o.Currency, &o.Active, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrOfferingNotFound
		}
		return nil, fmt.Errorf("scan offering: %w", err)
	}

	o.Kind = booking.Kind(kind)
	o.FeeCents, err = numericStringToCents(feeStr)
	if err != nil {
		return nil, fmt.Errorf("parse offering fee: %w", err)
	}
	return o, nil
}
