package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lexserve/bookings/internal/domain/booking"
	domainErrors "github.com/lexserve/bookings/internal/domain/errors"
)

// allowedSortColumns is a whitelist of columns valid for ORDER BY.
var allowedSortColumns = map[string]string{
	"created_at":   "created_at",
	"updated_at":   "updated_at",
	"status":       "status",
	"scheduled_at": "scheduled_at",
	"amount":       "amount",
}

// BookingRepository implements booking.Repository using PostgreSQL.
type BookingRepository struct {
	pool *pgxpool.Pool
}

// NewBookingRepository creates a new BookingRepository.
func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const bookingColumns = `id, kind, reference_number, offering_id,
	        client_name, client_email, client_phone, details,
	        payment_status, status, amount, currency, tracker_token,
	        assigned_staff_id, scheduled_at, notes, created_at, updated_at, paid_at`

func marshalDetails(b *booking.Booking) ([]byte, error) {
	switch b.Kind {
	case booking.KindRegistration:
		return json.Marshal(b.Registration)
	case booking.KindConsultation:
		return json.Marshal(b.Consultation)
	}
	return nil, domainErrors.ErrInvalidBookingKind
}

// Create inserts a new booking.
func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	details, err := marshalDetails(b)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	amountStr := centsToNumericString(b.AmountCents)

	_, err = r.db(ctx).Exec(ctx,
		`INSERT INTO bookings
		 (id, kind, reference_number, offering_id,
		  client_name, client_email, client_phone, details,
		  payment_status, status, amount, currency, tracker_token,
		  assigned_staff_id, scheduled_at, notes, created_at, updated_at, paid_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		b.ID, string(b.Kind), b.ReferenceNumber, b.OfferingID,
		b.ClientName, b.ClientEmail, b.ClientPhone, details,
		string(b.PaymentStatus), string(b.Status), amountStr, b.Currency, b.TrackerToken,
		b.AssignedStaffID, b.ScheduledAt, b.Notes, b.CreatedAt, b.UpdatedAt, b.PaidAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domainErrors.ErrDuplicateReference
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking by its ID.
func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return r.scanBooking(r.db(ctx).QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
}

// GetByReference retrieves a booking by its reference number.
func (r *BookingRepository) GetByReference(ctx context.Context, reference string) (*booking.Booking, error) {
	return r.scanBooking(r.db(ctx).QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE reference_number = $1`, reference))
}

// Update updates an existing booking.
func (r *BookingRepository) Update(ctx context.Context, b *booking.Booking) error {
	details, err := marshalDetails(b)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE bookings SET
		  payment_status=$1, status=$2, details=$3, tracker_token=$4,
		  assigned_staff_id=$5, scheduled_at=$6, notes=$7, updated_at=$8, paid_at=$9
		 WHERE id=$10`,
		string(b.PaymentStatus), string(b.Status), details, b.TrackerToken,
		b.AssignedStaffID, b.ScheduledAt, b.Notes, b.UpdatedAt, b.PaidAt, b.ID,
	)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrBookingNotFound
	}
	return nil
}

// NextSequence atomically allocates the next reference sequence for a kind
// and year. Runs inside the caller's transaction, so an aborted booking
// creation leaves a gap rather than a duplicate.
func (r *BookingRepository) NextSequence(ctx context.Context, kind booking.Kind, year int) (int64, error) {
	var seq int64
	err := r.db(ctx).QueryRow(ctx,
		`INSERT INTO booking_sequences (kind, year, last_value)
		 VALUES ($1, $2, 1)
		 ON CONFLICT (kind, year)
		 DO UPDATE SET last_value = booking_sequences.last_value + 1
		 RETURNING last_value`,
		string(kind), year,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next booking sequence: %w", err)
	}
	return seq, nil
}

// List lists bookings with optional filters.
func (r *BookingRepository) List(ctx context.Context, f booking.ListFilter) ([]*booking.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`
	args := []any{}
	argIdx := 1

	if f.Kind != nil {
		query += fmt.Sprintf(" AND kind = $%d", argIdx)
		args = append(args, string(*f.Kind))
		argIdx++
	}
	if f.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, string(*f.Status))
		argIdx++
	}
	if f.PaymentStatus != nil {
		query += fmt.Sprintf(" AND payment_status = $%d", argIdx)
		args = append(args, string(*f.PaymentStatus))
		argIdx++
	}
	if f.StaffID != nil {
		query += fmt.Sprintf(" AND assigned_staff_id = $%d", argIdx)
		args = append(args, *f.StaffID)
		argIdx++
	}

	// Strict whitelist for sort column
	sortBy := "created_at"
	if col, ok := allowedSortColumns[f.SortBy]; ok {
		sortBy = col
	}
	sortOrder := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		sortOrder = "ASC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, sortOrder)

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*booking.Booking
	for rows.Next() {
		b, err := r.scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *BookingRepository) scanBooking(row scanner) (*booking.Booking, error) {
	b := &booking.Booking{}
	var kind, paymentStatus, status, amountStr string
	var details []byte

	err := row.Scan(
		&b.ID, &kind, &b.ReferenceNumber, &b.OfferingID,
		&b.ClientName, &b.ClientEmail, &b.ClientPhone, &details,
		&paymentStatus, &status, &amountStr, &b.Currency, &b.TrackerToken,
		&b.AssignedStaffID, &b.ScheduledAt, &b.Notes, &b.CreatedAt, &b.UpdatedAt, &b.PaidAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrBookingNotFound
		}
		return nil, fmt.Errorf("scan booking: %w", err)
	}

	b.Kind = booking.Kind(kind)
	b.PaymentStatus = booking.PaymentStatus(paymentStatus)
	b.Status = booking.Status(status)

	b.AmountCents, err = numericStringToCents(amountStr)
	if err != nil {
		return nil, fmt.Errorf("parse booking amount: %w", err)
	}

	if len(details) > 0 {
		switch b.Kind {
		case booking.KindRegistration:
			b.Registration = &booking.RegistrationDetails{}
			err = json.Unmarshal(details, b.Registration)
		case booking.KindConsultation:
			b.Consultation = &booking.ConsultationDetails{}
			err = json.Unmarshal(details, b.Consultation)
		}
		if err != nil {
			return nil, fmt.Errorf("unmarshal booking details: %w", err)
		}
	}

	return b, nil
}
