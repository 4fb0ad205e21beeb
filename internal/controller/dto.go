package controller

import (
	"math"
	"time"

	"github.com/lexserve/bookings/internal/domain/booking"
	"github.com/lexserve/bookings/internal/domain/catalog"
	"github.com/lexserve/bookings/internal/service"
)

// --- Request DTOs ---
// These DTOs handle HTTP/JSON concerns (float64 rupee amounts, string IDs,
// validation tags). Controllers convert these to service layer DTOs before
// calling business logic.

// RegistrationDetailsRequest is the intake payload for registration bookings.
type RegistrationDetailsRequest struct {
	BusinessName string `json:"business_name" validate:"required"`
	BusinessType string `json:"business_type,omitempty"`
	TaxNumber    string `json:"tax_number,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// ConsultationDetailsRequest is the intake payload for consultation bookings.
type ConsultationDetailsRequest struct {
	Topic       string `json:"topic" validate:"required"`
	Mode        string `json:"mode" validate:"required,oneof=video phone in_person"`
	Description string `json:"description,omitempty"`
}

// CreateBookingRequest holds the guest intake form. The booking kind comes
// from the URL, so exactly one of the detail blocks must be present.
type CreateBookingRequest struct {
	OfferingID   string                      `json:"offering_id" validate:"required,uuid"`
	ClientName   string                      `json:"client_name" validate:"required,max=200"`
	ClientEmail  string                      `json:"client_email" validate:"required,email"`
	ClientPhone  string                      `json:"client_phone,omitempty" validate:"omitempty,max=32"`
	Notes        string                      `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Registration *RegistrationDetailsRequest `json:"registration,omitempty"`
	Consultation *ConsultationDetailsRequest `json:"consultation,omitempty"`
}

// InitiatePaymentRequest optionally overrides the configured redirect URLs.
type InitiatePaymentRequest struct {
	ReturnURL string `json:"return_url,omitempty" validate:"omitempty,url"`
	CancelURL string `json:"cancel_url,omitempty" validate:"omitempty,url"`
}

// ConfirmPaymentRequest carries the tracker the client returned from checkout.
type ConfirmPaymentRequest struct {
	TrackerToken string `json:"tracker_token" validate:"required"`
}

// AssignStaffRequest assigns a staff member to a booking. An empty staff_id
// assigns the authenticated caller.
type AssignStaffRequest struct {
	StaffID string `json:"staff_id,omitempty"`
}

// UpdateStatusRequest moves a booking through its lifecycle.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=payment_confirmed in_progress booked completed cancelled no_show"`
	Notes  string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// ScheduleRequest books a consultation slot.
type ScheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
}

// CreateOfferingRequest adds a purchasable offering to the catalog.
type CreateOfferingRequest struct {
	Kind     string  `json:"kind" validate:"required,oneof=registration consultation"`
	Name     string  `json:"name" validate:"required,max=200"`
	Fee      float64 `json:"fee" validate:"required,gt=0"`
	Currency string  `json:"currency" validate:"required,len=3"`
}

// --- Response DTOs ---

// BookingResponse is the staff-facing view of a booking.
type BookingResponse struct {
	ID              string     `json:"id"`
	Kind            string     `json:"kind"`
	ReferenceNumber string     `json:"reference_number"`
	OfferingID      string     `json:"offering_id"`
	ClientName      string     `json:"client_name"`
	ClientEmail     string     `json:"client_email"`
	ClientPhone     string     `json:"client_phone,omitempty"`
	Status          string     `json:"status"`
	PaymentStatus   string     `json:"payment_status"`
	Amount          float64    `json:"amount"`
	Currency        string     `json:"currency"`
	AssignedStaffID *string    `json:"assigned_staff_id,omitempty"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`

	Registration *RegistrationDetailsRequest `json:"registration,omitempty"`
	Consultation *ConsultationDetailsRequest `json:"consultation,omitempty"`
}

// BookingCreatedResponse is returned to a guest after intake. It exposes the
// reference number and fee without any staff-side fields.
type BookingCreatedResponse struct {
	ID              string    `json:"id"`
	Kind            string    `json:"kind"`
	ReferenceNumber string    `json:"reference_number"`
	Status          string    `json:"status"`
	PaymentStatus   string    `json:"payment_status"`
	Amount          float64   `json:"amount"`
	Currency        string    `json:"currency"`
	CreatedAt       time.Time `json:"created_at"`
}

// BookingStatusResponse is the guest status projection.
type BookingStatusResponse struct {
	ReferenceNumber string     `json:"reference_number"`
	Kind            string     `json:"kind"`
	Status          string     `json:"status"`
	PaymentStatus   string     `json:"payment_status"`
	Amount          float64    `json:"amount"`
	Currency        string     `json:"currency"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
}

// CheckoutResponse is the hosted checkout handle.
type CheckoutResponse struct {
	CheckoutURL  string  `json:"checkout_url"`
	TrackerToken string  `json:"tracker_token"`
	Environment  string  `json:"environment"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
}

// OfferingResponse represents a catalog offering.
type OfferingResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Name      string    `json:"name"`
	Fee       float64   `json:"fee"`
	Currency  string    `json:"currency"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// --- Conversion helpers ---

// FromBooking converts a domain booking to the staff API response.
func FromBooking(b *booking.Booking) *BookingResponse {
	resp := &BookingResponse{
		ID:              b.ID.String(),
		Kind:            string(b.Kind),
		ReferenceNumber: b.ReferenceNumber,
		OfferingID:      b.OfferingID.String(),
		ClientName:      b.ClientName,
		ClientEmail:     b.ClientEmail,
		ClientPhone:     b.ClientPhone,
		Status:          string(b.Status),
		PaymentStatus:   string(b.PaymentStatus),
		Amount:          centsToFloat(b.AmountCents),
		Currency:        b.Currency,
		AssignedStaffID: b.AssignedStaffID,
		ScheduledAt:     b.ScheduledAt,
		Notes:           b.Notes,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
		PaidAt:          b.PaidAt,
	}
	if b.Registration != nil {
		resp.Registration = &RegistrationDetailsRequest{
			BusinessName: b.Registration.BusinessName,
			BusinessType: b.Registration.BusinessType,
			TaxNumber:    b.Registration.TaxNumber,
			Notes:        b.Registration.Notes,
		}
	}
	if b.Consultation != nil {
		resp.Consultation = &ConsultationDetailsRequest{
			Topic:       b.Consultation.Topic,
			Mode:        b.Consultation.Mode,
			Description: b.Consultation.Description,
		}
	}
	return resp
}

// FromBookingCreated converts a new booking to the guest-facing creation response.
func FromBookingCreated(b *booking.Booking) *BookingCreatedResponse {
	return &BookingCreatedResponse{
		ID:              b.ID.String(),
		Kind:            string(b.Kind),
		ReferenceNumber: b.ReferenceNumber,
		Status:          string(b.Status),
		PaymentStatus:   string(b.PaymentStatus),
		Amount:          centsToFloat(b.AmountCents),
		Currency:        b.Currency,
		CreatedAt:       b.CreatedAt,
	}
}

// FromStatusView converts the guest status projection to the API response.
func FromStatusView(v *service.BookingStatusView) *BookingStatusResponse {
	return &BookingStatusResponse{
		ReferenceNumber: v.ReferenceNumber,
		Kind:            string(v.Kind),
		Status:          string(v.Status),
		PaymentStatus:   string(v.PaymentStatus),
		Amount:          centsToFloat(v.AmountCents),
		Currency:        v.Currency,
		ScheduledAt:     v.ScheduledAt,
		CreatedAt:       v.CreatedAt,
		PaidAt:          v.PaidAt,
	}
}

// FromOffering converts a catalog offering to the API response.
func FromOffering(o *catalog.Offering) *OfferingResponse {
	return &OfferingResponse{
		ID:        o.ID.String(),
		Kind:      string(o.Kind),
		Name:      o.Name,
		Fee:       centsToFloat(o.FeeCents),
		Currency:  o.Currency,
		Active:    o.Active,
		CreatedAt: o.CreatedAt,
	}
}

// floatToCents converts a rupee amount to paisa. Rounded, not truncated:
// 99.99 has no exact float64 representation.
func floatToCents(f float64) int64 {
	return int64(math.Round(f * 100))
}

// centsToFloat converts paisa to a rupee amount.
func centsToFloat(cents int64) float64 {
	return float64(cents) / 100.0
}
