package controller

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lexserve/bookings/internal/domain/booking"
	domainErrors "github.com/lexserve/bookings/internal/domain/errors"
	"github.com/lexserve/bookings/internal/middleware"
	"github.com/lexserve/bookings/internal/service"
)

type BookingController struct {
	bookingService *service.BookingService
}

func NewBookingController(bookingService *service.BookingService) *BookingController {
	return &BookingController{bookingService: bookingService}
}

// kindFromURL resolves the {kind} route parameter. Unknown kinds read as
// not found so the URL space reveals nothing.
func kindFromURL(r *http.Request) (booking.Kind, error) {
	kind := booking.Kind(chi.URLParam(r, "kind"))
	if !booking.ValidKind(kind) {
		return "", domainErrors.ErrInvalidBookingKind
	}
	return kind, nil
}

func (h *BookingController) Create(w http.ResponseWriter, r *http.Request) {
	kind, err := kindFromURL(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req CreateBookingRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	offeringID, err := uuid.Parse(req.OfferingID)
	if err != nil {
		writeError(w, domainErrors.NewValidationError("offering_id", "must be a valid UUID"))
		return
	}

	svcReq := service.CreateBookingRequest{
		Kind:        kind,
		OfferingID:  offeringID,
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		ClientPhone: req.ClientPhone,
		Notes:       req.Notes,
	}
	if req.Registration != nil {
		if err := validate.Struct(req.Registration); err != nil {
			writeError(w, domainErrors.NewValidationError("registration", "business_name is required"))
			return
		}
		svcReq.Registration = &booking.RegistrationDetails{
			BusinessName: req.Registration.BusinessName,
			BusinessType: req.Registration.BusinessType,
			TaxNumber:    req.Registration.TaxNumber,
			Notes:        req.Registration.Notes,
		}
	}
	if req.Consultation != nil {
		if err := validate.Struct(req.Consultation); err != nil {
			writeError(w, domainErrors.NewValidationError("consultation", "topic and mode are required"))
			return
		}
		svcReq.Consultation = &booking.ConsultationDetails{
			Topic:       req.Consultation.Topic,
			Mode:        req.Consultation.Mode,
			Description: req.Consultation.Description,
		}
	}

	b, err := h.bookingService.CreateBooking(r.Context(), svcReq)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, FromBookingCreated(b))
}

// GetStatus is the guest status lookup. It requires both the reference number
// and the contact email; any mismatch returns the same not-found response.
func (h *BookingController) GetStatus(w http.ResponseWriter, r *http.Request) {
	kind, err := kindFromURL(r)
	if err != nil {
		writeError(w, err)
		return
	}

	reference := r.URL.Query().Get("reference")
	email := r.URL.Query().Get("email")
	if reference == "" || email == "" {
		writeError(w, domainErrors.NewValidationError("query", "reference and email are required"))
		return
	}

	view, err := h.bookingService.GetStatus(r.Context(), kind, reference, email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromStatusView(view))
}

func (h *BookingController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid booking id", Code: "invalid_id"})
		return
	}

	b, err := h.bookingService.GetBooking(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromBooking(b))
}

func (h *BookingController) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := booking.ListFilter{
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
	}
	if k := booking.Kind(q.Get("kind")); booking.ValidKind(k) {
		filter.Kind = &k
	}
	if s := q.Get("status"); s != "" {
		status := booking.Status(s)
		filter.Status = &status
	}
	if ps := q.Get("payment_status"); ps != "" {
		paymentStatus := booking.PaymentStatus(ps)
		filter.PaymentStatus = &paymentStatus
	}
	if staffID := q.Get("staff_id"); staffID != "" {
		filter.StaffID = &staffID
	}

	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	bookings, err := h.bookingService.ListBookings(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		resp = append(resp, FromBooking(b))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Assign assigns a staff member, activating the booking even when payment is
// still pending.
func (h *BookingController) Assign(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid booking id", Code: "invalid_id"})
		return
	}

	var req AssignStaffRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	// Staff assign themselves unless they name someone else.
	if req.StaffID == "" {
		if staffID, ok := middleware.GetStaffID(r.Context()); ok {
			req.StaffID = staffID
		}
	}

	b, err := h.bookingService.AssignStaff(r.Context(), id, req.StaffID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromBooking(b))
}

func (h *BookingController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid booking id", Code: "invalid_id"})
		return
	}

	var req UpdateStatusRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	b, err := h.bookingService.UpdateStatus(r.Context(), id, booking.Status(req.Status), req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromBooking(b))
}

func (h *BookingController) Schedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid booking id", Code: "invalid_id"})
		return
	}

	var req ScheduleRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	b, err := h.bookingService.ScheduleConsultation(r.Context(), id, req.ScheduledAt)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromBooking(b))
}
