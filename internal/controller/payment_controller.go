package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lexserve/bookings/internal/service"
)

type PaymentController struct {
	paymentService *service.PaymentService

	// Configured redirect defaults, used when the request does not override them.
	returnURL string
	cancelURL string
}

func NewPaymentController(paymentService *service.PaymentService, returnURL, cancelURL string) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		returnURL:      returnURL,
		cancelURL:      cancelURL,
	}
}

// Pay opens a hosted checkout session for the booking. The charge amount is
// the fee snapshot taken at creation; the request body never carries an amount.
func (h *PaymentController) Pay(w http.ResponseWriter, r *http.Request) {
	kind, err := kindFromURL(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid booking id", Code: "invalid_id"})
		return
	}

	// Body is optional; redirect overrides only.
	var req InitiatePaymentRequest
	if r.ContentLength > 0 {
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.ReturnURL == "" {
		req.ReturnURL = h.returnURL
	}
	if req.CancelURL == "" {
		req.CancelURL = h.cancelURL
	}

	checkout, err := h.paymentService.InitiatePayment(r.Context(), service.InitiatePaymentRequest{
		BookingID: id,
		Kind:      kind,
		ReturnURL: req.ReturnURL,
		CancelURL: req.CancelURL,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CheckoutResponse{
		CheckoutURL:  checkout.CheckoutURL,
		TrackerToken: checkout.TrackerToken,
		Environment:  checkout.Environment,
		Amount:       centsToFloat(checkout.AmountCents),
		Currency:     checkout.Currency,
	})
}

// ConfirmPayment settles the booking after the client returns from checkout.
// The gateway is re-queried server side; the tracker alone proves nothing.
func (h *PaymentController) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	kind, err := kindFromURL(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid booking id", Code: "invalid_id"})
		return
	}

	var req ConfirmPaymentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	b, err := h.paymentService.ConfirmPayment(r.Context(), service.ConfirmPaymentRequest{
		BookingID:    id,
		Kind:         kind,
		TrackerToken: req.TrackerToken,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromBookingCreated(b))
}
