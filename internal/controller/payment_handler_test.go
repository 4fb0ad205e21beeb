package controller

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/lexserve/bookings/internal/domain/booking"
	"github.com/lexserve/bookings/internal/testutil"
)

func TestPaymentController_Pay(t *testing.T) {
	env := newTestEnv()
	b := testutil.NewTestBooking(booking.KindRegistration, uuid.New(), 5000000)
	env.bookingRepo.AddBooking(b)

	rec := env.do(t, http.MethodPost, "/api/v1/bookings/registration/"+b.ID.String()+"/pay", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	resp := decodeBody[CheckoutResponse](t, rec)
	if resp.CheckoutURL == "" {
		t.Error("expected a checkout URL")
	}
	if resp.TrackerToken == "" {
		t.Error("expected a tracker token")
	}
	if resp.Amount != 50000.0 {
		t.Errorf("expected amount 50000, got %f", resp.Amount)
	}
}

func TestPaymentController_PayAlreadyPaid(t *testing.T) {
	env := newTestEnv()
	b := testutil.NewPaidBooking(booking.KindRegistration, uuid.New(), 5000000)
	env.bookingRepo.AddBooking(b)

	rec := env.do(t, http.MethodPost, "/api/v1/bookings/registration/"+b.ID.String()+"/pay", nil)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d: %s", http.StatusConflict, rec.Code, rec.Body.String())
	}
	resp := decodeBody[ErrorResponse](t, rec)
	if resp.Code != "already_paid" {
		t.Errorf("expected code already_paid, got %s", resp.Code)
	}
}

func TestPaymentController_PayUnknownBooking(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/v1/bookings/registration/"+uuid.NewString()+"/pay", nil)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestPaymentController_PayGatewayDown(t *testing.T) {
	env := newTestEnv()
	b := testutil.NewTestBooking(booking.KindRegistration, uuid.New(), 5000000)
	env.bookingRepo.AddBooking(b)
	env.gw.SetFailing(true)

	rec := env.do(t, http.MethodPost, "/api/v1/bookings/registration/"+b.ID.String()+"/pay", nil)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d: %s", http.StatusServiceUnavailable, rec.Code, rec.Body.String())
	}
}

func TestPaymentController_ConfirmSettles(t *testing.T) {
	env := newTestEnv()
	b := testutil.NewTestBooking(booking.KindRegistration, uuid.New(), 5000000)
	env.bookingRepo.AddBooking(b)

	payRec := env.do(t, http.MethodPost, "/api/v1/bookings/registration/"+b.ID.String()+"/pay", nil)
	checkout := decodeBody[CheckoutResponse](t, payRec)

	if err := env.gw.CompleteSession(checkout.TrackerToken); err != nil {
		t.Fatalf("failed to complete session: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/api/v1/bookings/registration/"+b.ID.String()+"/confirm-payment",
		ConfirmPaymentRequest{TrackerToken: checkout.TrackerToken})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	resp := decodeBody[BookingCreatedResponse](t, rec)
	if resp.PaymentStatus != string(booking.PaymentPaid) {
		t.Errorf("expected payment_status paid, got %s", resp.PaymentStatus)
	}
	if resp.Status != string(booking.StatusPaymentConfirmed) {
		t.Errorf("expected status payment_confirmed, got %s", resp.Status)
	}
}

func TestPaymentController_ConfirmIdempotent(t *testing.T) {
	env := newTestEnv()
	b := testutil.NewTestBooking(booking.KindRegistration, uuid.New(), 5000000)
	env.bookingRepo.AddBooking(b)

	payRec := env.do(t, http.MethodPost, "/api/v1/bookings/registration/"+b.ID.String()+"/pay", nil)
	checkout := decodeBody[CheckoutResponse](t, payRec)
	if err := env.gw.CompleteSession(checkout.TrackerToken); err != nil {
		t.Fatalf("failed to complete session: %v", err)
	}

	confirm := ConfirmPaymentRequest{TrackerToken: checkout.TrackerToken}
	first := env.do(t, http.MethodPost, "/api/v1/bookings/registration/"+b.ID.String()+"/confirm-payment", confirm)
	second := env.do(t, http.MethodPost, "/api/v1/bookings/registration/"+b.ID.String()+"/confirm-payment", confirm)

	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("expected both confirmations to return %d, got %d and %d", http.StatusOK, first.Code, second.Code)
	}
	secondResp := decodeBody[BookingCreatedResponse](t, second)
	if secondResp.PaymentStatus != string(booking.PaymentPaid) {
		t.Errorf("expected payment_status paid, got %s", secondResp.PaymentStatus)
	}
}

func TestPaymentController_ConfirmUnsettledSession(t *testing.T) {
	env := newTestEnv()
	b := testutil.NewTestBooking(booking.KindRegistration, uuid.New(), 5000000)
	env.bookingRepo.AddBooking(b)

	payRec := env.do(t, http.MethodPost, "/api/v1/bookings/registration/"+b.ID.String()+"/pay", nil)
	checkout := decodeBody[CheckoutResponse](t, payRec)

	// Session never completed at the gateway.
	rec := env.do(t, http.MethodPost, "/api/v1/bookings/registration/"+b.ID.String()+"/confirm-payment",
		ConfirmPaymentRequest{TrackerToken: checkout.TrackerToken})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d: %s", http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	}
	resp := decodeBody[ErrorResponse](t, rec)
	if resp.Code != "session_not_settled" {
		t.Errorf("expected code session_not_settled, got %s", resp.Code)
	}
}

func TestPaymentController_ConfirmWrongTracker(t *testing.T) {
	env := newTestEnv()
	b := testutil.NewTestBooking(booking.KindRegistration, uuid.New(), 5000000)
	env.bookingRepo.AddBooking(b)

	env.do(t, http.MethodPost, "/api/v1/bookings/registration/"+b.ID.String()+"/pay", nil)

	rec := env.do(t, http.MethodPost, "/api/v1/bookings/registration/"+b.ID.String()+"/confirm-payment",
		ConfirmPaymentRequest{TrackerToken: "forged-tracker"})

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d: %s", http.StatusConflict, rec.Code, rec.Body.String())
	}
	resp := decodeBody[ErrorResponse](t, rec)
	if resp.Code != "tracker_mismatch" {
		t.Errorf("expected code tracker_mismatch, got %s", resp.Code)
	}
}

func TestPaymentController_ConfirmWithoutSession(t *testing.T) {
	env := newTestEnv()
	b := testutil.NewTestBooking(booking.KindRegistration, uuid.New(), 5000000)
	env.bookingRepo.AddBooking(b)

	rec := env.do(t, http.MethodPost, "/api/v1/bookings/registration/"+b.ID.String()+"/confirm-payment",
		ConfirmPaymentRequest{TrackerToken: "anything"})

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d: %s", http.StatusConflict, rec.Code, rec.Body.String())
	}
	resp := decodeBody[ErrorResponse](t, rec)
	if resp.Code != "no_payment_session" {
		t.Errorf("expected code no_payment_session, got %s", resp.Code)
	}
}

func TestPaymentController_PayWrongKindPath(t *testing.T) {
	env := newTestEnv()
	b := testutil.NewTestBooking(booking.KindRegistration, uuid.New(), 5000000)
	env.bookingRepo.AddBooking(b)

	rec := env.do(t, http.MethodPost, "/api/v1/bookings/consultation/"+b.ID.String()+"/pay", nil)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d: %s", http.StatusNotFound, rec.Code, rec.Body.String())
	}
}

func TestPaymentController_ConfirmWrongKindPath(t *testing.T) {
	env := newTestEnv()
	b := testutil.NewTestBooking(booking.KindRegistration, uuid.New(), 5000000)
	env.bookingRepo.AddBooking(b)

	payRec := env.do(t, http.MethodPost, "/api/v1/bookings/registration/"+b.ID.String()+"/pay", nil)
	checkout := decodeBody[CheckoutResponse](t, payRec)
	if err := env.gw.CompleteSession(checkout.TrackerToken); err != nil {
		t.Fatalf("failed to complete session: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/api/v1/bookings/consultation/"+b.ID.String()+"/confirm-payment",
		ConfirmPaymentRequest{TrackerToken: checkout.TrackerToken})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d: %s", http.StatusNotFound, rec.Code, rec.Body.String())
	}
	resp := decodeBody[ErrorResponse](t, rec)
	if resp.Code != "not_found" {
		t.Errorf("expected code not_found, got %s", resp.Code)
	}
}

func TestPaymentController_ConfirmMissingTracker(t *testing.T) {
	env := newTestEnv()
	b := testutil.NewTestBooking(booking.KindRegistration, uuid.New(), 5000000)
	env.bookingRepo.AddBooking(b)

	rec := env.do(t, http.MethodPost, "/api/v1/bookings/registration/"+b.ID.String()+"/confirm-payment",
		ConfirmPaymentRequest{})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d: %s", http.StatusBadRequest, rec.Code, rec.Body.String())
	}
}
