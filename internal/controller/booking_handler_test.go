package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lexserve/bookings/internal/domain/booking"
	"github.com/lexserve/bookings/internal/gateway"
	"github.com/lexserve/bookings/internal/service"
	"github.com/lexserve/bookings/internal/testutil"
	"github.com/lexserve/bookings/pkg/retry"
)

type testEnv struct {
	router      *chi.Mux
	bookingRepo *testutil.MockBookingRepository
	catalogRepo *testutil.MockCatalogRepository
	gw          *gateway.MockGateway
}

// newTestEnv wires the handlers onto the same route tree the API serves,
// minus auth and rate limiting.
func newTestEnv() *testEnv {
	bookingRepo := testutil.NewMockBookingRepository()
	catalogRepo := testutil.NewMockCatalogRepository()
	outboxRepo := &testutil.MockOutboxRepository{}
	txManager := testutil.NewMockTransactionManager()
	locker := &testutil.MockLocker{}

	gw := gateway.NewMockGateway("payfast")
	factory := gateway.NewFactory(gw)
	retryCfg := retry.Config{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}

	bookingService := service.NewBookingService(bookingRepo, catalogRepo, txManager)
	paymentService := service.NewPaymentService(bookingRepo, outboxRepo, txManager, factory, "payfast", locker, retryCfg)
	catalogService := service.NewCatalogService(catalogRepo)

	bookingH := NewBookingController(bookingService)
	paymentH := NewPaymentController(paymentService, "https://lexserve.example/return", "https://lexserve.example/cancel")
	offeringH := NewOfferingController(catalogService)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/offerings", offeringH.List)
		r.Route("/bookings/{kind}", func(r chi.Router) {
			r.Post("/", bookingH.Create)
			r.Get("/status", bookingH.GetStatus)
			r.Post("/{id}/pay", paymentH.Pay)
			r.Post("/{id}/confirm-payment", paymentH.ConfirmPayment)
		})
		r.Route("/staff", func(r chi.Router) {
			r.Get("/bookings", bookingH.List)
			r.Get("/bookings/{id}", bookingH.Get)
			r.Patch("/bookings/{id}/assign", bookingH.Assign)
			r.Patch("/bookings/{id}/status", bookingH.UpdateStatus)
			r.Post("/bookings/{id}/schedule", bookingH.Schedule)
			r.Post("/offerings", offeringH.Create)
		})
	})

	return &testEnv{router: r, bookingRepo: bookingRepo, catalogRepo: catalogRepo, gw: gw}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

func registrationRequest(offeringID uuid.UUID) CreateBookingRequest {
	return CreateBookingRequest{
		OfferingID:  offeringID.String(),
		ClientName:  "Ayesha Khan",
		ClientEmail: "ayesha@example.com",
		Registration: &RegistrationDetailsRequest{
			BusinessName: "Khan Trading Co",
			BusinessType: "sole_proprietor",
		},
	}
}

func TestBookingController_Create(t *testing.T) {
	env := newTestEnv()
	offering := testutil.NewTestOffering(booking.KindRegistration, 5000000)
	env.catalogRepo.AddOffering(offering)

	rec := env.do(t, http.MethodPost, "/api/v1/bookings/registration", registrationRequest(offering.ID))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	resp := decodeBody[BookingCreatedResponse](t, rec)
	if resp.ReferenceNumber == "" {
		t.Error("expected a reference number")
	}
	if resp.Status != string(booking.StatusPendingPayment) {
		t.Errorf("expected status pending_payment, got %s", resp.Status)
	}
	if resp.Amount != 50000.0 {
		t.Errorf("expected amount 50000, got %f", resp.Amount)
	}
	if resp.Currency != "PKR" {
		t.Errorf("expected currency PKR, got %s", resp.Currency)
	}
}

func TestBookingController_CreateUnknownKind(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/v1/bookings/litigation", registrationRequest(uuid.New()))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestBookingController_CreateMissingEmail(t *testing.T) {
	env := newTestEnv()
	offering := testutil.NewTestOffering(booking.KindRegistration, 5000000)
	env.catalogRepo.AddOffering(offering)

	req := registrationRequest(offering.ID)
	req.ClientEmail = ""
	rec := env.do(t, http.MethodPost, "/api/v1/bookings/registration", req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d: %s", http.StatusBadRequest, rec.Code, rec.Body.String())
	}
	resp := decodeBody[ErrorResponse](t, rec)
	if resp.Code != "validation_error" {
		t.Errorf("expected code validation_error, got %s", resp.Code)
	}
}

func TestBookingController_CreateInactiveOffering(t *testing.T) {
	env := newTestEnv()
	offering := testutil.NewTestOffering(booking.KindRegistration, 5000000)
	offering.Active = false
	env.catalogRepo.AddOffering(offering)

	rec := env.do(t, http.MethodPost, "/api/v1/bookings/registration", registrationRequest(offering.ID))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d: %s", http.StatusNotFound, rec.Code, rec.Body.String())
	}
}

func TestBookingController_GetStatus(t *testing.T) {
	env := newTestEnv()
	b := testutil.NewTestBooking(booking.KindRegistration, uuid.New(), 5000000)
	env.bookingRepo.AddBooking(b)

	rec := env.do(t, http.MethodGet,
		"/api/v1/bookings/registration/status?reference="+b.ReferenceNumber+"&email=ayesha@example.com", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	resp := decodeBody[BookingStatusResponse](t, rec)
	if resp.ReferenceNumber != b.ReferenceNumber {
		t.Errorf("expected reference %s, got %s", b.ReferenceNumber, resp.ReferenceNumber)
	}
	if resp.PaymentStatus != string(booking.PaymentPending) {
		t.Errorf("expected payment_status pending, got %s", resp.PaymentStatus)
	}
}

func TestBookingController_GetStatusWrongEmail(t *testing.T) {
	env := newTestEnv()
	b := testutil.NewTestBooking(booking.KindRegistration, uuid.New(), 5000000)
	env.bookingRepo.AddBooking(b)

	rec := env.do(t, http.MethodGet,
		"/api/v1/bookings/registration/status?reference="+b.ReferenceNumber+"&email=other@example.com", nil)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestBookingController_GetStatusMissingEmail(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/api/v1/bookings/registration/status?reference=REG-2026-0001", nil)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestBookingController_Assign(t *testing.T) {
	env := newTestEnv()
	b := testutil.NewTestBooking(booking.KindRegistration, uuid.New(), 5000000)
	env.bookingRepo.AddBooking(b)

	rec := env.do(t, http.MethodPatch, "/api/v1/staff/bookings/"+b.ID.String()+"/assign",
		AssignStaffRequest{StaffID: "staff-7"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	resp := decodeBody[BookingResponse](t, rec)
	if resp.AssignedStaffID == nil || *resp.AssignedStaffID != "staff-7" {
		t.Error("expected staff-7 assigned")
	}
	if resp.Status != string(booking.StatusInProgress) {
		t.Errorf("expected status in_progress, got %s", resp.Status)
	}
}

func TestBookingController_UpdateStatusPaymentGate(t *testing.T) {
	env := newTestEnv()
	b := testutil.NewTestBooking(booking.KindRegistration, uuid.New(), 5000000)
	env.bookingRepo.AddBooking(b)

	rec := env.do(t, http.MethodPatch, "/api/v1/staff/bookings/"+b.ID.String()+"/status",
		UpdateStatusRequest{Status: "in_progress"})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d: %s", http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	}
	resp := decodeBody[ErrorResponse](t, rec)
	if resp.Code != "payment_required" {
		t.Errorf("expected code payment_required, got %s", resp.Code)
	}
}

func TestBookingController_UpdateStatusInvalidTransition(t *testing.T) {
	env := newTestEnv()
	b := testutil.NewPaidBooking(booking.KindRegistration, uuid.New(), 5000000)
	env.bookingRepo.AddBooking(b)

	rec := env.do(t, http.MethodPatch, "/api/v1/staff/bookings/"+b.ID.String()+"/status",
		UpdateStatusRequest{Status: "no_show"})

	if rec.Code != http.StatusConflict {
		t.Errorf("expected status %d, got %d: %s", http.StatusConflict, rec.Code, rec.Body.String())
	}
}

func TestBookingController_Schedule(t *testing.T) {
	env := newTestEnv()
	b := testutil.NewPaidBooking(booking.KindConsultation, uuid.New(), 1500000)
	env.bookingRepo.AddBooking(b)

	slot := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
	rec := env.do(t, http.MethodPost, "/api/v1/staff/bookings/"+b.ID.String()+"/schedule",
		ScheduleRequest{ScheduledAt: slot})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	resp := decodeBody[BookingResponse](t, rec)
	if resp.Status != string(booking.StatusBooked) {
		t.Errorf("expected status booked, got %s", resp.Status)
	}
	if resp.ScheduledAt == nil || !resp.ScheduledAt.Equal(slot) {
		t.Error("expected scheduled slot in response")
	}
}

func TestBookingController_ScheduleUnpaid(t *testing.T) {
	env := newTestEnv()
	b := testutil.NewTestBooking(booking.KindConsultation, uuid.New(), 1500000)
	env.bookingRepo.AddBooking(b)

	rec := env.do(t, http.MethodPost, "/api/v1/staff/bookings/"+b.ID.String()+"/schedule",
		ScheduleRequest{ScheduledAt: time.Now().Add(72 * time.Hour)})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d: %s", http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	}
}

func TestBookingController_List(t *testing.T) {
	env := newTestEnv()
	env.bookingRepo.AddBooking(testutil.NewTestBooking(booking.KindRegistration, uuid.New(), 5000000))
	env.bookingRepo.AddBooking(testutil.NewTestBooking(booking.KindConsultation, uuid.New(), 1500000))

	rec := env.do(t, http.MethodGet, "/api/v1/staff/bookings?kind=registration", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	resp := decodeBody[[]*BookingResponse](t, rec)
	if len(resp) != 1 {
		t.Fatalf("expected 1 booking, got %d", len(resp))
	}
	if resp[0].Kind != "registration" {
		t.Errorf("expected kind registration, got %s", resp[0].Kind)
	}
}

func TestOfferingController_ListActiveOnly(t *testing.T) {
	env := newTestEnv()
	active := testutil.NewTestOffering(booking.KindRegistration, 5000000)
	retired := testutil.NewTestOffering(booking.KindRegistration, 4000000)
	retired.Active = false
	env.catalogRepo.AddOffering(active)
	env.catalogRepo.AddOffering(retired)

	rec := env.do(t, http.MethodGet, "/api/v1/offerings", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	resp := decodeBody[[]*OfferingResponse](t, rec)
	if len(resp) != 1 {
		t.Fatalf("expected 1 offering, got %d", len(resp))
	}
	if resp[0].ID != active.ID.String() {
		t.Error("expected only the active offering")
	}
}

func TestOfferingController_Create(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/v1/staff/offerings", CreateOfferingRequest{
		Kind:     "consultation",
		Name:     "Initial Consultation",
		Fee:      15000,
		Currency: "PKR",
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	resp := decodeBody[OfferingResponse](t, rec)
	if resp.Fee != 15000 {
		t.Errorf("expected fee 15000, got %f", resp.Fee)
	}
	if !resp.Active {
		t.Error("expected offering to start active")
	}
}
