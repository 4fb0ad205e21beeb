package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lexserve/bookings/internal/domain/booking"
	domainErrors "github.com/lexserve/bookings/internal/domain/errors"
	"github.com/lexserve/bookings/internal/domain/outbox"
	"github.com/lexserve/bookings/internal/gateway"
	"github.com/lexserve/bookings/pkg/retry"
	"github.com/lexserve/bookings/pkg/saga"
)

// PaymentService drives the hosted checkout flow: it opens gateway sessions
// for unpaid bookings and settles them on confirmation.
type PaymentService struct {
	bookingRepo    booking.Repository
	outboxRepo     outbox.Repository
	txManager      TransactionManager
	gatewayFactory *gateway.Factory
	gatewayName    string
	locker         Locker
	retryCfg       retry.Config
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	bookingRepo booking.Repository,
	outboxRepo outbox.Repository,
	txManager TransactionManager,
	gatewayFactory *gateway.Factory,
	gatewayName string,
	locker Locker,
	retryCfg retry.Config,
) *PaymentService {
	return &PaymentService{
		bookingRepo:    bookingRepo,
		outboxRepo:     outboxRepo,
		txManager:      txManager,
		gatewayFactory: gatewayFactory,
		gatewayName:    gatewayName,
		locker:         locker,
		retryCfg:       retryCfg,
	}
}

// InitiatePaymentRequest holds the input for opening a checkout session.
type InitiatePaymentRequest struct {
	BookingID uuid.UUID
	Kind      booking.Kind
	ReturnURL string
	CancelURL string
}

// InitiatePaymentResponse holds the hosted checkout handle returned to the
// client. The amount comes from the booking's fee snapshot.
type InitiatePaymentResponse struct {
	CheckoutURL  string
	TrackerToken string
	Environment  string
	AmountCents  int64
	Currency     string
}

// InitiatePayment opens a gateway checkout session for an unpaid booking.
// The tracker is persisted before the checkout URL is returned; if the
// tracker cannot be stored, the session is voided at the gateway so no
// payable session exists that the system does not know about.
//
// Re-initiation while unpaid is allowed and replaces the stored tracker;
// only the session matching the current tracker can confirm the booking.
func (s *PaymentService) InitiatePayment(ctx context.Context, req InitiatePaymentRequest) (*InitiatePaymentResponse, error) {
	b, err := s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	// A kind mismatch reads the same as a missing booking.
	if b.Kind != req.Kind {
		return nil, domainErrors.ErrBookingNotFound
	}
	if b.PaymentStatus == booking.PaymentPaid {
		return nil, domainErrors.ErrAlreadyPaid
	}
	if b.IsTerminal() {
		return nil, domainErrors.NewDomainError(
			"booking_closed",
			"cannot pay for a "+string(b.Status)+" booking",
			domainErrors.ErrInvalidStateTransition,
		)
	}

	gw, err := s.gatewayFactory.Get(s.gatewayName)
	if err != nil {
		return nil, err
	}

	var session *gateway.Session
	sg := saga.New("payment-initiate").
		AddStep(saga.Step{
			Name: "create checkout session",
			Execute: func(ctx context.Context) error {
				session, err = gw.CreateSession(ctx, gateway.SessionRequest{
					OrderID:     b.ReferenceNumber,
					AmountCents: b.AmountCents,
					Currency:    b.Currency,
					Description: fmt.Sprintf("%s %s", b.Kind, b.ReferenceNumber),
					ReturnURL:   req.ReturnURL,
					CancelURL:   req.CancelURL,
					PayerEmail:  b.ClientEmail,
				})
				return err
			},
			Compensate: func(ctx context.Context) error {
				return gw.CancelSession(ctx, session.TrackerToken)
			},
		}).
		AddStep(saga.Step{
			Name: "persist tracker",
			Execute: func(ctx context.Context) error {
				return retry.Do(ctx, s.retryCfg, func() error {
					return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
						fresh, err := s.bookingRepo.GetByID(txCtx, req.BookingID)
						if err != nil {
							return err
						}
						if fresh.PaymentStatus == booking.PaymentPaid {
							return domainErrors.ErrAlreadyPaid
						}
						fresh.SetTracker(session.TrackerToken)
						return s.bookingRepo.Update(txCtx, fresh)
					})
				})
			},
		})

	if err := sg.Execute(ctx); err != nil {
		return nil, err
	}

	return &InitiatePaymentResponse{
		CheckoutURL:  session.CheckoutURL,
		TrackerToken: session.TrackerToken,
		Environment:  session.Environment,
		AmountCents:  b.AmountCents,
		Currency:     b.Currency,
	}, nil
}

// ConfirmPaymentRequest holds the input for confirming a checkout session.
type ConfirmPaymentRequest struct {
	BookingID    uuid.UUID
	Kind         booking.Kind
	TrackerToken string
}

// ConfirmPayment settles a booking's payment. It is idempotent: confirming
// an already-paid booking returns the booking unchanged. The tracker must
// match the stored session and the gateway is re-queried server side, so a
// forged or stale confirmation cannot settle a booking.
func (s *PaymentService) ConfirmPayment(ctx context.Context, req ConfirmPaymentRequest) (*booking.Booking, error) {
	var result *booking.Booking
	err := s.locker.WithLock(ctx, "payment:confirm:"+req.BookingID.String(), func(ctx context.Context) error {
		var err error
		result, err = s.confirmLocked(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PaymentService) confirmLocked(ctx context.Context, req ConfirmPaymentRequest) (*booking.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if b.Kind != req.Kind {
		return nil, domainErrors.ErrBookingNotFound
	}
	if b.PaymentStatus == booking.PaymentPaid {
		// Retransmitted confirmation; nothing left to do.
		return b, nil
	}
	if b.TrackerToken == nil {
		return nil, domainErrors.ErrNoTracker
	}
	if req.TrackerToken != *b.TrackerToken {
		return nil, domainErrors.ErrTrackerMismatch
	}

	gw, err := s.gatewayFactory.Get(s.gatewayName)
	if err != nil {
		return nil, err
	}
	verify, err := gw.VerifyTransaction(ctx, req.TrackerToken)
	if err != nil {
		return nil, err
	}
	if !verify.Settled {
		if verify.Status == "cancelled" || verify.Status == "failed" {
			if markErr := s.markFailed(ctx, req.BookingID); markErr != nil {
				return nil, markErr
			}
		}
		return nil, domainErrors.ErrSessionNotSettled
	}
	if verify.AmountCents != b.AmountCents || verify.Currency != b.Currency {
		return nil, domainErrors.NewDomainError(
			"amount_mismatch",
			fmt.Sprintf("gateway settled %d %s, booking expects %d %s",
				verify.AmountCents, verify.Currency, b.AmountCents, b.Currency),
			domainErrors.ErrGatewayRejected,
		)
	}

	var settled *booking.Booking
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		fresh, err := s.bookingRepo.GetByID(txCtx, req.BookingID)
		if err != nil {
			return err
		}
		if fresh.PaymentStatus == booking.PaymentPaid {
			settled = fresh
			return nil
		}
		fresh.MarkPaid()
		if err := s.bookingRepo.Update(txCtx, fresh); err != nil {
			return err
		}

		entry := outbox.NewEntry(
			"booking",
			fresh.ID,
			"booking.payment_confirmed",
			map[string]any{
				"booking_id":   fresh.ID.String(),
				"reference":    fresh.ReferenceNumber,
				"kind":         string(fresh.Kind),
				"client_email": fresh.ClientEmail,
				"amount_cents": fresh.AmountCents,
				"currency":     fresh.Currency,
			},
		)
		if err := s.outboxRepo.Insert(txCtx, entry); err != nil {
			return err
		}
		settled = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settled, nil
}

// markFailed records a failed session outcome. MarkPaymentFailed never
// regresses a settled payment, so a late cancel callback cannot undo paid.
func (s *PaymentService) markFailed(ctx context.Context, id uuid.UUID) error {
	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		fresh, err := s.bookingRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		fresh.MarkPaymentFailed()
		return s.bookingRepo.Update(txCtx, fresh)
	})
}
