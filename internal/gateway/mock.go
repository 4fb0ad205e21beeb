package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	domainErrors "github.com/lexserve/bookings/internal/domain/errors"
)

// MockGateway is an in-memory gateway for tests and local development. It
// keeps created sessions so tests can settle or cancel them out-of-band,
// the way a real hosted checkout completes.
type MockGateway struct {
	name    string
	latency time.Duration
	failing bool

	mu       sync.Mutex
	sessions map[string]*mockSession
}

type mockSession struct {
	orderID     string
	amountCents int64
	currency    string
	status      string // pending, completed, cancelled
}

type MockGatewayOption func(*MockGateway)

func WithLatency(d time.Duration) MockGatewayOption {
	return func(g *MockGateway) { g.latency = d }
}

// WithFailure makes every call fail with ErrGatewayUnavailable.
func WithFailure() MockGatewayOption {
	return func(g *MockGateway) { g.failing = true }
}

func NewMockGateway(name string, opts ...MockGatewayOption) *MockGateway {
	g := &MockGateway{
		name:     name,
		sessions: make(map[string]*mockSession),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *MockGateway) Name() string { return g.name }

// SetFailing toggles failure mode at runtime.
func (g *MockGateway) SetFailing(failing bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failing = failing
}

func (g *MockGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failing {
		return nil, domainErrors.ErrGatewayUnavailable
	}

	tracker := fmt.Sprintf("%s_txn_%s", g.name, uuid.New().String()[:8])
	g.sessions[tracker] = &mockSession{
		orderID:     req.OrderID,
		amountCents: req.AmountCents,
		currency:    req.Currency,
		status:      "pending",
	}
	return &Session{
		CheckoutURL:  fmt.Sprintf("https://sandbox.%s.example/checkout/%s", g.name, tracker),
		TrackerToken: tracker,
		Environment:  "sandbox",
	}, nil
}

func (g *MockGateway) VerifyTransaction(ctx context.Context, tracker string) (*VerifyResult, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failing {
		return nil, domainErrors.ErrGatewayUnavailable
	}

	s, ok := g.sessions[tracker]
	if !ok {
		return nil, domainErrors.NewDomainError("unknown_tracker", "no session for tracker "+tracker, domainErrors.ErrGatewayRejected)
	}
	return &VerifyResult{
		TrackerToken: tracker,
		OrderID:      s.orderID,
		Settled:      s.status == "completed",
		AmountCents:  s.amountCents,
		Currency:     s.currency,
		Status:       s.status,
	}, nil
}

func (g *MockGateway) CancelSession(ctx context.Context, tracker string) error {
	if err := g.wait(ctx); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[tracker]
	if !ok {
		return domainErrors.ErrGatewayRejected
	}
	if s.status == "pending" {
		s.status = "cancelled"
	}
	return nil
}

// CompleteSession settles a pending session, simulating the payer finishing
// the hosted checkout.
func (g *MockGateway) CompleteSession(tracker string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[tracker]
	if !ok {
		return fmt.Errorf("unknown tracker %s", tracker)
	}
	s.status = "completed"
	return nil
}

// SessionStatus returns the status of a session for test assertions.
func (g *MockGateway) SessionStatus(tracker string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[tracker]
	if !ok {
		return "", false
	}
	return s.status, true
}

func (g *MockGateway) wait(ctx context.Context) error {
	if g.latency <= 0 {
		return nil
	}
	select {
	case <-time.After(g.latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
