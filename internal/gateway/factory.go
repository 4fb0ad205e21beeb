package gateway

import (
	"context"
	"fmt"
	"time"

	domainErrors "github.com/lexserve/bookings/internal/domain/errors"
	"github.com/sony/gobreaker/v2"
)

// Factory registers gateways and wraps each in a circuit breaker. Callers
// always receive the breaker-protected gateway.
type Factory struct {
	gateways map[string]Gateway
}

func NewFactory(gateways ...Gateway) *Factory {
	f := &Factory{gateways: make(map[string]Gateway)}
	if len(gateways) == 0 {
		f.Register(NewMockGateway("payfast", WithLatency(100*time.Millisecond)))
	} else {
		for _, g := range gateways {
			f.Register(g)
		}
	}
	return f
}

func (f *Factory) Register(g Gateway) {
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        g.Name(),
		MaxRequests: 10,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
	})
	f.gateways[g.Name()] = &breakerGateway{inner: g, cb: cb}
}

func (f *Factory) Get(name string) (Gateway, error) {
	g, ok := f.gateways[name]
	if !ok {
		return nil, fmt.Errorf("unknown gateway %q: %w", name, domainErrors.ErrGatewayUnavailable)
	}
	return g, nil
}

// breakerGateway routes every gateway call through a shared circuit breaker.
type breakerGateway struct {
	inner Gateway
	cb    *gobreaker.CircuitBreaker[any]
}

func (b *breakerGateway) Name() string { return b.inner.Name() }

func (b *breakerGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.inner.CreateSession(ctx, req)
	})
	if err != nil {
		return nil, breakerErr(err)
	}
	return res.(*Session), nil
}

func (b *breakerGateway) VerifyTransaction(ctx context.Context, tracker string) (*VerifyResult, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.inner.VerifyTransaction(ctx, tracker)
	})
	if err != nil {
		return nil, breakerErr(err)
	}
	return res.(*VerifyResult), nil
}

func (b *breakerGateway) CancelSession(ctx context.Context, tracker string) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.inner.CancelSession(ctx, tracker)
	})
	if err != nil {
		return breakerErr(err)
	}
	return nil
}

func breakerErr(err error) error {
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return fmt.Errorf("%w: circuit breaker open", domainErrors.ErrGatewayUnavailable)
	}
	return err
}
