package gateway

import (
	"context"
	"testing"

	domainErrors "github.com/lexserve/bookings/internal/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockGateway_SessionLifecycle(t *testing.T) {
	g := NewMockGateway("payfast")
	ctx := context.Background()

	sess, err := g.CreateSession(ctx, SessionRequest{
		OrderID:     "order-1",
		AmountCents: 5000000,
		Currency:    "PKR",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.CheckoutURL)
	assert.NotEmpty(t, sess.TrackerToken)
	assert.Equal(t, "sandbox", sess.Environment)

	// Unsettled until the payer completes checkout.
	res, err := g.VerifyTransaction(ctx, sess.TrackerToken)
	require.NoError(t, err)
	assert.False(t, res.Settled)
	assert.Equal(t, "order-1", res.OrderID)
	assert.Equal(t, int64(5000000), res.AmountCents)

	require.NoError(t, g.CompleteSession(sess.TrackerToken))
	res, err = g.VerifyTransaction(ctx, sess.TrackerToken)
	require.NoError(t, err)
	assert.True(t, res.Settled)
	assert.Equal(t, "completed", res.Status)
}

func TestMockGateway_CancelSession(t *testing.T) {
	g := NewMockGateway("payfast")
	ctx := context.Background()

	sess, err := g.CreateSession(ctx, SessionRequest{OrderID: "order-2", AmountCents: 1000, Currency: "PKR"})
	require.NoError(t, err)

	require.NoError(t, g.CancelSession(ctx, sess.TrackerToken))
	status, ok := g.SessionStatus(sess.TrackerToken)
	require.True(t, ok)
	assert.Equal(t, "cancelled", status)

	// Cancelling a completed session does not regress it.
	sess2, err := g.CreateSession(ctx, SessionRequest{OrderID: "order-3", AmountCents: 1000, Currency: "PKR"})
	require.NoError(t, err)
	require.NoError(t, g.CompleteSession(sess2.TrackerToken))
	require.NoError(t, g.CancelSession(ctx, sess2.TrackerToken))
	status, _ = g.SessionStatus(sess2.TrackerToken)
	assert.Equal(t, "completed", status)
}

func TestMockGateway_UnknownTracker(t *testing.T) {
	g := NewMockGateway("payfast")
	_, err := g.VerifyTransaction(context.Background(), "nope")
	assert.ErrorIs(t, err, domainErrors.ErrGatewayRejected)
}

func TestMockGateway_FailureMode(t *testing.T) {
	g := NewMockGateway("payfast", WithFailure())
	_, err := g.CreateSession(context.Background(), SessionRequest{OrderID: "x", AmountCents: 100, Currency: "PKR"})
	assert.ErrorIs(t, err, domainErrors.ErrGatewayUnavailable)
}

func TestFactory_BreakerWraps(t *testing.T) {
	mock := NewMockGateway("payfast")
	f := NewFactory(mock)

	g, err := f.Get("payfast")
	require.NoError(t, err)
	assert.Equal(t, "payfast", g.Name())

	sess, err := g.CreateSession(context.Background(), SessionRequest{OrderID: "o", AmountCents: 100, Currency: "PKR"})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.TrackerToken)

	_, err = f.Get("stripe")
	assert.ErrorIs(t, err, domainErrors.ErrGatewayUnavailable)
}

func TestPayFast_AmountFormatting(t *testing.T) {
	assert.Equal(t, "50000.00", formatAmount(5000000))
	assert.Equal(t, "0.50", formatAmount(50))

	cents, err := parseAmount("50000.00")
	require.NoError(t, err)
	assert.Equal(t, int64(5000000), cents)

	cents, err = parseAmount("1500")
	require.NoError(t, err)
	assert.Equal(t, int64(150000), cents)

	_, err = parseAmount("abc")
	assert.Error(t, err)
}
