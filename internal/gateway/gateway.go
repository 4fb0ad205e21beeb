package gateway

import (
	"context"
)

// SessionRequest describes a hosted checkout session to create. The amount
// is always the server-side fee snapshot; client-supplied amounts never
// reach this struct.
type SessionRequest struct {
	OrderID     string
	AmountCents int64
	Currency    string
	Description string
	ReturnURL   string
	CancelURL   string
	PayerEmail  string
}

// Session is the gateway's ephemeral checkout object. Only the tracker
// token is persisted, as a back-reference on the booking.
type Session struct {
	CheckoutURL  string
	TrackerToken string
	Environment  string // sandbox or production
}

// VerifyResult is the gateway's view of a transaction, fetched by tracker.
type VerifyResult struct {
	TrackerToken string
	OrderID      string
	Settled      bool
	AmountCents  int64
	Currency     string
	Status       string
}

// Gateway creates hosted checkout sessions and verifies their outcome.
type Gateway interface {
	// Name returns the gateway name.
	Name() string
	// CreateSession opens a hosted checkout session for the given order.
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	// VerifyTransaction fetches the transaction state for a tracker token.
	VerifyTransaction(ctx context.Context, tracker string) (*VerifyResult, error)
	// CancelSession voids an unsettled session. Used as compensation when
	// the tracker cannot be persisted after session creation.
	CancelSession(ctx context.Context, tracker string) error
}
