package service

import "context"

// TransactionManager wraps multi-repository write sets in one database
// transaction: booking creation with its reference sequence bump, and
// settlement with its outbox entry.
type TransactionManager interface {
	// WithTransaction executes fn within a database transaction. If fn
	// returns an error the transaction is rolled back, otherwise committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
