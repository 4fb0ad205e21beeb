package service

import "context"

// Locker serializes confirmation attempts for the same booking across
// instances. fn runs only while the lock is held; a lost acquisition
// returns ErrLockAcquisitionFailed without running fn.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}
