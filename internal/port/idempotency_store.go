package port

import "context"

type IdempotencyStore interface {
	// Claim records key, returns false if it was already claimed
	Claim(ctx context.Context, key string) (bool, error)
	// Release forgets key so a failed request can be retried with it
	Release(ctx context.Context, key string) error
}
