package publicid

import (
	"context"
	"errors"
	"fmt"
)

// maxAttempts bounds the generate-and-check loop. The identifier space is
// sparse enough that hitting this limit means corrupted or adversarial data,
// not expected load.
const maxAttempts = 10

// ErrAllocationExhausted is returned when no unique candidate was found
// within the attempt budget. The whole commit step is cheap to retry.
var ErrAllocationExhausted = errors.New("could not generate unique user ID after multiple attempts")

// Oracle answers point-in-time existence checks against the durable store,
// keyed strictly on the public identifier field.
type Oracle interface {
	PublicIDExists(ctx context.Context, publicID string) (bool, error)
}

// Allocator draws random candidates until the oracle reports one unused.
// The check is not atomic with the eventual record write; the store's unique
// index on the identifier remains the final arbiter.
type Allocator struct {
	oracle Oracle
}

func NewAllocator(oracle Oracle) *Allocator {
	return &Allocator{oracle: oracle}
}

// Allocate returns an identifier the oracle reported unused, or
// ErrAllocationExhausted after maxAttempts candidates were all taken.
// Oracle failures propagate immediately and do not consume the budget.
func (a *Allocator) Allocate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate, err := Generate()
		if err != nil {
			return "", fmt.Errorf("generate candidate: %w", err)
		}

		exists, err := a.oracle.PublicIDExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check candidate uniqueness: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}

	return "", ErrAllocationExhausted
}
