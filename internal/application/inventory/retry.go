package inventory

import (
	"context"
	"errors"

	"github.com/kardexhq/backend/internal/domain/shared"
)

// DefaultVersionRetries is how many times a version-conflicted operation
// is re-attempted before the conflict is surfaced to the caller.
const DefaultVersionRetries = 3

// WithVersionRetry runs op, retrying when it fails with the version
// conflict sentinel. The op must re-read the aggregate on every attempt so
// each retry compares-and-swaps against a fresh version; retrying on a
// stale read would just lose again. Any other error, and a conflict that
// survives maxRetries re-attempts, is returned as-is. maxRetries <= 0
// falls back to DefaultVersionRetries.
func WithVersionRetry(ctx context.Context, maxRetries int, op func(ctx context.Context) error) error {
	if maxRetries <= 0 {
		maxRetries = DefaultVersionRetries
	}

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = op(ctx)
		if err == nil || !errors.Is(err, shared.ErrConflict) {
			return err
		}
	}
	return err
}
