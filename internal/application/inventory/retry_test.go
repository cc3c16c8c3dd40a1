package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kardexhq/backend/internal/domain/shared"
)

func TestWithVersionRetry_SucceedsAfterConflicts(t *testing.T) {
	attempts := 0
	err := WithVersionRetry(context.Background(), 3, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return shared.NewDomainError(shared.ErrConflict.Code, "lost the race")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithVersionRetry_NonConflictStopsImmediately(t *testing.T) {
	attempts := 0
	err := WithVersionRetry(context.Background(), 3, func(ctx context.Context) error {
		attempts++
		return shared.NewDomainError(shared.ErrInsufficientStock.Code, "not enough")
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
	assert.Equal(t, 1, attempts)
}

func TestWithVersionRetry_SurfacesConflictAfterExhaustion(t *testing.T) {
	attempts := 0
	err := WithVersionRetry(context.Background(), 2, func(ctx context.Context) error {
		attempts++
		return shared.NewDomainError(shared.ErrConflict.Code, "lost again")
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrConflict))
	// initial attempt plus two retries
	assert.Equal(t, 3, attempts)
}

func TestWithVersionRetry_DefaultsRetryCount(t *testing.T) {
	attempts := 0
	err := WithVersionRetry(context.Background(), 0, func(ctx context.Context) error {
		attempts++
		return shared.NewDomainError(shared.ErrConflict.Code, "lost")
	})

	require.Error(t, err)
	assert.Equal(t, DefaultVersionRetries+1, attempts)
}

func TestWithVersionRetry_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := WithVersionRetry(ctx, 3, func(ctx context.Context) error {
		attempts++
		return nil
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, attempts)
}
