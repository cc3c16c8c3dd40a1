package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared"
)

func TestStockService_CreateLine(t *testing.T) {
	env := newTestEnv(t)
	svc := NewStockService(env.scope)
	storeID := uuid.New()
	ref := inventory.MustProductRef(uuid.New())

	created, err := svc.CreateLine(context.Background(), storeID, ref, d("5"))
	require.NoError(t, err)
	assert.True(t, created.Quantity.IsZero())
	assert.Equal(t, d("5").String(), created.MinStockLevel.String())
	assert.Equal(t, 1, created.Version)

	t.Run("duplicate store and ref rejected", func(t *testing.T) {
		_, err := svc.CreateLine(context.Background(), storeID, ref, d("0"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrAlreadyExists))
	})
}

func TestStockService_AdjustQuantity(t *testing.T) {
	env := newTestEnv(t)
	svc := NewStockService(env.scope)
	actorID := uuid.New()
	line := seedStockLine(t, env, uuid.New(), "10", "3.50")

	t.Run("writes the correction and its movement", func(t *testing.T) {
		resp, err := svc.AdjustQuantity(context.Background(), line.ID, d("-4"), "shrinkage", actorID)
		require.NoError(t, err)
		assert.Equal(t, d("6").String(), resp.Quantity.String())

		movements, err := env.movements.FindByStockLine(context.Background(), line.ID, shared.Filter{})
		require.NoError(t, err)
		require.Len(t, movements, 1)
		m := movements[0]
		assert.Equal(t, inventory.MovementKindAdjustment, m.Kind)
		assert.Equal(t, d("-4").String(), m.Quantity.String())
		assert.Equal(t, d("10").String(), m.BalanceBefore.String())
		assert.Equal(t, d("6").String(), m.BalanceAfter.String())
		assert.Equal(t, "shrinkage", m.Reason)
		assert.Equal(t, actorID, m.ActorID)
	})

	t.Run("zero delta rejected", func(t *testing.T) {
		_, err := svc.AdjustQuantity(context.Background(), line.ID, d("0"), "noop", actorID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrConstraintViolation))
	})

	t.Run("cannot drive stock negative", func(t *testing.T) {
		_, err := svc.AdjustQuantity(context.Background(), line.ID, d("-100"), "impossible", actorID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
	})
}

func TestStockService_SetStockLevels(t *testing.T) {
	env := newTestEnv(t)
	svc := NewStockService(env.scope)
	line := seedStockLine(t, env, uuid.New(), "10", "1.00")

	max := d("50")
	resp, err := svc.SetStockLevels(context.Background(), line.ID, d("3"), &max)
	require.NoError(t, err)
	assert.Equal(t, d("3").String(), resp.MinStockLevel.String())
	require.NotNil(t, resp.MaxStockLevel)
	assert.Equal(t, d("50").String(), resp.MaxStockLevel.String())

	t.Run("max below min rejected", func(t *testing.T) {
		bad := d("1")
		_, err := svc.SetStockLevels(context.Background(), line.ID, d("3"), &bad)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrConstraintViolation))
	})
}

func TestStockService_InitializeLines(t *testing.T) {
	env := newTestEnv(t)
	svc := NewStockService(env.scope)
	storeID := uuid.New()
	actorID := uuid.New()
	refA := inventory.MustProductRef(uuid.New())
	refB := inventory.MustVariantRef(uuid.New())

	req := InitializeStockRequest{
		StoreID: storeID,
		ActorID: actorID,
		Lines: []InitialStockLine{
			{ProductRef: refA, Quantity: d("100"), UnitCost: d("2.50"), MinStockLevel: d("10")},
			{ProductRef: refB, Quantity: d("0"), UnitCost: d("0"), MinStockLevel: d("5")},
		},
	}

	result, err := svc.InitializeLines(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Zero(t, result.Skipped)

	lineA, err := env.stockLines.FindByStoreAndRef(context.Background(), storeID, refA)
	require.NoError(t, err)
	assert.Equal(t, d("100").String(), lineA.Quantity.String())
	assert.Equal(t, d("2.5").String(), lineA.AverageUnitCost.String())

	t.Run("seeded quantity leaves a replayable ledger", func(t *testing.T) {
		movements, err := env.movements.FindByStockLine(context.Background(), lineA.ID, shared.Filter{})
		require.NoError(t, err)
		require.Len(t, movements, 1)
		assert.Equal(t, inventory.MovementKindIn, movements[0].Kind)
		assert.Equal(t, inventory.ReferenceTypeInitialStock, movements[0].ReferenceType)

		report, err := inventory.NewKardexService().Replay(lineA, movements)
		require.NoError(t, err)
		assert.True(t, report.Consistent)
	})

	t.Run("zero quantity line gets no movement", func(t *testing.T) {
		lineB, err := env.stockLines.FindByStoreAndRef(context.Background(), storeID, refB)
		require.NoError(t, err)
		count, err := env.movements.CountByStockLine(context.Background(), lineB.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("re-running skips existing lines", func(t *testing.T) {
		again, err := svc.InitializeLines(context.Background(), req)
		require.NoError(t, err)
		assert.Zero(t, again.Created)
		assert.Equal(t, 2, again.Skipped)

		// the skipped line kept its original quantity
		lineA, err := env.stockLines.FindByStoreAndRef(context.Background(), storeID, refA)
		require.NoError(t, err)
		assert.Equal(t, d("100").String(), lineA.Quantity.String())
	})

	t.Run("empty request rejected", func(t *testing.T) {
		_, err := svc.InitializeLines(context.Background(), InitializeStockRequest{StoreID: storeID, ActorID: actorID})
		require.Error(t, err)
	})
}

func TestStockService_Valuate(t *testing.T) {
	env := newTestEnv(t)
	svc := NewStockService(env.scope)
	storeID := uuid.New()
	seedStockLine(t, env, storeID, "10", "2.00")
	seedStockLine(t, env, storeID, "4", "5.00")
	seedStockLine(t, env, uuid.New(), "99", "9.99") // other store

	valuation, err := svc.Valuate(context.Background(), storeID)
	require.NoError(t, err)
	assert.Equal(t, 2, valuation.LineCount)
	assert.Equal(t, d("14").String(), valuation.TotalQuantity.String())
	assert.Equal(t, d("40").String(), valuation.TotalValue.String())
}

func TestStockService_ListLowStock(t *testing.T) {
	env := newTestEnv(t)
	svc := NewStockService(env.scope)
	storeID := uuid.New()

	low := seedStockLine(t, env, storeID, "2", "1.00")
	require.NoError(t, low.SetStockLevels(d("5"), nil))
	low.IncrementVersion()
	require.NoError(t, env.stockLines.SaveWithVersion(context.Background(), low))

	healthy := seedStockLine(t, env, storeID, "100", "1.00")
	require.NoError(t, healthy.SetStockLevels(d("5"), nil))
	healthy.IncrementVersion()
	require.NoError(t, env.stockLines.SaveWithVersion(context.Background(), healthy))

	lines, err := svc.ListLowStock(context.Background(), storeID, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, low.ID, lines[0].ID)
	assert.True(t, lines[0].LowStock)
}
