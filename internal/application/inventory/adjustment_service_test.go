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

func TestAdjustmentService_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	seq := newFakeSequencer()
	svc := NewAdjustmentService(env.scope, seq)
	actorID := uuid.New()
	storeID := uuid.New()
	line := seedStockLine(t, env, storeID, "20", "3.00")

	adj, err := svc.Create(context.Background(), CreateAdjustmentRequest{
		StoreID: storeID,
		ActorID: actorID,
		Reason:  "cycle count",
	})
	require.NoError(t, err)
	assert.Equal(t, inventory.AdjustmentStatusDraft, adj.Status)
	assert.Equal(t, "ADJ-000001", adj.DocumentNumber)

	adj, err = svc.AddLine(context.Background(), adj.ID, AdjustmentLineRequest{
		StockLineID: line.ID,
		Direction:   inventory.AdjustmentDecrease,
		Quantity:    d("5"),
		Reason:      "damaged in storage",
	})
	require.NoError(t, err)
	require.Len(t, adj.Items, 1)

	t.Run("apply before approval rejected", func(t *testing.T) {
		_, err := svc.Apply(context.Background(), adj.ID, actorID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
	})

	adj, err = svc.Submit(context.Background(), adj.ID, actorID)
	require.NoError(t, err)
	assert.Equal(t, inventory.AdjustmentStatusPendingApproval, adj.Status)

	adj, err = svc.Approve(context.Background(), adj.ID, actorID)
	require.NoError(t, err)
	assert.Equal(t, inventory.AdjustmentStatusApproved, adj.Status)

	adj, err = svc.Apply(context.Background(), adj.ID, actorID)
	require.NoError(t, err)
	assert.Equal(t, inventory.AdjustmentStatusApplied, adj.Status)

	t.Run("stock moved and balances captured", func(t *testing.T) {
		reloaded, err := env.stockLines.FindByID(context.Background(), line.ID)
		require.NoError(t, err)
		assert.Equal(t, d("15").String(), reloaded.Quantity.String())

		item := adj.Items[0]
		require.NotNil(t, item.BalanceBefore)
		require.NotNil(t, item.BalanceAfter)
		assert.Equal(t, d("20").String(), item.BalanceBefore.String())
		assert.Equal(t, d("15").String(), item.BalanceAfter.String())
	})

	t.Run("ledger documents the correction", func(t *testing.T) {
		movements, err := env.movements.FindByReference(context.Background(), inventory.ReferenceTypeAdjustment, adj.ID)
		require.NoError(t, err)
		require.Len(t, movements, 1)
		m := movements[0]
		assert.Equal(t, inventory.MovementKindAdjustment, m.Kind)
		assert.Equal(t, d("-5").String(), m.Quantity.String())
		assert.Equal(t, "damaged in storage", m.Reason)
		require.NotNil(t, m.UnitCost)
		assert.Equal(t, d("3").String(), m.UnitCost.String())
	})

	t.Run("applying twice rejected", func(t *testing.T) {
		_, err := svc.Apply(context.Background(), adj.ID, actorID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
	})
}

func TestAdjustmentService_IncreaseFoldsUnitCost(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAdjustmentService(env.scope, newFakeSequencer())
	actorID := uuid.New()
	storeID := uuid.New()
	line := seedStockLine(t, env, storeID, "10", "2.00")

	adj, err := svc.Create(context.Background(), CreateAdjustmentRequest{
		StoreID: storeID,
		ActorID: actorID,
		Reason:  "found stock",
		Lines: []AdjustmentLineRequest{
			{StockLineID: line.ID, Direction: inventory.AdjustmentIncrease, Quantity: d("10"), UnitCost: d("4.00")},
		},
	})
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), adj.ID, actorID)
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), adj.ID, actorID)
	require.NoError(t, err)
	_, err = svc.Apply(context.Background(), adj.ID, actorID)
	require.NoError(t, err)

	reloaded, err := env.stockLines.FindByID(context.Background(), line.ID)
	require.NoError(t, err)
	assert.Equal(t, d("20").String(), reloaded.Quantity.String())
	// (10*2 + 10*4) / 20
	assert.Equal(t, d("3").String(), reloaded.AverageUnitCost.String())
}

func TestAdjustmentService_ApplyBelowZeroFails(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAdjustmentService(env.scope, newFakeSequencer())
	actorID := uuid.New()
	storeID := uuid.New()
	line := seedStockLine(t, env, storeID, "3", "1.00")

	adj, err := svc.Create(context.Background(), CreateAdjustmentRequest{
		StoreID: storeID,
		ActorID: actorID,
		Reason:  "bad count",
		Lines: []AdjustmentLineRequest{
			{StockLineID: line.ID, Direction: inventory.AdjustmentDecrease, Quantity: d("5")},
		},
	})
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), adj.ID, actorID)
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), adj.ID, actorID)
	require.NoError(t, err)

	_, err = svc.Apply(context.Background(), adj.ID, actorID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInsufficientStock))

	// the failed apply left no trace on the line
	reloaded, err := env.stockLines.FindByID(context.Background(), line.ID)
	require.NoError(t, err)
	assert.Equal(t, d("3").String(), reloaded.Quantity.String())
	count, err := env.movements.CountByStockLine(context.Background(), line.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

type fakeAttachmentStore struct {
	objects map[string]bool
}

func (s *fakeAttachmentStore) Exists(_ context.Context, objectKey string) (bool, error) {
	return s.objects[objectKey], nil
}

func TestAdjustmentService_AttachDocument(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAdjustmentService(env.scope, newFakeSequencer())
	svc.SetAttachmentStore(&fakeAttachmentStore{objects: map[string]bool{"adjustments/photo.jpg": true}})
	actorID := uuid.New()

	adj, err := svc.Create(context.Background(), CreateAdjustmentRequest{
		StoreID: uuid.New(),
		ActorID: actorID,
		Reason:  "spoilage",
	})
	require.NoError(t, err)

	require.NoError(t, svc.AttachDocument(context.Background(), adj.ID, "adjustments/photo.jpg"))
	reloaded, err := svc.GetByID(context.Background(), adj.ID)
	require.NoError(t, err)
	assert.Contains(t, reloaded.Attachments, "adjustments/photo.jpg")

	t.Run("missing object rejected", func(t *testing.T) {
		err := svc.AttachDocument(context.Background(), adj.ID, "adjustments/nope.jpg")
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}
