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

func TestTransferService_ShipAndReceive(t *testing.T) {
	env := newTestEnv(t)
	svc := NewTransferService(env.scope, newFakeSequencer())
	actorID := uuid.New()
	fromStore := uuid.New()
	toStore := uuid.New()
	source := seedStockLine(t, env, fromStore, "50", "4.00")

	transfer, err := svc.Create(context.Background(), CreateTransferRequest{
		FromStoreID: fromStore,
		ToStoreID:   toStore,
		ActorID:     actorID,
		Lines: []TransferLineRequest{
			{ProductRef: source.ProductRef, Quantity: d("20")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "TRF-000001", transfer.DocumentNumber)

	t.Run("shipping a draft rejected", func(t *testing.T) {
		_, err := svc.Ship(context.Background(), transfer.ID, actorID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
	})

	transfer, err = svc.Submit(context.Background(), transfer.ID, actorID)
	require.NoError(t, err)
	assert.Equal(t, inventory.TransferStatusPending, transfer.Status)

	transfer, err = svc.Ship(context.Background(), transfer.ID, actorID)
	require.NoError(t, err)
	assert.Equal(t, inventory.TransferStatusInTransit, transfer.Status)

	t.Run("source deducted at its average cost", func(t *testing.T) {
		reloaded, err := env.stockLines.FindByID(context.Background(), source.ID)
		require.NoError(t, err)
		assert.Equal(t, d("30").String(), reloaded.Quantity.String())

		item := transfer.Items[0]
		assert.Equal(t, d("20").String(), item.QuantityShipped.String())
		assert.Equal(t, d("4").String(), item.UnitCost.String())
	})

	// 18 of the 20 shipped units arrive; the shortfall is recorded, not
	// rejected
	transfer, err = svc.Receive(context.Background(), transfer.ID, actorID, []ReceiveTransferLineRequest{
		{LineID: transfer.Items[0].ID, Quantity: d("18")},
	})
	require.NoError(t, err)
	assert.Equal(t, inventory.TransferStatusCompleted, transfer.Status)
	assert.Equal(t, d("2").String(), transfer.TotalDiscrepancy().String())

	t.Run("destination line created and credited at the shipped cost", func(t *testing.T) {
		dest, err := env.stockLines.FindByStoreAndRef(context.Background(), toStore, source.ProductRef)
		require.NoError(t, err)
		assert.Equal(t, d("18").String(), dest.Quantity.String())
		assert.Equal(t, d("4").String(), dest.AverageUnitCost.String())
	})

	t.Run("both sides of the move are in the ledger", func(t *testing.T) {
		movements, err := env.movements.FindByReference(context.Background(), inventory.ReferenceTypeTransfer, transfer.ID)
		require.NoError(t, err)
		require.Len(t, movements, 2)
		assert.Equal(t, inventory.MovementKindTransferOut, movements[0].Kind)
		assert.Equal(t, d("-20").String(), movements[0].Quantity.String())
		assert.Equal(t, inventory.MovementKindTransferIn, movements[1].Kind)
		assert.Equal(t, d("18").String(), movements[1].Quantity.String())
	})

	t.Run("receiving twice rejected", func(t *testing.T) {
		_, err := svc.Receive(context.Background(), transfer.ID, actorID, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
	})
}

func TestTransferService_ReceiveDefaultsToShippedQuantity(t *testing.T) {
	env := newTestEnv(t)
	svc := NewTransferService(env.scope, newFakeSequencer())
	actorID := uuid.New()
	fromStore := uuid.New()
	toStore := uuid.New()
	source := seedStockLine(t, env, fromStore, "10", "1.50")

	transfer, err := svc.Create(context.Background(), CreateTransferRequest{
		FromStoreID: fromStore,
		ToStoreID:   toStore,
		ActorID:     actorID,
		Lines: []TransferLineRequest{
			{ProductRef: source.ProductRef, Quantity: d("10")},
		},
	})
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), transfer.ID, actorID)
	require.NoError(t, err)
	_, err = svc.Ship(context.Background(), transfer.ID, actorID)
	require.NoError(t, err)

	transfer, err = svc.Receive(context.Background(), transfer.ID, actorID, nil)
	require.NoError(t, err)
	assert.True(t, transfer.TotalDiscrepancy().IsZero())

	dest, err := env.stockLines.FindByStoreAndRef(context.Background(), toStore, source.ProductRef)
	require.NoError(t, err)
	assert.Equal(t, d("10").String(), dest.Quantity.String())
}

func TestTransferService_ShipWithoutStockFails(t *testing.T) {
	env := newTestEnv(t)
	svc := NewTransferService(env.scope, newFakeSequencer())
	actorID := uuid.New()
	fromStore := uuid.New()
	source := seedStockLine(t, env, fromStore, "5", "1.00")

	transfer, err := svc.Create(context.Background(), CreateTransferRequest{
		FromStoreID: fromStore,
		ToStoreID:   uuid.New(),
		ActorID:     actorID,
		Lines: []TransferLineRequest{
			{ProductRef: source.ProductRef, Quantity: d("8")},
		},
	})
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), transfer.ID, actorID)
	require.NoError(t, err)

	_, err = svc.Ship(context.Background(), transfer.ID, actorID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
}

func TestTransferService_CancelBeforeShipping(t *testing.T) {
	env := newTestEnv(t)
	svc := NewTransferService(env.scope, newFakeSequencer())
	actorID := uuid.New()
	fromStore := uuid.New()
	source := seedStockLine(t, env, fromStore, "10", "1.00")

	transfer, err := svc.Create(context.Background(), CreateTransferRequest{
		FromStoreID: fromStore,
		ToStoreID:   uuid.New(),
		ActorID:     actorID,
		Lines: []TransferLineRequest{
			{ProductRef: source.ProductRef, Quantity: d("10")},
		},
	})
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), transfer.ID, actorID)
	require.NoError(t, err)

	transfer, err = svc.Cancel(context.Background(), transfer.ID, actorID, "truck broke down")
	require.NoError(t, err)
	assert.Equal(t, inventory.TransferStatusCancelled, transfer.Status)

	// nothing ever left the source
	reloaded, err := env.stockLines.FindByID(context.Background(), source.ID)
	require.NoError(t, err)
	assert.Equal(t, d("10").String(), reloaded.Quantity.String())
}
