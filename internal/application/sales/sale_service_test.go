package sales

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/sales"
	"github.com/kardexhq/backend/internal/domain/shared"
)

func TestSaleService_Create(t *testing.T) {
	env := newTestEnv(t)
	svc := NewSaleService(env.scope, newFakeSequencer())
	customerID := uuid.New()

	sale, err := svc.Create(context.Background(), CreateSaleRequest{
		StoreID:    uuid.New(),
		CustomerID: &customerID,
		ActorID:    uuid.New(),
		Notes:      "walk-in",
	})
	require.NoError(t, err)
	assert.Equal(t, sales.SaleStatusDraft, sale.Status)
	assert.Equal(t, "SALE-000001", sale.DocumentNumber)
	require.NotNil(t, sale.CustomerID)
	assert.Equal(t, customerID, *sale.CustomerID)
}

func TestSaleService_AddLine(t *testing.T) {
	env := newTestEnv(t)
	svc := NewSaleService(env.scope, newFakeSequencer())
	actorID := uuid.New()
	storeID := uuid.New()
	line := seedStockLine(t, env, storeID, "10", "3.00")

	sale, err := svc.Create(context.Background(), CreateSaleRequest{StoreID: storeID, ActorID: actorID})
	require.NoError(t, err)

	sale, err = svc.AddLine(context.Background(), sale.ID, SaleLineRequest{
		Ref:       line.ProductRef,
		Quantity:  d("4"),
		UnitPrice: d("7.50"),
		TTL:       time.Hour,
	})
	require.NoError(t, err)
	require.Len(t, sale.Items, 1)
	assert.Equal(t, d("30").String(), sale.Total.String())

	t.Run("line carries a live hold", func(t *testing.T) {
		require.NotNil(t, sale.Items[0].ReservationID)
		hold, err := env.reservations.FindByID(context.Background(), *sale.Items[0].ReservationID)
		require.NoError(t, err)
		assert.Equal(t, inventory.ReservationStatusPending, hold.Status)
		assert.Equal(t, d("4").String(), hold.Quantity.String())

		reloaded, err := env.stockLines.FindByID(context.Background(), line.ID)
		require.NoError(t, err)
		assert.Equal(t, d("4").String(), reloaded.ReservedQuantity.String())
		assert.Equal(t, d("10").String(), reloaded.Quantity.String())
	})

	t.Run("unknown product rejected", func(t *testing.T) {
		_, err := svc.AddLine(context.Background(), sale.ID, SaleLineRequest{
			Ref:       inventory.MustProductRef(uuid.New()),
			Quantity:  d("1"),
			UnitPrice: d("1"),
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
	})

	t.Run("over-reserving rejected", func(t *testing.T) {
		_, err := svc.AddLine(context.Background(), sale.ID, SaleLineRequest{
			Ref:       line.ProductRef,
			Quantity:  d("7"),
			UnitPrice: d("1"),
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInsufficientAvailable))
	})
}

func TestSaleService_RemoveLine(t *testing.T) {
	env := newTestEnv(t)
	svc := NewSaleService(env.scope, newFakeSequencer())
	actorID := uuid.New()
	storeID := uuid.New()
	line := seedStockLine(t, env, storeID, "10", "3.00")

	sale, err := svc.Create(context.Background(), CreateSaleRequest{StoreID: storeID, ActorID: actorID})
	require.NoError(t, err)
	sale, err = svc.AddLine(context.Background(), sale.ID, SaleLineRequest{
		Ref: line.ProductRef, Quantity: d("4"), UnitPrice: d("2"), TTL: time.Hour,
	})
	require.NoError(t, err)

	sale, err = svc.RemoveLine(context.Background(), sale.ID, sale.Items[0].ID, actorID)
	require.NoError(t, err)
	assert.Empty(t, sale.Items)
	assert.True(t, sale.Total.IsZero())

	// the hold is gone and the quantity is back on the shelf
	reloaded, err := env.stockLines.FindByID(context.Background(), line.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.ReservedQuantity.IsZero())
	assert.Equal(t, d("10").String(), reloaded.Available().String())
}

func TestSaleService_Complete(t *testing.T) {
	env := newTestEnv(t)
	svc := NewSaleService(env.scope, newFakeSequencer())
	actorID := uuid.New()
	storeID := uuid.New()
	line := seedStockLine(t, env, storeID, "10", "3.00")

	sale, err := svc.Create(context.Background(), CreateSaleRequest{StoreID: storeID, ActorID: actorID})
	require.NoError(t, err)
	sale, err = svc.AddLine(context.Background(), sale.ID, SaleLineRequest{
		Ref: line.ProductRef, Quantity: d("4"), UnitPrice: d("7.50"), TTL: time.Hour,
	})
	require.NoError(t, err)

	sale, err = svc.Complete(context.Background(), sale.ID, actorID)
	require.NoError(t, err)
	assert.Equal(t, sales.SaleStatusCompleted, sale.Status)

	t.Run("held stock consumed", func(t *testing.T) {
		reloaded, err := env.stockLines.FindByID(context.Background(), line.ID)
		require.NoError(t, err)
		assert.Equal(t, d("6").String(), reloaded.Quantity.String())
		assert.True(t, reloaded.ReservedQuantity.IsZero())
	})

	t.Run("hold confirmed", func(t *testing.T) {
		hold, err := env.reservations.FindByID(context.Background(), *sale.Items[0].ReservationID)
		require.NoError(t, err)
		assert.Equal(t, inventory.ReservationStatusConfirmed, hold.Status)
	})

	t.Run("out movement at the average cost", func(t *testing.T) {
		movements, err := env.movements.FindByReference(context.Background(), inventory.ReferenceTypeSale, sale.ID)
		require.NoError(t, err)
		require.Len(t, movements, 1)
		m := movements[0]
		assert.Equal(t, inventory.MovementKindOut, m.Kind)
		assert.Equal(t, d("-4").String(), m.Quantity.String())
		assert.Equal(t, d("10").String(), m.BalanceBefore.String())
		assert.Equal(t, d("6").String(), m.BalanceAfter.String())
		require.NotNil(t, m.UnitCost)
		assert.Equal(t, d("3").String(), m.UnitCost.String())
	})

	t.Run("completing twice rejected", func(t *testing.T) {
		_, err := svc.Complete(context.Background(), sale.ID, actorID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
	})
}

func TestSaleService_CompleteWithExpiredHoldFails(t *testing.T) {
	env := newTestEnv(t)
	svc := NewSaleService(env.scope, newFakeSequencer())
	actorID := uuid.New()
	storeID := uuid.New()
	line := seedStockLine(t, env, storeID, "10", "3.00")

	sale, err := svc.Create(context.Background(), CreateSaleRequest{StoreID: storeID, ActorID: actorID})
	require.NoError(t, err)
	sale, err = svc.AddLine(context.Background(), sale.ID, SaleLineRequest{
		Ref: line.ProductRef, Quantity: d("4"), UnitPrice: d("1"), TTL: time.Millisecond,
	})
	require.NoError(t, err)

	// let the hold lapse; confirming it must fail the completion
	time.Sleep(5 * time.Millisecond)
	_, err = svc.Complete(context.Background(), sale.ID, actorID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))

	reloaded, err := env.sales.FindByID(context.Background(), sale.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.SaleStatusDraft, reloaded.Status)
}

func TestSaleService_Void(t *testing.T) {
	env := newTestEnv(t)
	svc := NewSaleService(env.scope, newFakeSequencer())
	actorID := uuid.New()
	storeID := uuid.New()
	line := seedStockLine(t, env, storeID, "10", "3.00")

	sale, err := svc.Create(context.Background(), CreateSaleRequest{StoreID: storeID, ActorID: actorID})
	require.NoError(t, err)
	sale, err = svc.AddLine(context.Background(), sale.ID, SaleLineRequest{
		Ref: line.ProductRef, Quantity: d("4"), UnitPrice: d("1"), TTL: time.Hour,
	})
	require.NoError(t, err)

	sale, err = svc.Void(context.Background(), sale.ID, actorID, "customer walked out")
	require.NoError(t, err)
	assert.Equal(t, sales.SaleStatusVoided, sale.Status)
	assert.Equal(t, "customer walked out", sale.VoidReason)

	// nothing was deducted; the hold's quantity is back
	reloaded, err := env.stockLines.FindByID(context.Background(), line.ID)
	require.NoError(t, err)
	assert.Equal(t, d("10").String(), reloaded.Quantity.String())
	assert.True(t, reloaded.ReservedQuantity.IsZero())

	hold, err := env.reservations.FindByID(context.Background(), *sale.Items[0].ReservationID)
	require.NoError(t, err)
	assert.Equal(t, inventory.ReservationStatusCancelled, hold.Status)
}

func TestSaleService_VoidSkipsSweptHolds(t *testing.T) {
	env := newTestEnv(t)
	svc := NewSaleService(env.scope, newFakeSequencer())
	reservationSvc := appinvReservationService(env)
	actorID := uuid.New()
	storeID := uuid.New()
	line := seedStockLine(t, env, storeID, "10", "3.00")

	sale, err := svc.Create(context.Background(), CreateSaleRequest{StoreID: storeID, ActorID: actorID})
	require.NoError(t, err)
	sale, err = svc.AddLine(context.Background(), sale.ID, SaleLineRequest{
		Ref: line.ProductRef, Quantity: d("4"), UnitPrice: d("1"), TTL: time.Minute,
	})
	require.NoError(t, err)

	// the sweeper beats the void to the hold
	swept, err := reservationSvc.SweepExpired(context.Background(), time.Now().Add(2*time.Minute))
	require.NoError(t, err)
	require.Equal(t, 1, swept)

	sale, err = svc.Void(context.Background(), sale.ID, actorID, "abandoned cart")
	require.NoError(t, err)
	assert.Equal(t, sales.SaleStatusVoided, sale.Status)

	// the sweep already released the quantity; voiding must not double it
	reloaded, err := env.stockLines.FindByID(context.Background(), line.ID)
	require.NoError(t, err)
	assert.Equal(t, d("10").String(), reloaded.Quantity.String())
	assert.True(t, reloaded.ReservedQuantity.IsZero())
}
