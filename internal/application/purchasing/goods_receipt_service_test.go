package purchasing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/purchasing"
	"github.com/kardexhq/backend/internal/domain/shared"
)

// approvedOrder drives an order with one line of qty units at cost
// through to approved.
func approvedOrder(t *testing.T, svc *PurchaseOrderService, storeID uuid.UUID, ref inventory.ProductRef, qty, cost string) *purchasing.PurchaseOrder {
	t.Helper()
	actorID := uuid.New()
	order, err := svc.Create(context.Background(), CreatePurchaseOrderRequest{
		StoreID:  storeID,
		VendorID: uuid.New(),
		ActorID:  actorID,
	})
	require.NoError(t, err)
	_, err = svc.AddLine(context.Background(), order.ID, PurchaseOrderLineRequest{
		Ref:      ref,
		Quantity: d(qty),
		UnitCost: d(cost),
	})
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), order.ID, actorID)
	require.NoError(t, err)
	order, err = svc.Approve(context.Background(), order.ID, actorID)
	require.NoError(t, err)
	return order
}

func TestGoodsReceiptService_ConfirmFullDelivery(t *testing.T) {
	env := newTestEnv(t)
	orderSvc := NewPurchaseOrderService(env.scope, newFakeSequencer())
	svc := NewGoodsReceiptService(env.scope, newFakeSequencer())
	actorID := uuid.New()
	storeID := uuid.New()
	ref := inventory.MustProductRef(uuid.New())
	seedStockLine(t, env, storeID, ref, "10", "2.00")

	order := approvedOrder(t, orderSvc, storeID, ref, "10", "4.00")

	receipt, err := svc.Create(context.Background(), order.ID, actorID)
	require.NoError(t, err)
	assert.Equal(t, purchasing.GoodsReceiptStatusDraft, receipt.Status)
	assert.Equal(t, "GR-000001", receipt.DocumentNumber)

	receipt, err = svc.AddLine(context.Background(), receipt.ID, GoodsReceiptLineRequest{
		OrderLineID: order.Items[0].ID,
		Quantity:    d("10"),
	})
	require.NoError(t, err)

	receipt, err = svc.Confirm(context.Background(), receipt.ID, actorID)
	require.NoError(t, err)
	assert.Equal(t, purchasing.GoodsReceiptStatusConfirmed, receipt.Status)

	t.Run("order fully received", func(t *testing.T) {
		reloaded, err := orderSvc.GetByID(context.Background(), order.ID)
		require.NoError(t, err)
		assert.Equal(t, purchasing.PurchaseOrderStatusReceived, reloaded.Status)
		assert.Equal(t, d("10").String(), reloaded.Items[0].QuantityReceived.String())
	})

	t.Run("cost folded into the average", func(t *testing.T) {
		line, err := env.stockLines.FindByStoreAndRef(context.Background(), storeID, ref)
		require.NoError(t, err)
		assert.Equal(t, d("20").String(), line.Quantity.String())
		// (10*2 + 10*4) / 20
		assert.Equal(t, d("3").String(), line.AverageUnitCost.String())
	})

	t.Run("in movement references the receipt", func(t *testing.T) {
		movements, err := env.movements.FindByReference(context.Background(), inventory.ReferenceTypeGoodsReceipt, receipt.ID)
		require.NoError(t, err)
		require.Len(t, movements, 1)
		assert.Equal(t, inventory.MovementKindIn, movements[0].Kind)
		assert.Equal(t, d("10").String(), movements[0].Quantity.String())
		require.NotNil(t, movements[0].UnitCost)
		assert.Equal(t, d("4").String(), movements[0].UnitCost.String())
	})

	t.Run("fully received order can close", func(t *testing.T) {
		closed, err := orderSvc.Close(context.Background(), order.ID, actorID)
		require.NoError(t, err)
		assert.Equal(t, purchasing.PurchaseOrderStatusClosed, closed.Status)
	})
}

func TestGoodsReceiptService_PartialDeliveries(t *testing.T) {
	env := newTestEnv(t)
	orderSvc := NewPurchaseOrderService(env.scope, newFakeSequencer())
	svc := NewGoodsReceiptService(env.scope, newFakeSequencer())
	actorID := uuid.New()
	storeID := uuid.New()
	ref := inventory.MustProductRef(uuid.New())

	order := approvedOrder(t, orderSvc, storeID, ref, "10", "4.00")

	first, err := svc.Create(context.Background(), order.ID, actorID)
	require.NoError(t, err)
	_, err = svc.AddLine(context.Background(), first.ID, GoodsReceiptLineRequest{
		OrderLineID: order.Items[0].ID, Quantity: d("6"),
	})
	require.NoError(t, err)
	_, err = svc.Confirm(context.Background(), first.ID, actorID)
	require.NoError(t, err)

	reloaded, err := orderSvc.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, purchasing.PurchaseOrderStatusPartiallyReceived, reloaded.Status)

	t.Run("store never carried the product, line created on the spot", func(t *testing.T) {
		line, err := env.stockLines.FindByStoreAndRef(context.Background(), storeID, ref)
		require.NoError(t, err)
		assert.Equal(t, d("6").String(), line.Quantity.String())
		assert.Equal(t, d("4").String(), line.AverageUnitCost.String())
	})

	second, err := svc.Create(context.Background(), order.ID, actorID)
	require.NoError(t, err)
	invoiced := d("4.50")
	_, err = svc.AddLine(context.Background(), second.ID, GoodsReceiptLineRequest{
		OrderLineID: order.Items[0].ID, Quantity: d("4"), UnitCost: &invoiced,
	})
	require.NoError(t, err)
	_, err = svc.Confirm(context.Background(), second.ID, actorID)
	require.NoError(t, err)

	reloaded, err = orderSvc.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, purchasing.PurchaseOrderStatusReceived, reloaded.Status)

	t.Run("invoiced cost overrides the ordered one", func(t *testing.T) {
		line, err := env.stockLines.FindByStoreAndRef(context.Background(), storeID, ref)
		require.NoError(t, err)
		assert.Equal(t, d("10").String(), line.Quantity.String())
		// (6*4 + 4*4.5) / 10
		assert.Equal(t, d("4.2").String(), line.AverageUnitCost.String())
	})

	t.Run("receipts listed against the order", func(t *testing.T) {
		receipts, err := svc.ListByPurchaseOrder(context.Background(), order.ID)
		require.NoError(t, err)
		assert.Len(t, receipts, 2)
	})
}

func TestGoodsReceiptService_OverReceiptRejected(t *testing.T) {
	env := newTestEnv(t)
	orderSvc := NewPurchaseOrderService(env.scope, newFakeSequencer())
	svc := NewGoodsReceiptService(env.scope, newFakeSequencer())
	actorID := uuid.New()
	ref := inventory.MustProductRef(uuid.New())

	order := approvedOrder(t, orderSvc, uuid.New(), ref, "10", "4.00")
	receipt, err := svc.Create(context.Background(), order.ID, actorID)
	require.NoError(t, err)

	_, err = svc.AddLine(context.Background(), receipt.ID, GoodsReceiptLineRequest{
		OrderLineID: order.Items[0].ID, Quantity: d("11"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrConstraintViolation))
}

func TestGoodsReceiptService_CreateAgainstDraftOrderRejected(t *testing.T) {
	env := newTestEnv(t)
	orderSvc := NewPurchaseOrderService(env.scope, newFakeSequencer())
	svc := NewGoodsReceiptService(env.scope, newFakeSequencer())
	actorID := uuid.New()

	order, err := orderSvc.Create(context.Background(), CreatePurchaseOrderRequest{
		StoreID:  uuid.New(),
		VendorID: uuid.New(),
		ActorID:  actorID,
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), order.ID, actorID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

func TestGoodsReceiptService_Cancel(t *testing.T) {
	env := newTestEnv(t)
	orderSvc := NewPurchaseOrderService(env.scope, newFakeSequencer())
	svc := NewGoodsReceiptService(env.scope, newFakeSequencer())
	actorID := uuid.New()
	ref := inventory.MustProductRef(uuid.New())

	order := approvedOrder(t, orderSvc, uuid.New(), ref, "10", "4.00")
	receipt, err := svc.Create(context.Background(), order.ID, actorID)
	require.NoError(t, err)
	_, err = svc.AddLine(context.Background(), receipt.ID, GoodsReceiptLineRequest{
		OrderLineID: order.Items[0].ID, Quantity: d("10"),
	})
	require.NoError(t, err)

	receipt, err = svc.Cancel(context.Background(), receipt.ID, actorID, "wrong truck")
	require.NoError(t, err)
	assert.Equal(t, purchasing.GoodsReceiptStatusCancelled, receipt.Status)

	// nothing reached the ledger or the order
	reloaded, err := orderSvc.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, purchasing.PurchaseOrderStatusApproved, reloaded.Status)
	assert.True(t, reloaded.Items[0].QuantityReceived.IsZero())
}
