package purchasing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kardexhq/backend/internal/domain/shared"
)

func createTestReceipt(t *testing.T, order *PurchaseOrder) *GoodsReceipt {
	t.Helper()
	receipt, err := NewGoodsReceipt(order, uuid.New())
	require.NoError(t, err)
	return receipt
}

func TestNewGoodsReceipt(t *testing.T) {
	t.Run("against an approved order", func(t *testing.T) {
		order, _ := approvedTestOrder(t, "10")
		receipt := createTestReceipt(t, order)

		assert.Equal(t, GoodsReceiptStatusDraft, receipt.Status)
		assert.Equal(t, order.ID, receipt.PurchaseOrderID)
		assert.Equal(t, order.StoreID, receipt.StoreID)
	})

	t.Run("against a partially received order", func(t *testing.T) {
		order, lines := approvedTestOrder(t, "10")
		require.NoError(t, order.ApplyReceipt([]ReceiptQuantity{{OrderLineID: lines[0].ID, Quantity: d("4")}}))

		_, err := NewGoodsReceipt(order, uuid.New())
		assert.NoError(t, err)
	})

	t.Run("rejected for a draft order", func(t *testing.T) {
		order := createTestOrder(t)
		addTestOrderLine(t, order, "10", "1.00")

		_, err := NewGoodsReceipt(order, uuid.New())
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("rejected for a fully received order", func(t *testing.T) {
		order, lines := approvedTestOrder(t, "10")
		require.NoError(t, order.ApplyReceipt([]ReceiptQuantity{{OrderLineID: lines[0].ID, Quantity: d("10")}}))

		_, err := NewGoodsReceipt(order, uuid.New())
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestGoodsReceipt_AddLine(t *testing.T) {
	t.Run("defaults to the order line cost", func(t *testing.T) {
		order, lines := approvedTestOrder(t, "10")
		receipt := createTestReceipt(t, order)

		line, err := receipt.AddLine(lines[0], d("6"), nil)
		require.NoError(t, err)

		assert.True(t, line.UnitCost.Equal(d("4.00")))
		assert.True(t, line.ProductRef.Equals(lines[0].ProductRef))
	})

	t.Run("invoice cost overrides the order cost", func(t *testing.T) {
		order, lines := approvedTestOrder(t, "10")
		receipt := createTestReceipt(t, order)

		cost := d("4.35")
		line, err := receipt.AddLine(lines[0], d("6"), &cost)
		require.NoError(t, err)

		assert.True(t, line.UnitCost.Equal(cost))
	})

	t.Run("cannot exceed the outstanding quantity", func(t *testing.T) {
		order, lines := approvedTestOrder(t, "10")
		require.NoError(t, order.ApplyReceipt([]ReceiptQuantity{{OrderLineID: lines[0].ID, Quantity: d("7")}}))
		receipt := createTestReceipt(t, order)

		_, err := receipt.AddLine(lines[0], d("4"), nil)
		assert.ErrorIs(t, err, shared.ErrConstraintViolation)

		_, err = receipt.AddLine(lines[0], d("3"), nil)
		assert.NoError(t, err)
	})

	t.Run("rejects a foreign order line", func(t *testing.T) {
		order, _ := approvedTestOrder(t, "10")
		_, otherLines := approvedTestOrder(t, "5")
		receipt := createTestReceipt(t, order)

		_, err := receipt.AddLine(otherLines[0], d("1"), nil)
		assert.ErrorIs(t, err, shared.ErrConstraintViolation)
	})

	t.Run("rejects a duplicate order line", func(t *testing.T) {
		order, lines := approvedTestOrder(t, "10")
		receipt := createTestReceipt(t, order)

		_, err := receipt.AddLine(lines[0], d("2"), nil)
		require.NoError(t, err)

		_, err = receipt.AddLine(lines[0], d("2"), nil)
		assert.ErrorIs(t, err, shared.ErrConstraintViolation)
	})
}

func TestGoodsReceipt_Confirm(t *testing.T) {
	actor := uuid.New()

	t.Run("confirm then apply to the order", func(t *testing.T) {
		order, lines := approvedTestOrder(t, "10", "4")
		receipt := createTestReceipt(t, order)
		_, err := receipt.AddLine(lines[0], d("10"), nil)
		require.NoError(t, err)
		_, err = receipt.AddLine(lines[1], d("2"), nil)
		require.NoError(t, err)

		require.NoError(t, receipt.Confirm(actor))
		assert.Equal(t, GoodsReceiptStatusConfirmed, receipt.Status)
		assert.Equal(t, &actor, receipt.ConfirmedBy)
		assert.Len(t, receipt.GetDomainEvents(), 1)

		require.NoError(t, order.ApplyReceipt(receipt.ReceiptQuantities()))
		assert.Equal(t, PurchaseOrderStatusPartiallyReceived, order.Status)
		assert.True(t, lines[1].Outstanding().Equal(d("2")))
	})

	t.Run("cannot confirm an empty receipt", func(t *testing.T) {
		order, _ := approvedTestOrder(t, "10")
		receipt := createTestReceipt(t, order)

		assert.ErrorIs(t, receipt.Confirm(actor), shared.ErrConstraintViolation)
	})

	t.Run("cannot confirm twice", func(t *testing.T) {
		order, lines := approvedTestOrder(t, "10")
		receipt := createTestReceipt(t, order)
		_, err := receipt.AddLine(lines[0], d("1"), nil)
		require.NoError(t, err)
		require.NoError(t, receipt.Confirm(actor))

		assert.ErrorIs(t, receipt.Confirm(actor), shared.ErrInvalidTransition)
	})
}

func TestGoodsReceipt_Cancel(t *testing.T) {
	actor := uuid.New()

	t.Run("draft receipt can be cancelled", func(t *testing.T) {
		order, _ := approvedTestOrder(t, "10")
		receipt := createTestReceipt(t, order)

		require.NoError(t, receipt.Cancel(actor, "duplicate entry"))
		assert.Equal(t, GoodsReceiptStatusCancelled, receipt.Status)
		assert.Equal(t, "duplicate entry", receipt.CancelReason)
	})

	t.Run("requires a reason", func(t *testing.T) {
		order, _ := approvedTestOrder(t, "10")
		receipt := createTestReceipt(t, order)

		assert.ErrorIs(t, receipt.Cancel(actor, ""), shared.ErrConstraintViolation)
	})

	t.Run("confirmed receipt cannot be cancelled", func(t *testing.T) {
		order, lines := approvedTestOrder(t, "10")
		receipt := createTestReceipt(t, order)
		_, err := receipt.AddLine(lines[0], d("1"), nil)
		require.NoError(t, err)
		require.NoError(t, receipt.Confirm(actor))

		assert.ErrorIs(t, receipt.Cancel(actor, "changed my mind"), shared.ErrInvalidTransition)
	})
}

func TestGoodsReceiptLine_QuantityValidation(t *testing.T) {
	order, lines := approvedTestOrder(t, "10")
	receipt := createTestReceipt(t, order)

	_, err := receipt.AddLine(lines[0], decimal.Zero, nil)
	assert.ErrorIs(t, err, shared.ErrConstraintViolation)

	_, err = receipt.AddLine(lines[0], d("-1"), nil)
	assert.ErrorIs(t, err, shared.ErrConstraintViolation)
}
