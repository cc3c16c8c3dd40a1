package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kardexhq/backend/internal/domain/shared"
)

func createTestTransfer(t *testing.T) *StockTransfer {
	t.Helper()
	tr, err := NewStockTransfer(uuid.New(), uuid.New(), uuid.New())
	require.NoError(t, err)
	return tr
}

func TestNewStockTransfer(t *testing.T) {
	t.Run("creates draft transfer", func(t *testing.T) {
		tr := createTestTransfer(t)
		assert.Equal(t, TransferStatusDraft, tr.Status)
		assert.Equal(t, 1, tr.Version)
	})

	t.Run("source and destination must differ", func(t *testing.T) {
		storeID := uuid.New()
		_, err := NewStockTransfer(storeID, storeID, uuid.New())
		assert.ErrorIs(t, err, shared.ErrConstraintViolation)
	})
}

func TestStockTransfer_Lines(t *testing.T) {
	tr := createTestTransfer(t)
	ref := MustProductRef(uuid.New())

	line, err := tr.AddLine(ref, d("20"))
	require.NoError(t, err)
	assert.True(t, line.Quantity.Equal(d("20")))

	_, err = tr.AddLine(ref, d("5"))
	assert.ErrorIs(t, err, shared.ErrConstraintViolation, "duplicate product refs rejected")

	require.NoError(t, tr.RemoveLine(line.ID))
	assert.Empty(t, tr.Items)
}

func TestStockTransfer_ShipReceive(t *testing.T) {
	actor := uuid.New()

	newShippable := func(t *testing.T) (*StockTransfer, *TransferLine) {
		tr := createTestTransfer(t)
		line, err := tr.AddLine(MustProductRef(uuid.New()), d("20"))
		require.NoError(t, err)
		require.NoError(t, tr.Submit(actor))
		return tr, line
	}

	t.Run("ship requires recorded shipments", func(t *testing.T) {
		tr, _ := newShippable(t)

		err := tr.Ship(actor)

		assert.ErrorIs(t, err, shared.ErrConstraintViolation)
		assert.Equal(t, TransferStatusPending, tr.Status)
	})

	t.Run("shrinkage is recorded not rejected", func(t *testing.T) {
		tr, line := newShippable(t)
		sourceLineID := uuid.New()
		destLineID := uuid.New()

		require.NoError(t, tr.RecordShipment(line.ID, sourceLineID, d("20"), d("3.00")))
		require.NoError(t, tr.Ship(actor))
		assert.Equal(t, TransferStatusInTransit, tr.Status)

		require.NoError(t, tr.RecordReceipt(line.ID, destLineID, d("18")))
		require.NoError(t, tr.Receive(actor))

		assert.Equal(t, TransferStatusCompleted, tr.Status)
		assert.True(t, line.Discrepancy().Equal(d("2")))
		assert.True(t, tr.TotalDiscrepancy().Equal(d("2")))
	})

	t.Run("over-receipt is recorded as negative discrepancy", func(t *testing.T) {
		tr, line := newShippable(t)
		require.NoError(t, tr.RecordShipment(line.ID, uuid.New(), d("20"), d("3.00")))
		require.NoError(t, tr.Ship(actor))

		require.NoError(t, tr.RecordReceipt(line.ID, uuid.New(), d("21")))
		require.NoError(t, tr.Receive(actor))

		assert.True(t, tr.TotalDiscrepancy().Equal(d("-1")))
	})

	t.Run("receive requires recorded receipts", func(t *testing.T) {
		tr, line := newShippable(t)
		require.NoError(t, tr.RecordShipment(line.ID, uuid.New(), d("20"), d("3.00")))
		require.NoError(t, tr.Ship(actor))

		err := tr.Receive(actor)

		assert.ErrorIs(t, err, shared.ErrConstraintViolation)
		assert.Equal(t, TransferStatusInTransit, tr.Status)
	})

	t.Run("events mark both sides of the move", func(t *testing.T) {
		tr, line := newShippable(t)
		tr.ClearDomainEvents()
		require.NoError(t, tr.RecordShipment(line.ID, uuid.New(), d("20"), d("3.00")))
		require.NoError(t, tr.Ship(actor))
		require.NoError(t, tr.RecordReceipt(line.ID, uuid.New(), d("18")))
		require.NoError(t, tr.Receive(actor))

		events := tr.GetDomainEvents()
		require.Len(t, events, 2)
		assert.IsType(t, &TransferShippedEvent{}, events[0])
		received, ok := events[1].(*TransferReceivedEvent)
		require.True(t, ok)
		assert.True(t, received.Discrepancy.Equal(d("2")))
	})
}

func TestStockTransfer_Cancel(t *testing.T) {
	actor := uuid.New()

	t.Run("pending transfer cancels", func(t *testing.T) {
		tr := createTestTransfer(t)
		_, err := tr.AddLine(MustProductRef(uuid.New()), d("5"))
		require.NoError(t, err)
		require.NoError(t, tr.Submit(actor))

		require.NoError(t, tr.Cancel(actor, "not needed"))
		assert.Equal(t, TransferStatusCancelled, tr.Status)
	})

	t.Run("in-transit transfer cannot cancel", func(t *testing.T) {
		tr := createTestTransfer(t)
		line, err := tr.AddLine(MustProductRef(uuid.New()), d("5"))
		require.NoError(t, err)
		require.NoError(t, tr.Submit(actor))
		require.NoError(t, tr.RecordShipment(line.ID, uuid.New(), d("5"), d("1")))
		require.NoError(t, tr.Ship(actor))

		assert.ErrorIs(t, tr.Cancel(actor, "too late"), shared.ErrInvalidTransition)
	})

	t.Run("empty draft cannot submit", func(t *testing.T) {
		tr := createTestTransfer(t)
		assert.ErrorIs(t, tr.Submit(actor), shared.ErrConstraintViolation)
	})
}
