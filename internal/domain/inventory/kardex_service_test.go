package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMovement(t *testing.T, stockLineID uuid.UUID, kind MovementKind, qty, before, after string) Movement {
	t.Helper()
	m, err := NewMovement(stockLineID, kind, d(qty), d(before), d(after), ReferenceTypeAdjustment, uuid.New(), uuid.New())
	require.NoError(t, err)
	return *m
}

func TestKardexService_Replay(t *testing.T) {
	svc := NewKardexService()

	t.Run("consistent history reproduces the quantity", func(t *testing.T) {
		line := createTestStockLine(t)
		require.NoError(t, line.AdjustQuantity(d("100")))
		require.NoError(t, line.AdjustQuantity(d("-30")))
		require.NoError(t, line.AdjustQuantity(d("5")))

		movements := []Movement{
			mustMovement(t, line.ID, MovementKindIn, "100", "0", "100"),
			mustMovement(t, line.ID, MovementKindOut, "-30", "100", "70"),
			mustMovement(t, line.ID, MovementKindAdjustment, "5", "70", "75"),
		}

		report, err := svc.Replay(line, movements)

		require.NoError(t, err)
		assert.True(t, report.Consistent)
		assert.True(t, report.ReplayedQuantity.Equal(d("75")))
		assert.Nil(t, report.BrokenAt)
	})

	t.Run("hold movements are skipped in the on-hand sum", func(t *testing.T) {
		line := createTestStockLine(t)
		require.NoError(t, line.AdjustQuantity(d("50")))

		movements := []Movement{
			mustMovement(t, line.ID, MovementKindIn, "50", "0", "50"),
			mustMovement(t, line.ID, MovementKindReservation, "-10", "50", "50"),
			mustMovement(t, line.ID, MovementKindRelease, "10", "50", "50"),
		}

		report, err := svc.Replay(line, movements)

		require.NoError(t, err)
		assert.True(t, report.Consistent)
	})

	t.Run("broken running balance is located", func(t *testing.T) {
		line := createTestStockLine(t)
		require.NoError(t, line.AdjustQuantity(d("60")))

		movements := []Movement{
			mustMovement(t, line.ID, MovementKindIn, "50", "0", "50"),
			mustMovement(t, line.ID, MovementKindIn, "10", "50", "61"),
		}

		report, err := svc.Replay(line, movements)

		require.NoError(t, err)
		assert.False(t, report.Consistent)
		require.NotNil(t, report.BrokenAt)
		assert.Equal(t, 1, *report.BrokenAt)
	})

	t.Run("drifted line quantity is inconsistent", func(t *testing.T) {
		line := createTestStockLine(t)
		require.NoError(t, line.AdjustQuantity(d("51")))

		movements := []Movement{
			mustMovement(t, line.ID, MovementKindIn, "50", "0", "50"),
		}

		report, err := svc.Replay(line, movements)

		require.NoError(t, err)
		assert.False(t, report.Consistent)
		assert.Nil(t, report.BrokenAt)
	})

	t.Run("foreign movement is rejected", func(t *testing.T) {
		line := createTestStockLine(t)
		movements := []Movement{
			mustMovement(t, uuid.New(), MovementKindIn, "50", "0", "50"),
		}

		_, err := svc.Replay(line, movements)

		assert.Error(t, err)
	})
}

func TestKardexService_Valuate(t *testing.T) {
	svc := NewKardexService()
	storeID := uuid.New()

	a := createTestStockLine(t)
	a.Quantity = d("10")
	a.AverageUnitCost = d("2.50")
	b := createTestStockLine(t)
	b.Quantity = d("4")
	b.AverageUnitCost = d("1.25")

	v := svc.Valuate(storeID.String(), []StockLine{*a, *b})

	assert.Equal(t, 2, v.LineCount)
	assert.True(t, v.TotalQuantity.Equal(d("14")))
	assert.True(t, v.TotalValue.Equal(d("30")), "10*2.50 + 4*1.25, got %s", v.TotalValue)
}

func TestKardexService_ValuateEmpty(t *testing.T) {
	v := NewKardexService().Valuate(uuid.NewString(), nil)
	assert.Equal(t, 0, v.LineCount)
	assert.True(t, v.TotalValue.Equal(decimal.Zero))
}
