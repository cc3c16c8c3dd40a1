package sales

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createTestSale(t *testing.T) *Sale {
	t.Helper()
	sale, err := NewSale(uuid.New(), uuid.New())
	require.NoError(t, err)
	return sale
}

func addTestLine(t *testing.T, sale *Sale, qty, price string) *SaleLine {
	t.Helper()
	line, err := sale.AddLine(uuid.New(), inventory.MustProductRef(uuid.New()), d(qty), d(price), d("0"), d("0"))
	require.NoError(t, err)
	return line
}

func TestNewSale(t *testing.T) {
	sale := createTestSale(t)

	assert.Equal(t, SaleStatusDraft, sale.Status)
	assert.Equal(t, 1, sale.Version)
	assert.True(t, sale.Total.IsZero())
}

func TestSale_Totals(t *testing.T) {
	t.Run("header totals reconcile with lines", func(t *testing.T) {
		sale := createTestSale(t)

		_, err := sale.AddLine(uuid.New(), inventory.MustProductRef(uuid.New()), d("2"), d("10.00"), d("1.00"), d("2.85"))
		require.NoError(t, err)
		_, err = sale.AddLine(uuid.New(), inventory.MustVariantRef(uuid.New()), d("1"), d("5.00"), d("0"), d("0.75"))
		require.NoError(t, err)

		assert.True(t, sale.Subtotal.Equal(d("25")))
		assert.True(t, sale.DiscountTotal.Equal(d("1")))
		assert.True(t, sale.TaxTotal.Equal(d("3.60")))
		assert.True(t, sale.Total.Equal(d("27.60")))

		lineSum := decimal.Zero
		for _, item := range sale.Items {
			lineSum = lineSum.Add(item.LineTotal)
		}
		assert.True(t, sale.Total.Equal(lineSum))
	})

	t.Run("removing a line recomputes totals", func(t *testing.T) {
		sale := createTestSale(t)
		line := addTestLine(t, sale, "2", "10.00")
		addTestLine(t, sale, "1", "5.00")

		require.NoError(t, sale.RemoveLine(line.ID))

		assert.True(t, sale.Total.Equal(d("5")))
	})

	t.Run("discount cannot exceed line amount", func(t *testing.T) {
		sale := createTestSale(t)
		_, err := sale.AddLine(uuid.New(), inventory.MustProductRef(uuid.New()), d("1"), d("5.00"), d("6.00"), d("0"))
		assert.ErrorIs(t, err, shared.ErrConstraintViolation)
	})
}

func TestSale_Complete(t *testing.T) {
	actor := uuid.New()

	t.Run("draft with lines completes", func(t *testing.T) {
		sale := createTestSale(t)
		addTestLine(t, sale, "1", "10.00")

		err := sale.Complete(actor)

		require.NoError(t, err)
		assert.Equal(t, SaleStatusCompleted, sale.Status)
		require.NotNil(t, sale.CompletedBy)
		assert.Equal(t, actor, *sale.CompletedBy)
		assert.Equal(t, 2, sale.Version)

		events := sale.GetDomainEvents()
		require.Len(t, events, 1)
		assert.IsType(t, &SaleCompletedEvent{}, events[0])
	})

	t.Run("empty draft cannot complete", func(t *testing.T) {
		sale := createTestSale(t)
		assert.ErrorIs(t, sale.Complete(actor), shared.ErrConstraintViolation)
	})

	t.Run("completed sale cannot complete again", func(t *testing.T) {
		sale := createTestSale(t)
		addTestLine(t, sale, "1", "10.00")
		require.NoError(t, sale.Complete(actor))

		assert.ErrorIs(t, sale.Complete(actor), shared.ErrInvalidTransition)
	})

	t.Run("completed sale rejects edits", func(t *testing.T) {
		sale := createTestSale(t)
		line := addTestLine(t, sale, "1", "10.00")
		require.NoError(t, sale.Complete(actor))

		_, err := sale.AddLine(uuid.New(), inventory.MustProductRef(uuid.New()), d("1"), d("1"), d("0"), d("0"))
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.ErrorIs(t, sale.RemoveLine(line.ID), shared.ErrInvalidState)
	})
}

func TestSale_Void(t *testing.T) {
	actor := uuid.New()

	t.Run("draft voids with a reason", func(t *testing.T) {
		sale := createTestSale(t)
		addTestLine(t, sale, "1", "10.00")

		require.NoError(t, sale.Void(actor, "customer walked away"))
		assert.Equal(t, SaleStatusVoided, sale.Status)
		assert.True(t, SaleMachine().IsTerminal(sale.Status))
	})

	t.Run("completed sale cannot void", func(t *testing.T) {
		sale := createTestSale(t)
		addTestLine(t, sale, "1", "10.00")
		require.NoError(t, sale.Complete(actor))

		assert.ErrorIs(t, sale.Void(actor, "too late"), shared.ErrInvalidTransition)
	})

	t.Run("void requires a reason", func(t *testing.T) {
		sale := createTestSale(t)
		assert.ErrorIs(t, sale.Void(actor, ""), shared.ErrConstraintViolation)
	})
}

func TestSale_MarkReturned(t *testing.T) {
	actor := uuid.New()
	sale := createTestSale(t)
	addTestLine(t, sale, "1", "10.00")

	t.Run("only completed sales return", func(t *testing.T) {
		assert.ErrorIs(t, sale.MarkReturned(actor), shared.ErrInvalidTransition)
	})

	t.Run("completed sale returns", func(t *testing.T) {
		require.NoError(t, sale.Complete(actor))
		require.NoError(t, sale.MarkReturned(actor))
		assert.Equal(t, SaleStatusReturned, sale.Status)
	})
}
