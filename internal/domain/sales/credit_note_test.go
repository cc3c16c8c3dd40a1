package sales

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kardexhq/backend/internal/domain/shared"
)

func completedSale(t *testing.T) *Sale {
	t.Helper()
	sale := createTestSale(t)
	addTestLine(t, sale, "3", "10.00")
	require.NoError(t, sale.Complete(uuid.New()))
	return sale
}

func TestNewCreditNote(t *testing.T) {
	t.Run("raised against a completed sale", func(t *testing.T) {
		sale := completedSale(t)

		note, err := NewCreditNote(sale, uuid.New(), "damaged on delivery")

		require.NoError(t, err)
		assert.Equal(t, CreditNoteStatusDraft, note.Status)
		assert.Equal(t, sale.ID, note.SaleID)
		assert.Equal(t, sale.StoreID, note.StoreID)
	})

	t.Run("draft sales cannot be credited", func(t *testing.T) {
		sale := createTestSale(t)
		_, err := NewCreditNote(sale, uuid.New(), "nope")
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("reason is required", func(t *testing.T) {
		_, err := NewCreditNote(completedSale(t), uuid.New(), "")
		assert.ErrorIs(t, err, shared.ErrConstraintViolation)
	})
}

func TestCreditNote_AddLine(t *testing.T) {
	sale := completedSale(t)
	saleLine := sale.Items[0]
	note, err := NewCreditNote(sale, uuid.New(), "return")
	require.NoError(t, err)

	t.Run("partial credit keeps sale pricing", func(t *testing.T) {
		line, err := note.AddLine(saleLine, d("2"), true, "unopened")

		require.NoError(t, err)
		assert.True(t, line.Amount.Equal(d("20")))
		assert.Equal(t, saleLine.StockLineID, line.StockLineID)
		assert.True(t, note.Total.Equal(d("20")))
	})

	t.Run("cannot credit the same sale line twice", func(t *testing.T) {
		_, err := note.AddLine(saleLine, d("1"), false, "")
		assert.ErrorIs(t, err, shared.ErrConstraintViolation)
	})

	t.Run("cannot credit more than was sold", func(t *testing.T) {
		other := completedSale(t)
		n, err := NewCreditNote(other, uuid.New(), "return")
		require.NoError(t, err)

		_, err = n.AddLine(other.Items[0], d("4"), true, "")
		assert.ErrorIs(t, err, shared.ErrConstraintViolation)
	})

	t.Run("line from a different sale rejected", func(t *testing.T) {
		foreign := completedSale(t)
		_, err := note.AddLine(foreign.Items[0], d("1"), true, "")
		assert.ErrorIs(t, err, shared.ErrConstraintViolation)
	})
}

func TestCreditNote_Workflow(t *testing.T) {
	actor := uuid.New()

	newNote := func(t *testing.T) *CreditNote {
		sale := completedSale(t)
		note, err := NewCreditNote(sale, actor, "return")
		require.NoError(t, err)
		_, err = note.AddLine(sale.Items[0], d("1"), true, "")
		require.NoError(t, err)
		return note
	}

	t.Run("full path to applied", func(t *testing.T) {
		note := newNote(t)

		require.NoError(t, note.Submit(actor))
		assert.Equal(t, CreditNoteStatusPending, note.Status)

		require.NoError(t, note.Approve(actor))
		assert.Equal(t, CreditNoteStatusApproved, note.Status)

		require.NoError(t, note.MarkApplied(actor))
		assert.Equal(t, CreditNoteStatusApplied, note.Status)
		assert.Equal(t, 4, note.Version)

		events := note.GetDomainEvents()
		require.Len(t, events, 1)
		assert.IsType(t, &CreditNoteAppliedEvent{}, events[0])
	})

	t.Run("cannot apply before approval", func(t *testing.T) {
		note := newNote(t)
		require.NoError(t, note.Submit(actor))

		assert.ErrorIs(t, note.MarkApplied(actor), shared.ErrInvalidTransition)
	})

	t.Run("cancel possible until applied", func(t *testing.T) {
		note := newNote(t)
		require.NoError(t, note.Submit(actor))
		require.NoError(t, note.Approve(actor))

		require.NoError(t, note.Cancel(actor, "customer kept it"))
		assert.Equal(t, CreditNoteStatusCancelled, note.Status)

		assert.ErrorIs(t, note.MarkApplied(actor), shared.ErrInvalidTransition)
	})

	t.Run("empty note cannot submit", func(t *testing.T) {
		note, err := NewCreditNote(completedSale(t), actor, "return")
		require.NoError(t, err)
		assert.ErrorIs(t, note.Submit(actor), shared.ErrConstraintViolation)
	})
}

func TestCreditNote_RestockLines(t *testing.T) {
	sale := createTestSale(t)
	addTestLine(t, sale, "2", "10.00")
	addTestLine(t, sale, "1", "4.00")
	require.NoError(t, sale.Complete(uuid.New()))

	note, err := NewCreditNote(sale, uuid.New(), "return")
	require.NoError(t, err)
	_, err = note.AddLine(sale.Items[0], d("2"), true, "resellable")
	require.NoError(t, err)
	_, err = note.AddLine(sale.Items[1], d("1"), false, "damaged")
	require.NoError(t, err)

	restock := note.RestockLines()

	require.Len(t, restock, 1)
	assert.Equal(t, sale.Items[0].ID, restock[0].SaleLineID)
}
