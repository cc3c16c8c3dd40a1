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

// completedSale drives a sale of qty units through to completed and
// returns it with the stock line it sold from.
func completedSale(t *testing.T, env *testEnv, svc *SaleService, qty string) (*sales.Sale, *inventory.StockLine) {
	t.Helper()
	storeID := uuid.New()
	actorID := uuid.New()
	line := seedStockLine(t, env, storeID, "20", "3.00")

	sale, err := svc.Create(context.Background(), CreateSaleRequest{StoreID: storeID, ActorID: actorID})
	require.NoError(t, err)
	sale, err = svc.AddLine(context.Background(), sale.ID, SaleLineRequest{
		Ref: line.ProductRef, Quantity: d(qty), UnitPrice: d("9.99"), TTL: time.Hour,
	})
	require.NoError(t, err)
	sale, err = svc.Complete(context.Background(), sale.ID, actorID)
	require.NoError(t, err)
	return sale, line
}

func TestCreditNoteService_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	seq := newFakeSequencer()
	saleSvc := NewSaleService(env.scope, seq)
	svc := NewCreditNoteService(env.scope, seq)
	actorID := uuid.New()

	sale, line := completedSale(t, env, saleSvc, "5")

	note, err := svc.Create(context.Background(), sale.ID, actorID, "wrong size")
	require.NoError(t, err)
	assert.Equal(t, sales.CreditNoteStatusDraft, note.Status)
	assert.Equal(t, "CN-000001", note.DocumentNumber)

	note, err = svc.AddLine(context.Background(), note.ID, CreditNoteLineRequest{
		SaleLineID: sale.Items[0].ID,
		Quantity:   d("2"),
		Restock:    true,
		Reason:     "unopened",
	})
	require.NoError(t, err)
	require.Len(t, note.Items, 1)

	t.Run("applying a draft rejected", func(t *testing.T) {
		_, err := svc.Apply(context.Background(), note.ID, actorID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
	})

	note, err = svc.Submit(context.Background(), note.ID, actorID)
	require.NoError(t, err)
	assert.Equal(t, sales.CreditNoteStatusPending, note.Status)

	note, err = svc.Approve(context.Background(), note.ID, actorID)
	require.NoError(t, err)
	assert.Equal(t, sales.CreditNoteStatusApproved, note.Status)

	note, err = svc.Apply(context.Background(), note.ID, actorID)
	require.NoError(t, err)
	assert.Equal(t, sales.CreditNoteStatusApplied, note.Status)

	t.Run("restocked at the undisturbed average", func(t *testing.T) {
		reloaded, err := env.stockLines.FindByID(context.Background(), line.ID)
		require.NoError(t, err)
		// 20 seeded - 5 sold + 2 returned
		assert.Equal(t, d("17").String(), reloaded.Quantity.String())
		assert.Equal(t, d("3").String(), reloaded.AverageUnitCost.String())
	})

	t.Run("sale marked returned", func(t *testing.T) {
		reloaded, err := env.sales.FindByID(context.Background(), sale.ID)
		require.NoError(t, err)
		assert.Equal(t, sales.SaleStatusReturned, reloaded.Status)
	})

	t.Run("in movement references the note", func(t *testing.T) {
		movements, err := env.movements.FindByReference(context.Background(), inventory.ReferenceTypeCreditNote, note.ID)
		require.NoError(t, err)
		require.Len(t, movements, 1)
		m := movements[0]
		assert.Equal(t, inventory.MovementKindIn, m.Kind)
		assert.Equal(t, d("2").String(), m.Quantity.String())
		assert.Equal(t, "unopened", m.Reason)
	})

	t.Run("applying twice rejected", func(t *testing.T) {
		_, err := svc.Apply(context.Background(), note.ID, actorID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
	})
}

func TestCreditNoteService_NoRestockLeavesStockAlone(t *testing.T) {
	env := newTestEnv(t)
	seq := newFakeSequencer()
	saleSvc := NewSaleService(env.scope, seq)
	svc := NewCreditNoteService(env.scope, seq)
	actorID := uuid.New()

	sale, line := completedSale(t, env, saleSvc, "5")

	note, err := svc.Create(context.Background(), sale.ID, actorID, "damaged in use")
	require.NoError(t, err)
	_, err = svc.AddLine(context.Background(), note.ID, CreditNoteLineRequest{
		SaleLineID: sale.Items[0].ID,
		Quantity:   d("5"),
		Restock:    false,
		Reason:     "not resellable",
	})
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), note.ID, actorID)
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), note.ID, actorID)
	require.NoError(t, err)
	_, err = svc.Apply(context.Background(), note.ID, actorID)
	require.NoError(t, err)

	reloaded, err := env.stockLines.FindByID(context.Background(), line.ID)
	require.NoError(t, err)
	assert.Equal(t, d("15").String(), reloaded.Quantity.String())

	movements, err := env.movements.FindByReference(context.Background(), inventory.ReferenceTypeCreditNote, note.ID)
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestCreditNoteService_RejectsDraftSale(t *testing.T) {
	env := newTestEnv(t)
	seq := newFakeSequencer()
	saleSvc := NewSaleService(env.scope, seq)
	svc := NewCreditNoteService(env.scope, seq)
	actorID := uuid.New()

	sale, err := saleSvc.Create(context.Background(), CreateSaleRequest{StoreID: uuid.New(), ActorID: actorID})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), sale.ID, actorID, "too early")
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

func TestCreditNoteService_Cancel(t *testing.T) {
	env := newTestEnv(t)
	seq := newFakeSequencer()
	saleSvc := NewSaleService(env.scope, seq)
	svc := NewCreditNoteService(env.scope, seq)
	actorID := uuid.New()

	sale, _ := completedSale(t, env, saleSvc, "3")
	note, err := svc.Create(context.Background(), sale.ID, actorID, "clerical error")
	require.NoError(t, err)

	note, err = svc.Cancel(context.Background(), note.ID, actorID, "raised twice")
	require.NoError(t, err)
	assert.Equal(t, sales.CreditNoteStatusCancelled, note.Status)

	t.Run("notes list against the sale", func(t *testing.T) {
		notes, err := svc.ListBySale(context.Background(), sale.ID)
		require.NoError(t, err)
		require.Len(t, notes, 1)
		assert.Equal(t, note.ID, notes[0].ID)
	})
}
