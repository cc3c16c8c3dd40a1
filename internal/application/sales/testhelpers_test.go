package sales

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	appinventory "github.com/kardexhq/backend/internal/application/inventory"
	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared"
	"github.com/kardexhq/backend/internal/domain/shared/valueobject"
	"github.com/kardexhq/backend/internal/infrastructure/persistence/memory"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type testEnv struct {
	scope        *appinventory.NoOpTransactionScope
	stockLines   *memory.StockLineRepository
	movements    *memory.MovementRepository
	reservations *memory.ReservationRepository
	sales        *memory.SaleRepository
	creditNotes  *memory.CreditNoteRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		stockLines:   memory.NewStockLineRepository(),
		movements:    memory.NewMovementRepository(),
		reservations: memory.NewReservationRepository(),
		sales:        memory.NewSaleRepository(),
		creditNotes:  memory.NewCreditNoteRepository(),
	}
	env.scope = appinventory.NewNoOpTransactionScope(
		env.stockLines, env.movements, env.reservations,
		nil, nil,
		env.sales, env.creditNotes,
		nil, nil,
	)
	return env
}

// seedStockLine creates a stock line holding qty units received at cost
func seedStockLine(t *testing.T, env *testEnv, storeID uuid.UUID, qty, cost string) *inventory.StockLine {
	t.Helper()
	line, err := inventory.NewStockLine(storeID, inventory.MustProductRef(uuid.New()))
	require.NoError(t, err)
	if d(qty).IsPositive() {
		require.NoError(t, line.Receive(d(qty), valueobject.NewMoneyHNL(d(cost))))
	}
	line.ClearDomainEvents()
	require.NoError(t, env.stockLines.Create(context.Background(), line))
	return line
}

// appinvReservationService builds a reservation service over the same
// repositories, standing in for the background sweeper.
func appinvReservationService(env *testEnv) *appinventory.ReservationService {
	return appinventory.NewReservationService(env.scope)
}

// fakeSequencer hands out per-document-type running numbers
type fakeSequencer struct {
	mu   sync.Mutex
	next map[string]int
}

func newFakeSequencer() *fakeSequencer {
	return &fakeSequencer{next: make(map[string]int)}
}

func (s *fakeSequencer) Next(_ context.Context, _ uuid.UUID, docType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next[docType]++
	return fmt.Sprintf("%s-%06d", docType, s.next[docType]), nil
}

var _ shared.DocumentNumberSequencer = (*fakeSequencer)(nil)
