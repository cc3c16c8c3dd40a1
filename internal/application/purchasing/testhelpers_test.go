package purchasing

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
	scope          *appinventory.NoOpTransactionScope
	stockLines     *memory.StockLineRepository
	movements      *memory.MovementRepository
	purchaseOrders *memory.PurchaseOrderRepository
	goodsReceipts  *memory.GoodsReceiptRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		stockLines:     memory.NewStockLineRepository(),
		movements:      memory.NewMovementRepository(),
		purchaseOrders: memory.NewPurchaseOrderRepository(),
		goodsReceipts:  memory.NewGoodsReceiptRepository(),
	}
	env.scope = appinventory.NewNoOpTransactionScope(
		env.stockLines, env.movements, nil,
		nil, nil,
		nil, nil,
		env.purchaseOrders, env.goodsReceipts,
	)
	return env
}

// seedStockLine creates a stock line holding qty units received at cost
func seedStockLine(t *testing.T, env *testEnv, storeID uuid.UUID, ref inventory.ProductRef, qty, cost string) *inventory.StockLine {
	t.Helper()
	line, err := inventory.NewStockLine(storeID, ref)
	require.NoError(t, err)
	if d(qty).IsPositive() {
		require.NoError(t, line.Receive(d(qty), valueobject.NewMoneyHNL(d(cost))))
	}
	line.ClearDomainEvents()
	require.NoError(t, env.stockLines.Create(context.Background(), line))
	return line
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
