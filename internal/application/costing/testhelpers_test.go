package costing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	appinventory "github.com/kardexhq/backend/internal/application/inventory"
	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared/valueobject"
	"github.com/kardexhq/backend/internal/infrastructure/persistence/memory"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type testEnv struct {
	scope      *appinventory.NoOpTransactionScope
	stockLines *memory.StockLineRepository
	recipes    *memory.RecipeRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		stockLines: memory.NewStockLineRepository(),
		recipes:    memory.NewRecipeRepository(),
	}
	env.scope = appinventory.NewNoOpTransactionScope(
		env.stockLines, nil, nil,
		nil, nil,
		nil, nil,
		nil, nil,
	)
	return env
}

// seedStockLine creates a stock line for ref holding qty units received
// at cost. Cost rollups read the ref's line in the given store.
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
