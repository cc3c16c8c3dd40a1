package event

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared/valueobject"
)

func newLowStockLine(t *testing.T) *inventory.StockLine {
	t.Helper()
	line, err := inventory.NewStockLine(uuid.New(), inventory.MustProductRef(uuid.New()))
	require.NoError(t, err)
	require.NoError(t, line.Receive(decimal.NewFromInt(3), valueobject.NewMoneyHNL(decimal.NewFromInt(10))))
	line.MinStockLevel = decimal.NewFromInt(5)
	return line
}

func TestLowStockAlertHandler_Handle(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	handler := NewLowStockAlertHandler(zap.New(core))

	line := newLowStockLine(t)
	event := inventory.NewStockLowEvent(line)

	require.NoError(t, handler.Handle(context.Background(), event))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "stock below minimum level", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, line.ID.String(), fields["stock_line_id"])
	assert.Equal(t, "3", fields["available"])
	assert.Equal(t, "5", fields["min_stock_level"])
}

func TestLowStockAlertHandler_EventTypes(t *testing.T) {
	handler := NewLowStockAlertHandler(zap.NewNop())
	assert.Equal(t, []string{inventory.EventTypeStockLow}, handler.EventTypes())
}

func TestLowStockAlertHandler_IgnoresOtherEvents(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	handler := NewLowStockAlertHandler(zap.New(core))

	line := newLowStockLine(t)
	other := inventory.NewStockReceivedEvent(line, decimal.NewFromInt(1), decimal.NewFromInt(10))

	require.NoError(t, handler.Handle(context.Background(), other))
	assert.Empty(t, logs.All())
}

func TestLowStockAlertHandler_SubscribedThroughBus(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	handler := NewLowStockAlertHandler(zap.New(core))

	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(handler)

	line := newLowStockLine(t)
	require.NoError(t, bus.Publish(context.Background(), inventory.NewStockLowEvent(line)))

	assert.Len(t, logs.All(), 1)
}
