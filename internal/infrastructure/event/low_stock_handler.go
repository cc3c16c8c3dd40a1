package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared"
)

// LowStockAlertHandler logs a warning whenever available stock falls to or
// below the minimum stock level. It is the default sink for StockLow
// events; richer alerting channels can subscribe alongside it.
type LowStockAlertHandler struct {
	logger *zap.Logger
}

// NewLowStockAlertHandler creates a new low stock alert handler
func NewLowStockAlertHandler(logger *zap.Logger) *LowStockAlertHandler {
	return &LowStockAlertHandler{logger: logger}
}

// EventTypes returns the event types this handler subscribes to
func (h *LowStockAlertHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockLow}
}

// Handle logs the low stock condition
func (h *LowStockAlertHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	lowStock, ok := event.(*inventory.StockLowEvent)
	if !ok {
		// Not ours; the bus filters by type so this should not happen
		return nil
	}

	h.logger.Warn("stock below minimum level",
		zap.String("stock_line_id", lowStock.StockLineID.String()),
		zap.String("store_id", lowStock.StoreID.String()),
		zap.String("product_ref", lowStock.ProductRef.String()),
		zap.String("available", lowStock.Available.String()),
		zap.String("min_stock_level", lowStock.MinStockLevel.String()),
	)

	return nil
}

var _ shared.EventHandler = (*LowStockAlertHandler)(nil)
