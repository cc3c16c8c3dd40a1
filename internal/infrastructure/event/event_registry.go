package event

import (
	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/purchasing"
	"github.com/kardexhq/backend/internal/domain/sales"
)

// RegisterAllEvents registers all domain event types with the serializer
// so persisted events can be deserialized back into their concrete types.
func RegisterAllEvents(serializer *EventSerializer) {
	// Inventory domain - stock line events
	serializer.Register(inventory.EventTypeStockReceived, &inventory.StockReceivedEvent{})
	serializer.Register(inventory.EventTypeStockDeducted, &inventory.StockDeductedEvent{})
	serializer.Register(inventory.EventTypeStockReserved, &inventory.StockReservedEvent{})
	serializer.Register(inventory.EventTypeStockReleased, &inventory.StockReleasedEvent{})
	serializer.Register(inventory.EventTypeStockLow, &inventory.StockLowEvent{})
	serializer.Register(inventory.EventTypeStockCostChanged, &inventory.StockCostChangedEvent{})

	// Inventory domain - reservation events
	serializer.Register(inventory.EventTypeReservationConfirmed, &inventory.ReservationConfirmedEvent{})
	serializer.Register(inventory.EventTypeReservationCancelled, &inventory.ReservationCancelledEvent{})
	serializer.Register(inventory.EventTypeReservationExpired, &inventory.ReservationExpiredEvent{})

	// Inventory domain - document events
	serializer.Register(inventory.EventTypeAdjustmentApplied, &inventory.AdjustmentAppliedEvent{})
	serializer.Register(inventory.EventTypeTransferShipped, &inventory.TransferShippedEvent{})
	serializer.Register(inventory.EventTypeTransferReceived, &inventory.TransferReceivedEvent{})

	// Sales domain events
	serializer.Register(sales.EventTypeSaleCompleted, &sales.SaleCompletedEvent{})
	serializer.Register(sales.EventTypeSaleVoided, &sales.SaleVoidedEvent{})
	serializer.Register(sales.EventTypeSaleReturned, &sales.SaleReturnedEvent{})
	serializer.Register(sales.EventTypeCreditNoteApplied, &sales.CreditNoteAppliedEvent{})

	// Purchasing domain events
	serializer.Register(purchasing.EventTypePurchaseOrderReceived, &purchasing.PurchaseOrderReceivedEvent{})
	serializer.Register(purchasing.EventTypeGoodsReceiptConfirmed, &purchasing.GoodsReceiptConfirmedEvent{})
}
