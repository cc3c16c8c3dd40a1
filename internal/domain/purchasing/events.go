package purchasing

import (
	"github.com/google/uuid"

	"github.com/kardexhq/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypePurchaseOrder = "PurchaseOrder"
	AggregateTypeGoodsReceipt  = "GoodsReceipt"
)

// Event type constants
const (
	EventTypePurchaseOrderReceived = "PurchaseOrderReceived"
	EventTypeGoodsReceiptConfirmed = "GoodsReceiptConfirmed"
)

// PurchaseOrderReceivedEvent is raised each time confirmed receipts
// advance the order's received quantities
type PurchaseOrderReceivedEvent struct {
	shared.BaseDomainEvent
	PurchaseOrderID uuid.UUID           `json:"purchase_order_id"`
	StoreID         uuid.UUID           `json:"store_id"`
	Status          PurchaseOrderStatus `json:"status"`
	FullyReceived   bool                `json:"fully_received"`
}

// NewPurchaseOrderReceivedEvent creates a new PurchaseOrderReceivedEvent
func NewPurchaseOrderReceivedEvent(o *PurchaseOrder) *PurchaseOrderReceivedEvent {
	return &PurchaseOrderReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderReceived, AggregateTypePurchaseOrder, o.ID),
		PurchaseOrderID: o.ID,
		StoreID:         o.StoreID,
		Status:          o.Status,
		FullyReceived:   o.Status == PurchaseOrderStatusReceived,
	}
}

// GoodsReceiptConfirmedEvent is raised when a delivery is confirmed and
// its quantities hit stock
type GoodsReceiptConfirmedEvent struct {
	shared.BaseDomainEvent
	GoodsReceiptID  uuid.UUID `json:"goods_receipt_id"`
	PurchaseOrderID uuid.UUID `json:"purchase_order_id"`
	StoreID         uuid.UUID `json:"store_id"`
	ItemCount       int       `json:"item_count"`
}

// NewGoodsReceiptConfirmedEvent creates a new GoodsReceiptConfirmedEvent
func NewGoodsReceiptConfirmedEvent(g *GoodsReceipt) *GoodsReceiptConfirmedEvent {
	return &GoodsReceiptConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGoodsReceiptConfirmed, AggregateTypeGoodsReceipt, g.ID),
		GoodsReceiptID:  g.ID,
		PurchaseOrderID: g.PurchaseOrderID,
		StoreID:         g.StoreID,
		ItemCount:       len(g.Items),
	}
}
