package purchasing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kardexhq/backend/internal/domain/inventory"
)

// CreatePurchaseOrderRequest opens a draft order against a vendor
type CreatePurchaseOrderRequest struct {
	StoreID  uuid.UUID
	VendorID uuid.UUID
	ActorID  uuid.UUID
}

// PurchaseOrderLineRequest adds a product to a draft order
type PurchaseOrderLineRequest struct {
	Ref      inventory.ProductRef
	Quantity decimal.Decimal
	UnitCost decimal.Decimal
}

// GoodsReceiptLineRequest records a delivered quantity against an order
// line. UnitCost overrides the ordered cost when the vendor invoiced a
// different price; nil keeps the order line's cost.
type GoodsReceiptLineRequest struct {
	OrderLineID uuid.UUID
	Quantity    decimal.Decimal
	UnitCost    *decimal.Decimal
}
