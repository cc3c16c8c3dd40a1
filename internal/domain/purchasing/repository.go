package purchasing

import (
	"context"

	"github.com/google/uuid"

	"github.com/kardexhq/backend/internal/domain/shared"
)

// PurchaseOrderRepository defines the interface for purchase order persistence
type PurchaseOrderRepository interface {
	// FindByID finds an order with its lines by ID
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// FindByDocumentNumber finds an order by its document number
	FindByDocumentNumber(ctx context.Context, number string) (*PurchaseOrder, error)

	// FindByStore lists orders for a store
	FindByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]PurchaseOrder, error)

	// FindByVendor lists orders placed with a vendor
	FindByVendor(ctx context.Context, vendorID uuid.UUID, filter shared.Filter) ([]PurchaseOrder, error)

	// FindByStatus lists orders in a given status
	FindByStatus(ctx context.Context, status PurchaseOrderStatus, filter shared.Filter) ([]PurchaseOrder, error)

	// Save creates or updates an order and its lines
	Save(ctx context.Context, order *PurchaseOrder) error

	// SaveWithVersion persists a status transition with a compare-and-swap
	// on the version the caller read. Returns shared.ErrConflict when
	// another writer got there first.
	SaveWithVersion(ctx context.Context, order *PurchaseOrder) error

	// CountByStore counts orders for a store
	CountByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) (int64, error)
}

// GoodsReceiptRepository defines the interface for goods receipt persistence
type GoodsReceiptRepository interface {
	// FindByID finds a receipt with its lines by ID
	FindByID(ctx context.Context, id uuid.UUID) (*GoodsReceipt, error)

	// FindByPurchaseOrder lists the receipts recorded against an order
	FindByPurchaseOrder(ctx context.Context, orderID uuid.UUID) ([]GoodsReceipt, error)

	// Save creates or updates a receipt and its lines
	Save(ctx context.Context, receipt *GoodsReceipt) error

	// SaveWithVersion persists a status transition with a compare-and-swap
	// on the version the caller read
	SaveWithVersion(ctx context.Context, receipt *GoodsReceipt) error
}
