package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kardexhq/backend/internal/domain/inventory"
)

// CreateSaleRequest opens a draft sale for a store
type CreateSaleRequest struct {
	StoreID    uuid.UUID
	CustomerID *uuid.UUID
	ActorID    uuid.UUID
	Notes      string
}

// SaleLineRequest adds a sold product to a draft sale. The stock hold
// placed for the line uses TTL when positive, the service default
// otherwise.
type SaleLineRequest struct {
	Ref            inventory.ProductRef
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	TTL            time.Duration
}

// CreditNoteLineRequest credits part of a sale line. Restock puts the
// quantity back on the shelf when the note is applied.
type CreditNoteLineRequest struct {
	SaleLineID uuid.UUID
	Quantity   decimal.Decimal
	Restock    bool
	Reason     string
}
