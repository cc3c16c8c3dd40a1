package sales

import (
	"context"

	"github.com/google/uuid"

	"github.com/kardexhq/backend/internal/domain/shared"
)

// SaleRepository defines the interface for sale persistence
type SaleRepository interface {
	// FindByID finds a sale with its lines by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)

	// FindByStore lists sales for a store
	FindByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]Sale, error)

	// FindByStatus lists sales in a given status
	FindByStatus(ctx context.Context, status SaleStatus, filter shared.Filter) ([]Sale, error)

	// Save creates or updates a sale and its lines
	Save(ctx context.Context, sale *Sale) error

	// SaveWithVersion persists a status transition with a compare-and-swap
	// on the version the caller read
	SaveWithVersion(ctx context.Context, sale *Sale) error

	// CountByStore counts sales for a store
	CountByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) (int64, error)
}

// CreditNoteRepository defines the interface for credit note persistence
type CreditNoteRepository interface {
	// FindByID finds a credit note with its lines by ID
	FindByID(ctx context.Context, id uuid.UUID) (*CreditNote, error)

	// FindBySale lists credit notes raised against a sale
	FindBySale(ctx context.Context, saleID uuid.UUID) ([]CreditNote, error)

	// FindByStore lists credit notes for a store
	FindByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]CreditNote, error)

	// Save creates or updates a credit note and its lines
	Save(ctx context.Context, note *CreditNote) error

	// SaveWithVersion persists a status transition with a compare-and-swap
	// on the version the caller read
	SaveWithVersion(ctx context.Context, note *CreditNote) error
}
