package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kardexhq/backend/internal/domain/shared"
)

// StockLineRepository defines the interface for stock line persistence
type StockLineRepository interface {
	// FindByID finds a stock line by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockLine, error)

	// FindByStoreAndRef finds the stock line for a (store, product|variant) pair
	FindByStoreAndRef(ctx context.Context, storeID uuid.UUID, ref ProductRef) (*StockLine, error)

	// FindByStore lists stock lines in a store
	FindByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]StockLine, error)

	// FindByIDs finds multiple stock lines by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]StockLine, error)

	// FindLowStock lists lines whose available quantity sits at or below
	// their minimum stock level
	FindLowStock(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]StockLine, error)

	// Create inserts a new stock line. A line for the same
	// (store, product|variant) pair must not already exist.
	Create(ctx context.Context, line *StockLine) error

	// SaveWithVersion persists a mutated line with a compare-and-swap on
	// the version the caller read (line.Version-1). Returns
	// shared.ErrConflict when another writer got there first.
	SaveWithVersion(ctx context.Context, line *StockLine) error

	// CountByStore counts stock lines in a store
	CountByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) (int64, error)
}

// MovementRepository is the append-only Kardex store. Movements are never
// updated or deleted; there is deliberately no Save or Delete.
type MovementRepository interface {
	// Append inserts a new movement record
	Append(ctx context.Context, movement *Movement) error

	// AppendAll inserts a batch of movement records
	AppendAll(ctx context.Context, movements []*Movement) error

	// FindByID finds a movement by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Movement, error)

	// FindByStockLine lists the movements of a stock line in creation
	// order, oldest first, for Kardex reconstruction
	FindByStockLine(ctx context.Context, stockLineID uuid.UUID, filter shared.Filter) ([]Movement, error)

	// FindByStockLineAndPeriod lists a stock line's movements within a
	// time window, oldest first
	FindByStockLineAndPeriod(ctx context.Context, stockLineID uuid.UUID, from, to time.Time, filter shared.Filter) ([]Movement, error)

	// FindByReference lists the movements caused by one workflow document
	FindByReference(ctx context.Context, refType ReferenceType, refID uuid.UUID) ([]Movement, error)

	// CountByStockLine counts the movements of a stock line
	CountByStockLine(ctx context.Context, stockLineID uuid.UUID) (int64, error)
}

// ReservationRepository defines the interface for reservation persistence
type ReservationRepository interface {
	// FindByID finds a reservation by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Reservation, error)

	// FindByReference lists reservations held by one workflow document
	FindByReference(ctx context.Context, refType ReferenceType, refID uuid.UUID) ([]Reservation, error)

	// FindPendingByStockLine lists live holds against a stock line
	FindPendingByStockLine(ctx context.Context, stockLineID uuid.UUID) ([]Reservation, error)

	// FindExpired lists pending reservations whose expiry lies at or
	// before the given instant, capped at limit (0 = no cap)
	FindExpired(ctx context.Context, now time.Time, limit int) ([]Reservation, error)

	// Create inserts a new reservation
	Create(ctx context.Context, reservation *Reservation) error

	// SaveWithVersion persists a status transition with a compare-and-swap
	// on the version the caller read. Returns shared.ErrConflict on a
	// lost race, which the expiry sweep treats as already-swept.
	SaveWithVersion(ctx context.Context, reservation *Reservation) error
}

// AdjustmentRepository defines the interface for stock adjustment persistence
type AdjustmentRepository interface {
	// FindByID finds an adjustment with its lines by ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockAdjustment, error)

	// FindByStore lists adjustments for a store
	FindByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]StockAdjustment, error)

	// FindByStatus lists adjustments in a given status
	FindByStatus(ctx context.Context, status AdjustmentStatus, filter shared.Filter) ([]StockAdjustment, error)

	// Save creates or updates an adjustment and its lines
	Save(ctx context.Context, adjustment *StockAdjustment) error

	// SaveWithVersion persists a status transition with a compare-and-swap
	// on the version the caller read
	SaveWithVersion(ctx context.Context, adjustment *StockAdjustment) error

	// CountByStore counts adjustments for a store
	CountByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) (int64, error)
}

// TransferRepository defines the interface for stock transfer persistence
type TransferRepository interface {
	// FindByID finds a transfer with its lines by ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockTransfer, error)

	// FindByStore lists transfers where the store is source or destination
	FindByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]StockTransfer, error)

	// FindByStatus lists transfers in a given status
	FindByStatus(ctx context.Context, status TransferStatus, filter shared.Filter) ([]StockTransfer, error)

	// Save creates or updates a transfer and its lines
	Save(ctx context.Context, transfer *StockTransfer) error

	// SaveWithVersion persists a status transition with a compare-and-swap
	// on the version the caller read
	SaveWithVersion(ctx context.Context, transfer *StockTransfer) error

	// CountByStore counts transfers touching a store
	CountByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) (int64, error)
}
