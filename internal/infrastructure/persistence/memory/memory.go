// Package memory provides map-backed implementations of every
// repository, with the same compare-and-swap semantics on versioned
// saves as the SQL implementations. They back the application-service
// tests and the standalone dev mode; nothing here survives a restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared"
)

// errNotFound is a fresh not-found error; fresh so callers can wrap it
// without aliasing the sentinel.
func errNotFound(what string) error {
	return shared.NewDomainError(shared.ErrNotFound.Code, what+" not found")
}

// casCheck enforces the version compare-and-swap: the incoming aggregate
// was incremented exactly once past the version it was read at.
func casCheck(stored, incoming int) error {
	if stored != incoming-1 {
		return shared.NewDomainError(shared.ErrConflict.Code, "record was modified by another process")
	}
	return nil
}

// paginate applies the filter's page window. A non-positive page size
// returns everything.
func paginate[T any](items []T, filter shared.Filter) []T {
	if filter.PageSize <= 0 {
		return items
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * filter.PageSize
	if start >= len(items) {
		return nil
	}
	end := start + filter.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// StockLineRepository is an in-memory inventory.StockLineRepository
type StockLineRepository struct {
	mu    sync.Mutex
	lines map[uuid.UUID]inventory.StockLine
}

// NewStockLineRepository creates an empty in-memory stock line store
func NewStockLineRepository() *StockLineRepository {
	return &StockLineRepository{lines: make(map[uuid.UUID]inventory.StockLine)}
}

// FindByID finds a stock line by ID
func (r *StockLineRepository) FindByID(_ context.Context, id uuid.UUID) (*inventory.StockLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	line, ok := r.lines[id]
	if !ok {
		return nil, errNotFound("stock line")
	}
	return &line, nil
}

// FindByStoreAndRef finds the store's stock line for a product ref
func (r *StockLineRepository) FindByStoreAndRef(_ context.Context, storeID uuid.UUID, ref inventory.ProductRef) (*inventory.StockLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, line := range r.lines {
		if line.StoreID == storeID && line.ProductRef.Equals(ref) {
			out := line
			return &out, nil
		}
	}
	return nil, errNotFound("stock line")
}

// FindByStore lists a store's stock lines
func (r *StockLineRepository) FindByStore(_ context.Context, storeID uuid.UUID, filter shared.Filter) ([]inventory.StockLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.StockLine
	for _, line := range r.lines {
		if line.StoreID == storeID {
			out = append(out, line)
		}
	}
	sortByCreated(out, func(l inventory.StockLine) time.Time { return l.CreatedAt })
	return paginate(out, filter), nil
}

// FindByIDs finds the stock lines for a set of IDs, skipping unknowns
func (r *StockLineRepository) FindByIDs(_ context.Context, ids []uuid.UUID) ([]inventory.StockLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]inventory.StockLine, 0, len(ids))
	for _, id := range ids {
		if line, ok := r.lines[id]; ok {
			out = append(out, line)
		}
	}
	return out, nil
}

// FindLowStock lists the store's lines at or below their minimum level
func (r *StockLineRepository) FindLowStock(_ context.Context, storeID uuid.UUID, filter shared.Filter) ([]inventory.StockLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.StockLine
	for _, line := range r.lines {
		if line.StoreID == storeID && line.MinStockLevel.IsPositive() && line.IsLowStock() {
			out = append(out, line)
		}
	}
	sortByCreated(out, func(l inventory.StockLine) time.Time { return l.CreatedAt })
	return paginate(out, filter), nil
}

// Create inserts a new stock line; one line per (store, ref)
func (r *StockLineRepository) Create(_ context.Context, line *inventory.StockLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lines[line.ID]; ok {
		return shared.NewDomainError(shared.ErrAlreadyExists.Code, "stock line already exists")
	}
	for _, existing := range r.lines {
		if existing.StoreID == line.StoreID && existing.ProductRef.Equals(line.ProductRef) {
			return shared.NewDomainError(shared.ErrAlreadyExists.Code, "store already has a stock line for this product")
		}
	}
	r.lines[line.ID] = *line
	return nil
}

// SaveWithVersion persists a mutation with a compare-and-swap on the
// version the caller read.
func (r *StockLineRepository) SaveWithVersion(_ context.Context, line *inventory.StockLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.lines[line.ID]
	if !ok {
		return errNotFound("stock line")
	}
	if err := casCheck(stored.Version, line.Version); err != nil {
		return err
	}
	r.lines[line.ID] = *line
	return nil
}

// CountByStore counts a store's stock lines
func (r *StockLineRepository) CountByStore(_ context.Context, storeID uuid.UUID, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, line := range r.lines {
		if line.StoreID == storeID {
			count++
		}
	}
	return count, nil
}

// MovementRepository is an in-memory inventory.MovementRepository
type MovementRepository struct {
	mu        sync.Mutex
	movements []inventory.Movement
}

// NewMovementRepository creates an empty in-memory movement ledger
func NewMovementRepository() *MovementRepository {
	return &MovementRepository{}
}

// Append appends one immutable ledger entry
func (r *MovementRepository) Append(_ context.Context, movement *inventory.Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, *movement)
	return nil
}

// AppendAll appends a batch of ledger entries
func (r *MovementRepository) AppendAll(ctx context.Context, movements []*inventory.Movement) error {
	for _, m := range movements {
		if err := r.Append(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// FindByID finds a movement by ID
func (r *MovementRepository) FindByID(_ context.Context, id uuid.UUID) (*inventory.Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.movements {
		if m.ID == id {
			out := m
			return &out, nil
		}
	}
	return nil, errNotFound("movement")
}

// FindByStockLine lists a stock line's movements in chronological order
func (r *MovementRepository) FindByStockLine(_ context.Context, stockLineID uuid.UUID, filter shared.Filter) ([]inventory.Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.Movement
	for _, m := range r.movements {
		if m.StockLineID == stockLineID {
			out = append(out, m)
		}
	}
	sortByOccurred(out)
	return paginate(out, filter), nil
}

// FindByStockLineAndPeriod lists a stock line's movements within
// [from, to) in chronological order.
func (r *MovementRepository) FindByStockLineAndPeriod(_ context.Context, stockLineID uuid.UUID, from, to time.Time, filter shared.Filter) ([]inventory.Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.Movement
	for _, m := range r.movements {
		if m.StockLineID == stockLineID && !m.OccurredAt.Before(from) && m.OccurredAt.Before(to) {
			out = append(out, m)
		}
	}
	sortByOccurred(out)
	return paginate(out, filter), nil
}

// FindByReference lists the movements a document produced
func (r *MovementRepository) FindByReference(_ context.Context, refType inventory.ReferenceType, refID uuid.UUID) ([]inventory.Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.Movement
	for _, m := range r.movements {
		if m.ReferenceType == refType && m.ReferenceID == refID {
			out = append(out, m)
		}
	}
	sortByOccurred(out)
	return out, nil
}

// CountByStockLine counts a stock line's ledger entries
func (r *MovementRepository) CountByStockLine(_ context.Context, stockLineID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, m := range r.movements {
		if m.StockLineID == stockLineID {
			count++
		}
	}
	return count, nil
}

// ReservationRepository is an in-memory inventory.ReservationRepository
type ReservationRepository struct {
	mu           sync.Mutex
	reservations map[uuid.UUID]inventory.Reservation
}

// NewReservationRepository creates an empty in-memory reservation store
func NewReservationRepository() *ReservationRepository {
	return &ReservationRepository{reservations: make(map[uuid.UUID]inventory.Reservation)}
}

// FindByID finds a reservation by ID
func (r *ReservationRepository) FindByID(_ context.Context, id uuid.UUID) (*inventory.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reservation, ok := r.reservations[id]
	if !ok {
		return nil, errNotFound("reservation")
	}
	return &reservation, nil
}

// FindByReference lists the holds placed on behalf of a document
func (r *ReservationRepository) FindByReference(_ context.Context, refType inventory.ReferenceType, refID uuid.UUID) ([]inventory.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.Reservation
	for _, reservation := range r.reservations {
		if reservation.ReferenceType == refType && reservation.ReferenceID == refID {
			out = append(out, reservation)
		}
	}
	sortByCreated(out, func(res inventory.Reservation) time.Time { return res.CreatedAt })
	return out, nil
}

// FindPendingByStockLine lists a stock line's live holds
func (r *ReservationRepository) FindPendingByStockLine(_ context.Context, stockLineID uuid.UUID) ([]inventory.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.Reservation
	for _, reservation := range r.reservations {
		if reservation.StockLineID == stockLineID && reservation.Status == inventory.ReservationStatusPending {
			out = append(out, reservation)
		}
	}
	sortByCreated(out, func(res inventory.Reservation) time.Time { return res.CreatedAt })
	return out, nil
}

// FindExpired lists pending holds whose deadline lies at or before now,
// oldest deadline first, up to limit.
func (r *ReservationRepository) FindExpired(_ context.Context, now time.Time, limit int) ([]inventory.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.Reservation
	for _, reservation := range r.reservations {
		if reservation.Status == inventory.ReservationStatusPending && !reservation.ExpiresAt.After(now) {
			out = append(out, reservation)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Create inserts a new hold
func (r *ReservationRepository) Create(_ context.Context, reservation *inventory.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reservations[reservation.ID]; ok {
		return shared.NewDomainError(shared.ErrAlreadyExists.Code, "reservation already exists")
	}
	r.reservations[reservation.ID] = *reservation
	return nil
}

// SaveWithVersion persists a status change with a compare-and-swap on
// the version the caller read.
func (r *ReservationRepository) SaveWithVersion(_ context.Context, reservation *inventory.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.reservations[reservation.ID]
	if !ok {
		return errNotFound("reservation")
	}
	if err := casCheck(stored.Version, reservation.Version); err != nil {
		return err
	}
	r.reservations[reservation.ID] = *reservation
	return nil
}

func sortByCreated[T any](items []T, createdAt func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool { return createdAt(items[i]).Before(createdAt(items[j])) })
}

func sortByOccurred(movements []inventory.Movement) {
	sort.SliceStable(movements, func(i, j int) bool {
		if movements[i].OccurredAt.Equal(movements[j].OccurredAt) {
			return movements[i].CreatedAt.Before(movements[j].CreatedAt)
		}
		return movements[i].OccurredAt.Before(movements[j].OccurredAt)
	})
}
