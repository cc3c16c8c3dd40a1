package inventory

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kardexhq/backend/internal/domain/shared"
	"github.com/kardexhq/backend/internal/domain/shared/valueobject"
)

// StockLine is the authoritative stock record for one (store, product or
// variant) pair and the aggregate root of all quantity operations. On-hand
// quantity, the reserved portion of it, and the version counter change
// only through its methods; every mutation increments the version so the
// persistence layer can compare-and-swap on the version the caller read.
type StockLine struct {
	shared.BaseAggregateRoot
	StoreID          uuid.UUID
	ProductRef       ProductRef
	Quantity         decimal.Decimal
	ReservedQuantity decimal.Decimal
	AverageUnitCost  decimal.Decimal
	MinStockLevel    decimal.Decimal
	MaxStockLevel    *decimal.Decimal
}

// NewStockLine creates an empty stock line for a store and product ref
func NewStockLine(storeID uuid.UUID, ref ProductRef) (*StockLine, error) {
	if storeID == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "store id cannot be empty")
	}
	if ref.IsZero() {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "stock line must reference a product or a variant")
	}

	return &StockLine{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		StoreID:           storeID,
		ProductRef:        ref,
		Quantity:          decimal.Zero,
		ReservedQuantity:  decimal.Zero,
		AverageUnitCost:   decimal.Zero,
		MinStockLevel:     decimal.Zero,
	}, nil
}

// Available returns the quantity not held by reservations
func (s *StockLine) Available() decimal.Decimal {
	return s.Quantity.Sub(s.ReservedQuantity)
}

// IsLowStock reports whether available stock has fallen to or below the
// minimum stock level.
func (s *StockLine) IsLowStock() bool {
	return s.Available().LessThanOrEqual(s.MinStockLevel)
}

// SetStockLevels updates the min/max alert thresholds
func (s *StockLine) SetStockLevels(minLevel decimal.Decimal, maxLevel *decimal.Decimal) error {
	if minLevel.IsNegative() {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "minimum stock level cannot be negative")
	}
	if maxLevel != nil && maxLevel.LessThan(minLevel) {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "maximum stock level cannot be below the minimum")
	}
	s.MinStockLevel = minLevel
	s.MaxStockLevel = maxLevel
	s.Touch()
	return nil
}

// AdjustQuantity applies a signed delta to the on-hand quantity. The
// result may not go below zero nor below the reserved quantity. The
// version is incremented so the save that follows runs as a CAS against
// the version this line was read at.
func (s *StockLine) AdjustQuantity(delta decimal.Decimal) error {
	newQuantity := s.Quantity.Add(delta)
	if newQuantity.IsNegative() {
		return shared.NewDomainError(shared.ErrInsufficientStock.Code, "adjustment would drive stock below zero")
	}
	if newQuantity.LessThan(s.ReservedQuantity) {
		return shared.NewDomainError(shared.ErrInsufficientAvailable.Code, "adjustment would drive stock below the reserved quantity")
	}

	s.Quantity = newQuantity
	s.IncrementVersion()

	if delta.IsNegative() {
		s.AddDomainEvent(NewStockDeductedEvent(s, delta.Abs()))
		s.emitLowStockIfNeeded()
	}
	return nil
}

// Receive adds incoming stock at a unit cost and folds the cost into the
// moving weighted average: (oldQty*oldAvg + inQty*inCost) / (oldQty+inQty),
// rounded to 4 places; an empty line takes the incoming cost as-is.
func (s *StockLine) Receive(quantity decimal.Decimal, unitCost valueobject.Money) error {
	if !quantity.IsPositive() {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "received quantity must be positive")
	}
	if unitCost.IsNegative() {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "unit cost cannot be negative")
	}

	oldCost := s.AverageUnitCost
	s.AverageUnitCost = MovingAverageCost(s.Quantity, s.AverageUnitCost, quantity, unitCost.Amount())
	s.Quantity = s.Quantity.Add(quantity)
	s.IncrementVersion()

	s.AddDomainEvent(NewStockReceivedEvent(s, quantity, unitCost.Amount()))
	if !oldCost.Equal(s.AverageUnitCost) {
		s.AddDomainEvent(NewStockCostChangedEvent(s, oldCost, s.AverageUnitCost))
	}
	return nil
}

// Reserve places a hold on available stock, raising the reserved quantity
func (s *StockLine) Reserve(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "reservation quantity must be positive")
	}
	if quantity.GreaterThan(s.Available()) {
		return shared.NewDomainError(shared.ErrInsufficientAvailable.Code, "not enough unreserved stock to hold")
	}

	s.ReservedQuantity = s.ReservedQuantity.Add(quantity)
	s.IncrementVersion()

	s.AddDomainEvent(NewStockReservedEvent(s, quantity))
	return nil
}

// ReleaseReserved gives a held quantity back to available stock
func (s *StockLine) ReleaseReserved(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "release quantity must be positive")
	}
	if quantity.GreaterThan(s.ReservedQuantity) {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "cannot release more than is reserved")
	}

	s.ReservedQuantity = s.ReservedQuantity.Sub(quantity)
	s.IncrementVersion()

	s.AddDomainEvent(NewStockReleasedEvent(s, quantity))
	return nil
}

// ConsumeReserved turns a hold into an actual deduction: the reserved
// quantity and the on-hand quantity both drop by the given amount in one
// version increment, so a workflow completing against a confirmed
// reservation costs a single compare-and-swap.
func (s *StockLine) ConsumeReserved(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "consumed quantity must be positive")
	}
	if quantity.GreaterThan(s.ReservedQuantity) {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "cannot consume more than is reserved")
	}

	s.ReservedQuantity = s.ReservedQuantity.Sub(quantity)
	s.Quantity = s.Quantity.Sub(quantity)
	s.IncrementVersion()

	s.AddDomainEvent(NewStockDeductedEvent(s, quantity))
	s.emitLowStockIfNeeded()
	return nil
}

func (s *StockLine) emitLowStockIfNeeded() {
	if s.MinStockLevel.IsPositive() && s.IsLowStock() {
		s.AddDomainEvent(NewStockLowEvent(s))
	}
}

// MovingAverageCost computes the weighted average unit cost after an
// incoming quantity at an incoming cost. A zero combined quantity takes
// the incoming cost; results round to 4 decimal places.
func MovingAverageCost(oldQty, oldAvg, inQty, inCost decimal.Decimal) decimal.Decimal {
	totalQty := oldQty.Add(inQty)
	if totalQty.IsZero() || oldQty.IsZero() {
		return inCost.Round(4)
	}
	totalValue := oldQty.Mul(oldAvg).Add(inQty.Mul(inCost))
	return totalValue.Div(totalQty).Round(4)
}
