package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kardexhq/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeStockLine   = "StockLine"
	AggregateTypeReservation = "Reservation"
	AggregateTypeAdjustment  = "StockAdjustment"
	AggregateTypeTransfer    = "StockTransfer"
)

// Event type constants
const (
	EventTypeStockReceived        = "StockReceived"
	EventTypeStockDeducted        = "StockDeducted"
	EventTypeStockReserved        = "StockReserved"
	EventTypeStockReleased        = "StockReleased"
	EventTypeStockLow             = "StockLow"
	EventTypeStockCostChanged     = "StockCostChanged"
	EventTypeReservationConfirmed = "ReservationConfirmed"
	EventTypeReservationCancelled = "ReservationCancelled"
	EventTypeReservationExpired   = "ReservationExpired"
	EventTypeAdjustmentApplied    = "AdjustmentApplied"
	EventTypeTransferShipped      = "TransferShipped"
	EventTypeTransferReceived     = "TransferReceived"
)

// StockReceivedEvent is raised when stock comes in at a unit cost
type StockReceivedEvent struct {
	shared.BaseDomainEvent
	StockLineID uuid.UUID       `json:"stock_line_id"`
	StoreID     uuid.UUID       `json:"store_id"`
	ProductRef  ProductRef      `json:"product_ref"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

// NewStockReceivedEvent creates a new StockReceivedEvent
func NewStockReceivedEvent(line *StockLine, quantity, unitCost decimal.Decimal) *StockReceivedEvent {
	return &StockReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReceived, AggregateTypeStockLine, line.ID),
		StockLineID:     line.ID,
		StoreID:         line.StoreID,
		ProductRef:      line.ProductRef,
		Quantity:        quantity,
		UnitCost:        unitCost,
	}
}

// StockDeductedEvent is raised when on-hand stock is removed
type StockDeductedEvent struct {
	shared.BaseDomainEvent
	StockLineID uuid.UUID       `json:"stock_line_id"`
	StoreID     uuid.UUID       `json:"store_id"`
	ProductRef  ProductRef      `json:"product_ref"`
	Quantity    decimal.Decimal `json:"quantity"`
	Remaining   decimal.Decimal `json:"remaining"`
}

// NewStockDeductedEvent creates a new StockDeductedEvent
func NewStockDeductedEvent(line *StockLine, quantity decimal.Decimal) *StockDeductedEvent {
	return &StockDeductedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockDeducted, AggregateTypeStockLine, line.ID),
		StockLineID:     line.ID,
		StoreID:         line.StoreID,
		ProductRef:      line.ProductRef,
		Quantity:        quantity,
		Remaining:       line.Quantity,
	}
}

// StockReservedEvent is raised when a hold is placed on available stock
type StockReservedEvent struct {
	shared.BaseDomainEvent
	StockLineID uuid.UUID       `json:"stock_line_id"`
	StoreID     uuid.UUID       `json:"store_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Available   decimal.Decimal `json:"available"`
}

// NewStockReservedEvent creates a new StockReservedEvent
func NewStockReservedEvent(line *StockLine, quantity decimal.Decimal) *StockReservedEvent {
	return &StockReservedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReserved, AggregateTypeStockLine, line.ID),
		StockLineID:     line.ID,
		StoreID:         line.StoreID,
		Quantity:        quantity,
		Available:       line.Available(),
	}
}

// StockReleasedEvent is raised when a hold is given back to available stock
type StockReleasedEvent struct {
	shared.BaseDomainEvent
	StockLineID uuid.UUID       `json:"stock_line_id"`
	StoreID     uuid.UUID       `json:"store_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Available   decimal.Decimal `json:"available"`
}

// NewStockReleasedEvent creates a new StockReleasedEvent
func NewStockReleasedEvent(line *StockLine, quantity decimal.Decimal) *StockReleasedEvent {
	return &StockReleasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReleased, AggregateTypeStockLine, line.ID),
		StockLineID:     line.ID,
		StoreID:         line.StoreID,
		Quantity:        quantity,
		Available:       line.Available(),
	}
}

// StockLowEvent is raised when available stock falls to or below the
// minimum stock level after a deduction
type StockLowEvent struct {
	shared.BaseDomainEvent
	StockLineID   uuid.UUID       `json:"stock_line_id"`
	StoreID       uuid.UUID       `json:"store_id"`
	ProductRef    ProductRef      `json:"product_ref"`
	Available     decimal.Decimal `json:"available"`
	MinStockLevel decimal.Decimal `json:"min_stock_level"`
}

// NewStockLowEvent creates a new StockLowEvent
func NewStockLowEvent(line *StockLine) *StockLowEvent {
	return &StockLowEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockLow, AggregateTypeStockLine, line.ID),
		StockLineID:     line.ID,
		StoreID:         line.StoreID,
		ProductRef:      line.ProductRef,
		Available:       line.Available(),
		MinStockLevel:   line.MinStockLevel,
	}
}

// StockCostChangedEvent is raised when the moving average cost changes
type StockCostChangedEvent struct {
	shared.BaseDomainEvent
	StockLineID uuid.UUID       `json:"stock_line_id"`
	OldCost     decimal.Decimal `json:"old_cost"`
	NewCost     decimal.Decimal `json:"new_cost"`
}

// NewStockCostChangedEvent creates a new StockCostChangedEvent
func NewStockCostChangedEvent(line *StockLine, oldCost, newCost decimal.Decimal) *StockCostChangedEvent {
	return &StockCostChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockCostChanged, AggregateTypeStockLine, line.ID),
		StockLineID:     line.ID,
		OldCost:         oldCost,
		NewCost:         newCost,
	}
}

// ReservationConfirmedEvent is raised when a hold is confirmed
type ReservationConfirmedEvent struct {
	shared.BaseDomainEvent
	ReservationID uuid.UUID       `json:"reservation_id"`
	StockLineID   uuid.UUID       `json:"stock_line_id"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// NewReservationConfirmedEvent creates a new ReservationConfirmedEvent
func NewReservationConfirmedEvent(r *Reservation) *ReservationConfirmedEvent {
	return &ReservationConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReservationConfirmed, AggregateTypeReservation, r.ID),
		ReservationID:   r.ID,
		StockLineID:     r.StockLineID,
		Quantity:        r.Quantity,
	}
}

// ReservationCancelledEvent is raised when a hold is cancelled
type ReservationCancelledEvent struct {
	shared.BaseDomainEvent
	ReservationID uuid.UUID       `json:"reservation_id"`
	StockLineID   uuid.UUID       `json:"stock_line_id"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// NewReservationCancelledEvent creates a new ReservationCancelledEvent
func NewReservationCancelledEvent(r *Reservation) *ReservationCancelledEvent {
	return &ReservationCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReservationCancelled, AggregateTypeReservation, r.ID),
		ReservationID:   r.ID,
		StockLineID:     r.StockLineID,
		Quantity:        r.Quantity,
	}
}

// ReservationExpiredEvent is raised when the sweep expires an overdue hold
type ReservationExpiredEvent struct {
	shared.BaseDomainEvent
	ReservationID uuid.UUID       `json:"reservation_id"`
	StockLineID   uuid.UUID       `json:"stock_line_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	ExpiresAt     time.Time       `json:"expires_at"`
}

// NewReservationExpiredEvent creates a new ReservationExpiredEvent
func NewReservationExpiredEvent(r *Reservation) *ReservationExpiredEvent {
	return &ReservationExpiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReservationExpired, AggregateTypeReservation, r.ID),
		ReservationID:   r.ID,
		StockLineID:     r.StockLineID,
		Quantity:        r.Quantity,
		ExpiresAt:       r.ExpiresAt,
	}
}

// AdjustmentAppliedEvent is raised when an approved adjustment hits stock
type AdjustmentAppliedEvent struct {
	shared.BaseDomainEvent
	AdjustmentID uuid.UUID `json:"adjustment_id"`
	StoreID      uuid.UUID `json:"store_id"`
	ItemCount    int       `json:"item_count"`
}

// NewAdjustmentAppliedEvent creates a new AdjustmentAppliedEvent
func NewAdjustmentAppliedEvent(a *StockAdjustment) *AdjustmentAppliedEvent {
	return &AdjustmentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAdjustmentApplied, AggregateTypeAdjustment, a.ID),
		AdjustmentID:    a.ID,
		StoreID:         a.StoreID,
		ItemCount:       len(a.Items),
	}
}

// TransferShippedEvent is raised when a transfer leaves the source store
type TransferShippedEvent struct {
	shared.BaseDomainEvent
	TransferID  uuid.UUID `json:"transfer_id"`
	FromStoreID uuid.UUID `json:"from_store_id"`
	ToStoreID   uuid.UUID `json:"to_store_id"`
}

// NewTransferShippedEvent creates a new TransferShippedEvent
func NewTransferShippedEvent(tr *StockTransfer) *TransferShippedEvent {
	return &TransferShippedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransferShipped, AggregateTypeTransfer, tr.ID),
		TransferID:      tr.ID,
		FromStoreID:     tr.FromStoreID,
		ToStoreID:       tr.ToStoreID,
	}
}

// TransferReceivedEvent is raised when a transfer arrives at the destination
type TransferReceivedEvent struct {
	shared.BaseDomainEvent
	TransferID  uuid.UUID       `json:"transfer_id"`
	FromStoreID uuid.UUID       `json:"from_store_id"`
	ToStoreID   uuid.UUID       `json:"to_store_id"`
	Discrepancy decimal.Decimal `json:"discrepancy"`
}

// NewTransferReceivedEvent creates a new TransferReceivedEvent
func NewTransferReceivedEvent(tr *StockTransfer) *TransferReceivedEvent {
	return &TransferReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransferReceived, AggregateTypeTransfer, tr.ID),
		TransferID:      tr.ID,
		FromStoreID:     tr.FromStoreID,
		ToStoreID:       tr.ToStoreID,
		Discrepancy:     tr.TotalDiscrepancy(),
	}
}
