package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared/valueobject"
)

// StockLineModel is the persistence model for the StockLine aggregate
// root. The ProductRef union is flattened into two nullable columns with
// a check that exactly one is set; the unique index over
// (store_id, product_id, variant_id) keeps one line per pair.
type StockLineModel struct {
	AggregateModel
	StoreID          uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_stock_line_store_ref,priority:1"`
	ProductID        *uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_stock_line_store_ref,priority:2"`
	VariantID        *uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_stock_line_store_ref,priority:3"`
	Quantity         decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	ReservedQuantity decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	AverageUnitCost  decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	MinStockLevel    decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	MaxStockLevel    *decimal.Decimal `gorm:"type:decimal(18,4)"`
}

// TableName returns the table name for GORM
func (StockLineModel) TableName() string {
	return "stock_lines"
}

// ToDomain converts the persistence model to a domain StockLine
func (m *StockLineModel) ToDomain() (*inventory.StockLine, error) {
	ref, err := inventory.ProductRefFromColumns(m.ProductID, m.VariantID)
	if err != nil {
		return nil, err
	}
	return &inventory.StockLine{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		StoreID:           m.StoreID,
		ProductRef:        ref,
		Quantity:          m.Quantity,
		ReservedQuantity:  m.ReservedQuantity,
		AverageUnitCost:   m.AverageUnitCost,
		MinStockLevel:     m.MinStockLevel,
		MaxStockLevel:     m.MaxStockLevel,
	}, nil
}

// StockLineModelFromDomain converts a domain StockLine to its persistence model
func StockLineModelFromDomain(line *inventory.StockLine) *StockLineModel {
	m := &StockLineModel{
		StoreID:          line.StoreID,
		Quantity:         line.Quantity,
		ReservedQuantity: line.ReservedQuantity,
		AverageUnitCost:  line.AverageUnitCost,
		MinStockLevel:    line.MinStockLevel,
		MaxStockLevel:    line.MaxStockLevel,
	}
	m.FromDomainAggregateRoot(line.BaseAggregateRoot)
	m.ProductID, m.VariantID = line.ProductRef.Columns()
	return m
}

// MovementModel is the persistence model for a Kardex movement. Rows are
// insert-only; no repository method updates or deletes them.
type MovementModel struct {
	BaseModel
	StockLineID   uuid.UUID        `gorm:"type:uuid;not null;index:idx_movement_stock_line"`
	Kind          string           `gorm:"type:varchar(32);not null"`
	Quantity      decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	UnitCost      *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Currency      string           `gorm:"type:varchar(8)"`
	TotalCost     *decimal.Decimal `gorm:"type:decimal(18,4)"`
	BalanceBefore decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	BalanceAfter  decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	ReferenceType string           `gorm:"type:varchar(32);not null;index:idx_movement_reference,priority:1"`
	ReferenceID   uuid.UUID        `gorm:"type:uuid;not null;index:idx_movement_reference,priority:2"`
	ActorID       uuid.UUID        `gorm:"type:uuid;not null"`
	Reason        string           `gorm:"type:varchar(255)"`
	Notes         string           `gorm:"type:text"`
	OccurredAt    time.Time        `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (MovementModel) TableName() string {
	return "movements"
}

// ToDomain converts the persistence model to a domain Movement
func (m *MovementModel) ToDomain() *inventory.Movement {
	return &inventory.Movement{
		BaseEntity:    m.BaseModel.ToDomain(),
		StockLineID:   m.StockLineID,
		Kind:          inventory.MovementKind(m.Kind),
		Quantity:      m.Quantity,
		UnitCost:      m.UnitCost,
		Currency:      valueobject.Currency(m.Currency),
		TotalCost:     m.TotalCost,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		ReferenceType: inventory.ReferenceType(m.ReferenceType),
		ReferenceID:   m.ReferenceID,
		ActorID:       m.ActorID,
		Reason:        m.Reason,
		Notes:         m.Notes,
		OccurredAt:    m.OccurredAt,
	}
}

// MovementModelFromDomain converts a domain Movement to its persistence model
func MovementModelFromDomain(movement *inventory.Movement) *MovementModel {
	m := &MovementModel{
		StockLineID:   movement.StockLineID,
		Kind:          string(movement.Kind),
		Quantity:      movement.Quantity,
		UnitCost:      movement.UnitCost,
		Currency:      string(movement.Currency),
		TotalCost:     movement.TotalCost,
		BalanceBefore: movement.BalanceBefore,
		BalanceAfter:  movement.BalanceAfter,
		ReferenceType: string(movement.ReferenceType),
		ReferenceID:   movement.ReferenceID,
		ActorID:       movement.ActorID,
		Reason:        movement.Reason,
		Notes:         movement.Notes,
		OccurredAt:    movement.OccurredAt,
	}
	m.FromDomainBaseEntity(movement.BaseEntity)
	return m
}

// ReservationModel is the persistence model for the Reservation aggregate
type ReservationModel struct {
	AggregateModel
	StockLineID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_reservation_stock_line"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReferenceType string          `gorm:"type:varchar(32);not null;index:idx_reservation_reference,priority:1"`
	ReferenceID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_reservation_reference,priority:2"`
	Status        string          `gorm:"type:varchar(16);not null;index:idx_reservation_status_expiry,priority:1"`
	ExpiresAt     time.Time       `gorm:"not null;index:idx_reservation_status_expiry,priority:2"`
	ConfirmedAt   *time.Time
	CancelledAt   *time.Time
	ExpiredAt     *time.Time
}

// TableName returns the table name for GORM
func (ReservationModel) TableName() string {
	return "reservations"
}

// ToDomain converts the persistence model to a domain Reservation
func (m *ReservationModel) ToDomain() *inventory.Reservation {
	return &inventory.Reservation{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		StockLineID:       m.StockLineID,
		Quantity:          m.Quantity,
		ReferenceType:     inventory.ReferenceType(m.ReferenceType),
		ReferenceID:       m.ReferenceID,
		Status:            inventory.ReservationStatus(m.Status),
		ExpiresAt:         m.ExpiresAt,
		ConfirmedAt:       m.ConfirmedAt,
		CancelledAt:       m.CancelledAt,
		ExpiredAt:         m.ExpiredAt,
	}
}

// ReservationModelFromDomain converts a domain Reservation to its persistence model
func ReservationModelFromDomain(reservation *inventory.Reservation) *ReservationModel {
	m := &ReservationModel{
		StockLineID:   reservation.StockLineID,
		Quantity:      reservation.Quantity,
		ReferenceType: string(reservation.ReferenceType),
		ReferenceID:   reservation.ReferenceID,
		Status:        string(reservation.Status),
		ExpiresAt:     reservation.ExpiresAt,
		ConfirmedAt:   reservation.ConfirmedAt,
		CancelledAt:   reservation.CancelledAt,
		ExpiredAt:     reservation.ExpiredAt,
	}
	m.FromDomainAggregateRoot(reservation.BaseAggregateRoot)
	return m
}
