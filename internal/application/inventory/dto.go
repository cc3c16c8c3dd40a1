package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kardexhq/backend/internal/domain/inventory"
)

// StockLineResponse is the API view of a stock line
type StockLineResponse struct {
	ID               uuid.UUID            `json:"id"`
	StoreID          uuid.UUID            `json:"store_id"`
	ProductRef       inventory.ProductRef `json:"product_ref"`
	Quantity         decimal.Decimal      `json:"quantity"`
	ReservedQuantity decimal.Decimal      `json:"reserved_quantity"`
	Available        decimal.Decimal      `json:"available"`
	AverageUnitCost  decimal.Decimal      `json:"average_unit_cost"`
	MinStockLevel    decimal.Decimal      `json:"min_stock_level"`
	MaxStockLevel    *decimal.Decimal     `json:"max_stock_level,omitempty"`
	LowStock         bool                 `json:"low_stock"`
	Version          int                  `json:"version"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// ToStockLineResponse converts a stock line to its response form
func ToStockLineResponse(line *inventory.StockLine) StockLineResponse {
	return StockLineResponse{
		ID:               line.ID,
		StoreID:          line.StoreID,
		ProductRef:       line.ProductRef,
		Quantity:         line.Quantity,
		ReservedQuantity: line.ReservedQuantity,
		Available:        line.Available(),
		AverageUnitCost:  line.AverageUnitCost,
		MinStockLevel:    line.MinStockLevel,
		MaxStockLevel:    line.MaxStockLevel,
		LowStock:         line.IsLowStock(),
		Version:          line.Version,
		UpdatedAt:        line.UpdatedAt,
	}
}

// ToStockLineResponses converts a slice of stock lines
func ToStockLineResponses(lines []inventory.StockLine) []StockLineResponse {
	responses := make([]StockLineResponse, 0, len(lines))
	for i := range lines {
		responses = append(responses, ToStockLineResponse(&lines[i]))
	}
	return responses
}

// MovementResponse is the API view of a ledger entry
type MovementResponse struct {
	ID            uuid.UUID               `json:"id"`
	StockLineID   uuid.UUID               `json:"stock_line_id"`
	Kind          inventory.MovementKind  `json:"kind"`
	Quantity      decimal.Decimal         `json:"quantity"`
	UnitCost      *decimal.Decimal        `json:"unit_cost,omitempty"`
	TotalCost     *decimal.Decimal        `json:"total_cost,omitempty"`
	BalanceBefore decimal.Decimal         `json:"balance_before"`
	BalanceAfter  decimal.Decimal         `json:"balance_after"`
	ReferenceType inventory.ReferenceType `json:"reference_type"`
	ReferenceID   uuid.UUID               `json:"reference_id"`
	ActorID       uuid.UUID               `json:"actor_id"`
	Reason        string                  `json:"reason,omitempty"`
	OccurredAt    time.Time               `json:"occurred_at"`
}

// ToMovementResponse converts a movement to its response form
func ToMovementResponse(m *inventory.Movement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		StockLineID:   m.StockLineID,
		Kind:          m.Kind,
		Quantity:      m.Quantity,
		UnitCost:      m.UnitCost,
		TotalCost:     m.TotalCost,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		ActorID:       m.ActorID,
		Reason:        m.Reason,
		OccurredAt:    m.OccurredAt,
	}
}

// ToMovementResponses converts a slice of movements
func ToMovementResponses(movements []inventory.Movement) []MovementResponse {
	responses := make([]MovementResponse, 0, len(movements))
	for i := range movements {
		responses = append(responses, ToMovementResponse(&movements[i]))
	}
	return responses
}

// ReservationResponse is the API view of a stock reservation
type ReservationResponse struct {
	ID            uuid.UUID                   `json:"id"`
	StockLineID   uuid.UUID                   `json:"stock_line_id"`
	Quantity      decimal.Decimal             `json:"quantity"`
	ReferenceType inventory.ReferenceType     `json:"reference_type"`
	ReferenceID   uuid.UUID                   `json:"reference_id"`
	Status        inventory.ReservationStatus `json:"status"`
	ExpiresAt     time.Time                   `json:"expires_at"`
	Version       int                         `json:"version"`
}

// ToReservationResponse converts a reservation to its response form
func ToReservationResponse(r *inventory.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:            r.ID,
		StockLineID:   r.StockLineID,
		Quantity:      r.Quantity,
		ReferenceType: r.ReferenceType,
		ReferenceID:   r.ReferenceID,
		Status:        r.Status,
		ExpiresAt:     r.ExpiresAt,
		Version:       r.Version,
	}
}

// InitialStockLine is one entry of a bulk stock initialization
type InitialStockLine struct {
	ProductRef    inventory.ProductRef
	Quantity      decimal.Decimal
	UnitCost      decimal.Decimal
	MinStockLevel decimal.Decimal
}

// InitializeStockRequest seeds stock lines for a store
type InitializeStockRequest struct {
	StoreID uuid.UUID
	ActorID uuid.UUID
	Lines   []InitialStockLine
}

// InitializeStockResult reports what a bulk initialization did
type InitializeStockResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// CreateReservationRequest places a hold on a stock line
type CreateReservationRequest struct {
	StockLineID   uuid.UUID
	Quantity      decimal.Decimal
	ReferenceType inventory.ReferenceType
	ReferenceID   uuid.UUID
	TTL           time.Duration
	ActorID       uuid.UUID
}

// AdjustmentLineRequest is one correction line of a draft adjustment
type AdjustmentLineRequest struct {
	StockLineID uuid.UUID
	Direction   inventory.AdjustmentDirection
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	Reason      string
}

// CreateAdjustmentRequest opens a draft stock adjustment
type CreateAdjustmentRequest struct {
	StoreID uuid.UUID
	ActorID uuid.UUID
	Reason  string
	Notes   string
	Lines   []AdjustmentLineRequest
}

// TransferLineRequest is one product line of a draft transfer
type TransferLineRequest struct {
	ProductRef inventory.ProductRef
	Quantity   decimal.Decimal
}

// CreateTransferRequest opens a draft transfer between two stores
type CreateTransferRequest struct {
	FromStoreID uuid.UUID
	ToStoreID   uuid.UUID
	ActorID     uuid.UUID
	Notes       string
	Lines       []TransferLineRequest
}

// ReceiveTransferLineRequest fixes the arrived quantity for one line
type ReceiveTransferLineRequest struct {
	LineID   uuid.UUID
	Quantity decimal.Decimal
}
