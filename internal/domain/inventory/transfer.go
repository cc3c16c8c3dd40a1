package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kardexhq/backend/internal/domain/shared"
	"github.com/kardexhq/backend/internal/domain/workflow"
)

// TransferStatus represents the status of a stock transfer
type TransferStatus string

const (
	TransferStatusDraft     TransferStatus = "draft"
	TransferStatusPending   TransferStatus = "pending"
	TransferStatusInTransit TransferStatus = "in_transit"
	TransferStatusCompleted TransferStatus = "completed"
	TransferStatusCancelled TransferStatus = "cancelled"
)

// String returns the string representation of the status
func (s TransferStatus) String() string {
	return string(s)
}

// IsValid checks if the status is one of the known values
func (s TransferStatus) IsValid() bool {
	switch s {
	case TransferStatusDraft,
		TransferStatusPending,
		TransferStatusInTransit,
		TransferStatusCompleted,
		TransferStatusCancelled:
		return true
	}
	return false
}

// Transfer workflow actions
const (
	TransferActionSubmit  workflow.Action = "submit"
	TransferActionShip    workflow.Action = "ship"
	TransferActionReceive workflow.Action = "receive"
	TransferActionCancel  workflow.Action = "cancel"
)

// transferMachine is the closed transition table for transfers. Once stock
// has left the source (in_transit) the transfer can no longer be
// cancelled; it has to be received, shrinkage and all.
var transferMachine = workflow.NewMachine(
	"stock_transfer",
	TransferStatusDraft,
	[]TransferStatus{TransferStatusCompleted, TransferStatusCancelled},
	[]workflow.Rule[TransferStatus]{
		{From: TransferStatusDraft, Action: TransferActionSubmit, To: TransferStatusPending},
		{From: TransferStatusDraft, Action: TransferActionCancel, To: TransferStatusCancelled},
		{From: TransferStatusPending, Action: TransferActionShip, To: TransferStatusInTransit},
		{From: TransferStatusPending, Action: TransferActionCancel, To: TransferStatusCancelled},
		{From: TransferStatusInTransit, Action: TransferActionReceive, To: TransferStatusCompleted},
	},
)

// TransferMachine exposes the transition table
func TransferMachine() *workflow.Machine[TransferStatus] {
	return transferMachine
}

// TransferLine is one product moving between stores. Quantity is what was
// requested; QuantityShipped is fixed when the transfer ships and
// QuantityReceived when it arrives. Received may differ from shipped
// (shrinkage, or an over-count at the destination) — the difference is
// recorded, never rejected. The source and destination stock line ids are
// resolved when the respective side of the move happens.
type TransferLine struct {
	ID                uuid.UUID
	TransferID        uuid.UUID
	ProductRef        ProductRef
	Quantity          decimal.Decimal
	QuantityShipped   decimal.Decimal
	QuantityReceived  *decimal.Decimal
	UnitCost          decimal.Decimal
	SourceStockLineID *uuid.UUID
	DestStockLineID   *uuid.UUID
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewTransferLine creates a line for a transfer
func NewTransferLine(transferID uuid.UUID, ref ProductRef, quantity decimal.Decimal) (*TransferLine, error) {
	if ref.IsZero() {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "transfer line must reference a product or a variant")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "transfer quantity must be positive")
	}

	now := time.Now()
	return &TransferLine{
		ID:         uuid.New(),
		TransferID: transferID,
		ProductRef: ref,
		Quantity:   quantity,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Discrepancy returns shipped minus received. Positive means shrinkage in
// transit, negative an over-count at the destination, zero (also before
// receipt) a clean move.
func (l *TransferLine) Discrepancy() decimal.Decimal {
	if l.QuantityReceived == nil {
		return decimal.Zero
	}
	return l.QuantityShipped.Sub(*l.QuantityReceived)
}

// StockTransfer moves stock between two stores. Shipping deducts from the
// source, receiving credits the destination; the two sides are separate
// transitions so stock in transit is visible as the gap between them.
type StockTransfer struct {
	shared.BaseAggregateRoot
	DocumentNumber string
	FromStoreID    uuid.UUID
	ToStoreID      uuid.UUID
	Status         TransferStatus
	Items          []*TransferLine
	Notes          string
	CreatedBy      uuid.UUID
	SubmittedBy    *uuid.UUID
	SubmittedAt    *time.Time
	ShippedBy      *uuid.UUID
	ShippedAt      *time.Time
	ReceivedBy     *uuid.UUID
	ReceivedAt     *time.Time
	CancelledBy    *uuid.UUID
	CancelledAt    *time.Time
	CancelReason   string
}

// NewStockTransfer creates a draft transfer between two distinct stores
func NewStockTransfer(fromStoreID, toStoreID, createdBy uuid.UUID) (*StockTransfer, error) {
	if fromStoreID == uuid.Nil || toStoreID == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "transfer stores cannot be empty")
	}
	if fromStoreID == toStoreID {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "transfer source and destination must differ")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "transfer creator cannot be empty")
	}

	return &StockTransfer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		FromStoreID:       fromStoreID,
		ToStoreID:         toStoreID,
		Status:            transferMachine.Initial(),
		Items:             make([]*TransferLine, 0),
		CreatedBy:         createdBy,
	}, nil
}

// SetDocumentNumber assigns the human-readable document number once
func (t *StockTransfer) SetDocumentNumber(number string) {
	if t.DocumentNumber == "" {
		t.DocumentNumber = number
		t.Touch()
	}
}

// AddLine appends a product to a draft transfer
func (t *StockTransfer) AddLine(ref ProductRef, quantity decimal.Decimal) (*TransferLine, error) {
	if t.Status != TransferStatusDraft {
		return nil, shared.NewDomainError(shared.ErrInvalidState.Code, "can only add lines to a draft transfer")
	}
	for _, item := range t.Items {
		if item.ProductRef.Equals(ref) {
			return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "transfer already has a line for this product")
		}
	}

	line, err := NewTransferLine(t.ID, ref, quantity)
	if err != nil {
		return nil, err
	}
	t.Items = append(t.Items, line)
	t.Touch()
	return line, nil
}

// RemoveLine removes a product from a draft transfer
func (t *StockTransfer) RemoveLine(lineID uuid.UUID) error {
	if t.Status != TransferStatusDraft {
		return shared.NewDomainError(shared.ErrInvalidState.Code, "can only remove lines from a draft transfer")
	}
	for i, item := range t.Items {
		if item.ID == lineID {
			t.Items = append(t.Items[:i], t.Items[i+1:]...)
			t.Touch()
			return nil
		}
	}
	return shared.NewDomainError(shared.ErrNotFound.Code, "transfer line not found")
}

// Submit queues a draft transfer for shipping
func (t *StockTransfer) Submit(actorID uuid.UUID) error {
	next, err := transferMachine.Step(t.Status, TransferActionSubmit)
	if err != nil {
		return err
	}
	if len(t.Items) == 0 {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "cannot submit a transfer without lines")
	}

	now := time.Now()
	t.Status = next
	t.SubmittedBy = &actorID
	t.SubmittedAt = &now
	t.IncrementVersion()
	return nil
}

// RecordShipment fixes what actually left the source for one line: the
// shipped quantity, the source stock line it came off, and the unit cost it
// was carried at. Called by the shipping transaction for every line before
// Ship.
func (t *StockTransfer) RecordShipment(lineID, sourceStockLineID uuid.UUID, quantity, unitCost decimal.Decimal) error {
	if t.Status != TransferStatusPending {
		return shared.NewDomainError(shared.ErrInvalidState.Code, "can only record shipments on a pending transfer")
	}
	if !quantity.IsPositive() {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "shipped quantity must be positive")
	}
	for _, item := range t.Items {
		if item.ID == lineID {
			item.QuantityShipped = quantity
			item.UnitCost = unitCost
			item.SourceStockLineID = &sourceStockLineID
			item.UpdatedAt = time.Now()
			return nil
		}
	}
	return shared.NewDomainError(shared.ErrNotFound.Code, "transfer line not found")
}

// CanShip reports whether the transfer is in a state the ship transition
// accepts. Callers check this before deducting any source stock.
func (t *StockTransfer) CanShip() bool {
	return transferMachine.Can(t.Status, TransferActionShip)
}

// Ship marks the transfer in transit. Every line must have its shipment
// recorded; the ledger deductions happen in the same transaction.
func (t *StockTransfer) Ship(actorID uuid.UUID) error {
	next, err := transferMachine.Step(t.Status, TransferActionShip)
	if err != nil {
		return err
	}
	for _, item := range t.Items {
		if item.SourceStockLineID == nil || !item.QuantityShipped.IsPositive() {
			return shared.NewDomainError(shared.ErrConstraintViolation.Code, "all lines must record their shipment before the transfer ships")
		}
	}

	now := time.Now()
	t.Status = next
	t.ShippedBy = &actorID
	t.ShippedAt = &now
	t.IncrementVersion()
	t.AddDomainEvent(NewTransferShippedEvent(t))
	return nil
}

// RecordReceipt fixes what actually arrived for one line and the
// destination stock line it was credited to. The received quantity may
// differ from the shipped one in either direction.
func (t *StockTransfer) RecordReceipt(lineID, destStockLineID uuid.UUID, quantity decimal.Decimal) error {
	if t.Status != TransferStatusInTransit {
		return shared.NewDomainError(shared.ErrInvalidState.Code, "can only record receipts on an in-transit transfer")
	}
	if quantity.IsNegative() {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "received quantity cannot be negative")
	}
	for _, item := range t.Items {
		if item.ID == lineID {
			q := quantity
			item.QuantityReceived = &q
			item.DestStockLineID = &destStockLineID
			item.UpdatedAt = time.Now()
			return nil
		}
	}
	return shared.NewDomainError(shared.ErrNotFound.Code, "transfer line not found")
}

// CanReceive reports whether the transfer is in a state the receive
// transition accepts. Callers check this before crediting the destination.
func (t *StockTransfer) CanReceive() bool {
	return transferMachine.Can(t.Status, TransferActionReceive)
}

// Receive completes the transfer. Every line must have its receipt
// recorded; the destination credits happen in the same transaction.
func (t *StockTransfer) Receive(actorID uuid.UUID) error {
	next, err := transferMachine.Step(t.Status, TransferActionReceive)
	if err != nil {
		return err
	}
	for _, item := range t.Items {
		if item.QuantityReceived == nil {
			return shared.NewDomainError(shared.ErrConstraintViolation.Code, "all lines must record their receipt before the transfer completes")
		}
	}

	now := time.Now()
	t.Status = next
	t.ReceivedBy = &actorID
	t.ReceivedAt = &now
	t.IncrementVersion()
	t.AddDomainEvent(NewTransferReceivedEvent(t))
	return nil
}

// Cancel abandons a transfer that has not yet shipped
func (t *StockTransfer) Cancel(actorID uuid.UUID, reason string) error {
	next, err := transferMachine.Step(t.Status, TransferActionCancel)
	if err != nil {
		return err
	}
	if reason == "" {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "a cancellation reason is required")
	}

	now := time.Now()
	t.Status = next
	t.CancelledBy = &actorID
	t.CancelledAt = &now
	t.CancelReason = reason
	t.IncrementVersion()
	return nil
}

// TotalDiscrepancy sums shipped-minus-received over all lines
func (t *StockTransfer) TotalDiscrepancy() decimal.Decimal {
	total := decimal.Zero
	for _, item := range t.Items {
		total = total.Add(item.Discrepancy())
	}
	return total
}
