package purchasing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared"
	"github.com/kardexhq/backend/internal/domain/workflow"
)

// GoodsReceiptStatus represents the status of a goods receipt
type GoodsReceiptStatus string

const (
	GoodsReceiptStatusDraft     GoodsReceiptStatus = "draft"
	GoodsReceiptStatusConfirmed GoodsReceiptStatus = "confirmed"
	GoodsReceiptStatusCancelled GoodsReceiptStatus = "cancelled"
)

// String returns the string representation of the status
func (s GoodsReceiptStatus) String() string {
	return string(s)
}

// IsValid checks if the status is one of the known values
func (s GoodsReceiptStatus) IsValid() bool {
	switch s {
	case GoodsReceiptStatusDraft, GoodsReceiptStatusConfirmed, GoodsReceiptStatusCancelled:
		return true
	}
	return false
}

// Goods receipt workflow actions
const (
	GoodsReceiptActionConfirm workflow.Action = "confirm"
	GoodsReceiptActionCancel  workflow.Action = "cancel"
)

var goodsReceiptMachine = workflow.NewMachine(
	"goods_receipt",
	GoodsReceiptStatusDraft,
	[]GoodsReceiptStatus{GoodsReceiptStatusConfirmed, GoodsReceiptStatusCancelled},
	[]workflow.Rule[GoodsReceiptStatus]{
		{From: GoodsReceiptStatusDraft, Action: GoodsReceiptActionConfirm, To: GoodsReceiptStatusConfirmed},
		{From: GoodsReceiptStatusDraft, Action: GoodsReceiptActionCancel, To: GoodsReceiptStatusCancelled},
	},
)

// GoodsReceiptMachine exposes the transition table
func GoodsReceiptMachine() *workflow.Machine[GoodsReceiptStatus] {
	return goodsReceiptMachine
}

// GoodsReceiptLine records how much of one order line arrived, at what
// cost. UnitCost defaults to the order line's cost but may be overridden
// when the vendor invoices a different price.
type GoodsReceiptLine struct {
	ID               uuid.UUID
	GoodsReceiptID   uuid.UUID
	OrderLineID      uuid.UUID
	ProductRef       inventory.ProductRef
	QuantityReceived decimal.Decimal
	UnitCost         decimal.Decimal
	CreatedAt        time.Time
}

// GoodsReceipt documents one delivery against an approved purchase
// order. Confirming it is what makes stock move: the receipt's lines
// drive `in` movements and the order's cumulative received quantities
// in one transaction.
type GoodsReceipt struct {
	shared.BaseAggregateRoot
	DocumentNumber  string
	PurchaseOrderID uuid.UUID
	StoreID         uuid.UUID
	Status          GoodsReceiptStatus
	Items           []*GoodsReceiptLine
	Notes           string
	CreatedBy       uuid.UUID
	ConfirmedBy     *uuid.UUID
	ConfirmedAt     *time.Time
	CancelledBy     *uuid.UUID
	CancelledAt     *time.Time
	CancelReason    string
}

// NewGoodsReceipt creates a draft receipt against a receivable order.
// The order must already be approved or partially received.
func NewGoodsReceipt(order *PurchaseOrder, createdBy uuid.UUID) (*GoodsReceipt, error) {
	if order == nil {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "a receipt needs a purchase order")
	}
	if !purchaseOrderMachine.Can(order.Status, PurchaseOrderActionReceive) {
		return nil, shared.NewDomainError(
			shared.ErrInvalidState.Code,
			"cannot receive against an order in status "+order.Status.String(),
		)
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "receipt creator cannot be empty")
	}

	return &GoodsReceipt{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PurchaseOrderID:   order.ID,
		StoreID:           order.StoreID,
		Status:            goodsReceiptMachine.Initial(),
		Items:             make([]*GoodsReceiptLine, 0),
		CreatedBy:         createdBy,
	}, nil
}

// SetDocumentNumber assigns the human-readable document number once
func (g *GoodsReceipt) SetDocumentNumber(number string) {
	if g.DocumentNumber == "" {
		g.DocumentNumber = number
		g.Touch()
	}
}

// AddLine records an arrived quantity for one order line. The quantity
// is validated against the line's outstanding amount so a draft receipt
// can never be confirmed into an over-receipt. A nil unitCost falls back
// to the order line's cost.
func (g *GoodsReceipt) AddLine(orderLine *PurchaseOrderLine, quantity decimal.Decimal, unitCost *decimal.Decimal) (*GoodsReceiptLine, error) {
	if g.Status != GoodsReceiptStatusDraft {
		return nil, shared.NewDomainError(shared.ErrInvalidState.Code, "can only add lines to a draft receipt")
	}
	if orderLine == nil || orderLine.PurchaseOrderID != g.PurchaseOrderID {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "receipt line must belong to the receipt's order")
	}
	for _, item := range g.Items {
		if item.OrderLineID == orderLine.ID {
			return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "receipt already has a line for this order line")
		}
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "received quantity must be positive")
	}
	if quantity.GreaterThan(orderLine.Outstanding()) {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "receipt would exceed the ordered quantity")
	}

	cost := orderLine.UnitCost
	if unitCost != nil {
		if unitCost.IsNegative() {
			return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "unit cost cannot be negative")
		}
		cost = *unitCost
	}

	line := &GoodsReceiptLine{
		ID:               uuid.New(),
		GoodsReceiptID:   g.ID,
		OrderLineID:      orderLine.ID,
		ProductRef:       orderLine.ProductRef,
		QuantityReceived: quantity,
		UnitCost:         cost,
		CreatedAt:        time.Now(),
	}
	g.Items = append(g.Items, line)
	g.Touch()
	return line, nil
}

// Confirm finalizes the receipt. The caller applies the quantities to
// the order and to stock in the same transaction.
func (g *GoodsReceipt) Confirm(actorID uuid.UUID) error {
	next, err := goodsReceiptMachine.Step(g.Status, GoodsReceiptActionConfirm)
	if err != nil {
		return err
	}
	if len(g.Items) == 0 {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "cannot confirm a receipt without lines")
	}

	now := time.Now()
	g.Status = next
	g.ConfirmedBy = &actorID
	g.ConfirmedAt = &now
	g.IncrementVersion()
	g.AddDomainEvent(NewGoodsReceiptConfirmedEvent(g))
	return nil
}

// Cancel discards a draft receipt
func (g *GoodsReceipt) Cancel(actorID uuid.UUID, reason string) error {
	next, err := goodsReceiptMachine.Step(g.Status, GoodsReceiptActionCancel)
	if err != nil {
		return err
	}
	if reason == "" {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "a cancellation reason is required")
	}

	now := time.Now()
	g.Status = next
	g.CancelledBy = &actorID
	g.CancelledAt = &now
	g.CancelReason = reason
	g.IncrementVersion()
	return nil
}

// ReceiptQuantities converts the receipt lines into the per-order-line
// quantities applied to the purchase order.
func (g *GoodsReceipt) ReceiptQuantities() []ReceiptQuantity {
	quantities := make([]ReceiptQuantity, 0, len(g.Items))
	for _, item := range g.Items {
		quantities = append(quantities, ReceiptQuantity{
			OrderLineID: item.OrderLineID,
			Quantity:    item.QuantityReceived,
		})
	}
	return quantities
}
