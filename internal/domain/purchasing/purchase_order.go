// Package purchasing holds the purchase order and the goods receipts
// confirmed against it. Receiving never moves stock by itself: a
// confirmed goods receipt drives the `in` movements and the order's
// cumulative received quantities inside one transaction.
package purchasing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared"
	"github.com/kardexhq/backend/internal/domain/workflow"
)

// PurchaseOrderStatus represents the status of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft             PurchaseOrderStatus = "draft"
	PurchaseOrderStatusSubmitted         PurchaseOrderStatus = "submitted"
	PurchaseOrderStatusApproved          PurchaseOrderStatus = "approved"
	PurchaseOrderStatusPartiallyReceived PurchaseOrderStatus = "partially_received"
	PurchaseOrderStatusReceived          PurchaseOrderStatus = "received"
	PurchaseOrderStatusClosed            PurchaseOrderStatus = "closed"
	PurchaseOrderStatusCancelled         PurchaseOrderStatus = "cancelled"
	PurchaseOrderStatusRejected          PurchaseOrderStatus = "rejected"
)

// String returns the string representation of the status
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// IsValid checks if the status is one of the known values
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case PurchaseOrderStatusDraft,
		PurchaseOrderStatusSubmitted,
		PurchaseOrderStatusApproved,
		PurchaseOrderStatusPartiallyReceived,
		PurchaseOrderStatusReceived,
		PurchaseOrderStatusClosed,
		PurchaseOrderStatusCancelled,
		PurchaseOrderStatusRejected:
		return true
	}
	return false
}

// Purchase order workflow actions. Receiving distinguishes a partial
// delivery from the one that completes the order because the transition
// table maps (state, action) pairs, and the two land in different states.
const (
	PurchaseOrderActionSubmit     workflow.Action = "submit"
	PurchaseOrderActionApprove    workflow.Action = "approve"
	PurchaseOrderActionReject     workflow.Action = "reject"
	PurchaseOrderActionCancel     workflow.Action = "cancel"
	PurchaseOrderActionReceive    workflow.Action = "receive"
	PurchaseOrderActionReceiveAll workflow.Action = "receive_all"
	PurchaseOrderActionClose      workflow.Action = "close"
)

var purchaseOrderMachine = workflow.NewMachine(
	"purchase_order",
	PurchaseOrderStatusDraft,
	[]PurchaseOrderStatus{PurchaseOrderStatusClosed, PurchaseOrderStatusCancelled, PurchaseOrderStatusRejected},
	[]workflow.Rule[PurchaseOrderStatus]{
		{From: PurchaseOrderStatusDraft, Action: PurchaseOrderActionSubmit, To: PurchaseOrderStatusSubmitted},
		{From: PurchaseOrderStatusDraft, Action: PurchaseOrderActionCancel, To: PurchaseOrderStatusCancelled},
		{From: PurchaseOrderStatusSubmitted, Action: PurchaseOrderActionApprove, To: PurchaseOrderStatusApproved},
		{From: PurchaseOrderStatusSubmitted, Action: PurchaseOrderActionReject, To: PurchaseOrderStatusRejected},
		{From: PurchaseOrderStatusSubmitted, Action: PurchaseOrderActionCancel, To: PurchaseOrderStatusCancelled},
		{From: PurchaseOrderStatusApproved, Action: PurchaseOrderActionReceive, To: PurchaseOrderStatusPartiallyReceived},
		{From: PurchaseOrderStatusApproved, Action: PurchaseOrderActionReceiveAll, To: PurchaseOrderStatusReceived},
		{From: PurchaseOrderStatusApproved, Action: PurchaseOrderActionCancel, To: PurchaseOrderStatusCancelled},
		{From: PurchaseOrderStatusPartiallyReceived, Action: PurchaseOrderActionReceive, To: PurchaseOrderStatusPartiallyReceived},
		{From: PurchaseOrderStatusPartiallyReceived, Action: PurchaseOrderActionReceiveAll, To: PurchaseOrderStatusReceived},
		{From: PurchaseOrderStatusPartiallyReceived, Action: PurchaseOrderActionCancel, To: PurchaseOrderStatusCancelled},
		{From: PurchaseOrderStatusReceived, Action: PurchaseOrderActionClose, To: PurchaseOrderStatusClosed},
	},
)

// PurchaseOrderMachine exposes the transition table
func PurchaseOrderMachine() *workflow.Machine[PurchaseOrderStatus] {
	return purchaseOrderMachine
}

// PurchaseOrderLine is one ordered product. QuantityReceived accumulates
// over goods receipts and can never exceed QuantityOrdered.
type PurchaseOrderLine struct {
	ID               uuid.UUID
	PurchaseOrderID  uuid.UUID
	ProductRef       inventory.ProductRef
	QuantityOrdered  decimal.Decimal
	QuantityReceived decimal.Decimal
	UnitCost         decimal.Decimal
	LineTotal        decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewPurchaseOrderLine creates a line for a purchase order
func NewPurchaseOrderLine(orderID uuid.UUID, ref inventory.ProductRef, quantity, unitCost decimal.Decimal) (*PurchaseOrderLine, error) {
	if ref.IsZero() {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "order line must reference a product or a variant")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "ordered quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "unit cost cannot be negative")
	}

	now := time.Now()
	return &PurchaseOrderLine{
		ID:               uuid.New(),
		PurchaseOrderID:  orderID,
		ProductRef:       ref,
		QuantityOrdered:  quantity,
		QuantityReceived: decimal.Zero,
		UnitCost:         unitCost,
		LineTotal:        quantity.Mul(unitCost),
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Outstanding returns the quantity still expected
func (l *PurchaseOrderLine) Outstanding() decimal.Decimal {
	return l.QuantityOrdered.Sub(l.QuantityReceived)
}

// IsFullyReceived reports whether nothing more is expected on the line
func (l *PurchaseOrderLine) IsFullyReceived() bool {
	return l.QuantityReceived.GreaterThanOrEqual(l.QuantityOrdered)
}

// addReceipt accumulates a received quantity, never past the ordered one
func (l *PurchaseOrderLine) addReceipt(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "received quantity must be positive")
	}
	if quantity.GreaterThan(l.Outstanding()) {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "receipt would exceed the ordered quantity")
	}
	l.QuantityReceived = l.QuantityReceived.Add(quantity)
	l.UpdatedAt = time.Now()
	return nil
}

// PurchaseOrder is an order placed with a vendor. Its status advances to
// partially_received or received automatically as goods receipts are
// confirmed against it.
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	DocumentNumber string
	StoreID        uuid.UUID
	VendorID       uuid.UUID
	Status         PurchaseOrderStatus
	Items          []*PurchaseOrderLine
	Total          decimal.Decimal
	Notes          string
	CreatedBy      uuid.UUID
	SubmittedBy    *uuid.UUID
	SubmittedAt    *time.Time
	ApprovedBy     *uuid.UUID
	ApprovedAt     *time.Time
	RejectedBy     *uuid.UUID
	RejectedAt     *time.Time
	RejectReason   string
	CancelledBy    *uuid.UUID
	CancelledAt    *time.Time
	CancelReason   string
	ReceivedAt     *time.Time
	ClosedBy       *uuid.UUID
	ClosedAt       *time.Time
}

// NewPurchaseOrder creates a draft order for a store and vendor
func NewPurchaseOrder(storeID, vendorID, createdBy uuid.UUID) (*PurchaseOrder, error) {
	if storeID == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "store id cannot be empty")
	}
	if vendorID == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "vendor id cannot be empty")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "order creator cannot be empty")
	}

	return &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		StoreID:           storeID,
		VendorID:          vendorID,
		Status:            purchaseOrderMachine.Initial(),
		Items:             make([]*PurchaseOrderLine, 0),
		Total:             decimal.Zero,
		CreatedBy:         createdBy,
	}, nil
}

// SetDocumentNumber assigns the human-readable document number once
func (o *PurchaseOrder) SetDocumentNumber(number string) {
	if o.DocumentNumber == "" {
		o.DocumentNumber = number
		o.Touch()
	}
}

// AddLine appends a product to a draft order
func (o *PurchaseOrder) AddLine(ref inventory.ProductRef, quantity, unitCost decimal.Decimal) (*PurchaseOrderLine, error) {
	if o.Status != PurchaseOrderStatusDraft {
		return nil, shared.NewDomainError(shared.ErrInvalidState.Code, "can only add lines to a draft order")
	}
	for _, item := range o.Items {
		if item.ProductRef.Equals(ref) {
			return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "order already has a line for this product")
		}
	}

	line, err := NewPurchaseOrderLine(o.ID, ref, quantity, unitCost)
	if err != nil {
		return nil, err
	}
	o.Items = append(o.Items, line)
	o.recalcTotal()
	return line, nil
}

// RemoveLine removes a product from a draft order
func (o *PurchaseOrder) RemoveLine(lineID uuid.UUID) error {
	if o.Status != PurchaseOrderStatusDraft {
		return shared.NewDomainError(shared.ErrInvalidState.Code, "can only remove lines from a draft order")
	}
	for i, item := range o.Items {
		if item.ID == lineID {
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			o.recalcTotal()
			return nil
		}
	}
	return shared.NewDomainError(shared.ErrNotFound.Code, "order line not found")
}

func (o *PurchaseOrder) recalcTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal)
	}
	o.Total = total
	o.Touch()
}

// LineByID finds a line on the order
func (o *PurchaseOrder) LineByID(lineID uuid.UUID) (*PurchaseOrderLine, error) {
	for _, item := range o.Items {
		if item.ID == lineID {
			return item, nil
		}
	}
	return nil, shared.NewDomainError(shared.ErrNotFound.Code, "order line not found")
}

// Submit sends a draft order with lines to approval
func (o *PurchaseOrder) Submit(actorID uuid.UUID) error {
	next, err := purchaseOrderMachine.Step(o.Status, PurchaseOrderActionSubmit)
	if err != nil {
		return err
	}
	if len(o.Items) == 0 {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "cannot submit an order without lines")
	}

	now := time.Now()
	o.Status = next
	o.SubmittedBy = &actorID
	o.SubmittedAt = &now
	o.IncrementVersion()
	return nil
}

// Approve clears a submitted order for receiving
func (o *PurchaseOrder) Approve(actorID uuid.UUID) error {
	next, err := purchaseOrderMachine.Step(o.Status, PurchaseOrderActionApprove)
	if err != nil {
		return err
	}

	now := time.Now()
	o.Status = next
	o.ApprovedBy = &actorID
	o.ApprovedAt = &now
	o.IncrementVersion()
	return nil
}

// Reject declines a submitted order
func (o *PurchaseOrder) Reject(actorID uuid.UUID, reason string) error {
	next, err := purchaseOrderMachine.Step(o.Status, PurchaseOrderActionReject)
	if err != nil {
		return err
	}
	if reason == "" {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "a rejection reason is required")
	}

	now := time.Now()
	o.Status = next
	o.RejectedBy = &actorID
	o.RejectedAt = &now
	o.RejectReason = reason
	o.IncrementVersion()
	return nil
}

// Cancel abandons an order before it is fully received
func (o *PurchaseOrder) Cancel(actorID uuid.UUID, reason string) error {
	next, err := purchaseOrderMachine.Step(o.Status, PurchaseOrderActionCancel)
	if err != nil {
		return err
	}
	if reason == "" {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "a cancellation reason is required")
	}

	now := time.Now()
	o.Status = next
	o.CancelledBy = &actorID
	o.CancelledAt = &now
	o.CancelReason = reason
	o.IncrementVersion()
	return nil
}

// ReceiptQuantity pairs an order line with a received quantity
type ReceiptQuantity struct {
	OrderLineID uuid.UUID
	Quantity    decimal.Decimal
}

// ApplyReceipt accumulates a confirmed goods receipt's quantities onto
// the order lines and auto-advances the status: partially_received while
// anything is outstanding, received once every line is complete. Each
// quantity is validated against the line's outstanding amount; any
// violation leaves the order untouched state-wise because the whole
// transaction rolls back.
func (o *PurchaseOrder) ApplyReceipt(quantities []ReceiptQuantity) error {
	if len(quantities) == 0 {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "a receipt needs at least one quantity")
	}
	if !purchaseOrderMachine.Can(o.Status, PurchaseOrderActionReceive) {
		return shared.NewDomainError(
			shared.ErrInvalidTransition.Code,
			"purchase_order: cannot receive in status "+o.Status.String(),
		)
	}

	for _, rq := range quantities {
		line, err := o.LineByID(rq.OrderLineID)
		if err != nil {
			return err
		}
		if err := line.addReceipt(rq.Quantity); err != nil {
			return err
		}
	}

	action := PurchaseOrderActionReceive
	if o.IsFullyReceived() {
		action = PurchaseOrderActionReceiveAll
	}
	next, err := purchaseOrderMachine.Step(o.Status, action)
	if err != nil {
		return err
	}

	o.Status = next
	if o.Status == PurchaseOrderStatusReceived {
		now := time.Now()
		o.ReceivedAt = &now
	}
	o.IncrementVersion()
	o.AddDomainEvent(NewPurchaseOrderReceivedEvent(o))
	return nil
}

// IsFullyReceived reports whether every line is complete
func (o *PurchaseOrder) IsFullyReceived() bool {
	for _, item := range o.Items {
		if !item.IsFullyReceived() {
			return false
		}
	}
	return len(o.Items) > 0
}

// Close finishes a fully received order
func (o *PurchaseOrder) Close(actorID uuid.UUID) error {
	next, err := purchaseOrderMachine.Step(o.Status, PurchaseOrderActionClose)
	if err != nil {
		return err
	}

	now := time.Now()
	o.Status = next
	o.ClosedBy = &actorID
	o.ClosedAt = &now
	o.IncrementVersion()
	return nil
}
