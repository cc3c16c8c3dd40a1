// Package sales holds the point-of-sale documents: the Sale itself and
// the CreditNote raised against a completed sale. Stock effects happen in
// the application layer inside the same transaction as the status moves
// modeled here.
package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared"
	"github.com/kardexhq/backend/internal/domain/workflow"
)

// SaleStatus represents the status of a sale
type SaleStatus string

const (
	SaleStatusDraft     SaleStatus = "draft"
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusReturned  SaleStatus = "returned"
	SaleStatusVoided    SaleStatus = "voided"
)

// String returns the string representation of the status
func (s SaleStatus) String() string {
	return string(s)
}

// IsValid checks if the status is one of the known values
func (s SaleStatus) IsValid() bool {
	switch s {
	case SaleStatusDraft, SaleStatusCompleted, SaleStatusReturned, SaleStatusVoided:
		return true
	}
	return false
}

// Sale workflow actions
const (
	SaleActionComplete workflow.Action = "complete"
	SaleActionVoid     workflow.Action = "void"
	SaleActionReturn   workflow.Action = "return"
)

// saleMachine: a draft either completes (deducting stock) or is voided
// (releasing holds, no stock ever moved). A completed sale can still be
// returned, which is handled through a credit note.
var saleMachine = workflow.NewMachine(
	"sale",
	SaleStatusDraft,
	[]SaleStatus{SaleStatusReturned, SaleStatusVoided},
	[]workflow.Rule[SaleStatus]{
		{From: SaleStatusDraft, Action: SaleActionComplete, To: SaleStatusCompleted},
		{From: SaleStatusDraft, Action: SaleActionVoid, To: SaleStatusVoided},
		{From: SaleStatusCompleted, Action: SaleActionReturn, To: SaleStatusReturned},
	},
)

// SaleMachine exposes the transition table
func SaleMachine() *workflow.Machine[SaleStatus] {
	return saleMachine
}

// SaleLine is one sold product. StockLineID is resolved when the line is
// added; ReservationID is set once the line holds stock and is released
// or consumed when the sale reaches a terminal state.
type SaleLine struct {
	ID             uuid.UUID
	SaleID         uuid.UUID
	ProductRef     inventory.ProductRef
	StockLineID    uuid.UUID
	ReservationID  *uuid.UUID
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	LineTotal      decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewSaleLine creates a line for a sale. The line total is
// quantity x price - discount + tax; the discount may not exceed the
// gross amount.
func NewSaleLine(saleID, stockLineID uuid.UUID, ref inventory.ProductRef, quantity, unitPrice, discountAmount, taxAmount decimal.Decimal) (*SaleLine, error) {
	if stockLineID == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "sale line stock line id cannot be empty")
	}
	if ref.IsZero() {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "sale line must reference a product or a variant")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "sale quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "unit price cannot be negative")
	}
	if discountAmount.IsNegative() || taxAmount.IsNegative() {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "discount and tax cannot be negative")
	}

	gross := quantity.Mul(unitPrice)
	if discountAmount.GreaterThan(gross) {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "discount cannot exceed the line amount")
	}

	now := time.Now()
	return &SaleLine{
		ID:             uuid.New(),
		SaleID:         saleID,
		ProductRef:     ref,
		StockLineID:    stockLineID,
		Quantity:       quantity,
		UnitPrice:      unitPrice,
		DiscountAmount: discountAmount,
		TaxAmount:      taxAmount,
		LineTotal:      gross.Sub(discountAmount).Add(taxAmount),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Subtotal returns quantity x unit price before discount and tax
func (l *SaleLine) Subtotal() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// AttachReservation links the stock hold backing this line
func (l *SaleLine) AttachReservation(reservationID uuid.UUID) {
	l.ReservationID = &reservationID
	l.UpdatedAt = time.Now()
}

// Sale is one point-of-sale transaction. Header totals are recomputed
// from the lines on every edit so they always reconcile.
type Sale struct {
	shared.BaseAggregateRoot
	DocumentNumber string
	StoreID        uuid.UUID
	CustomerID     *uuid.UUID
	Status         SaleStatus
	Items          []*SaleLine
	Subtotal       decimal.Decimal
	DiscountTotal  decimal.Decimal
	TaxTotal       decimal.Decimal
	Total          decimal.Decimal
	Notes          string
	CreatedBy      uuid.UUID
	CompletedBy    *uuid.UUID
	CompletedAt    *time.Time
	VoidedBy       *uuid.UUID
	VoidedAt       *time.Time
	VoidReason     string
	ReturnedBy     *uuid.UUID
	ReturnedAt     *time.Time
}

// NewSale creates a draft sale for a store
func NewSale(storeID, createdBy uuid.UUID) (*Sale, error) {
	if storeID == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "store id cannot be empty")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "sale creator cannot be empty")
	}

	return &Sale{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		StoreID:           storeID,
		Status:            saleMachine.Initial(),
		Items:             make([]*SaleLine, 0),
		Subtotal:          decimal.Zero,
		DiscountTotal:     decimal.Zero,
		TaxTotal:          decimal.Zero,
		Total:             decimal.Zero,
		CreatedBy:         createdBy,
	}, nil
}

// SetDocumentNumber assigns the human-readable document number once
func (s *Sale) SetDocumentNumber(number string) {
	if s.DocumentNumber == "" {
		s.DocumentNumber = number
		s.Touch()
	}
}

// SetCustomer attaches a customer to a draft sale
func (s *Sale) SetCustomer(customerID uuid.UUID) error {
	if s.Status != SaleStatusDraft {
		return shared.NewDomainError(shared.ErrInvalidState.Code, "can only set the customer on a draft sale")
	}
	if customerID == uuid.Nil {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "customer id cannot be empty")
	}
	s.CustomerID = &customerID
	s.Touch()
	return nil
}

// AddLine appends a sold product to a draft sale and recomputes totals
func (s *Sale) AddLine(stockLineID uuid.UUID, ref inventory.ProductRef, quantity, unitPrice, discountAmount, taxAmount decimal.Decimal) (*SaleLine, error) {
	if s.Status != SaleStatusDraft {
		return nil, shared.NewDomainError(shared.ErrInvalidState.Code, "can only add lines to a draft sale")
	}

	line, err := NewSaleLine(s.ID, stockLineID, ref, quantity, unitPrice, discountAmount, taxAmount)
	if err != nil {
		return nil, err
	}
	s.Items = append(s.Items, line)
	s.recalcTotals()
	return line, nil
}

// RemoveLine removes a product from a draft sale and recomputes totals
func (s *Sale) RemoveLine(lineID uuid.UUID) error {
	if s.Status != SaleStatusDraft {
		return shared.NewDomainError(shared.ErrInvalidState.Code, "can only remove lines from a draft sale")
	}
	for i, item := range s.Items {
		if item.ID == lineID {
			s.Items = append(s.Items[:i], s.Items[i+1:]...)
			s.recalcTotals()
			return nil
		}
	}
	return shared.NewDomainError(shared.ErrNotFound.Code, "sale line not found")
}

func (s *Sale) recalcTotals() {
	subtotal, discount, tax, total := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	for _, item := range s.Items {
		subtotal = subtotal.Add(item.Subtotal())
		discount = discount.Add(item.DiscountAmount)
		tax = tax.Add(item.TaxAmount)
		total = total.Add(item.LineTotal)
	}
	s.Subtotal = subtotal
	s.DiscountTotal = discount
	s.TaxTotal = tax
	s.Total = total
	s.Touch()
}

// LineByID finds a line on the sale
func (s *Sale) LineByID(lineID uuid.UUID) (*SaleLine, error) {
	for _, item := range s.Items {
		if item.ID == lineID {
			return item, nil
		}
	}
	return nil, shared.NewDomainError(shared.ErrNotFound.Code, "sale line not found")
}

// CanComplete reports whether the sale is in a state the complete
// transition accepts. Callers check this before consuming any held stock.
func (s *Sale) CanComplete() bool {
	return saleMachine.Can(s.Status, SaleActionComplete)
}

// CanVoid reports whether the sale is in a state the void transition
// accepts. Callers check this before releasing the lines' holds.
func (s *Sale) CanVoid() bool {
	return saleMachine.Can(s.Status, SaleActionVoid)
}

// Complete closes the sale. The caller confirms each line's reservation,
// deducts the stock and writes the movements in the same transaction; the
// sale must never read completed while any of that failed.
func (s *Sale) Complete(actorID uuid.UUID) error {
	next, err := saleMachine.Step(s.Status, SaleActionComplete)
	if err != nil {
		return err
	}
	if len(s.Items) == 0 {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "cannot complete a sale without lines")
	}

	now := time.Now()
	s.Status = next
	s.CompletedBy = &actorID
	s.CompletedAt = &now
	s.IncrementVersion()
	s.AddDomainEvent(NewSaleCompletedEvent(s))
	return nil
}

// Void abandons a draft sale. Nothing was ever deducted, so the only
// side effect is releasing the lines' reservations.
func (s *Sale) Void(actorID uuid.UUID, reason string) error {
	next, err := saleMachine.Step(s.Status, SaleActionVoid)
	if err != nil {
		return err
	}
	if reason == "" {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "a void reason is required")
	}

	now := time.Now()
	s.Status = next
	s.VoidedBy = &actorID
	s.VoidedAt = &now
	s.VoidReason = reason
	s.IncrementVersion()
	s.AddDomainEvent(NewSaleVoidedEvent(s))
	return nil
}

// MarkReturned records that an applied credit note returned this sale
func (s *Sale) MarkReturned(actorID uuid.UUID) error {
	next, err := saleMachine.Step(s.Status, SaleActionReturn)
	if err != nil {
		return err
	}

	now := time.Now()
	s.Status = next
	s.ReturnedBy = &actorID
	s.ReturnedAt = &now
	s.IncrementVersion()
	s.AddDomainEvent(NewSaleReturnedEvent(s))
	return nil
}
