package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared"
	"github.com/kardexhq/backend/internal/domain/workflow"
)

// CreditNoteStatus represents the status of a credit note
type CreditNoteStatus string

const (
	CreditNoteStatusDraft     CreditNoteStatus = "draft"
	CreditNoteStatusPending   CreditNoteStatus = "pending"
	CreditNoteStatusApproved  CreditNoteStatus = "approved"
	CreditNoteStatusApplied   CreditNoteStatus = "applied"
	CreditNoteStatusCancelled CreditNoteStatus = "cancelled"
)

// String returns the string representation of the status
func (s CreditNoteStatus) String() string {
	return string(s)
}

// IsValid checks if the status is one of the known values
func (s CreditNoteStatus) IsValid() bool {
	switch s {
	case CreditNoteStatusDraft,
		CreditNoteStatusPending,
		CreditNoteStatusApproved,
		CreditNoteStatusApplied,
		CreditNoteStatusCancelled:
		return true
	}
	return false
}

// Credit note workflow actions
const (
	CreditNoteActionSubmit  workflow.Action = "submit"
	CreditNoteActionApprove workflow.Action = "approve"
	CreditNoteActionApply   workflow.Action = "apply"
	CreditNoteActionCancel  workflow.Action = "cancel"
)

// creditNoteMachine: the note is drafted against a completed sale, goes
// through approval, and on apply restocks the flagged lines. It can be
// cancelled any time before it is applied.
var creditNoteMachine = workflow.NewMachine(
	"credit_note",
	CreditNoteStatusDraft,
	[]CreditNoteStatus{CreditNoteStatusApplied, CreditNoteStatusCancelled},
	[]workflow.Rule[CreditNoteStatus]{
		{From: CreditNoteStatusDraft, Action: CreditNoteActionSubmit, To: CreditNoteStatusPending},
		{From: CreditNoteStatusDraft, Action: CreditNoteActionCancel, To: CreditNoteStatusCancelled},
		{From: CreditNoteStatusPending, Action: CreditNoteActionApprove, To: CreditNoteStatusApproved},
		{From: CreditNoteStatusPending, Action: CreditNoteActionCancel, To: CreditNoteStatusCancelled},
		{From: CreditNoteStatusApproved, Action: CreditNoteActionApply, To: CreditNoteStatusApplied},
		{From: CreditNoteStatusApproved, Action: CreditNoteActionCancel, To: CreditNoteStatusCancelled},
	},
)

// CreditNoteMachine exposes the transition table
func CreditNoteMachine() *workflow.Machine[CreditNoteStatus] {
	return creditNoteMachine
}

// CreditNoteLine is one returned product. Restock controls whether
// applying the note puts the quantity back on the shelf; damaged goods
// are credited without restocking.
type CreditNoteLine struct {
	ID           uuid.UUID
	CreditNoteID uuid.UUID
	SaleLineID   uuid.UUID
	ProductRef   inventory.ProductRef
	StockLineID  uuid.UUID
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	Amount       decimal.Decimal
	Restock      bool
	Reason       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewCreditNoteLine creates a line crediting part of a sale line
func NewCreditNoteLine(creditNoteID uuid.UUID, saleLine *SaleLine, quantity decimal.Decimal, restock bool, reason string) (*CreditNoteLine, error) {
	if saleLine == nil {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "credit note line must reference a sale line")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "credited quantity must be positive")
	}
	if quantity.GreaterThan(saleLine.Quantity) {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "cannot credit more than was sold")
	}

	now := time.Now()
	return &CreditNoteLine{
		ID:           uuid.New(),
		CreditNoteID: creditNoteID,
		SaleLineID:   saleLine.ID,
		ProductRef:   saleLine.ProductRef,
		StockLineID:  saleLine.StockLineID,
		Quantity:     quantity,
		UnitPrice:    saleLine.UnitPrice,
		Amount:       quantity.Mul(saleLine.UnitPrice),
		Restock:      restock,
		Reason:       reason,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// CreditNote credits a completed sale, optionally restocking returned
// lines. It always references the original sale for traceability.
type CreditNote struct {
	shared.BaseAggregateRoot
	DocumentNumber string
	SaleID         uuid.UUID
	StoreID        uuid.UUID
	Status         CreditNoteStatus
	Items          []*CreditNoteLine
	Total          decimal.Decimal
	Reason         string
	CreatedBy      uuid.UUID
	SubmittedBy    *uuid.UUID
	SubmittedAt    *time.Time
	ApprovedBy     *uuid.UUID
	ApprovedAt     *time.Time
	AppliedBy      *uuid.UUID
	AppliedAt      *time.Time
	CancelledBy    *uuid.UUID
	CancelledAt    *time.Time
	CancelReason   string
}

// NewCreditNote creates a draft credit note against a completed sale
func NewCreditNote(sale *Sale, createdBy uuid.UUID, reason string) (*CreditNote, error) {
	if sale == nil {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "credit note must reference a sale")
	}
	if sale.Status != SaleStatusCompleted {
		return nil, shared.NewDomainError(shared.ErrInvalidState.Code, "credit notes can only be raised against completed sales")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "credit note creator cannot be empty")
	}
	if reason == "" {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "credit note reason is required")
	}

	return &CreditNote{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SaleID:            sale.ID,
		StoreID:           sale.StoreID,
		Status:            creditNoteMachine.Initial(),
		Items:             make([]*CreditNoteLine, 0),
		Total:             decimal.Zero,
		Reason:            reason,
		CreatedBy:         createdBy,
	}, nil
}

// SetDocumentNumber assigns the human-readable document number once
func (c *CreditNote) SetDocumentNumber(number string) {
	if c.DocumentNumber == "" {
		c.DocumentNumber = number
		c.Touch()
	}
}

// AddLine credits part of a sale line on a draft note
func (c *CreditNote) AddLine(saleLine *SaleLine, quantity decimal.Decimal, restock bool, reason string) (*CreditNoteLine, error) {
	if c.Status != CreditNoteStatusDraft {
		return nil, shared.NewDomainError(shared.ErrInvalidState.Code, "can only add lines to a draft credit note")
	}
	if saleLine != nil && saleLine.SaleID != c.SaleID {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "sale line belongs to a different sale")
	}
	for _, item := range c.Items {
		if saleLine != nil && item.SaleLineID == saleLine.ID {
			return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "credit note already credits this sale line")
		}
	}

	line, err := NewCreditNoteLine(c.ID, saleLine, quantity, restock, reason)
	if err != nil {
		return nil, err
	}
	c.Items = append(c.Items, line)
	c.Total = c.Total.Add(line.Amount)
	c.Touch()
	return line, nil
}

// Submit sends a draft note with at least one line for approval
func (c *CreditNote) Submit(actorID uuid.UUID) error {
	next, err := creditNoteMachine.Step(c.Status, CreditNoteActionSubmit)
	if err != nil {
		return err
	}
	if len(c.Items) == 0 {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "cannot submit a credit note without lines")
	}

	now := time.Now()
	c.Status = next
	c.SubmittedBy = &actorID
	c.SubmittedAt = &now
	c.IncrementVersion()
	return nil
}

// Approve clears a pending note for application
func (c *CreditNote) Approve(actorID uuid.UUID) error {
	next, err := creditNoteMachine.Step(c.Status, CreditNoteActionApprove)
	if err != nil {
		return err
	}

	now := time.Now()
	c.Status = next
	c.ApprovedBy = &actorID
	c.ApprovedAt = &now
	c.IncrementVersion()
	return nil
}

// CanApply reports whether the note is in a state the apply transition
// accepts. Callers check this before restocking anything.
func (c *CreditNote) CanApply() bool {
	return creditNoteMachine.Can(c.Status, CreditNoteActionApply)
}

// MarkApplied moves an approved note to applied. The caller restocks the
// flagged lines and marks the sale returned in the same transaction.
func (c *CreditNote) MarkApplied(actorID uuid.UUID) error {
	next, err := creditNoteMachine.Step(c.Status, CreditNoteActionApply)
	if err != nil {
		return err
	}

	now := time.Now()
	c.Status = next
	c.AppliedBy = &actorID
	c.AppliedAt = &now
	c.IncrementVersion()
	c.AddDomainEvent(NewCreditNoteAppliedEvent(c))
	return nil
}

// Cancel abandons a note before it is applied
func (c *CreditNote) Cancel(actorID uuid.UUID, reason string) error {
	next, err := creditNoteMachine.Step(c.Status, CreditNoteActionCancel)
	if err != nil {
		return err
	}
	if reason == "" {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "a cancellation reason is required")
	}

	now := time.Now()
	c.Status = next
	c.CancelledBy = &actorID
	c.CancelledAt = &now
	c.CancelReason = reason
	c.IncrementVersion()
	return nil
}

// RestockLines returns the lines flagged for restocking
func (c *CreditNote) RestockLines() []*CreditNoteLine {
	lines := make([]*CreditNoteLine, 0, len(c.Items))
	for _, item := range c.Items {
		if item.Restock {
			lines = append(lines, item)
		}
	}
	return lines
}
