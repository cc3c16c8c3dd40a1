package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kardexhq/backend/internal/domain/shared"
	"github.com/kardexhq/backend/internal/domain/workflow"
)

// AdjustmentStatus represents the status of a stock adjustment
type AdjustmentStatus string

const (
	AdjustmentStatusDraft           AdjustmentStatus = "draft"
	AdjustmentStatusPendingApproval AdjustmentStatus = "pending_approval"
	AdjustmentStatusApproved        AdjustmentStatus = "approved"
	AdjustmentStatusApplied         AdjustmentStatus = "applied"
	AdjustmentStatusRejected        AdjustmentStatus = "rejected"
)

// String returns the string representation of the status
func (s AdjustmentStatus) String() string {
	return string(s)
}

// IsValid checks if the status is one of the known values
func (s AdjustmentStatus) IsValid() bool {
	switch s {
	case AdjustmentStatusDraft,
		AdjustmentStatusPendingApproval,
		AdjustmentStatusApproved,
		AdjustmentStatusApplied,
		AdjustmentStatusRejected:
		return true
	}
	return false
}

// Adjustment workflow actions
const (
	AdjustmentActionSubmit  workflow.Action = "submit"
	AdjustmentActionApprove workflow.Action = "approve"
	AdjustmentActionReject  workflow.Action = "reject"
	AdjustmentActionApply   workflow.Action = "apply"
)

// adjustmentMachine is the closed transition table for stock adjustments:
// draft -> pending_approval -> approved -> applied, with rejection possible
// while approval is pending. Applied and rejected are terminal.
var adjustmentMachine = workflow.NewMachine(
	"stock_adjustment",
	AdjustmentStatusDraft,
	[]AdjustmentStatus{AdjustmentStatusApplied, AdjustmentStatusRejected},
	[]workflow.Rule[AdjustmentStatus]{
		{From: AdjustmentStatusDraft, Action: AdjustmentActionSubmit, To: AdjustmentStatusPendingApproval},
		{From: AdjustmentStatusPendingApproval, Action: AdjustmentActionApprove, To: AdjustmentStatusApproved},
		{From: AdjustmentStatusPendingApproval, Action: AdjustmentActionReject, To: AdjustmentStatusRejected},
		{From: AdjustmentStatusApproved, Action: AdjustmentActionApply, To: AdjustmentStatusApplied},
	},
)

// AdjustmentMachine exposes the transition table, mainly for the facade to
// report which actions a document currently accepts.
func AdjustmentMachine() *workflow.Machine[AdjustmentStatus] {
	return adjustmentMachine
}

// AdjustmentDirection says which way a line moves stock
type AdjustmentDirection string

const (
	// AdjustmentIncrease adds stock at the recorded unit cost
	AdjustmentIncrease AdjustmentDirection = "increase"
	// AdjustmentDecrease removes stock at the current average cost
	AdjustmentDecrease AdjustmentDirection = "decrease"
)

// IsValid checks if the direction is one of the known values
func (d AdjustmentDirection) IsValid() bool {
	return d == AdjustmentIncrease || d == AdjustmentDecrease
}

// AdjustmentLine is one stock correction within an adjustment. Quantity is
// always positive; Direction carries the sign. BalanceBefore/BalanceAfter
// are nil until the adjustment is applied, then hold the on-hand balance
// around the ledger operation for the audit trail.
type AdjustmentLine struct {
	ID            uuid.UUID
	AdjustmentID  uuid.UUID
	StockLineID   uuid.UUID
	Direction     AdjustmentDirection
	Quantity      decimal.Decimal
	UnitCost      decimal.Decimal
	BalanceBefore *decimal.Decimal
	BalanceAfter  *decimal.Decimal
	Reason        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewAdjustmentLine creates a line for a stock adjustment
func NewAdjustmentLine(adjustmentID, stockLineID uuid.UUID, direction AdjustmentDirection, quantity, unitCost decimal.Decimal) (*AdjustmentLine, error) {
	if stockLineID == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "adjustment line stock line id cannot be empty")
	}
	if !direction.IsValid() {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "invalid adjustment direction")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "adjustment quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "adjustment unit cost cannot be negative")
	}

	now := time.Now()
	return &AdjustmentLine{
		ID:           uuid.New(),
		AdjustmentID: adjustmentID,
		StockLineID:  stockLineID,
		Direction:    direction,
		Quantity:     quantity,
		UnitCost:     unitCost,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// SignedDelta returns the quantity with the direction's sign applied
func (l *AdjustmentLine) SignedDelta() decimal.Decimal {
	if l.Direction == AdjustmentDecrease {
		return l.Quantity.Neg()
	}
	return l.Quantity
}

// CaptureBalances records the on-hand balance around the apply operation
func (l *AdjustmentLine) CaptureBalances(before, after decimal.Decimal) {
	l.BalanceBefore = &before
	l.BalanceAfter = &after
	l.UpdatedAt = time.Now()
}

// StockAdjustment is a manual stock correction document. Lines can only be
// edited in draft; the stock effect happens exactly once, on the apply
// transition, inside the same transaction that moves the status.
type StockAdjustment struct {
	shared.BaseAggregateRoot
	DocumentNumber string
	StoreID        uuid.UUID
	Status         AdjustmentStatus
	Items          []*AdjustmentLine
	Reason         string
	Notes          string
	Attachments    []string
	CreatedBy      uuid.UUID
	SubmittedBy    *uuid.UUID
	SubmittedAt    *time.Time
	ApprovedBy     *uuid.UUID
	ApprovedAt     *time.Time
	RejectedBy     *uuid.UUID
	RejectedAt     *time.Time
	RejectReason   string
	AppliedBy      *uuid.UUID
	AppliedAt      *time.Time
}

// NewStockAdjustment creates a draft adjustment for a store
func NewStockAdjustment(storeID, createdBy uuid.UUID, reason string) (*StockAdjustment, error) {
	if storeID == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "store id cannot be empty")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "adjustment creator cannot be empty")
	}
	if reason == "" {
		return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "adjustment reason is required")
	}

	return &StockAdjustment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		StoreID:           storeID,
		Status:            adjustmentMachine.Initial(),
		Items:             make([]*AdjustmentLine, 0),
		Reason:            reason,
		CreatedBy:         createdBy,
	}, nil
}

// SetDocumentNumber assigns the human-readable document number once
func (a *StockAdjustment) SetDocumentNumber(number string) {
	if a.DocumentNumber == "" {
		a.DocumentNumber = number
		a.Touch()
	}
}

// AddLine appends a correction line; only drafts can be edited
func (a *StockAdjustment) AddLine(stockLineID uuid.UUID, direction AdjustmentDirection, quantity, unitCost decimal.Decimal) (*AdjustmentLine, error) {
	if a.Status != AdjustmentStatusDraft {
		return nil, shared.NewDomainError(shared.ErrInvalidState.Code, "can only add lines to a draft adjustment")
	}
	for _, item := range a.Items {
		if item.StockLineID == stockLineID {
			return nil, shared.NewDomainError(shared.ErrConstraintViolation.Code, "adjustment already has a line for this stock line")
		}
	}

	line, err := NewAdjustmentLine(a.ID, stockLineID, direction, quantity, unitCost)
	if err != nil {
		return nil, err
	}
	a.Items = append(a.Items, line)
	a.Touch()
	return line, nil
}

// RemoveLine removes a correction line from a draft
func (a *StockAdjustment) RemoveLine(lineID uuid.UUID) error {
	if a.Status != AdjustmentStatusDraft {
		return shared.NewDomainError(shared.ErrInvalidState.Code, "can only remove lines from a draft adjustment")
	}
	for i, item := range a.Items {
		if item.ID == lineID {
			a.Items = append(a.Items[:i], a.Items[i+1:]...)
			a.Touch()
			return nil
		}
	}
	return shared.NewDomainError(shared.ErrNotFound.Code, "adjustment line not found")
}

// AttachDocument records an object-storage key for a supporting document
// (count sheet, photo). Allowed until the adjustment is applied or
// rejected.
func (a *StockAdjustment) AttachDocument(objectKey string) error {
	if objectKey == "" {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "attachment object key cannot be empty")
	}
	if adjustmentMachine.IsTerminal(a.Status) {
		return shared.NewDomainError(shared.ErrInvalidState.Code, "cannot attach documents to a finished adjustment")
	}
	a.Attachments = append(a.Attachments, objectKey)
	a.Touch()
	return nil
}

// Submit sends a draft with at least one line for approval
func (a *StockAdjustment) Submit(actorID uuid.UUID) error {
	next, err := adjustmentMachine.Step(a.Status, AdjustmentActionSubmit)
	if err != nil {
		return err
	}
	if len(a.Items) == 0 {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "cannot submit an adjustment without lines")
	}

	now := time.Now()
	a.Status = next
	a.SubmittedBy = &actorID
	a.SubmittedAt = &now
	a.IncrementVersion()
	return nil
}

// Approve clears a pending adjustment for application
func (a *StockAdjustment) Approve(actorID uuid.UUID) error {
	next, err := adjustmentMachine.Step(a.Status, AdjustmentActionApprove)
	if err != nil {
		return err
	}

	now := time.Now()
	a.Status = next
	a.ApprovedBy = &actorID
	a.ApprovedAt = &now
	a.IncrementVersion()
	return nil
}

// Reject declines a pending adjustment; no stock is touched
func (a *StockAdjustment) Reject(actorID uuid.UUID, reason string) error {
	next, err := adjustmentMachine.Step(a.Status, AdjustmentActionReject)
	if err != nil {
		return err
	}
	if reason == "" {
		return shared.NewDomainError(shared.ErrConstraintViolation.Code, "a rejection reason is required")
	}

	now := time.Now()
	a.Status = next
	a.RejectedBy = &actorID
	a.RejectedAt = &now
	a.RejectReason = reason
	a.IncrementVersion()
	return nil
}

// CanApply reports whether the adjustment is in a state the apply
// transition accepts. Callers check this before mutating any stock line.
func (a *StockAdjustment) CanApply() bool {
	return adjustmentMachine.Can(a.Status, AdjustmentActionApply)
}

// MarkApplied moves an approved adjustment to applied. The caller performs
// the ledger mutations and captures per-line balances in the same
// transaction; this method only moves the status and stamps the actor.
func (a *StockAdjustment) MarkApplied(actorID uuid.UUID) error {
	next, err := adjustmentMachine.Step(a.Status, AdjustmentActionApply)
	if err != nil {
		return err
	}
	for _, item := range a.Items {
		if item.BalanceBefore == nil || item.BalanceAfter == nil {
			return shared.NewDomainError(shared.ErrConstraintViolation.Code, "all lines must capture balances before the adjustment is applied")
		}
	}

	now := time.Now()
	a.Status = next
	a.AppliedBy = &actorID
	a.AppliedAt = &now
	a.IncrementVersion()
	a.AddDomainEvent(NewAdjustmentAppliedEvent(a))
	return nil
}
