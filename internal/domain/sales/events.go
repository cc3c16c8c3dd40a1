package sales

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kardexhq/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeSale       = "Sale"
	AggregateTypeCreditNote = "CreditNote"
)

// Event type constants
const (
	EventTypeSaleCompleted     = "SaleCompleted"
	EventTypeSaleVoided        = "SaleVoided"
	EventTypeSaleReturned      = "SaleReturned"
	EventTypeCreditNoteApplied = "CreditNoteApplied"
)

// SaleCompletedEvent is raised when a sale closes and stock is deducted
type SaleCompletedEvent struct {
	shared.BaseDomainEvent
	SaleID    uuid.UUID       `json:"sale_id"`
	StoreID   uuid.UUID       `json:"store_id"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

// NewSaleCompletedEvent creates a new SaleCompletedEvent
func NewSaleCompletedEvent(s *Sale) *SaleCompletedEvent {
	return &SaleCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCompleted, AggregateTypeSale, s.ID),
		SaleID:          s.ID,
		StoreID:         s.StoreID,
		Total:           s.Total,
		ItemCount:       len(s.Items),
	}
}

// SaleVoidedEvent is raised when a draft sale is abandoned
type SaleVoidedEvent struct {
	shared.BaseDomainEvent
	SaleID  uuid.UUID `json:"sale_id"`
	StoreID uuid.UUID `json:"store_id"`
	Reason  string    `json:"reason"`
}

// NewSaleVoidedEvent creates a new SaleVoidedEvent
func NewSaleVoidedEvent(s *Sale) *SaleVoidedEvent {
	return &SaleVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleVoided, AggregateTypeSale, s.ID),
		SaleID:          s.ID,
		StoreID:         s.StoreID,
		Reason:          s.VoidReason,
	}
}

// SaleReturnedEvent is raised when an applied credit note returns a sale
type SaleReturnedEvent struct {
	shared.BaseDomainEvent
	SaleID  uuid.UUID `json:"sale_id"`
	StoreID uuid.UUID `json:"store_id"`
}

// NewSaleReturnedEvent creates a new SaleReturnedEvent
func NewSaleReturnedEvent(s *Sale) *SaleReturnedEvent {
	return &SaleReturnedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleReturned, AggregateTypeSale, s.ID),
		SaleID:          s.ID,
		StoreID:         s.StoreID,
	}
}

// CreditNoteAppliedEvent is raised when a credit note hits stock and the
// original sale
type CreditNoteAppliedEvent struct {
	shared.BaseDomainEvent
	CreditNoteID uuid.UUID       `json:"credit_note_id"`
	SaleID       uuid.UUID       `json:"sale_id"`
	StoreID      uuid.UUID       `json:"store_id"`
	Total        decimal.Decimal `json:"total"`
}

// NewCreditNoteAppliedEvent creates a new CreditNoteAppliedEvent
func NewCreditNoteAppliedEvent(c *CreditNote) *CreditNoteAppliedEvent {
	return &CreditNoteAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreditNoteApplied, AggregateTypeCreditNote, c.ID),
		CreditNoteID:    c.ID,
		SaleID:          c.SaleID,
		StoreID:         c.StoreID,
		Total:           c.Total,
	}
}
