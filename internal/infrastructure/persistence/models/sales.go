package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/sales"
)

// SaleModel is the persistence model for the Sale aggregate
type SaleModel struct {
	AggregateModel
	DocumentNumber string     `gorm:"type:varchar(32);not null;uniqueIndex"`
	StoreID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	CustomerID     *uuid.UUID `gorm:"type:uuid;index"`
	Status         string     `gorm:"type:varchar(16);not null;index"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DiscountTotal  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxTotal       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Total          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Notes          string          `gorm:"type:text"`
	CreatedBy      uuid.UUID       `gorm:"type:uuid;not null"`
	CompletedBy    *uuid.UUID      `gorm:"type:uuid"`
	CompletedAt    *time.Time
	VoidedBy       *uuid.UUID `gorm:"type:uuid"`
	VoidedAt       *time.Time
	VoidReason     string     `gorm:"type:varchar(255)"`
	ReturnedBy     *uuid.UUID `gorm:"type:uuid"`
	ReturnedAt     *time.Time
	Items          []SaleLineModel `gorm:"foreignKey:SaleID;references:ID"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// SaleLineModel is the persistence model for one sale line
type SaleLineModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	SaleID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID      *uuid.UUID      `gorm:"type:uuid"`
	VariantID      *uuid.UUID      `gorm:"type:uuid"`
	StockLineID    uuid.UUID       `gorm:"type:uuid;not null"`
	ReservationID  *uuid.UUID      `gorm:"type:uuid"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LineTotal      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt      time.Time       `gorm:"not null"`
	UpdatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SaleLineModel) TableName() string {
	return "sale_lines"
}

// ToDomain converts the persistence model to a domain Sale
func (m *SaleModel) ToDomain() (*sales.Sale, error) {
	sale := &sales.Sale{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		DocumentNumber:    m.DocumentNumber,
		StoreID:           m.StoreID,
		CustomerID:        m.CustomerID,
		Status:            sales.SaleStatus(m.Status),
		Subtotal:          m.Subtotal,
		DiscountTotal:     m.DiscountTotal,
		TaxTotal:          m.TaxTotal,
		Total:             m.Total,
		Notes:             m.Notes,
		CreatedBy:         m.CreatedBy,
		CompletedBy:       m.CompletedBy,
		CompletedAt:       m.CompletedAt,
		VoidedBy:          m.VoidedBy,
		VoidedAt:          m.VoidedAt,
		VoidReason:        m.VoidReason,
		ReturnedBy:        m.ReturnedBy,
		ReturnedAt:        m.ReturnedAt,
		Items:             make([]*sales.SaleLine, len(m.Items)),
	}
	for i := range m.Items {
		line := m.Items[i]
		ref, err := inventory.ProductRefFromColumns(line.ProductID, line.VariantID)
		if err != nil {
			return nil, err
		}
		sale.Items[i] = &sales.SaleLine{
			ID:             line.ID,
			SaleID:         line.SaleID,
			ProductRef:     ref,
			StockLineID:    line.StockLineID,
			ReservationID:  line.ReservationID,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice,
			DiscountAmount: line.DiscountAmount,
			TaxAmount:      line.TaxAmount,
			LineTotal:      line.LineTotal,
			CreatedAt:      line.CreatedAt,
			UpdatedAt:      line.UpdatedAt,
		}
	}
	return sale, nil
}

// SaleModelFromDomain converts a domain Sale to its persistence model
func SaleModelFromDomain(sale *sales.Sale) *SaleModel {
	m := &SaleModel{
		DocumentNumber: sale.DocumentNumber,
		StoreID:        sale.StoreID,
		CustomerID:     sale.CustomerID,
		Status:         string(sale.Status),
		Subtotal:       sale.Subtotal,
		DiscountTotal:  sale.DiscountTotal,
		TaxTotal:       sale.TaxTotal,
		Total:          sale.Total,
		Notes:          sale.Notes,
		CreatedBy:      sale.CreatedBy,
		CompletedBy:    sale.CompletedBy,
		CompletedAt:    sale.CompletedAt,
		VoidedBy:       sale.VoidedBy,
		VoidedAt:       sale.VoidedAt,
		VoidReason:     sale.VoidReason,
		ReturnedBy:     sale.ReturnedBy,
		ReturnedAt:     sale.ReturnedAt,
		Items:          make([]SaleLineModel, len(sale.Items)),
	}
	m.FromDomainAggregateRoot(sale.BaseAggregateRoot)
	for i, line := range sale.Items {
		productID, variantID := line.ProductRef.Columns()
		m.Items[i] = SaleLineModel{
			ID:             line.ID,
			SaleID:         line.SaleID,
			ProductID:      productID,
			VariantID:      variantID,
			StockLineID:    line.StockLineID,
			ReservationID:  line.ReservationID,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice,
			DiscountAmount: line.DiscountAmount,
			TaxAmount:      line.TaxAmount,
			LineTotal:      line.LineTotal,
			CreatedAt:      line.CreatedAt,
			UpdatedAt:      line.UpdatedAt,
		}
	}
	return m
}

// CreditNoteModel is the persistence model for the CreditNote aggregate
type CreditNoteModel struct {
	AggregateModel
	DocumentNumber string          `gorm:"type:varchar(32);not null;uniqueIndex"`
	SaleID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	StoreID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status         string          `gorm:"type:varchar(16);not null;index"`
	Total          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Reason         string          `gorm:"type:varchar(255)"`
	CreatedBy      uuid.UUID       `gorm:"type:uuid;not null"`
	SubmittedBy    *uuid.UUID      `gorm:"type:uuid"`
	SubmittedAt    *time.Time
	ApprovedBy     *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt     *time.Time
	AppliedBy      *uuid.UUID `gorm:"type:uuid"`
	AppliedAt      *time.Time
	CancelledBy    *uuid.UUID `gorm:"type:uuid"`
	CancelledAt    *time.Time
	CancelReason   string     `gorm:"type:varchar(255)"`
	Items          []CreditNoteLineModel `gorm:"foreignKey:CreditNoteID;references:ID"`
}

// TableName returns the table name for GORM
func (CreditNoteModel) TableName() string {
	return "credit_notes"
}

// CreditNoteLineModel is the persistence model for one credit note line
type CreditNoteLineModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	CreditNoteID uuid.UUID       `gorm:"type:uuid;not null;index"`
	SaleLineID   uuid.UUID       `gorm:"type:uuid;not null"`
	ProductID    *uuid.UUID      `gorm:"type:uuid"`
	VariantID    *uuid.UUID      `gorm:"type:uuid"`
	StockLineID  uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Restock      bool            `gorm:"not null;default:false"`
	Reason       string          `gorm:"type:varchar(255)"`
	CreatedAt    time.Time       `gorm:"not null"`
	UpdatedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CreditNoteLineModel) TableName() string {
	return "credit_note_lines"
}

// ToDomain converts the persistence model to a domain CreditNote
func (m *CreditNoteModel) ToDomain() (*sales.CreditNote, error) {
	note := &sales.CreditNote{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		DocumentNumber:    m.DocumentNumber,
		SaleID:            m.SaleID,
		StoreID:           m.StoreID,
		Status:            sales.CreditNoteStatus(m.Status),
		Total:             m.Total,
		Reason:            m.Reason,
		CreatedBy:         m.CreatedBy,
		SubmittedBy:       m.SubmittedBy,
		SubmittedAt:       m.SubmittedAt,
		ApprovedBy:        m.ApprovedBy,
		ApprovedAt:        m.ApprovedAt,
		AppliedBy:         m.AppliedBy,
		AppliedAt:         m.AppliedAt,
		CancelledBy:       m.CancelledBy,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
		Items:             make([]*sales.CreditNoteLine, len(m.Items)),
	}
	for i := range m.Items {
		line := m.Items[i]
		ref, err := inventory.ProductRefFromColumns(line.ProductID, line.VariantID)
		if err != nil {
			return nil, err
		}
		note.Items[i] = &sales.CreditNoteLine{
			ID:           line.ID,
			CreditNoteID: line.CreditNoteID,
			SaleLineID:   line.SaleLineID,
			ProductRef:   ref,
			StockLineID:  line.StockLineID,
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice,
			Amount:       line.Amount,
			Restock:      line.Restock,
			Reason:       line.Reason,
			CreatedAt:    line.CreatedAt,
			UpdatedAt:    line.UpdatedAt,
		}
	}
	return note, nil
}

// CreditNoteModelFromDomain converts a domain CreditNote to its persistence model
func CreditNoteModelFromDomain(note *sales.CreditNote) *CreditNoteModel {
	m := &CreditNoteModel{
		DocumentNumber: note.DocumentNumber,
		SaleID:         note.SaleID,
		StoreID:        note.StoreID,
		Status:         string(note.Status),
		Total:          note.Total,
		Reason:         note.Reason,
		CreatedBy:      note.CreatedBy,
		SubmittedBy:    note.SubmittedBy,
		SubmittedAt:    note.SubmittedAt,
		ApprovedBy:     note.ApprovedBy,
		ApprovedAt:     note.ApprovedAt,
		AppliedBy:      note.AppliedBy,
		AppliedAt:      note.AppliedAt,
		CancelledBy:    note.CancelledBy,
		CancelledAt:    note.CancelledAt,
		CancelReason:   note.CancelReason,
		Items:          make([]CreditNoteLineModel, len(note.Items)),
	}
	m.FromDomainAggregateRoot(note.BaseAggregateRoot)
	for i, line := range note.Items {
		productID, variantID := line.ProductRef.Columns()
		m.Items[i] = CreditNoteLineModel{
			ID:           line.ID,
			CreditNoteID: line.CreditNoteID,
			SaleLineID:   line.SaleLineID,
			ProductID:    productID,
			VariantID:    variantID,
			StockLineID:  line.StockLineID,
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice,
			Amount:       line.Amount,
			Restock:      line.Restock,
			Reason:       line.Reason,
			CreatedAt:    line.CreatedAt,
			UpdatedAt:    line.UpdatedAt,
		}
	}
	return m
}
