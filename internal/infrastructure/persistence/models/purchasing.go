package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/purchasing"
)

// PurchaseOrderModel is the persistence model for the PurchaseOrder aggregate
type PurchaseOrderModel struct {
	AggregateModel
	DocumentNumber string          `gorm:"type:varchar(32);not null;uniqueIndex"`
	StoreID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	VendorID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status         string          `gorm:"type:varchar(32);not null;index"`
	Total          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Notes          string          `gorm:"type:text"`
	CreatedBy      uuid.UUID       `gorm:"type:uuid;not null"`
	SubmittedBy    *uuid.UUID      `gorm:"type:uuid"`
	SubmittedAt    *time.Time
	ApprovedBy     *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt     *time.Time
	RejectedBy     *uuid.UUID `gorm:"type:uuid"`
	RejectedAt     *time.Time
	RejectReason   string     `gorm:"type:varchar(255)"`
	CancelledBy    *uuid.UUID `gorm:"type:uuid"`
	CancelledAt    *time.Time
	CancelReason   string `gorm:"type:varchar(255)"`
	ReceivedAt     *time.Time
	ClosedBy       *uuid.UUID `gorm:"type:uuid"`
	ClosedAt       *time.Time
	Items          []PurchaseOrderLineModel `gorm:"foreignKey:PurchaseOrderID;references:ID"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// PurchaseOrderLineModel is the persistence model for one order line
type PurchaseOrderLineModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	PurchaseOrderID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID        *uuid.UUID      `gorm:"type:uuid"`
	VariantID        *uuid.UUID      `gorm:"type:uuid"`
	QuantityOrdered  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	QuantityReceived decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LineTotal        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PurchaseOrderLineModel) TableName() string {
	return "purchase_order_lines"
}

// ToDomain converts the persistence model to a domain PurchaseOrder
func (m *PurchaseOrderModel) ToDomain() (*purchasing.PurchaseOrder, error) {
	order := &purchasing.PurchaseOrder{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		DocumentNumber:    m.DocumentNumber,
		StoreID:           m.StoreID,
		VendorID:          m.VendorID,
		Status:            purchasing.PurchaseOrderStatus(m.Status),
		Total:             m.Total,
		Notes:             m.Notes,
		CreatedBy:         m.CreatedBy,
		SubmittedBy:       m.SubmittedBy,
		SubmittedAt:       m.SubmittedAt,
		ApprovedBy:        m.ApprovedBy,
		ApprovedAt:        m.ApprovedAt,
		RejectedBy:        m.RejectedBy,
		RejectedAt:        m.RejectedAt,
		RejectReason:      m.RejectReason,
		CancelledBy:       m.CancelledBy,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
		ReceivedAt:        m.ReceivedAt,
		ClosedBy:          m.ClosedBy,
		ClosedAt:          m.ClosedAt,
		Items:             make([]*purchasing.PurchaseOrderLine, len(m.Items)),
	}
	for i := range m.Items {
		line := m.Items[i]
		ref, err := inventory.ProductRefFromColumns(line.ProductID, line.VariantID)
		if err != nil {
			return nil, err
		}
		order.Items[i] = &purchasing.PurchaseOrderLine{
			ID:               line.ID,
			PurchaseOrderID:  line.PurchaseOrderID,
			ProductRef:       ref,
			QuantityOrdered:  line.QuantityOrdered,
			QuantityReceived: line.QuantityReceived,
			UnitCost:         line.UnitCost,
			LineTotal:        line.LineTotal,
			CreatedAt:        line.CreatedAt,
			UpdatedAt:        line.UpdatedAt,
		}
	}
	return order, nil
}

// PurchaseOrderModelFromDomain converts a domain PurchaseOrder to its persistence model
func PurchaseOrderModelFromDomain(order *purchasing.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{
		DocumentNumber: order.DocumentNumber,
		StoreID:        order.StoreID,
		VendorID:       order.VendorID,
		Status:         string(order.Status),
		Total:          order.Total,
		Notes:          order.Notes,
		CreatedBy:      order.CreatedBy,
		SubmittedBy:    order.SubmittedBy,
		SubmittedAt:    order.SubmittedAt,
		ApprovedBy:     order.ApprovedBy,
		ApprovedAt:     order.ApprovedAt,
		RejectedBy:     order.RejectedBy,
		RejectedAt:     order.RejectedAt,
		RejectReason:   order.RejectReason,
		CancelledBy:    order.CancelledBy,
		CancelledAt:    order.CancelledAt,
		CancelReason:   order.CancelReason,
		ReceivedAt:     order.ReceivedAt,
		ClosedBy:       order.ClosedBy,
		ClosedAt:       order.ClosedAt,
		Items:          make([]PurchaseOrderLineModel, len(order.Items)),
	}
	m.FromDomainAggregateRoot(order.BaseAggregateRoot)
	for i, line := range order.Items {
		productID, variantID := line.ProductRef.Columns()
		m.Items[i] = PurchaseOrderLineModel{
			ID:               line.ID,
			PurchaseOrderID:  line.PurchaseOrderID,
			ProductID:        productID,
			VariantID:        variantID,
			QuantityOrdered:  line.QuantityOrdered,
			QuantityReceived: line.QuantityReceived,
			UnitCost:         line.UnitCost,
			LineTotal:        line.LineTotal,
			CreatedAt:        line.CreatedAt,
			UpdatedAt:        line.UpdatedAt,
		}
	}
	return m
}

// GoodsReceiptModel is the persistence model for the GoodsReceipt aggregate
type GoodsReceiptModel struct {
	AggregateModel
	DocumentNumber  string     `gorm:"type:varchar(32);not null;uniqueIndex"`
	PurchaseOrderID uuid.UUID  `gorm:"type:uuid;not null;index"`
	StoreID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	Status          string     `gorm:"type:varchar(16);not null"`
	Notes           string     `gorm:"type:text"`
	CreatedBy       uuid.UUID  `gorm:"type:uuid;not null"`
	ConfirmedBy     *uuid.UUID `gorm:"type:uuid"`
	ConfirmedAt     *time.Time
	CancelledBy     *uuid.UUID `gorm:"type:uuid"`
	CancelledAt     *time.Time
	CancelReason    string `gorm:"type:varchar(255)"`
	Items           []GoodsReceiptLineModel `gorm:"foreignKey:GoodsReceiptID;references:ID"`
}

// TableName returns the table name for GORM
func (GoodsReceiptModel) TableName() string {
	return "goods_receipts"
}

// GoodsReceiptLineModel is the persistence model for one receipt line
type GoodsReceiptLineModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	GoodsReceiptID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderLineID      uuid.UUID       `gorm:"type:uuid;not null"`
	ProductID        *uuid.UUID      `gorm:"type:uuid"`
	VariantID        *uuid.UUID      `gorm:"type:uuid"`
	QuantityReceived decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (GoodsReceiptLineModel) TableName() string {
	return "goods_receipt_lines"
}

// ToDomain converts the persistence model to a domain GoodsReceipt
func (m *GoodsReceiptModel) ToDomain() (*purchasing.GoodsReceipt, error) {
	receipt := &purchasing.GoodsReceipt{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		DocumentNumber:    m.DocumentNumber,
		PurchaseOrderID:   m.PurchaseOrderID,
		StoreID:           m.StoreID,
		Status:            purchasing.GoodsReceiptStatus(m.Status),
		Notes:             m.Notes,
		CreatedBy:         m.CreatedBy,
		ConfirmedBy:       m.ConfirmedBy,
		ConfirmedAt:       m.ConfirmedAt,
		CancelledBy:       m.CancelledBy,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
		Items:             make([]*purchasing.GoodsReceiptLine, len(m.Items)),
	}
	for i := range m.Items {
		line := m.Items[i]
		ref, err := inventory.ProductRefFromColumns(line.ProductID, line.VariantID)
		if err != nil {
			return nil, err
		}
		receipt.Items[i] = &purchasing.GoodsReceiptLine{
			ID:               line.ID,
			GoodsReceiptID:   line.GoodsReceiptID,
			OrderLineID:      line.OrderLineID,
			ProductRef:       ref,
			QuantityReceived: line.QuantityReceived,
			UnitCost:         line.UnitCost,
			CreatedAt:        line.CreatedAt,
		}
	}
	return receipt, nil
}

// GoodsReceiptModelFromDomain converts a domain GoodsReceipt to its persistence model
func GoodsReceiptModelFromDomain(receipt *purchasing.GoodsReceipt) *GoodsReceiptModel {
	m := &GoodsReceiptModel{
		DocumentNumber:  receipt.DocumentNumber,
		PurchaseOrderID: receipt.PurchaseOrderID,
		StoreID:         receipt.StoreID,
		Status:          string(receipt.Status),
		Notes:           receipt.Notes,
		CreatedBy:       receipt.CreatedBy,
		ConfirmedBy:     receipt.ConfirmedBy,
		ConfirmedAt:     receipt.ConfirmedAt,
		CancelledBy:     receipt.CancelledBy,
		CancelledAt:     receipt.CancelledAt,
		CancelReason:    receipt.CancelReason,
		Items:           make([]GoodsReceiptLineModel, len(receipt.Items)),
	}
	m.FromDomainAggregateRoot(receipt.BaseAggregateRoot)
	for i, line := range receipt.Items {
		productID, variantID := line.ProductRef.Columns()
		m.Items[i] = GoodsReceiptLineModel{
			ID:               line.ID,
			GoodsReceiptID:   line.GoodsReceiptID,
			OrderLineID:      line.OrderLineID,
			ProductID:        productID,
			VariantID:        variantID,
			QuantityReceived: line.QuantityReceived,
			UnitCost:         line.UnitCost,
			CreatedAt:        line.CreatedAt,
		}
	}
	return m
}
