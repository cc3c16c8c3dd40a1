package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kardexhq/backend/internal/domain/inventory"
)

// AdjustmentModel is the persistence model for the StockAdjustment
// aggregate with its lines loaded as an association.
type AdjustmentModel struct {
	AggregateModel
	DocumentNumber string     `gorm:"type:varchar(32);not null;uniqueIndex"`
	StoreID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	Status         string     `gorm:"type:varchar(32);not null;index"`
	Reason         string     `gorm:"type:varchar(255)"`
	Notes          string     `gorm:"type:text"`
	Attachments    []string   `gorm:"serializer:json;type:jsonb"`
	CreatedBy      uuid.UUID  `gorm:"type:uuid;not null"`
	SubmittedBy    *uuid.UUID `gorm:"type:uuid"`
	SubmittedAt    *time.Time
	ApprovedBy     *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt     *time.Time
	RejectedBy     *uuid.UUID `gorm:"type:uuid"`
	RejectedAt     *time.Time
	RejectReason   string     `gorm:"type:varchar(255)"`
	AppliedBy      *uuid.UUID `gorm:"type:uuid"`
	AppliedAt      *time.Time
	Items          []AdjustmentLineModel `gorm:"foreignKey:AdjustmentID;references:ID"`
}

// TableName returns the table name for GORM
func (AdjustmentModel) TableName() string {
	return "stock_adjustments"
}

// AdjustmentLineModel is the persistence model for one adjustment line
type AdjustmentLineModel struct {
	ID            uuid.UUID        `gorm:"type:uuid;primary_key"`
	AdjustmentID  uuid.UUID        `gorm:"type:uuid;not null;index"`
	StockLineID   uuid.UUID        `gorm:"type:uuid;not null"`
	Direction     string           `gorm:"type:varchar(16);not null"`
	Quantity      decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	UnitCost      decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	BalanceBefore *decimal.Decimal `gorm:"type:decimal(18,4)"`
	BalanceAfter  *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Reason        string           `gorm:"type:varchar(255)"`
	CreatedAt     time.Time        `gorm:"not null"`
	UpdatedAt     time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AdjustmentLineModel) TableName() string {
	return "stock_adjustment_lines"
}

// ToDomain converts the persistence model to a domain StockAdjustment
func (m *AdjustmentModel) ToDomain() *inventory.StockAdjustment {
	adjustment := &inventory.StockAdjustment{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		DocumentNumber:    m.DocumentNumber,
		StoreID:           m.StoreID,
		Status:            inventory.AdjustmentStatus(m.Status),
		Reason:            m.Reason,
		Notes:             m.Notes,
		Attachments:       m.Attachments,
		CreatedBy:         m.CreatedBy,
		SubmittedBy:       m.SubmittedBy,
		SubmittedAt:       m.SubmittedAt,
		ApprovedBy:        m.ApprovedBy,
		ApprovedAt:        m.ApprovedAt,
		RejectedBy:        m.RejectedBy,
		RejectedAt:        m.RejectedAt,
		RejectReason:      m.RejectReason,
		AppliedBy:         m.AppliedBy,
		AppliedAt:         m.AppliedAt,
		Items:             make([]*inventory.AdjustmentLine, len(m.Items)),
	}
	for i, item := range m.Items {
		line := item
		adjustment.Items[i] = &inventory.AdjustmentLine{
			ID:            line.ID,
			AdjustmentID:  line.AdjustmentID,
			StockLineID:   line.StockLineID,
			Direction:     inventory.AdjustmentDirection(line.Direction),
			Quantity:      line.Quantity,
			UnitCost:      line.UnitCost,
			BalanceBefore: line.BalanceBefore,
			BalanceAfter:  line.BalanceAfter,
			Reason:        line.Reason,
			CreatedAt:     line.CreatedAt,
			UpdatedAt:     line.UpdatedAt,
		}
	}
	return adjustment
}

// AdjustmentModelFromDomain converts a domain StockAdjustment to its persistence model
func AdjustmentModelFromDomain(adjustment *inventory.StockAdjustment) *AdjustmentModel {
	m := &AdjustmentModel{
		DocumentNumber: adjustment.DocumentNumber,
		StoreID:        adjustment.StoreID,
		Status:         string(adjustment.Status),
		Reason:         adjustment.Reason,
		Notes:          adjustment.Notes,
		Attachments:    adjustment.Attachments,
		CreatedBy:      adjustment.CreatedBy,
		SubmittedBy:    adjustment.SubmittedBy,
		SubmittedAt:    adjustment.SubmittedAt,
		ApprovedBy:     adjustment.ApprovedBy,
		ApprovedAt:     adjustment.ApprovedAt,
		RejectedBy:     adjustment.RejectedBy,
		RejectedAt:     adjustment.RejectedAt,
		RejectReason:   adjustment.RejectReason,
		AppliedBy:      adjustment.AppliedBy,
		AppliedAt:      adjustment.AppliedAt,
		Items:          make([]AdjustmentLineModel, len(adjustment.Items)),
	}
	m.FromDomainAggregateRoot(adjustment.BaseAggregateRoot)
	for i, line := range adjustment.Items {
		m.Items[i] = AdjustmentLineModel{
			ID:            line.ID,
			AdjustmentID:  line.AdjustmentID,
			StockLineID:   line.StockLineID,
			Direction:     string(line.Direction),
			Quantity:      line.Quantity,
			UnitCost:      line.UnitCost,
			BalanceBefore: line.BalanceBefore,
			BalanceAfter:  line.BalanceAfter,
			Reason:        line.Reason,
			CreatedAt:     line.CreatedAt,
			UpdatedAt:     line.UpdatedAt,
		}
	}
	return m
}

// TransferModel is the persistence model for the StockTransfer aggregate
type TransferModel struct {
	AggregateModel
	DocumentNumber string     `gorm:"type:varchar(32);not null;uniqueIndex"`
	FromStoreID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	ToStoreID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	Status         string     `gorm:"type:varchar(16);not null;index"`
	Notes          string     `gorm:"type:text"`
	CreatedBy      uuid.UUID  `gorm:"type:uuid;not null"`
	SubmittedBy    *uuid.UUID `gorm:"type:uuid"`
	SubmittedAt    *time.Time
	ShippedBy      *uuid.UUID `gorm:"type:uuid"`
	ShippedAt      *time.Time
	ReceivedBy     *uuid.UUID `gorm:"type:uuid"`
	ReceivedAt     *time.Time
	CancelledBy    *uuid.UUID `gorm:"type:uuid"`
	CancelledAt    *time.Time
	CancelReason   string     `gorm:"type:varchar(255)"`
	Items          []TransferLineModel `gorm:"foreignKey:TransferID;references:ID"`
}

// TableName returns the table name for GORM
func (TransferModel) TableName() string {
	return "stock_transfers"
}

// TransferLineModel is the persistence model for one transfer line
type TransferLineModel struct {
	ID                uuid.UUID        `gorm:"type:uuid;primary_key"`
	TransferID        uuid.UUID        `gorm:"type:uuid;not null;index"`
	ProductID         *uuid.UUID       `gorm:"type:uuid"`
	VariantID         *uuid.UUID       `gorm:"type:uuid"`
	Quantity          decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	QuantityShipped   decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	QuantityReceived  *decimal.Decimal `gorm:"type:decimal(18,4)"`
	UnitCost          decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	SourceStockLineID *uuid.UUID       `gorm:"type:uuid"`
	DestStockLineID   *uuid.UUID       `gorm:"type:uuid"`
	CreatedAt         time.Time        `gorm:"not null"`
	UpdatedAt         time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TransferLineModel) TableName() string {
	return "stock_transfer_lines"
}

// ToDomain converts the persistence model to a domain StockTransfer
func (m *TransferModel) ToDomain() (*inventory.StockTransfer, error) {
	transfer := &inventory.StockTransfer{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		DocumentNumber:    m.DocumentNumber,
		FromStoreID:       m.FromStoreID,
		ToStoreID:         m.ToStoreID,
		Status:            inventory.TransferStatus(m.Status),
		Notes:             m.Notes,
		CreatedBy:         m.CreatedBy,
		SubmittedBy:       m.SubmittedBy,
		SubmittedAt:       m.SubmittedAt,
		ShippedBy:         m.ShippedBy,
		ShippedAt:         m.ShippedAt,
		ReceivedBy:        m.ReceivedBy,
		ReceivedAt:        m.ReceivedAt,
		CancelledBy:       m.CancelledBy,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
		Items:             make([]*inventory.TransferLine, len(m.Items)),
	}
	for i := range m.Items {
		line := m.Items[i]
		ref, err := inventory.ProductRefFromColumns(line.ProductID, line.VariantID)
		if err != nil {
			return nil, err
		}
		transfer.Items[i] = &inventory.TransferLine{
			ID:                line.ID,
			TransferID:        line.TransferID,
			ProductRef:        ref,
			Quantity:          line.Quantity,
			QuantityShipped:   line.QuantityShipped,
			QuantityReceived:  line.QuantityReceived,
			UnitCost:          line.UnitCost,
			SourceStockLineID: line.SourceStockLineID,
			DestStockLineID:   line.DestStockLineID,
			CreatedAt:         line.CreatedAt,
			UpdatedAt:         line.UpdatedAt,
		}
	}
	return transfer, nil
}

// TransferModelFromDomain converts a domain StockTransfer to its persistence model
func TransferModelFromDomain(transfer *inventory.StockTransfer) *TransferModel {
	m := &TransferModel{
		DocumentNumber: transfer.DocumentNumber,
		FromStoreID:    transfer.FromStoreID,
		ToStoreID:      transfer.ToStoreID,
		Status:         string(transfer.Status),
		Notes:          transfer.Notes,
		CreatedBy:      transfer.CreatedBy,
		SubmittedBy:    transfer.SubmittedBy,
		SubmittedAt:    transfer.SubmittedAt,
		ShippedBy:      transfer.ShippedBy,
		ShippedAt:      transfer.ShippedAt,
		ReceivedBy:     transfer.ReceivedBy,
		ReceivedAt:     transfer.ReceivedAt,
		CancelledBy:    transfer.CancelledBy,
		CancelledAt:    transfer.CancelledAt,
		CancelReason:   transfer.CancelReason,
		Items:          make([]TransferLineModel, len(transfer.Items)),
	}
	m.FromDomainAggregateRoot(transfer.BaseAggregateRoot)
	for i, line := range transfer.Items {
		productID, variantID := line.ProductRef.Columns()
		m.Items[i] = TransferLineModel{
			ID:                line.ID,
			TransferID:        line.TransferID,
			ProductID:         productID,
			VariantID:         variantID,
			Quantity:          line.Quantity,
			QuantityShipped:   line.QuantityShipped,
			QuantityReceived:  line.QuantityReceived,
			UnitCost:          line.UnitCost,
			SourceStockLineID: line.SourceStockLineID,
			DestStockLineID:   line.DestStockLineID,
			CreatedAt:         line.CreatedAt,
			UpdatedAt:         line.UpdatedAt,
		}
	}
	return m
}
