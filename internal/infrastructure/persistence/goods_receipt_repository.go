package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kardexhq/backend/internal/domain/purchasing"
	"github.com/kardexhq/backend/internal/domain/shared"
	"github.com/kardexhq/backend/internal/infrastructure/persistence/models"
)

// GormGoodsReceiptRepository implements purchasing.GoodsReceiptRepository using GORM
type GormGoodsReceiptRepository struct {
	db *gorm.DB
}

// NewGormGoodsReceiptRepository creates a new GormGoodsReceiptRepository
func NewGormGoodsReceiptRepository(db *gorm.DB) *GormGoodsReceiptRepository {
	return &GormGoodsReceiptRepository{db: db}
}

// FindByID finds a receipt with its lines by ID
func (r *GormGoodsReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*purchasing.GoodsReceipt, error) {
	var m models.GoodsReceiptModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain()
}

// FindByPurchaseOrder lists the receipts recorded against an order
func (r *GormGoodsReceiptRepository) FindByPurchaseOrder(ctx context.Context, orderID uuid.UUID) ([]purchasing.GoodsReceipt, error) {
	var rows []models.GoodsReceiptModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("purchase_order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]purchasing.GoodsReceipt, 0, len(rows))
	for i := range rows {
		receipt, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *receipt)
	}
	return out, nil
}

// Save creates or updates a receipt and its lines
func (r *GormGoodsReceiptRepository) Save(ctx context.Context, receipt *purchasing.GoodsReceipt) error {
	m := models.GoodsReceiptModelFromDomain(receipt)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.NewDomainError(shared.ErrAlreadyExists.Code, "document number already in use")
			}
			return err
		}
		return replaceGoodsReceiptLines(tx, m)
	})
}

// SaveWithVersion persists a status transition with a compare-and-swap on
// the version the caller read. Lines are frozen once the receipt posts,
// so only the header moves here.
func (r *GormGoodsReceiptRepository) SaveWithVersion(ctx context.Context, receipt *purchasing.GoodsReceipt) error {
	m := models.GoodsReceiptModelFromDomain(receipt)
	result := r.db.WithContext(ctx).
		Model(&models.GoodsReceiptModel{}).
		Where("id = ? AND version = ?", m.ID, m.Version-1).
		Select("status", "notes", "confirmed_by", "confirmed_at",
			"cancelled_by", "cancelled_at", "cancel_reason",
			"version", "updated_at").
		Updates(m)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.ErrConflict.Code, "goods receipt was modified by another transaction")
	}
	return nil
}

func replaceGoodsReceiptLines(tx *gorm.DB, m *models.GoodsReceiptModel) error {
	if len(m.Items) > 0 {
		currentIDs := make([]uuid.UUID, len(m.Items))
		for i, item := range m.Items {
			currentIDs[i] = item.ID
		}
		if err := tx.Where("goods_receipt_id = ? AND id NOT IN ?", m.ID, currentIDs).
			Delete(&models.GoodsReceiptLineModel{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("goods_receipt_id = ?", m.ID).
			Delete(&models.GoodsReceiptLineModel{}).Error; err != nil {
			return err
		}
	}

	for i := range m.Items {
		m.Items[i].GoodsReceiptID = m.ID
		if err := tx.Save(&m.Items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// Ensure GormGoodsReceiptRepository implements GoodsReceiptRepository
var _ purchasing.GoodsReceiptRepository = (*GormGoodsReceiptRepository)(nil)
