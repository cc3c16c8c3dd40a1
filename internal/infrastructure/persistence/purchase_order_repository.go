package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kardexhq/backend/internal/domain/purchasing"
	"github.com/kardexhq/backend/internal/domain/shared"
	"github.com/kardexhq/backend/internal/infrastructure/persistence/models"
)

// GormPurchaseOrderRepository implements purchasing.PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// FindByID finds an order with its lines by ID
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*purchasing.PurchaseOrder, error) {
	var m models.PurchaseOrderModel
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

// FindByDocumentNumber finds an order by its document number
func (r *GormPurchaseOrderRepository) FindByDocumentNumber(ctx context.Context, number string) (*purchasing.PurchaseOrder, error) {
	var m models.PurchaseOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("document_number = ?", number).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain()
}

// FindByStore lists orders for a store
func (r *GormPurchaseOrderRepository) FindByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]purchasing.PurchaseOrder, error) {
	var rows []models.PurchaseOrderModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}).
			Preload("Items").
			Where("store_id = ?", storeID),
		filter,
	)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return purchaseOrdersToDomain(rows)
}

// FindByVendor lists orders placed with a vendor
func (r *GormPurchaseOrderRepository) FindByVendor(ctx context.Context, vendorID uuid.UUID, filter shared.Filter) ([]purchasing.PurchaseOrder, error) {
	var rows []models.PurchaseOrderModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}).
			Preload("Items").
			Where("vendor_id = ?", vendorID),
		filter,
	)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return purchaseOrdersToDomain(rows)
}

// FindByStatus lists orders in a given status
func (r *GormPurchaseOrderRepository) FindByStatus(ctx context.Context, status purchasing.PurchaseOrderStatus, filter shared.Filter) ([]purchasing.PurchaseOrder, error) {
	var rows []models.PurchaseOrderModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}).
			Preload("Items").
			Where("status = ?", status),
		filter,
	)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return purchaseOrdersToDomain(rows)
}

// Save creates or updates an order and its lines
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, order *purchasing.PurchaseOrder) error {
	m := models.PurchaseOrderModelFromDomain(order)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.NewDomainError(shared.ErrAlreadyExists.Code, "document number already in use")
			}
			return err
		}
		return replacePurchaseOrderLines(tx, m)
	})
}

// SaveWithVersion persists a status transition with a compare-and-swap on
// the version the caller read. Receipt posting also lands here: the line
// received quantities move together with the header status.
func (r *GormPurchaseOrderRepository) SaveWithVersion(ctx context.Context, order *purchasing.PurchaseOrder) error {
	m := models.PurchaseOrderModelFromDomain(order)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.PurchaseOrderModel{}).
			Where("id = ? AND version = ?", m.ID, m.Version-1).
			Select("status", "total", "notes",
				"submitted_by", "submitted_at", "approved_by", "approved_at",
				"rejected_by", "rejected_at", "reject_reason",
				"cancelled_by", "cancelled_at", "cancel_reason",
				"received_at", "closed_by", "closed_at",
				"version", "updated_at").
			Updates(m)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError(shared.ErrConflict.Code, "purchase order was modified by another transaction")
		}
		return replacePurchaseOrderLines(tx, m)
	})
}

// CountByStore counts orders for a store
func (r *GormPurchaseOrderRepository) CountByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}).Where("store_id = ?", storeID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func replacePurchaseOrderLines(tx *gorm.DB, m *models.PurchaseOrderModel) error {
	if len(m.Items) > 0 {
		currentIDs := make([]uuid.UUID, len(m.Items))
		for i, item := range m.Items {
			currentIDs[i] = item.ID
		}
		if err := tx.Where("purchase_order_id = ? AND id NOT IN ?", m.ID, currentIDs).
			Delete(&models.PurchaseOrderLineModel{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("purchase_order_id = ?", m.ID).
			Delete(&models.PurchaseOrderLineModel{}).Error; err != nil {
			return err
		}
	}

	for i := range m.Items {
		m.Items[i].PurchaseOrderID = m.ID
		if err := tx.Save(&m.Items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormPurchaseOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderBy := ValidateSortField(filter.OrderBy, DocumentSortFields, "created_at")
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(orderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormPurchaseOrderRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "vendor_id":
			query = query.Where("vendor_id = ?", value)
		case "created_by":
			query = query.Where("created_by = ?", value)
		case "document_number":
			query = query.Where("document_number = ?", value)
		}
	}
	return query
}

func purchaseOrdersToDomain(rows []models.PurchaseOrderModel) ([]purchasing.PurchaseOrder, error) {
	out := make([]purchasing.PurchaseOrder, 0, len(rows))
	for i := range rows {
		order, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *order)
	}
	return out, nil
}

// Ensure GormPurchaseOrderRepository implements PurchaseOrderRepository
var _ purchasing.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
