package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared"
	"github.com/kardexhq/backend/internal/infrastructure/persistence/models"
)

// GormAdjustmentRepository implements inventory.AdjustmentRepository using GORM
type GormAdjustmentRepository struct {
	db *gorm.DB
}

// NewGormAdjustmentRepository creates a new GormAdjustmentRepository
func NewGormAdjustmentRepository(db *gorm.DB) *GormAdjustmentRepository {
	return &GormAdjustmentRepository{db: db}
}

// FindByID finds an adjustment with its lines by ID
func (r *GormAdjustmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockAdjustment, error) {
	var m models.AdjustmentModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByStore lists adjustments for a store
func (r *GormAdjustmentRepository) FindByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]inventory.StockAdjustment, error) {
	var rows []models.AdjustmentModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.AdjustmentModel{}).
			Preload("Items").
			Where("store_id = ?", storeID),
		filter,
	)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return adjustmentsToDomain(rows), nil
}

// FindByStatus lists adjustments in a given status
func (r *GormAdjustmentRepository) FindByStatus(ctx context.Context, status inventory.AdjustmentStatus, filter shared.Filter) ([]inventory.StockAdjustment, error) {
	var rows []models.AdjustmentModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.AdjustmentModel{}).
			Preload("Items").
			Where("status = ?", status),
		filter,
	)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return adjustmentsToDomain(rows), nil
}

// Save creates or updates an adjustment and its lines
func (r *GormAdjustmentRepository) Save(ctx context.Context, adjustment *inventory.StockAdjustment) error {
	m := models.AdjustmentModelFromDomain(adjustment)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.NewDomainError(shared.ErrAlreadyExists.Code, "document number already in use")
			}
			return err
		}
		return replaceAdjustmentLines(tx, m)
	})
}

// SaveWithVersion persists a status transition with a compare-and-swap on
// the version the caller read
func (r *GormAdjustmentRepository) SaveWithVersion(ctx context.Context, adjustment *inventory.StockAdjustment) error {
	m := models.AdjustmentModelFromDomain(adjustment)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.AdjustmentModel{}).
			Where("id = ? AND version = ?", m.ID, m.Version-1).
			Select("status", "reason", "notes", "attachments",
				"submitted_by", "submitted_at", "approved_by", "approved_at",
				"rejected_by", "rejected_at", "reject_reason",
				"applied_by", "applied_at", "version", "updated_at").
			Updates(m)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError(shared.ErrConflict.Code, "adjustment was modified by another transaction")
		}
		return replaceAdjustmentLines(tx, m)
	})
}

// CountByStore counts adjustments for a store
func (r *GormAdjustmentRepository) CountByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.AdjustmentModel{}).Where("store_id = ?", storeID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// replaceAdjustmentLines makes the stored lines match the aggregate's:
// removed lines are deleted, the rest upserted.
func replaceAdjustmentLines(tx *gorm.DB, m *models.AdjustmentModel) error {
	if len(m.Items) > 0 {
		currentIDs := make([]uuid.UUID, len(m.Items))
		for i, item := range m.Items {
			currentIDs[i] = item.ID
		}
		if err := tx.Where("adjustment_id = ? AND id NOT IN ?", m.ID, currentIDs).
			Delete(&models.AdjustmentLineModel{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("adjustment_id = ?", m.ID).
			Delete(&models.AdjustmentLineModel{}).Error; err != nil {
			return err
		}
	}

	for i := range m.Items {
		m.Items[i].AdjustmentID = m.ID
		if err := tx.Save(&m.Items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormAdjustmentRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
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
func (r *GormAdjustmentRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "created_by":
			query = query.Where("created_by = ?", value)
		case "document_number":
			query = query.Where("document_number = ?", value)
		}
	}
	return query
}

func adjustmentsToDomain(rows []models.AdjustmentModel) []inventory.StockAdjustment {
	out := make([]inventory.StockAdjustment, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out
}

// Ensure GormAdjustmentRepository implements AdjustmentRepository
var _ inventory.AdjustmentRepository = (*GormAdjustmentRepository)(nil)
