package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kardexhq/backend/internal/domain/sales"
	"github.com/kardexhq/backend/internal/domain/shared"
	"github.com/kardexhq/backend/internal/infrastructure/persistence/models"
)

// GormSaleRepository implements sales.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID finds a sale with its lines by ID
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Sale, error) {
	var m models.SaleModel
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

// FindByStore lists sales for a store
func (r *GormSaleRepository) FindByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]sales.Sale, error) {
	var rows []models.SaleModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.SaleModel{}).
			Preload("Items").
			Where("store_id = ?", storeID),
		filter,
	)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return salesToDomain(rows)
}

// FindByStatus lists sales in a given status
func (r *GormSaleRepository) FindByStatus(ctx context.Context, status sales.SaleStatus, filter shared.Filter) ([]sales.Sale, error) {
	var rows []models.SaleModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.SaleModel{}).
			Preload("Items").
			Where("status = ?", status),
		filter,
	)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return salesToDomain(rows)
}

// Save creates or updates a sale and its lines
func (r *GormSaleRepository) Save(ctx context.Context, sale *sales.Sale) error {
	m := models.SaleModelFromDomain(sale)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.NewDomainError(shared.ErrAlreadyExists.Code, "document number already in use")
			}
			return err
		}
		return replaceSaleLines(tx, m)
	})
}

// SaveWithVersion persists a status transition with a compare-and-swap on
// the version the caller read
func (r *GormSaleRepository) SaveWithVersion(ctx context.Context, sale *sales.Sale) error {
	m := models.SaleModelFromDomain(sale)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.SaleModel{}).
			Where("id = ? AND version = ?", m.ID, m.Version-1).
			Select("customer_id", "status", "subtotal", "discount_total",
				"tax_total", "total", "notes",
				"completed_by", "completed_at", "voided_by", "voided_at",
				"void_reason", "returned_by", "returned_at",
				"version", "updated_at").
			Updates(m)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError(shared.ErrConflict.Code, "sale was modified by another transaction")
		}
		return replaceSaleLines(tx, m)
	})
}

// CountByStore counts sales for a store
func (r *GormSaleRepository) CountByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.SaleModel{}).Where("store_id = ?", storeID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func replaceSaleLines(tx *gorm.DB, m *models.SaleModel) error {
	if len(m.Items) > 0 {
		currentIDs := make([]uuid.UUID, len(m.Items))
		for i, item := range m.Items {
			currentIDs[i] = item.ID
		}
		if err := tx.Where("sale_id = ? AND id NOT IN ?", m.ID, currentIDs).
			Delete(&models.SaleLineModel{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("sale_id = ?", m.ID).
			Delete(&models.SaleLineModel{}).Error; err != nil {
			return err
		}
	}

	for i := range m.Items {
		m.Items[i].SaleID = m.ID
		if err := tx.Save(&m.Items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormSaleRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
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
func (r *GormSaleRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "created_by":
			query = query.Where("created_by = ?", value)
		case "document_number":
			query = query.Where("document_number = ?", value)
		}
	}
	return query
}

func salesToDomain(rows []models.SaleModel) ([]sales.Sale, error) {
	out := make([]sales.Sale, 0, len(rows))
	for i := range rows {
		sale, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *sale)
	}
	return out, nil
}

// Ensure GormSaleRepository implements SaleRepository
var _ sales.SaleRepository = (*GormSaleRepository)(nil)
