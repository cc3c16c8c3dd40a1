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

// GormStockLineRepository implements inventory.StockLineRepository using GORM
type GormStockLineRepository struct {
	db *gorm.DB
}

// NewGormStockLineRepository creates a new GormStockLineRepository
func NewGormStockLineRepository(db *gorm.DB) *GormStockLineRepository {
	return &GormStockLineRepository{db: db}
}

// FindByID finds a stock line by its ID
func (r *GormStockLineRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockLine, error) {
	var m models.StockLineModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain()
}

// FindByStoreAndRef finds the store's stock line for a product ref
func (r *GormStockLineRepository) FindByStoreAndRef(ctx context.Context, storeID uuid.UUID, ref inventory.ProductRef) (*inventory.StockLine, error) {
	productID, variantID := ref.Columns()
	query := r.db.WithContext(ctx).Where("store_id = ?", storeID)
	if productID != nil {
		query = query.Where("product_id = ?", *productID)
	} else {
		query = query.Where("variant_id = ?", *variantID)
	}

	var m models.StockLineModel
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain()
}

// FindByStore lists a store's stock lines
func (r *GormStockLineRepository) FindByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]inventory.StockLine, error) {
	var rows []models.StockLineModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.StockLineModel{}).Where("store_id = ?", storeID),
		filter,
	)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return stockLinesToDomain(rows)
}

// FindByIDs finds multiple stock lines by their IDs
func (r *GormStockLineRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]inventory.StockLine, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.StockLineModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return stockLinesToDomain(rows)
}

// FindLowStock lists the store's lines at or below their minimum level
func (r *GormStockLineRepository) FindLowStock(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]inventory.StockLine, error) {
	var rows []models.StockLineModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.StockLineModel{}).
			Where("store_id = ? AND min_stock_level > 0 AND (quantity - reserved_quantity) <= min_stock_level", storeID),
		filter,
	)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return stockLinesToDomain(rows)
}

// Create inserts a new stock line; one line per (store, ref)
func (r *GormStockLineRepository) Create(ctx context.Context, line *inventory.StockLine) error {
	m := models.StockLineModelFromDomain(line)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewDomainError(shared.ErrAlreadyExists.Code, "stock line already exists for this store and product")
		}
		return err
	}
	return nil
}

// SaveWithVersion persists a mutated line with a compare-and-swap on the
// version the caller read. RowsAffected == 0 means another writer won.
func (r *GormStockLineRepository) SaveWithVersion(ctx context.Context, line *inventory.StockLine) error {
	result := r.db.WithContext(ctx).
		Model(&models.StockLineModel{}).
		Where("id = ? AND version = ?", line.ID, line.Version-1).
		Updates(map[string]interface{}{
			"quantity":          line.Quantity,
			"reserved_quantity": line.ReservedQuantity,
			"average_unit_cost": line.AverageUnitCost,
			"min_stock_level":   line.MinStockLevel,
			"max_stock_level":   line.MaxStockLevel,
			"version":           line.Version,
			"updated_at":        line.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.ErrConflict.Code, "stock line was modified by another transaction")
	}
	return nil
}

// CountByStore counts stock lines in a store
func (r *GormStockLineRepository) CountByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.StockLineModel{}).Where("store_id = ?", storeID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormStockLineRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderBy := ValidateSortField(filter.OrderBy, StockLineSortFields, "created_at")
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
func (r *GormStockLineRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "variant_id":
			query = query.Where("variant_id = ?", value)
		case "has_stock":
			if value == true {
				query = query.Where("quantity - reserved_quantity > 0")
			}
		case "no_stock":
			if value == true {
				query = query.Where("quantity = 0 AND reserved_quantity = 0")
			}
		case "low_stock":
			if value == true {
				query = query.Where("min_stock_level > 0 AND (quantity - reserved_quantity) <= min_stock_level")
			}
		}
	}
	return query
}

func stockLinesToDomain(rows []models.StockLineModel) ([]inventory.StockLine, error) {
	out := make([]inventory.StockLine, 0, len(rows))
	for i := range rows {
		line, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *line)
	}
	return out, nil
}

// Ensure GormStockLineRepository implements StockLineRepository
var _ inventory.StockLineRepository = (*GormStockLineRepository)(nil)
