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

// GormTransferRepository implements inventory.TransferRepository using GORM
type GormTransferRepository struct {
	db *gorm.DB
}

// NewGormTransferRepository creates a new GormTransferRepository
func NewGormTransferRepository(db *gorm.DB) *GormTransferRepository {
	return &GormTransferRepository{db: db}
}

// FindByID finds a transfer with its lines by ID
func (r *GormTransferRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockTransfer, error) {
	var m models.TransferModel
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

// FindByStore lists transfers where the store is source or destination
func (r *GormTransferRepository) FindByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]inventory.StockTransfer, error) {
	var rows []models.TransferModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.TransferModel{}).
			Preload("Items").
			Where("from_store_id = ? OR to_store_id = ?", storeID, storeID),
		filter,
	)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return transfersToDomain(rows)
}

// FindByStatus lists transfers in a given status
func (r *GormTransferRepository) FindByStatus(ctx context.Context, status inventory.TransferStatus, filter shared.Filter) ([]inventory.StockTransfer, error) {
	var rows []models.TransferModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.TransferModel{}).
			Preload("Items").
			Where("status = ?", status),
		filter,
	)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return transfersToDomain(rows)
}

// Save creates or updates a transfer and its lines
func (r *GormTransferRepository) Save(ctx context.Context, transfer *inventory.StockTransfer) error {
	m := models.TransferModelFromDomain(transfer)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.NewDomainError(shared.ErrAlreadyExists.Code, "document number already in use")
			}
			return err
		}
		return replaceTransferLines(tx, m)
	})
}

// SaveWithVersion persists a status transition with a compare-and-swap on
// the version the caller read
func (r *GormTransferRepository) SaveWithVersion(ctx context.Context, transfer *inventory.StockTransfer) error {
	m := models.TransferModelFromDomain(transfer)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.TransferModel{}).
			Where("id = ? AND version = ?", m.ID, m.Version-1).
			Select("status", "notes",
				"submitted_by", "submitted_at", "shipped_by", "shipped_at",
				"received_by", "received_at", "cancelled_by", "cancelled_at",
				"cancel_reason", "version", "updated_at").
			Updates(m)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError(shared.ErrConflict.Code, "transfer was modified by another transaction")
		}
		return replaceTransferLines(tx, m)
	})
}

// CountByStore counts transfers touching a store
func (r *GormTransferRepository) CountByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.TransferModel{}).
		Where("from_store_id = ? OR to_store_id = ?", storeID, storeID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func replaceTransferLines(tx *gorm.DB, m *models.TransferModel) error {
	if len(m.Items) > 0 {
		currentIDs := make([]uuid.UUID, len(m.Items))
		for i, item := range m.Items {
			currentIDs[i] = item.ID
		}
		if err := tx.Where("transfer_id = ? AND id NOT IN ?", m.ID, currentIDs).
			Delete(&models.TransferLineModel{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("transfer_id = ?", m.ID).
			Delete(&models.TransferLineModel{}).Error; err != nil {
			return err
		}
	}

	for i := range m.Items {
		m.Items[i].TransferID = m.ID
		if err := tx.Save(&m.Items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormTransferRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
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
func (r *GormTransferRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "from_store_id":
			query = query.Where("from_store_id = ?", value)
		case "to_store_id":
			query = query.Where("to_store_id = ?", value)
		case "document_number":
			query = query.Where("document_number = ?", value)
		}
	}
	return query
}

func transfersToDomain(rows []models.TransferModel) ([]inventory.StockTransfer, error) {
	out := make([]inventory.StockTransfer, 0, len(rows))
	for i := range rows {
		transfer, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *transfer)
	}
	return out, nil
}

// Ensure GormTransferRepository implements TransferRepository
var _ inventory.TransferRepository = (*GormTransferRepository)(nil)
